package zod2jsonschema

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/reoring/zod2jsonschema/jsonschema"
)

// Run scans inputDir, converts every schema found and writes the results as
// configured by opts. Finding no schemas is not an error.
func Run(ctx context.Context, inputDir string, opts Options, log Logger) (Report, error) {
	log = orNop(log)
	info, err := os.Stat(inputDir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return Report{}, fmt.Errorf("%w: %s", ErrInputNotFound, inputDir)
	case err != nil:
		return Report{}, fmt.Errorf("stat input: %w", err)
	case !info.IsDir():
		return Report{}, fmt.Errorf("%w: %s", ErrNotDirectory, inputDir)
	}
	if opts.Target == "" {
		opts.Target = Draft202012
	}
	if _, err := jsonschema.ParseTarget(string(opts.Target)); err != nil {
		return Report{}, err
	}

	files, err := Scan(ctx, inputDir, opts.ScanOptions(), log)
	if err != nil {
		return Report{}, err
	}
	agg := Aggregate(files)
	log.Infof("Found %d schema(s) in %d file(s)", len(agg.Schemas), len(files))
	if len(agg.Schemas) == 0 {
		log.Warnf("No schemas found")
		return Report{}, nil
	}

	w := &Writer{Adapter: NewAdapter(nil), Logger: log, Options: opts}
	return w.Write(ctx, agg.Schemas)
}
