package zod2jsonschema

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/reoring/zod2jsonschema/internal/loader"
)

// Scan finds the schema exports of every file under rootDir that matches
// opts.Pattern and no opts.Exclude pattern. Files are visited in walk order
// (lexical within each directory) and exports in module-namespace order
// (sorted by name).
//
// A file that fails to load is skipped, with a warning when opts.Verbose is
// set. Only a malformed pattern or an unreadable root fails the scan.
func Scan(ctx context.Context, rootDir string, opts ScanOptions, log Logger) ([]SchemaFile, error) {
	log = orNop(log)
	paths, err := matchFiles(rootDir, opts)
	if err != nil {
		return nil, err
	}
	log.Debugf("Found %d file(s) matching %q", len(paths), patternOrDefault(opts.Pattern))

	ld := loader.New(loader.Options{})
	var out []SchemaFile
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		log.Debugf("Loading %s", p)
		mod, err := ld.Load(p)
		if err != nil {
			if opts.Verbose {
				log.Warnf("Skipping %s: %v", p, err)
			}
			continue
		}
		file := SchemaFile{FilePath: p}
		for _, exp := range mod.Exports {
			if exp.Name == "default" || !IsSchema(exp.Value) {
				continue
			}
			name, ok := exportName(exp.Name, opts.Verbose)
			if !ok {
				continue
			}
			log.Debugf("  %s -> %s", exp.Name, name)
			file.Schemas = append(file.Schemas, SchemaExport{Name: name, Schema: exp.Value})
		}
		if len(file.Schemas) > 0 {
			out = append(out, file)
		}
	}
	return out, nil
}

// exportName returns the name a schema export is emitted under. Exports that
// follow a naming convention are normalized; in verbose mode every other
// schema export is kept under its raw identifier.
func exportName(ident string, verbose bool) (string, bool) {
	if MatchesNamingPattern(ident) {
		return Normalize(ident), true
	}
	return ident, verbose
}

func patternOrDefault(p string) string {
	if p == "" {
		return DefaultPattern
	}
	return p
}

// matchFiles returns the paths (joined to rootDir) of the regular files
// selected by opts.
func matchFiles(rootDir string, opts ScanOptions) ([]string, error) {
	pattern := patternOrDefault(opts.Pattern)
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("pattern %q: %w", pattern, doublestar.ErrBadPattern)
	}
	for _, ex := range opts.Exclude {
		if !doublestar.ValidatePattern(ex) {
			return nil, fmt.Errorf("exclude pattern %q: %w", ex, doublestar.ErrBadPattern)
		}
	}
	rel, err := doublestar.Glob(os.DirFS(rootDir), pattern, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", rootDir, err)
	}
	out := make([]string, 0, len(rel))
	for _, r := range rel {
		if excluded(r, opts.Exclude) {
			continue
		}
		out = append(out, filepath.Join(rootDir, filepath.FromSlash(r)))
	}
	return out, nil
}

func excluded(rel string, patterns []string) bool {
	for _, ex := range patterns {
		if ok, _ := doublestar.Match(ex, rel); ok {
			return true
		}
	}
	return false
}
