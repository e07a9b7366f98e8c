package zod2jsonschema

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	sjs "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/reoring/zod2jsonschema/jsonschema"
)

// Writer converts schemas and writes them under Options.Output.
type Writer struct {
	Adapter *Adapter
	Logger  Logger
	Options Options
}

// Write dispatches to WriteCombined or WriteSeparate according to Options.Combined.
func (w *Writer) Write(ctx context.Context, schemas []SchemaExport) (Report, error) {
	if w.Options.Combined {
		return w.WriteCombined(ctx, schemas)
	}
	return w.WriteSeparate(ctx, schemas)
}

// WriteSeparate writes {Output}/{name}.json for every schema. Conversion and
// write failures are counted and the loop continues.
func (w *Writer) WriteSeparate(ctx context.Context, schemas []SchemaExport) (Report, error) {
	var rep Report
	if err := w.prepare(); err != nil {
		return rep, err
	}
	log := orNop(w.Logger)
	for _, s := range schemas {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		doc, err := w.convert(s, &rep)
		if err != nil {
			continue
		}
		if !doc.Has("$schema") {
			doc.Prepend("$schema", w.target().SchemaURL())
		}
		path := filepath.Join(w.Options.Output, s.Name+".json")
		if err := w.writeFile(path, doc); err != nil {
			w.fail(&rep, s.Name, err)
			continue
		}
		rep.Written = append(rep.Written, path)
		rep.Succeeded++
		log.Debugf("Wrote %s", path)
	}
	w.tally(rep)
	return rep, nil
}

// WriteCombined writes every schema under $defs of {Output}/schemas.json.
// Individual documents lose their $schema; the combined one carries it once.
func (w *Writer) WriteCombined(ctx context.Context, schemas []SchemaExport) (Report, error) {
	var rep Report
	if err := w.prepare(); err != nil {
		return rep, err
	}
	defs := jsonschema.NewDocument()
	for _, s := range schemas {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		doc, err := w.convert(s, &rep)
		if err != nil {
			continue
		}
		doc.Delete("$schema")
		defs.Set(s.Name, doc)
		rep.Succeeded++
	}
	root := jsonschema.NewDocument()
	root.Set("$schema", w.target().SchemaURL())
	root.Set("$defs", defs)
	path := filepath.Join(w.Options.Output, CombinedFileName)
	if err := w.writeFile(path, root); err != nil {
		return rep, err
	}
	rep.Written = append(rep.Written, path)
	orNop(w.Logger).Debugf("Wrote %s with %d definition(s)", path, defs.Len())
	w.tally(rep)
	return rep, nil
}

func (w *Writer) target() Target {
	if w.Options.Target == "" {
		return Draft202012
	}
	return w.Options.Target
}

func (w *Writer) prepare() error {
	if w.Options.Output == "" {
		w.Options.Output = DefaultOutput
	}
	if err := os.MkdirAll(w.Options.Output, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return nil
}

// convert runs the adapter and, with Options.Check, compiles the result.
// A failed check is counted but the document is still emitted.
func (w *Writer) convert(s SchemaExport, rep *Report) (*jsonschema.Document, error) {
	ad := w.Adapter
	if ad == nil {
		ad = NewAdapter(nil)
	}
	doc, err := ad.Convert(s.Schema, s.Name, w.target())
	if err != nil {
		w.fail(rep, s.Name, err)
		return nil, err
	}
	if w.Options.Check {
		if err := Check(doc, w.target()); err != nil {
			rep.Invalid++
			rep.Errors = append(rep.Errors, fmt.Errorf("check schema %q: %w", s.Name, err))
			orNop(w.Logger).Warnf("Schema %s does not compile: %v", s.Name, err)
		}
	}
	return doc, nil
}

func (w *Writer) fail(rep *Report, name string, err error) {
	rep.Failed++
	rep.Errors = append(rep.Errors, err)
	if w.Options.Verbose {
		orNop(w.Logger).Warnf("Failed %s: %v", name, err)
	}
}

func (w *Writer) writeFile(path string, doc *jsonschema.Document) error {
	b, err := doc.Encode(w.Options.Format)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

func (w *Writer) tally(rep Report) {
	log := orNop(w.Logger)
	log.Infof("Successfully converted %d schema(s)", rep.Succeeded)
	if rep.Failed > 0 {
		log.Warnf("Failed to convert %d schema(s)", rep.Failed)
	}
	if rep.Invalid > 0 {
		log.Warnf("%d schema(s) failed the compile check", rep.Invalid)
	}
}

// Check compiles doc as a JSON Schema of the target dialect.
func Check(doc *jsonschema.Document, target Target) error {
	b, err := doc.Encode(false)
	if err != nil {
		return err
	}
	c := sjs.NewCompiler()
	c.Draft = sjs.Draft2020
	if target == Draft7 {
		c.Draft = sjs.Draft7
	}
	const url = "mem:schema.json"
	if err := c.AddResource(url, bytes.NewReader(b)); err != nil {
		return err
	}
	_, err = c.Compile(url)
	return err
}
