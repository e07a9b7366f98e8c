package zod2jsonschema

import "github.com/reoring/zod2jsonschema/jsonschema"

// Target is the JSON Schema dialect written to every document.
type Target = jsonschema.Target

const (
	Draft7      = jsonschema.Draft7
	Draft202012 = jsonschema.Draft202012
)

// Defaults shared by the CLI and DefaultOptions.
const (
	DefaultOutput  = "./json-schemas"
	DefaultPattern = "**/*.ts"
	// CombinedFileName is the document written in combined mode.
	CombinedFileName = "schemas.json"
)

// DefaultExclude keeps test files out of a scan.
var DefaultExclude = []string{"**/*.test.ts", "**/*.spec.ts"}

// Options configures a run.
type Options struct {
	Output   string   // Output directory.
	Combined bool     // Write one schemas.json with a $defs map instead of one file per schema.
	Target   Target   // JSON Schema dialect.
	Format   bool     // Indent output with two spaces.
	Verbose  bool     // Report per-file and per-schema detail; include every schema export.
	Pattern  string   // Inclusion glob, relative to the input directory.
	Exclude  []string // Exclusion globs, applied after Pattern.
	Check    bool     // Compile every emitted document to verify it.
}

// DefaultOptions returns the options the CLI starts from.
func DefaultOptions() Options {
	return Options{
		Output:  DefaultOutput,
		Target:  Draft202012,
		Format:  true,
		Pattern: DefaultPattern,
		Exclude: append([]string(nil), DefaultExclude...),
	}
}

// ScanOptions returns the subset of o the scanner reads.
func (o Options) ScanOptions() ScanOptions {
	return ScanOptions{Verbose: o.Verbose, Pattern: o.Pattern, Exclude: o.Exclude}
}

// ScanOptions configures Scan.
type ScanOptions struct {
	Verbose bool
	Pattern string
	Exclude []string
}

// SchemaExport is one schema found in a module. Schema is owned by the
// loaded module and is only read.
type SchemaExport struct {
	Name   string
	Schema any
}

// SchemaFile holds the qualifying exports of one source file, in export order.
type SchemaFile struct {
	FilePath string
	Schemas  []SchemaExport
}

// Report summarizes a write.
type Report struct {
	Written   []string // Paths of the files written.
	Succeeded int      // Schemas converted and emitted.
	Failed    int      // Schemas that failed to convert or write.
	Invalid   int      // Emitted documents that failed the --check compile.
	Errors    []error  // One entry per failure, in encounter order.
}
