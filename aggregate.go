package zod2jsonschema

import (
	"path/filepath"
	"strings"
)

// DroppedExport is a schema discarded because its collision name was taken too.
type DroppedExport struct {
	FilePath string
	Name     string // Name before disambiguation.
	Renamed  string // Collision name that was already in use.
}

// Aggregation is the result of Aggregate.
type Aggregation struct {
	Schemas []SchemaExport
	Dropped []DroppedExport
}

// Flatten returns the schemas of files in encounter order with unique names.
// See Aggregate for the collision rule.
func Flatten(files []SchemaFile) []SchemaExport {
	return Aggregate(files).Schemas
}

// Aggregate flattens files in order. A name seen before is rewritten to
// "{fileBase}_{name}", where fileBase is the file name without its extension;
// when that name is taken as well the export is dropped.
func Aggregate(files []SchemaFile) Aggregation {
	var out Aggregation
	seen := make(map[string]bool)
	for _, f := range files {
		base := fileBase(f.FilePath)
		for _, s := range f.Schemas {
			name := s.Name
			if seen[name] {
				name = base + "_" + s.Name
				if seen[name] {
					out.Dropped = append(out.Dropped, DroppedExport{FilePath: f.FilePath, Name: s.Name, Renamed: name})
					continue
				}
			}
			seen[name] = true
			out.Schemas = append(out.Schemas, SchemaExport{Name: name, Schema: s.Schema})
		}
	}
	return out
}

func fileBase(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
