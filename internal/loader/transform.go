package loader

import (
	"errors"
	"path/filepath"

	"github.com/evanw/esbuild/pkg/api"
)

// loaders picks the esbuild loader by extension; anything else is TypeScript.
var loaders = map[string]api.Loader{
	".tsx": api.LoaderTSX,
	".js":  api.LoaderJS,
	".mjs": api.LoaderJS,
	".cjs": api.LoaderJS,
	".jsx": api.LoaderJSX,
}

// transform compiles a module source to CommonJS the runtime can execute. The
// inline source map lets runtime errors report positions in the original file.
func transform(path string, src []byte) ([]byte, error) {
	loader, ok := loaders[filepath.Ext(path)]
	if !ok {
		loader = api.LoaderTS
	}
	res := api.Transform(string(src), api.TransformOptions{
		Loader:     loader,
		Format:     api.FormatCommonJS,
		Target:     api.ES2020,
		Sourcefile: path,
		Sourcemap:  api.SourceMapInline,
		LogLevel:   api.LogLevelSilent,
	})
	if len(res.Errors) > 0 {
		msg := res.Errors[0]
		e := &Error{Path: path, Err: errors.New(msg.Text)}
		if loc := msg.Location; loc != nil {
			e.Line, e.Col = loc.Line, loc.Column+1
		}
		return nil, e
	}
	return res.Code, nil
}
