// Package loader evaluates TypeScript modules that define Zod schemas.
//
// Sources are compiled to CommonJS with esbuild and run in a goja runtime.
// Imports go through goja_nodejs/require: relative specifiers resolve to
// .ts/.tsx/.mts/.cts/.js/.mjs files or index files, bare specifiers only to the
// registered builtins (the zod entry points by default). Values crossing the
// runtime boundary are converted to the internal/value model, so exported
// schemas come back as the *zod.Schema values the builtins created.
package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/require"
	json "github.com/goccy/go-json"

	"github.com/reoring/zod2jsonschema/internal/value"
	"github.com/reoring/zod2jsonschema/internal/zod"
)

// ErrUnresolved is returned for an import that names neither a builtin module
// nor an existing relative file.
var ErrUnresolved = errors.New("cannot resolve module")

// maxCallStack bounds recursion in module code.
const maxCallStack = 4096

// Error is a module load failure. Line and Col are zero when the failure has
// no source position in Path (for example an unreadable file, or a failure
// inside an imported module).
type Error struct {
	Path string
	Line int
	Col  int
	Err  error
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %v", e.Path, e.Line, e.Col, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Export is one named export of a module.
type Export struct {
	Name  string
	Value any
}

// Module is an evaluated module. Exports are sorted by name, the order of an
// ES module namespace object.
type Module struct {
	Path    string
	Exports []Export
}

// Lookup returns the export called name.
func (m *Module) Lookup(name string) (any, bool) {
	for _, e := range m.Exports {
		if e.Name == name {
			return e.Value, true
		}
	}
	return nil, false
}

// Namespace returns the module namespace object (`import * as ns`).
func (m *Module) Namespace() *value.Object {
	ns := value.NewObject()
	for _, e := range m.Exports {
		ns.Set(e.Name, e.Value)
	}
	return ns
}

// Options configures a Loader.
type Options struct {
	// Builtins maps bare module specifiers to their export tables. Nil selects
	// DefaultBuiltins.
	Builtins map[string]*value.Object
}

// DefaultBuiltins returns the zod entry points: "zod", "zod/v4", "zod/mini"
// and "zod/v4/mini" resolve to the v4 runtime, "zod/v3" to the v3 runtime.
func DefaultBuiltins() map[string]*value.Object {
	v4 := zod.ModuleExports(zod.V4)
	v3 := zod.ModuleExports(zod.V3)
	return map[string]*value.Object{
		"zod":         v4,
		"zod/v4":      v4,
		"zod/mini":    v4,
		"zod/v4/mini": v4,
		"zod/v3":      v3,
	}
}

type entry struct {
	mod *Module
	err error
}

// Loader loads modules into one runtime and caches them by absolute path,
// failures included. Modules imported by several files are evaluated once.
// A Loader is not safe for concurrent use.
type Loader struct {
	rt    *goja.Runtime
	req   *require.RequireModule
	br    *bridge
	cache map[string]*entry
}

// New returns a Loader with a fresh runtime and an empty module cache.
func New(opts Options) *Loader {
	builtins := opts.Builtins
	if builtins == nil {
		builtins = DefaultBuiltins()
	}
	rt := goja.New()
	rt.SetMaxCallStackSize(maxCallStack)
	br := newBridge(rt)

	reg := require.NewRegistry(require.WithLoader(sourceLoader))
	for name, exports := range builtins {
		exports := exports
		reg.RegisterNativeModule(name, func(_ *goja.Runtime, module *goja.Object) {
			_ = module.Set("exports", br.toJS(exports))
		})
	}
	l := &Loader{rt: rt, br: br, cache: make(map[string]*entry)}
	l.req = reg.Enable(rt)
	_ = rt.Set("console", silentConsole(rt))
	return l
}

// Load evaluates the module at path, or returns the cached result.
func (l *Loader) Load(path string) (*Module, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	if e, ok := l.cache[abs]; ok {
		return e.mod, e.err
	}
	e := &entry{}
	e.mod, e.err = l.load(abs)
	l.cache[abs] = e
	return e.mod, e.err
}

func (l *Loader) load(abs string) (*Module, error) {
	if _, ok := resolveFile(abs); !ok {
		return nil, &Error{Path: abs, Err: fmt.Errorf("%w %q", ErrUnresolved, abs)}
	}
	exports, err := l.req.Require(abs)
	if err != nil {
		return nil, l.fail(abs, err)
	}
	obj, ok := exports.(*goja.Object)
	if !ok {
		return &Module{Path: abs}, nil
	}
	names := obj.Keys()
	sort.Strings(names)
	mod := &Module{Path: abs}
	for _, name := range names {
		var v any
		if ex := l.rt.Try(func() { v = l.br.fromJS(obj.Get(name)) }); ex != nil {
			return nil, l.fail(abs, ex)
		}
		mod.Exports = append(mod.Exports, Export{Name: name, Value: v})
	}
	return mod, nil
}

// fail converts a require or runtime failure into *Error for path. Positions
// are kept only when they point into path itself.
func (l *Loader) fail(path string, err error) error {
	var le *Error
	if errors.As(err, &le) {
		if le.Path == path {
			return le
		}
		return &Error{Path: path, Err: le}
	}
	out := &Error{Path: path, Err: err}
	var ex *goja.Exception
	if errors.As(err, &ex) {
		if v := ex.Value(); v != nil {
			out.Err = errors.New(v.String())
		}
		for _, f := range ex.Stack() {
			if f.SrcName() != path {
				continue
			}
			if p := f.Position(); p.Line > 0 {
				out.Line, out.Col = p.Line, p.Column
				break
			}
		}
	}
	if errors.Is(err, require.InvalidModuleError) {
		out.Err = fmt.Errorf("%w: %v", ErrUnresolved, out.Err)
	}
	return out
}

// extensions are tried, in order, for extensionless relative specifiers.
var extensions = []string{".ts", ".tsx", ".mts", ".cts", ".js", ".mjs"}

// resolveFile maps a require path to the module file it names: the path
// itself, a TypeScript source behind a .js specifier, the path plus an
// extension, or an index file of the directory.
func resolveFile(base string) (string, bool) {
	candidates := []string{base}
	ext := filepath.Ext(base)
	switch ext {
	case ".js", ".jsx":
		stem := strings.TrimSuffix(base, ext)
		candidates = append(candidates, stem+".ts", stem+".tsx")
	case ".mjs":
		candidates = append(candidates, strings.TrimSuffix(base, ext)+".mts")
	case ".cjs":
		candidates = append(candidates, strings.TrimSuffix(base, ext)+".cts")
	}
	for _, e := range extensions {
		candidates = append(candidates, base+e)
	}
	for _, e := range extensions {
		candidates = append(candidates, filepath.Join(base, "index"+e))
	}
	for _, c := range candidates {
		if fi, err := os.Stat(c); err == nil && fi.Mode().IsRegular() {
			return c, true
		}
	}
	return "", false
}

// sourceLoader serves module sources to the require registry. A path that
// resolves to another file gets a stub re-exporting the canonical module, so
// every specifier of one file shares one module instance. Packages and JSON
// files are never loaded from disk.
func sourceLoader(path string) ([]byte, error) {
	if filepath.Ext(path) == ".json" || inNodeModules(path) {
		return nil, require.ModuleFileDoesNotExistError
	}
	file, ok := resolveFile(path)
	if !ok {
		return nil, require.ModuleFileDoesNotExistError
	}
	if file != path {
		quoted, err := json.Marshal(file)
		if err != nil {
			return nil, err
		}
		return []byte("module.exports = require(" + string(quoted) + ");\n"), nil
	}
	src, err := os.ReadFile(file)
	if err != nil {
		return nil, &Error{Path: file, Err: err}
	}
	return transform(file, src)
}

func inNodeModules(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "node_modules" {
			return true
		}
	}
	return false
}

func silentConsole(rt *goja.Runtime) *goja.Object {
	console := rt.NewObject()
	for _, name := range []string{"log", "info", "warn", "error", "debug"} {
		_ = console.Set(name, func(goja.FunctionCall) goja.Value { return goja.Undefined() })
	}
	return console
}
