// Package zod is the in-memory Zod runtime the loader exposes to evaluated
// modules. Calling into the namespace builds *Schema values whose definitions
// the jsonschema converter walks. Schemas of both library generations share one
// definition model; they differ only in the marker shape they expose (v4:
// `_zod.def`, v3: `_def`).
package zod

import (
	"fmt"
	"strings"

	"github.com/reoring/zod2jsonschema/internal/value"
)

// Generation identifies the major library version a schema was built with.
type Generation int

const (
	V4 Generation = iota
	V3
)

func (g Generation) String() string {
	if g == V3 {
		return "v3"
	}
	return "v4"
}

// Kind is the definition type of a schema (`def.type` in v4).
type Kind string

const (
	KindString       Kind = "string"
	KindNumber       Kind = "number"
	KindBigInt       Kind = "bigint"
	KindBoolean      Kind = "boolean"
	KindDate         Kind = "date"
	KindSymbol       Kind = "symbol"
	KindUndefined    Kind = "undefined"
	KindNull         Kind = "null"
	KindVoid         Kind = "void"
	KindAny          Kind = "any"
	KindUnknown      Kind = "unknown"
	KindNever        Kind = "never"
	KindNaN          Kind = "nan"
	KindLiteral      Kind = "literal"
	KindEnum         Kind = "enum"
	KindObject       Kind = "object"
	KindArray        Kind = "array"
	KindTuple        Kind = "tuple"
	KindRecord       Kind = "record"
	KindMap          Kind = "map"
	KindSet          Kind = "set"
	KindUnion        Kind = "union"
	KindIntersection Kind = "intersection"
	KindOptional     Kind = "optional"
	KindNullable     Kind = "nullable"
	KindDefault      Kind = "default"
	KindCatch        Kind = "catch"
	KindReadonly     Kind = "readonly"
	KindLazy         Kind = "lazy"
	KindPromise      Kind = "promise"
	KindPipe         Kind = "pipe"
	KindTransform    Kind = "transform"
	KindFunction     Kind = "function"
	KindCustom       Kind = "custom"
)

// TypeName returns the v3 spelling of the kind (for example "ZodString").
func (k Kind) TypeName() string {
	switch k {
	case KindBigInt:
		return "ZodBigInt"
	case KindNaN:
		return "ZodNaN"
	case KindTransform:
		return "ZodEffects"
	}
	s := string(k)
	if s == "" {
		return "Zod"
	}
	return "Zod" + strings.ToUpper(s[:1]) + s[1:]
}

// UnknownKeys is the object policy for keys outside the shape.
type UnknownKeys string

const (
	UnknownStrip       UnknownKeys = "strip"
	UnknownStrict      UnknownKeys = "strict"
	UnknownPassthrough UnknownKeys = "passthrough"
)

// CheckKind names a refinement recorded on a schema.
type CheckKind string

const (
	CheckMinLength  CheckKind = "min_length"
	CheckMaxLength  CheckKind = "max_length"
	CheckLength     CheckKind = "length_equals"
	CheckGreater    CheckKind = "greater_than"
	CheckLess       CheckKind = "less_than"
	CheckMultipleOf CheckKind = "multiple_of"
	CheckInt        CheckKind = "int"
	CheckFormat     CheckKind = "string_format"
	CheckRegex      CheckKind = "regex"
	CheckStartsWith CheckKind = "starts_with"
	CheckEndsWith   CheckKind = "ends_with"
	CheckIncludes   CheckKind = "includes"
	CheckCustom     CheckKind = "custom"
)

// Check is one refinement. Value holds a float64 bound, a format or affix
// string, or a *value.Regexp depending on Kind. Inclusive applies to bounds.
type Check struct {
	Kind      CheckKind
	Value     any
	Inclusive bool
}

// Field is one entry of an object shape.
type Field struct {
	Name   string
	Schema *Schema
}

// Def is the definition shared by both generations.
type Def struct {
	Type   Kind
	Checks []Check
	Coerce bool

	// object
	Shape    []Field
	Unknown  UnknownKeys
	Catchall *Schema

	// array, set
	Element *Schema

	// tuple
	Items []*Schema
	Rest  *Schema

	// record, map
	Key   *Schema
	Value *Schema

	// union
	Options       []*Schema
	Discriminator string

	// intersection
	Left  *Schema
	Right *Schema

	// optional, nullable, default, catch, readonly, promise
	Inner *Schema

	// pipe; transforms keep their source in In
	In  *Schema
	Out *Schema

	// default, catch: a JSON-ish value or a *value.Function producing one
	Default any

	// literal, enum
	Values []any

	// lazy
	Getter   *value.Function
	resolved *Schema

	Description string
	Meta        *value.Object
}

// Get exposes definition properties in both spellings: `type` (v4) and
// `typeName` (v3).
func (d *Def) Get(key string) (any, bool) {
	switch key {
	case "type":
		return string(d.Type), true
	case "typeName":
		return d.Type.TypeName(), true
	case "checks":
		out := make([]any, 0, len(d.Checks))
		for _, c := range d.Checks {
			out = append(out, string(c.Kind))
		}
		return out, true
	case "description":
		if d.Description == "" {
			return value.Undefined, true
		}
		return d.Description, true
	case "innerType":
		if d.Inner != nil {
			return d.Inner, true
		}
	case "shape":
		if d.Type == KindObject {
			return shapeObject(d.Shape), true
		}
	case "element":
		if d.Element != nil {
			return d.Element, true
		}
	case "options":
		if d.Options != nil {
			return schemasToArray(d.Options), true
		}
	case "values":
		if d.Values != nil {
			return append([]any(nil), d.Values...), true
		}
	}
	return nil, false
}

// Field returns the shape entry named name.
func (d *Def) Field(name string) (*Schema, bool) {
	for _, f := range d.Shape {
		if f.Name == name {
			return f.Schema, true
		}
	}
	return nil, false
}

// DefaultValue returns the default, calling it first when it is a function.
func (d *Def) DefaultValue() (any, error) {
	if fn, ok := d.Default.(*value.Function); ok {
		return fn.Invoke()
	}
	return d.Default, nil
}

// Resolve returns the schema a lazy definition points to. The getter runs once.
func (d *Def) Resolve() (*Schema, error) {
	if d.Type != KindLazy {
		return nil, fmt.Errorf("resolve: %s is not lazy", d.Type)
	}
	if d.resolved != nil {
		return d.resolved, nil
	}
	out, err := d.Getter.Invoke()
	if err != nil {
		return nil, fmt.Errorf("lazy getter: %w", err)
	}
	s, ok := out.(*Schema)
	if !ok {
		return nil, fmt.Errorf("lazy getter returned %s, not a schema", value.Describe(out))
	}
	d.resolved = s
	return s, nil
}

func (d *Def) clone() *Def {
	c := *d
	c.Checks = append([]Check(nil), d.Checks...)
	c.Shape = append([]Field(nil), d.Shape...)
	return &c
}

// Schema is a schema object as seen by evaluated modules.
type Schema struct {
	def *Def
	gen Generation
}

// New returns a schema of generation gen over def.
func New(gen Generation, def *Def) *Schema {
	if def.Type == KindObject && def.Unknown == "" {
		def.Unknown = UnknownStrip
	}
	return &Schema{def: def, gen: gen}
}

// From returns v as a schema when it is one built by this runtime.
func From(v any) (*Schema, bool) {
	s, ok := v.(*Schema)
	return s, ok && s != nil && s.def != nil
}

// Def returns the schema definition.
func (s *Schema) Def() *Def { return s.def }

// Generation reports which marker shape the schema exposes.
func (s *Schema) Generation() Generation { return s.gen }

// Kind is shorthand for s.Def().Type.
func (s *Schema) Kind() Kind { return s.def.Type }

func (s *Schema) String() string { return fmt.Sprintf("Zod%s(%s)", s.gen, s.def.Type) }

// internals is the v4 `_zod` bag.
type internals struct{ s *Schema }

func (in internals) Get(key string) (any, bool) {
	switch key {
	case "def":
		return in.s.def, true
	case "version":
		o := value.NewObject()
		o.Set("major", float64(4))
		return o, true
	}
	return nil, false
}

// Get implements value.Bag: marker properties first, then definition
// shortcuts, then bound methods.
func (s *Schema) Get(key string) (any, bool) {
	switch s.gen {
	case V4:
		switch key {
		case "_zod":
			return internals{s: s}, true
		case "def":
			return s.def, true
		case "type":
			return string(s.def.Type), true
		}
	case V3:
		if key == "_def" {
			return s.def, true
		}
	}
	switch key {
	case "description":
		if s.def.Description == "" {
			return value.Undefined, true
		}
		return s.def.Description, true
	case "shape", "element", "options":
		return s.def.Get(key)
	case "enum":
		if s.def.Type == KindEnum {
			o := value.NewObject()
			for _, v := range s.def.Values {
				if str, ok := v.(string); ok {
					o.Set(str, str)
				}
			}
			return o, true
		}
	}
	if m, ok := methods[key]; ok {
		return s.bind(key, m), true
	}
	return nil, false
}

func (s *Schema) bind(name string, m method) *value.Function {
	return &value.Function{Name: name, Call: func(args []any) (any, error) {
		return m(s, args)
	}}
}

func (s *Schema) derive(def *Def) *Schema { return New(s.gen, def) }

func (s *Schema) wrap(kind Kind) *Schema {
	return s.derive(&Def{Type: kind, Inner: s})
}

func shapeObject(fields []Field) *value.Object {
	o := value.NewObject()
	for _, f := range fields {
		o.Set(f.Name, f.Schema)
	}
	return o
}

func schemasToArray(ss []*Schema) []any {
	out := make([]any, 0, len(ss))
	for _, s := range ss {
		out = append(out, s)
	}
	return out
}
