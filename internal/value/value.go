package value

// Package value defines the runtime values produced when a TypeScript module is
// evaluated by the loader. The model is deliberately small: strings, float64
// numbers, booleans, nil (null), Undefined, []any arrays, ordered *Object
// literals, *Function values and *Regexp literals. Schema objects built by the
// zod runtime are ordinary Go values that expose their properties through Bag.

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	json "github.com/goccy/go-json"
)

// Bag is implemented by structured values that expose named properties.
// Get reports whether the property exists.
type Bag interface {
	Get(key string) (any, bool)
}

// UndefinedValue is the type of Undefined.
type UndefinedValue struct{}

func (UndefinedValue) String() string { return "undefined" }

// Undefined is the JavaScript undefined value.
var Undefined = UndefinedValue{}

// IsUndefined reports whether v is Undefined.
func IsUndefined(v any) bool {
	_, ok := v.(UndefinedValue)
	return ok
}

// IsNullish reports whether v is null (nil) or Undefined.
func IsNullish(v any) bool { return v == nil || IsUndefined(v) }

// ErrNotCallable is returned when invoking a function whose body is not evaluable.
var ErrNotCallable = errors.New("function body is not evaluable")

// Function is a callable runtime value. Call is nil for functions that only
// stand for an identity and cannot be invoked.
type Function struct {
	Name string
	Call func(args []any) (any, error)
}

// Invoke calls the function with args.
func (f *Function) Invoke(args ...any) (any, error) {
	if f == nil || f.Call == nil {
		name := "anonymous"
		if f != nil && f.Name != "" {
			name = f.Name
		}
		return nil, fmt.Errorf("%s: %w", name, ErrNotCallable)
	}
	return f.Call(args)
}

// Get exposes the "name" property like a JavaScript function object.
func (f *Function) Get(key string) (any, bool) {
	if key == "name" {
		return f.Name, true
	}
	return nil, false
}

// Getter is an accessor property of an object literal. Reading the property
// through the loader calls Fn.
type Getter struct {
	Fn *Function
}

// Regexp is a regular expression literal.
type Regexp struct {
	Source string
	Flags  string
}

func (r *Regexp) String() string { return "/" + r.Source + "/" + r.Flags }

// Get exposes source and flags.
func (r *Regexp) Get(key string) (any, bool) {
	switch key {
	case "source":
		return r.Source, true
	case "flags":
		return r.Flags, true
	}
	return nil, false
}

// TypeOf mirrors the JavaScript typeof operator for runtime values.
func TypeOf(v any) string {
	switch v.(type) {
	case UndefinedValue:
		return "undefined"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case *Function:
		return "function"
	default:
		return "object"
	}
}

// Describe renders v for diagnostics.
func Describe(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(t)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case UndefinedValue:
		return "undefined"
	case *Function:
		if t.Name != "" {
			return "function " + t.Name
		}
		return "function"
	case *Regexp:
		return t.String()
	case *Getter:
		return "getter"
	case []any:
		return fmt.Sprintf("array(%d)", len(t))
	case *Object:
		return fmt.Sprintf("object(%d keys)", t.Len())
	default:
		return fmt.Sprintf("%T", v)
	}
}

// ToJSON converts a runtime value into a JSON-compatible value. Objects keep
// their key order (as *Object, which marshals itself). Undefined, functions and
// regular expressions have no JSON form and report false.
func ToJSON(v any) (any, bool) {
	switch t := v.(type) {
	case nil, string, float64, bool:
		return t, true
	case []any:
		out := make([]any, 0, len(t))
		for _, e := range t {
			if IsUndefined(e) {
				out = append(out, nil)
				continue
			}
			j, ok := ToJSON(e)
			if !ok {
				return nil, false
			}
			out = append(out, j)
		}
		return out, true
	case *Object:
		out := NewObject()
		for _, k := range t.Keys() {
			e, _ := t.Get(k)
			if IsUndefined(e) {
				continue
			}
			j, ok := ToJSON(e)
			if !ok {
				return nil, false
			}
			out.Set(k, j)
		}
		return out, true
	}
	return nil, false
}

// Object is an ordered property bag produced by object literals.
type Object struct {
	keys  []string
	props map[string]any
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{props: make(map[string]any)}
}

// Get returns the property stored under key.
func (o *Object) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.props[key]
	return v, ok
}

// Set stores v under key, keeping the position of an existing key.
func (o *Object) Set(key string, v any) {
	if _, ok := o.props[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.props[key] = v
}

// Delete removes key and reports whether it was present.
func (o *Object) Delete(key string) bool {
	if _, ok := o.props[key]; !ok {
		return false
	}
	delete(o.props, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns the property names in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return append([]string(nil), o.keys...)
}

// Len returns the number of properties.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// MarshalJSON encodes the object with its keys in insertion order.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(o.props[k])
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
