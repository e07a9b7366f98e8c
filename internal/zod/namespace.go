package zod

import (
	"fmt"

	"github.com/reoring/zod2jsonschema/internal/value"
)

// stringFormats are the v4 top-level string format constructors (z.email()).
var stringFormats = []string{
	"email", "url", "uuid", "guid", "cuid", "cuid2", "ulid", "nanoid", "emoji",
	"base64", "base64url", "ipv4", "ipv6", "cidrv4", "cidrv6", "e164", "jwt",
}

// Namespace returns the `z` object handed to modules importing gen.
func Namespace(gen Generation) *value.Object {
	ns := value.NewObject()
	reg := func(name string, fn func(args []any) (any, error)) {
		ns.Set(name, &value.Function{Name: name, Call: fn})
	}
	simple := func(name string, kind Kind) {
		reg(name, func([]any) (any, error) { return New(gen, &Def{Type: kind}), nil })
	}

	simple("string", KindString)
	simple("number", KindNumber)
	simple("bigint", KindBigInt)
	simple("boolean", KindBoolean)
	simple("date", KindDate)
	simple("symbol", KindSymbol)
	simple("undefined", KindUndefined)
	simple("null", KindNull)
	simple("void", KindVoid)
	simple("any", KindAny)
	simple("unknown", KindUnknown)
	simple("never", KindNever)
	simple("nan", KindNaN)
	simple("function", KindFunction)
	simple("custom", KindCustom)
	simple("instanceof", KindCustom)

	reg("literal", func(args []any) (any, error) {
		v := argAt(args, 0)
		vals := []any{v}
		if arr, ok := v.([]any); ok && gen == V4 {
			vals = append([]any(nil), arr...)
		}
		return New(gen, &Def{Type: KindLiteral, Values: vals}), nil
	})
	reg("enum", func(args []any) (any, error) {
		vals, err := enumValues("enum", argAt(args, 0))
		if err != nil {
			return nil, err
		}
		return New(gen, &Def{Type: KindEnum, Values: vals}), nil
	})
	reg("nativeEnum", func(args []any) (any, error) {
		obj, ok := argAt(args, 0).(*value.Object)
		if !ok {
			return nil, fmt.Errorf("z.nativeEnum: expected an enum object, got %s", value.Describe(argAt(args, 0)))
		}
		vals, err := enumValues("nativeEnum", obj)
		if err != nil {
			return nil, err
		}
		return New(gen, &Def{Type: KindEnum, Values: vals}), nil
	})

	object := func(name string, unknown UnknownKeys) {
		reg(name, func(args []any) (any, error) {
			var fields []Field
			if v := argAt(args, 0); !value.IsUndefined(v) {
				var err error
				if fields, err = shapeArg(gen, "z."+name, v); err != nil {
					return nil, err
				}
			}
			return New(gen, &Def{Type: KindObject, Shape: fields, Unknown: unknown}), nil
		})
	}
	object("object", UnknownStrip)
	if gen == V4 {
		object("strictObject", UnknownStrict)
		object("looseObject", UnknownPassthrough)
	}

	reg("array", func(args []any) (any, error) {
		el, err := schemaArg("z.array", args, 0)
		if err != nil {
			return nil, err
		}
		return New(gen, &Def{Type: KindArray, Element: el}), nil
	})
	reg("set", func(args []any) (any, error) {
		el, err := schemaArg("z.set", args, 0)
		if err != nil {
			return nil, err
		}
		return New(gen, &Def{Type: KindSet, Element: el}), nil
	})
	reg("tuple", func(args []any) (any, error) {
		items, err := schemaList("z.tuple", argAt(args, 0))
		if err != nil {
			return nil, err
		}
		def := &Def{Type: KindTuple, Items: items}
		if len(args) > 1 && !value.IsUndefined(args[1]) {
			if def.Rest, err = schemaArg("z.tuple", args, 1); err != nil {
				return nil, err
			}
		}
		return New(gen, def), nil
	})
	reg("record", func(args []any) (any, error) {
		if len(args) == 1 {
			val, err := schemaArg("z.record", args, 0)
			if err != nil {
				return nil, err
			}
			return New(gen, &Def{Type: KindRecord, Key: New(gen, &Def{Type: KindString}), Value: val}), nil
		}
		key, err := schemaArg("z.record", args, 0)
		if err != nil {
			return nil, err
		}
		val, err := schemaArg("z.record", args, 1)
		if err != nil {
			return nil, err
		}
		return New(gen, &Def{Type: KindRecord, Key: key, Value: val}), nil
	})
	reg("map", func(args []any) (any, error) {
		key, err := schemaArg("z.map", args, 0)
		if err != nil {
			return nil, err
		}
		val, err := schemaArg("z.map", args, 1)
		if err != nil {
			return nil, err
		}
		return New(gen, &Def{Type: KindMap, Key: key, Value: val}), nil
	})
	reg("union", func(args []any) (any, error) {
		opts, err := schemaList("z.union", argAt(args, 0))
		if err != nil {
			return nil, err
		}
		return New(gen, &Def{Type: KindUnion, Options: opts}), nil
	})
	reg("discriminatedUnion", func(args []any) (any, error) {
		disc, err := stringArg("z.discriminatedUnion", args, 0)
		if err != nil {
			return nil, err
		}
		opts, err := schemaList("z.discriminatedUnion", argAt(args, 1))
		if err != nil {
			return nil, err
		}
		return New(gen, &Def{Type: KindUnion, Options: opts, Discriminator: disc}), nil
	})
	reg("intersection", func(args []any) (any, error) {
		l, err := schemaArg("z.intersection", args, 0)
		if err != nil {
			return nil, err
		}
		r, err := schemaArg("z.intersection", args, 1)
		if err != nil {
			return nil, err
		}
		return New(gen, &Def{Type: KindIntersection, Left: l, Right: r}), nil
	})
	wrapper := func(name string, kinds ...Kind) {
		reg(name, func(args []any) (any, error) {
			s, err := schemaArg("z."+name, args, 0)
			if err != nil {
				return nil, err
			}
			for _, k := range kinds {
				s = s.wrap(k)
			}
			return s, nil
		})
	}
	wrapper("optional", KindOptional)
	wrapper("nullable", KindNullable)
	wrapper("nullish", KindNullable, KindOptional)
	wrapper("promise", KindPromise)
	wrapper("readonly", KindReadonly)
	reg("lazy", func(args []any) (any, error) {
		fn, ok := argAt(args, 0).(*value.Function)
		if !ok {
			return nil, fmt.Errorf("z.lazy: expected a getter function, got %s", value.Describe(argAt(args, 0)))
		}
		return New(gen, &Def{Type: KindLazy, Getter: fn}), nil
	})
	reg("preprocess", func(args []any) (any, error) {
		out, err := schemaArg("z.preprocess", args, 1)
		if err != nil {
			return nil, err
		}
		in := New(gen, &Def{Type: KindTransform})
		return New(gen, &Def{Type: KindPipe, In: in, Out: out}), nil
	})

	coerce := value.NewObject()
	for _, kind := range []Kind{KindString, KindNumber, KindBoolean, KindBigInt, KindDate} {
		kind := kind
		coerce.Set(string(kind), &value.Function{Name: string(kind), Call: func([]any) (any, error) {
			return New(gen, &Def{Type: kind, Coerce: true}), nil
		}})
	}
	ns.Set("coerce", coerce)

	if gen == V4 {
		for _, format := range stringFormats {
			format := format
			reg(format, func([]any) (any, error) {
				return New(gen, &Def{Type: KindString, Checks: []Check{{Kind: CheckFormat, Value: format}}}), nil
			})
		}
		reg("int", func([]any) (any, error) {
			return New(gen, &Def{Type: KindNumber, Checks: []Check{{Kind: CheckInt}}}), nil
		})
		iso := value.NewObject()
		for _, format := range []string{"datetime", "date", "time", "duration"} {
			format := format
			iso.Set(format, &value.Function{Name: format, Call: func([]any) (any, error) {
				return New(gen, &Def{Type: KindString, Checks: []Check{{Kind: CheckFormat, Value: format}}}), nil
			}})
		}
		ns.Set("iso", iso)
	}
	return ns
}

// ModuleExports returns the export table of the zod package: the namespace as
// `z` and `default`, plus every namespace member as a named export.
func ModuleExports(gen Generation) *value.Object {
	ns := Namespace(gen)
	out := value.NewObject()
	out.Set("z", ns)
	for _, k := range ns.Keys() {
		v, _ := ns.Get(k)
		out.Set(k, v)
	}
	out.Set("default", ns)
	return out
}

func enumValues(fn string, v any) ([]any, error) {
	switch t := v.(type) {
	case []any:
		out := make([]any, 0, len(t))
		for _, e := range t {
			switch e.(type) {
			case string, float64:
				out = append(out, e)
			default:
				return nil, fmt.Errorf("z.%s: unsupported member %s", fn, value.Describe(e))
			}
		}
		return out, nil
	case *value.Object:
		out := make([]any, 0, t.Len())
		for _, k := range t.Keys() {
			e, _ := t.Get(k)
			switch e := e.(type) {
			case string:
				// Skip the reverse entries of numeric TypeScript enums.
				if back, _ := t.Get(e); back != nil {
					if _, num := back.(float64); num {
						continue
					}
				}
				out = append(out, e)
			case float64:
				out = append(out, e)
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("z.%s: expected an array or object, got %s", fn, value.Describe(v))
}
