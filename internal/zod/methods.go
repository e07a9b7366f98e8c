package zod

import (
	"fmt"

	"github.com/reoring/zod2jsonschema/internal/value"
)

// method implements one chainable schema method. Methods never mutate the
// receiver; every call derives a new schema.
type method func(s *Schema, args []any) (any, error)

var methods map[string]method

func init() {
	methods = map[string]method{
		"optional": func(s *Schema, _ []any) (any, error) { return s.wrap(KindOptional), nil },
		"nullable": func(s *Schema, _ []any) (any, error) { return s.wrap(KindNullable), nil },
		"nullish": func(s *Schema, _ []any) (any, error) {
			return s.wrap(KindNullable).wrap(KindOptional), nil
		},
		"readonly": func(s *Schema, _ []any) (any, error) { return s.wrap(KindReadonly), nil },
		"promise":  func(s *Schema, _ []any) (any, error) { return s.wrap(KindPromise), nil },
		"brand":    func(s *Schema, _ []any) (any, error) { return s, nil },
		"default": func(s *Schema, args []any) (any, error) {
			return s.derive(&Def{Type: KindDefault, Inner: s, Default: argAt(args, 0)}), nil
		},
		"prefault": func(s *Schema, args []any) (any, error) {
			return s.derive(&Def{Type: KindDefault, Inner: s, Default: argAt(args, 0)}), nil
		},
		"catch": func(s *Schema, args []any) (any, error) {
			return s.derive(&Def{Type: KindCatch, Inner: s, Default: argAt(args, 0)}), nil
		},
		"describe": func(s *Schema, args []any) (any, error) {
			desc, err := stringArg("describe", args, 0)
			if err != nil {
				return nil, err
			}
			d := s.def.clone()
			d.Description = desc
			return s.derive(d), nil
		},
		"meta":        metaMethod,
		"refine":      addCheck(CheckCustom),
		"superRefine": addCheck(CheckCustom),
		"check":       addCheck(CheckCustom),
		"transform": func(s *Schema, _ []any) (any, error) {
			out := s.derive(&Def{Type: KindTransform})
			return s.derive(&Def{Type: KindPipe, In: s, Out: out}), nil
		},
		"pipe": func(s *Schema, args []any) (any, error) {
			out, err := schemaArg("pipe", args, 0)
			if err != nil {
				return nil, err
			}
			return s.derive(&Def{Type: KindPipe, In: s, Out: out}), nil
		},
		"array": func(s *Schema, _ []any) (any, error) {
			return s.derive(&Def{Type: KindArray, Element: s}), nil
		},
		"or": func(s *Schema, args []any) (any, error) {
			other, err := schemaArg("or", args, 0)
			if err != nil {
				return nil, err
			}
			return s.derive(&Def{Type: KindUnion, Options: []*Schema{s, other}}), nil
		},
		"and": func(s *Schema, args []any) (any, error) {
			other, err := schemaArg("and", args, 0)
			if err != nil {
				return nil, err
			}
			return s.derive(&Def{Type: KindIntersection, Left: s, Right: other}), nil
		},
		"unwrap": func(s *Schema, _ []any) (any, error) {
			switch {
			case s.def.Inner != nil:
				return s.def.Inner, nil
			case s.def.Element != nil:
				return s.def.Element, nil
			}
			return nil, notApplicable("unwrap", s)
		},

		// size and range
		"min":      bound(true, true),
		"max":      bound(false, true),
		"gte":      bound(true, true),
		"lte":      bound(false, true),
		"gt":       bound(true, false),
		"lt":       bound(false, false),
		"length":   lengthMethod,
		"nonempty": nonempty,
		"positive": fixedBound("positive", true, false),
		"negative": fixedBound("negative", false, false),
		"nonnegative": fixedBound("nonnegative", true, true),
		"nonpositive": fixedBound("nonpositive", false, true),
		"multipleOf":  multipleOf,
		"step":        multipleOf,
		"int": func(s *Schema, _ []any) (any, error) {
			if s.def.Type != KindNumber {
				return nil, notApplicable("int", s)
			}
			return s.withCheck(Check{Kind: CheckInt}), nil
		},
		"finite": numberNoop("finite"),
		"safe":   numberNoop("safe"),

		// strings
		"regex": func(s *Schema, args []any) (any, error) {
			if s.def.Type != KindString {
				return nil, notApplicable("regex", s)
			}
			re, ok := argAt(args, 0).(*value.Regexp)
			if !ok {
				return nil, fmt.Errorf("regex: expected a regular expression, got %s", value.Describe(argAt(args, 0)))
			}
			return s.withCheck(Check{Kind: CheckRegex, Value: re}), nil
		},
		"startsWith":  affix(CheckStartsWith),
		"endsWith":    affix(CheckEndsWith),
		"includes":    affix(CheckIncludes),
		"trim":        stringNoop("trim"),
		"toLowerCase": stringNoop("toLowerCase"),
		"toUpperCase": stringNoop("toUpperCase"),
		"normalize":   stringNoop("normalize"),

		// objects
		"extend":      extend,
		"merge":       merge,
		"pick":        pickOmit(true),
		"omit":        pickOmit(false),
		"partial":     partialRequired(true),
		"required":    partialRequired(false),
		"strict":      unknownKeys(UnknownStrict),
		"passthrough": unknownKeys(UnknownPassthrough),
		"loose":       unknownKeys(UnknownPassthrough),
		"strip":       unknownKeys(UnknownStrip),
		"catchall": func(s *Schema, args []any) (any, error) {
			if s.def.Type != KindObject {
				return nil, notApplicable("catchall", s)
			}
			rest, err := schemaArg("catchall", args, 0)
			if err != nil {
				return nil, err
			}
			d := s.def.clone()
			d.Catchall = rest
			return s.derive(d), nil
		},
		"keyof": func(s *Schema, _ []any) (any, error) {
			if s.def.Type != KindObject {
				return nil, notApplicable("keyof", s)
			}
			vals := make([]any, 0, len(s.def.Shape))
			for _, f := range s.def.Shape {
				vals = append(vals, f.Name)
			}
			return s.derive(&Def{Type: KindEnum, Values: vals}), nil
		},

		// enums
		"extract": enumSubset(true),
		"exclude": enumSubset(false),
	}
	for _, f := range append([]string{"datetime", "date", "time", "duration", "ip", "cidr"}, stringFormats...) {
		methods[f] = format(f)
	}
}

func (s *Schema) withCheck(c Check) *Schema {
	d := s.def.clone()
	d.Checks = append(d.Checks, c)
	return s.derive(d)
}

func notApplicable(name string, s *Schema) error {
	return fmt.Errorf("%s is not a function on a %s schema", name, s.def.Type)
}

func metaMethod(s *Schema, args []any) (any, error) {
	if len(args) == 0 {
		if s.def.Meta == nil {
			return value.Undefined, nil
		}
		return s.def.Meta, nil
	}
	obj, ok := args[0].(*value.Object)
	if !ok {
		return nil, fmt.Errorf("meta: expected an object, got %s", value.Describe(args[0]))
	}
	d := s.def.clone()
	merged := value.NewObject()
	if d.Meta != nil {
		for _, k := range d.Meta.Keys() {
			v, _ := d.Meta.Get(k)
			merged.Set(k, v)
		}
	}
	for _, k := range obj.Keys() {
		v, _ := obj.Get(k)
		merged.Set(k, v)
	}
	d.Meta = merged
	if desc, ok := obj.Get("description"); ok {
		if str, ok := desc.(string); ok {
			d.Description = str
		}
	}
	return s.derive(d), nil
}

func addCheck(kind CheckKind) method {
	return func(s *Schema, _ []any) (any, error) {
		return s.withCheck(Check{Kind: kind}), nil
	}
}

// bound implements min/max/gt/gte/lt/lte. On sized kinds (string, array, set)
// min and max constrain the length instead of the value.
func bound(lower, inclusive bool) method {
	return func(s *Schema, args []any) (any, error) {
		n, err := numberArg("bound", args, 0)
		if err != nil {
			return nil, err
		}
		switch s.def.Type {
		case KindString, KindArray, KindSet:
			if !inclusive {
				return nil, notApplicable("exclusive bound", s)
			}
			kind := CheckMaxLength
			if lower {
				kind = CheckMinLength
			}
			return s.withCheck(Check{Kind: kind, Value: n}), nil
		case KindNumber, KindBigInt, KindDate:
			kind := CheckLess
			if lower {
				kind = CheckGreater
			}
			return s.withCheck(Check{Kind: kind, Value: n, Inclusive: inclusive}), nil
		}
		return nil, notApplicable("min/max", s)
	}
}

func fixedBound(name string, lower, inclusive bool) method {
	return func(s *Schema, _ []any) (any, error) {
		if s.def.Type != KindNumber && s.def.Type != KindBigInt {
			return nil, notApplicable(name, s)
		}
		kind := CheckLess
		if lower {
			kind = CheckGreater
		}
		return s.withCheck(Check{Kind: kind, Value: float64(0), Inclusive: inclusive}), nil
	}
}

func lengthMethod(s *Schema, args []any) (any, error) {
	if s.def.Type != KindString && s.def.Type != KindArray {
		return nil, notApplicable("length", s)
	}
	n, err := numberArg("length", args, 0)
	if err != nil {
		return nil, err
	}
	return s.withCheck(Check{Kind: CheckLength, Value: n}), nil
}

func nonempty(s *Schema, _ []any) (any, error) {
	switch s.def.Type {
	case KindString, KindArray, KindSet:
		return s.withCheck(Check{Kind: CheckMinLength, Value: float64(1)}), nil
	}
	return nil, notApplicable("nonempty", s)
}

func multipleOf(s *Schema, args []any) (any, error) {
	if s.def.Type != KindNumber && s.def.Type != KindBigInt {
		return nil, notApplicable("multipleOf", s)
	}
	n, err := numberArg("multipleOf", args, 0)
	if err != nil {
		return nil, err
	}
	return s.withCheck(Check{Kind: CheckMultipleOf, Value: n}), nil
}

func numberNoop(name string) method {
	return func(s *Schema, _ []any) (any, error) {
		if s.def.Type != KindNumber {
			return nil, notApplicable(name, s)
		}
		return s.derive(s.def.clone()), nil
	}
}

func stringNoop(name string) method {
	return func(s *Schema, _ []any) (any, error) {
		if s.def.Type != KindString {
			return nil, notApplicable(name, s)
		}
		return s.derive(s.def.clone()), nil
	}
}

func format(name string) method {
	return func(s *Schema, _ []any) (any, error) {
		if s.def.Type != KindString {
			return nil, notApplicable(name, s)
		}
		return s.withCheck(Check{Kind: CheckFormat, Value: name}), nil
	}
}

func affix(kind CheckKind) method {
	return func(s *Schema, args []any) (any, error) {
		if s.def.Type != KindString {
			return nil, notApplicable(string(kind), s)
		}
		str, err := stringArg(string(kind), args, 0)
		if err != nil {
			return nil, err
		}
		return s.withCheck(Check{Kind: kind, Value: str}), nil
	}
}

func extend(s *Schema, args []any) (any, error) {
	if s.def.Type != KindObject {
		return nil, notApplicable("extend", s)
	}
	fields, err := shapeArg(s.gen, "extend", argAt(args, 0))
	if err != nil {
		return nil, err
	}
	d := s.def.clone()
	d.Shape = mergeShape(d.Shape, fields)
	return s.derive(d), nil
}

func merge(s *Schema, args []any) (any, error) {
	if s.def.Type != KindObject {
		return nil, notApplicable("merge", s)
	}
	other, err := schemaArg("merge", args, 0)
	if err != nil {
		return nil, err
	}
	if other.def.Type != KindObject {
		return nil, fmt.Errorf("merge: expected an object schema, got %s", other.def.Type)
	}
	d := s.def.clone()
	d.Shape = mergeShape(d.Shape, other.def.Shape)
	d.Unknown = other.def.Unknown
	d.Catchall = other.def.Catchall
	return s.derive(d), nil
}

// mergeShape overrides existing keys in place and appends new ones, like an
// object spread.
func mergeShape(base, more []Field) []Field {
	out := append([]Field(nil), base...)
	for _, f := range more {
		replaced := false
		for i := range out {
			if out[i].Name == f.Name {
				out[i] = f
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, f)
		}
	}
	return out
}

func maskArg(name string, args []any) (map[string]bool, error) {
	v := argAt(args, 0)
	if value.IsUndefined(v) {
		return nil, nil
	}
	obj, ok := v.(*value.Object)
	if !ok {
		return nil, fmt.Errorf("%s: expected a key mask object, got %s", name, value.Describe(v))
	}
	mask := make(map[string]bool, obj.Len())
	for _, k := range obj.Keys() {
		if b, _ := obj.Get(k); b == true {
			mask[k] = true
		}
	}
	return mask, nil
}

func pickOmit(keep bool) method {
	name := "omit"
	if keep {
		name = "pick"
	}
	return func(s *Schema, args []any) (any, error) {
		if s.def.Type != KindObject {
			return nil, notApplicable(name, s)
		}
		mask, err := maskArg(name, args)
		if err != nil {
			return nil, err
		}
		d := s.def.clone()
		d.Shape = d.Shape[:0]
		for _, f := range s.def.Shape {
			if mask[f.Name] == keep {
				d.Shape = append(d.Shape, f)
			}
		}
		return s.derive(d), nil
	}
}

func partialRequired(partial bool) method {
	name := "required"
	if partial {
		name = "partial"
	}
	return func(s *Schema, args []any) (any, error) {
		if s.def.Type != KindObject {
			return nil, notApplicable(name, s)
		}
		mask, err := maskArg(name, args)
		if err != nil {
			return nil, err
		}
		d := s.def.clone()
		for i, f := range d.Shape {
			if mask != nil && !mask[f.Name] {
				continue
			}
			switch {
			case partial && f.Schema.def.Type != KindOptional:
				d.Shape[i].Schema = f.Schema.wrap(KindOptional)
			case !partial && f.Schema.def.Type == KindOptional:
				d.Shape[i].Schema = f.Schema.def.Inner
			}
		}
		return s.derive(d), nil
	}
}

func unknownKeys(policy UnknownKeys) method {
	return func(s *Schema, _ []any) (any, error) {
		if s.def.Type != KindObject {
			return nil, notApplicable(string(policy), s)
		}
		d := s.def.clone()
		d.Unknown = policy
		d.Catchall = nil
		return s.derive(d), nil
	}
}

func enumSubset(keep bool) method {
	return func(s *Schema, args []any) (any, error) {
		if s.def.Type != KindEnum {
			return nil, notApplicable("extract/exclude", s)
		}
		list, ok := argAt(args, 0).([]any)
		if !ok {
			return nil, fmt.Errorf("extract/exclude: expected an array, got %s", value.Describe(argAt(args, 0)))
		}
		in := make(map[any]bool, len(list))
		for _, v := range list {
			in[v] = true
		}
		var vals []any
		for _, v := range s.def.Values {
			if in[v] == keep {
				vals = append(vals, v)
			}
		}
		return s.derive(&Def{Type: KindEnum, Values: vals}), nil
	}
}

func argAt(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}
	return value.Undefined
}

func schemaArg(fn string, args []any, i int) (*Schema, error) {
	v := argAt(args, i)
	s, ok := From(v)
	if !ok {
		return nil, fmt.Errorf("%s: argument %d is %s, not a schema", fn, i+1, value.Describe(v))
	}
	return s, nil
}

func stringArg(fn string, args []any, i int) (string, error) {
	v := argAt(args, i)
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: argument %d is %s, not a string", fn, i+1, value.Describe(v))
	}
	return s, nil
}

func numberArg(fn string, args []any, i int) (float64, error) {
	v := argAt(args, i)
	n, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("%s: argument %d is %s, not a number", fn, i+1, value.Describe(v))
	}
	return n, nil
}

func schemaList(fn string, v any) ([]*Schema, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected an array of schemas, got %s", fn, value.Describe(v))
	}
	out := make([]*Schema, 0, len(arr))
	for i := range arr {
		s, err := schemaArg(fn, arr, i)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func shapeArg(gen Generation, fn string, v any) ([]Field, error) {
	obj, ok := v.(*value.Object)
	if !ok {
		return nil, fmt.Errorf("%s: expected a shape object, got %s", fn, value.Describe(v))
	}
	fields := make([]Field, 0, obj.Len())
	for _, k := range obj.Keys() {
		raw, _ := obj.Get(k)
		if g, ok := raw.(*value.Getter); ok {
			// Accessor properties defer to the getter, the v4 idiom for
			// recursive shapes.
			fields = append(fields, Field{Name: k, Schema: New(gen, &Def{Type: KindLazy, Getter: g.Fn})})
			continue
		}
		s, ok := From(raw)
		if !ok {
			return nil, fmt.Errorf("%s: property %q is %s, not a schema", fn, k, value.Describe(raw))
		}
		fields = append(fields, Field{Name: k, Schema: s})
	}
	return fields, nil
}
