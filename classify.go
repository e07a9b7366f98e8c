package zod2jsonschema

import (
	"reflect"

	"github.com/reoring/zod2jsonschema/internal/value"
)

// Marker recognizes one internal representation of a schema object.
type Marker interface {
	Match(v value.Bag) bool
}

// NestedMarker matches values whose Outer property is a structured value
// holding an Inner property (v4: `_zod.def`).
type NestedMarker struct {
	Outer string
	Inner string
}

// Match implements Marker.
func (m NestedMarker) Match(v value.Bag) bool {
	outer, ok := bagProperty(v, m.Outer)
	if !ok {
		return false
	}
	inner, ok := outer.Get(m.Inner)
	return ok && !value.IsUndefined(inner)
}

// FlatMarker matches values whose Key property is itself a non-null
// structured value (v3: `_def`).
type FlatMarker struct {
	Key string
}

// Match implements Marker.
func (m FlatMarker) Match(v value.Bag) bool {
	_, ok := bagProperty(v, m.Key)
	return ok
}

// Markers lists the known schema representations, newest first.
var Markers = []Marker{
	NestedMarker{Outer: "_zod", Inner: "def"},
	FlatMarker{Key: "_def"},
}

// IsSchema reports whether v is a schema object of any known generation.
func IsSchema(v any) bool {
	bag, ok := structured(v)
	if !ok {
		return false
	}
	for _, m := range Markers {
		if m.Match(bag) {
			return true
		}
	}
	return false
}

func bagProperty(v value.Bag, key string) (value.Bag, bool) {
	p, ok := v.Get(key)
	if !ok {
		return nil, false
	}
	return structured(p)
}

// structured returns v as a Bag when it is a non-null structured value.
// Functions expose properties too but never carry a schema marker.
func structured(v any) (value.Bag, bool) {
	if v == nil {
		return nil, false
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil, false
	}
	switch t := v.(type) {
	case *value.Function:
		return nil, false
	case value.Bag:
		return t, true
	}
	return nil, false
}
