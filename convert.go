package zod2jsonschema

import (
	"errors"

	"github.com/reoring/zod2jsonschema/jsonschema"
)

// Converter turns one schema value into a JSON Schema document.
type Converter interface {
	Convert(schema any, opts jsonschema.Options) (*jsonschema.Document, error)
}

// ConverterFunc adapts a function to Converter.
type ConverterFunc func(schema any, opts jsonschema.Options) (*jsonschema.Document, error)

// Convert implements Converter.
func (f ConverterFunc) Convert(schema any, opts jsonschema.Options) (*jsonschema.Document, error) {
	return f(schema, opts)
}

// DefaultConverter is the built-in converter.
var DefaultConverter Converter = ConverterFunc(jsonschema.Convert)

// adapterOptions: unrepresentable types become {}, reused and recursive
// schemas become $refs, and documents describe parsed output.
var adapterOptions = jsonschema.Options{
	Unrepresentable: jsonschema.UnrepresentableAny,
	Reused:          jsonschema.ReusedRef,
	Cycles:          jsonschema.CyclesRef,
	IO:              jsonschema.IOOutput,
}

// Adapter converts named schemas with fixed options.
type Adapter struct {
	Converter Converter
}

// NewAdapter returns an Adapter over c, or over DefaultConverter when c is nil.
func NewAdapter(c Converter) *Adapter {
	if c == nil {
		c = DefaultConverter
	}
	return &Adapter{Converter: c}
}

// Convert converts schema for target. A document without a title gets name
// as its first key. Failures are returned as *ConvertError.
func (a *Adapter) Convert(schema any, name string, target Target) (*jsonschema.Document, error) {
	conv := a.Converter
	if conv == nil {
		conv = DefaultConverter
	}
	opts := adapterOptions
	opts.Target = target
	doc, err := conv.Convert(schema, opts)
	if err != nil {
		return nil, &ConvertError{Name: name, Err: err}
	}
	if doc == nil {
		return nil, &ConvertError{Name: name, Err: errors.New("converter returned no document")}
	}
	if !doc.Has("title") {
		doc.Prepend("title", name)
	}
	return doc, nil
}
