package jsonschema

// Unrepresentable decides what happens to types JSON Schema cannot express.
type Unrepresentable string

const (
	// UnrepresentableThrow fails the conversion.
	UnrepresentableThrow Unrepresentable = "throw"
	// UnrepresentableAny emits an empty schema that accepts anything.
	UnrepresentableAny Unrepresentable = "any"
)

// Reused decides how schemas reached more than once are emitted.
type Reused string

const (
	ReusedInline Reused = "inline"
	ReusedRef    Reused = "ref"
)

// Cycles decides how recursive schemas are emitted.
type Cycles string

const (
	CyclesRef   Cycles = "ref"
	CyclesThrow Cycles = "throw"
)

// IO selects which side of a transforming schema is described.
type IO string

const (
	IOOutput IO = "output"
	IOInput  IO = "input"
)

// Options configures Convert. The zero value converts for draft 2020-12,
// fails on unrepresentable types, inlines reused schemas, references cycles
// and describes parsed output.
type Options struct {
	Target          Target
	Unrepresentable Unrepresentable
	Reused          Reused
	Cycles          Cycles
	IO              IO
}

func (o Options) withDefaults() Options {
	if o.Target == "" {
		o.Target = Draft202012
	}
	if o.Unrepresentable == "" {
		o.Unrepresentable = UnrepresentableThrow
	}
	if o.Reused == "" {
		o.Reused = ReusedInline
	}
	if o.Cycles == "" {
		o.Cycles = CyclesRef
	}
	if o.IO == "" {
		o.IO = IOOutput
	}
	return o
}
