// Package jsonschema converts Zod schema values into JSON Schema documents.
//
// Conversion follows the library's own toJSONSchema rules: primitives and
// their checks become validation keywords, objects become properties with a
// required list, unions become anyOf, and schemas reached more than once or
// recursively can be lifted into shared definitions referenced by $ref.
// Documents are assembled as invopop/jsonschema values and returned as an
// ordered Document.
package jsonschema

import (
	stdjson "encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"

	json "github.com/goccy/go-json"
	js "github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/reoring/zod2jsonschema/internal/value"
	"github.com/reoring/zod2jsonschema/internal/zod"
)

var (
	// ErrNotSchema is returned when the converted value is not a schema.
	ErrNotSchema = errors.New("value is not a zod schema")
	// ErrUnrepresentable is returned for types without a JSON Schema form
	// when Options.Unrepresentable is UnrepresentableThrow.
	ErrUnrepresentable = errors.New("cannot be represented in JSON Schema")
	// ErrCycle is returned for recursive schemas when Options.Cycles is CyclesThrow.
	ErrCycle = errors.New("cycle detected")
)

// maxLazyDepth bounds chains of lazy schemas resolving to further lazy schemas.
const maxLazyDepth = 64

// formats maps string format checks to JSON Schema format names. Formats
// not listed are emitted under their own name.
var formats = map[string]string{
	"url":      "uri",
	"guid":     "uuid",
	"datetime": "date-time",
}

// Convert returns the JSON Schema document for v, which must be a schema
// value built by the zod runtime.
func Convert(v any, opts Options) (*Document, error) {
	s, ok := zod.From(v)
	if !ok {
		return nil, fmt.Errorf("%w: got %s", ErrNotSchema, value.Describe(v))
	}
	c := &converter{opts: opts.withDefaults(), seen: make(map[*zod.Def]*occurrence)}
	root, err := resolve(s)
	if err != nil {
		return nil, err
	}
	c.root = root.Def()
	if err := c.scan(root, make(map[*zod.Def]bool)); err != nil {
		return nil, err
	}
	c.name()

	out, err := c.build(root)
	if err != nil {
		return nil, err
	}
	if err := c.definitions(out); err != nil {
		return nil, err
	}
	out.Version = c.opts.Target.SchemaURL()

	b, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}
	return ParseDocument(b)
}

// occurrence tracks how a definition is reached during the scan.
type occurrence struct {
	schema *zod.Schema
	count  int
	cycle  bool
	name   string
}

type converter struct {
	opts  Options
	root  *zod.Def
	seen  map[*zod.Def]*occurrence
	order []*occurrence
}

// resolve follows lazy schemas to the schema they stand for.
func resolve(s *zod.Schema) (*zod.Schema, error) {
	for i := 0; s.Kind() == zod.KindLazy; i++ {
		if i == maxLazyDepth {
			return nil, errors.New("lazy schema does not resolve")
		}
		next, err := s.Def().Resolve()
		if err != nil {
			return nil, err
		}
		s = next
	}
	return s, nil
}

// scan counts how often each definition is reached and marks the ones that
// reach themselves.
func (c *converter) scan(s *zod.Schema, path map[*zod.Def]bool) error {
	s, err := resolve(s)
	if err != nil {
		return err
	}
	d := s.Def()
	if o := c.seen[d]; o != nil {
		o.count++
		if path[d] {
			if c.opts.Cycles == CyclesThrow {
				return fmt.Errorf("%w through %s schema", ErrCycle, d.Type)
			}
			o.cycle = true
		}
		return nil
	}
	o := &occurrence{schema: s, count: 1}
	c.seen[d] = o
	c.order = append(c.order, o)

	path[d] = true
	defer delete(path, d)
	for _, child := range c.children(d) {
		if err := c.scan(child, path); err != nil {
			return err
		}
	}
	return nil
}

// children lists the subschemas build emits for d.
func (c *converter) children(d *zod.Def) []*zod.Schema {
	var out []*zod.Schema
	switch d.Type {
	case zod.KindObject:
		for _, f := range d.Shape {
			out = append(out, f.Schema)
		}
		if d.Catchall != nil && d.Catchall.Kind() != zod.KindNever {
			out = append(out, d.Catchall)
		}
	case zod.KindArray:
		out = append(out, d.Element)
	case zod.KindTuple:
		out = append(out, d.Items...)
		if d.Rest != nil {
			out = append(out, d.Rest)
		}
	case zod.KindRecord:
		out = append(out, d.Key, d.Value)
	case zod.KindUnion:
		out = append(out, d.Options...)
	case zod.KindIntersection:
		out = append(out, d.Left, d.Right)
	case zod.KindOptional, zod.KindNullable, zod.KindDefault, zod.KindCatch, zod.KindReadonly, zod.KindPromise:
		out = append(out, d.Inner)
	case zod.KindPipe:
		out = append(out, c.side(d))
	}
	return out
}

// side returns the half of a pipe the document describes.
func (c *converter) side(d *zod.Def) *zod.Schema {
	if c.opts.IO == IOInput {
		return d.In
	}
	return d.Out
}

// name assigns definition names in first-seen order. The root is never
// named; references to it use "#".
func (c *converter) name() {
	n := 0
	for _, o := range c.order {
		if o.schema.Def() == c.root {
			continue
		}
		if o.cycle || (c.opts.Reused == ReusedRef && o.count > 1) {
			o.name = "__schema" + strconv.Itoa(n)
			n++
		}
	}
}

func (c *converter) definitions(out *js.Schema) error {
	defs := make(map[string]*js.Schema)
	for _, o := range c.order {
		if o.name == "" {
			continue
		}
		s, err := c.build(o.schema)
		if err != nil {
			return err
		}
		defs[o.name] = s
	}
	if len(defs) == 0 {
		return nil
	}
	if c.opts.Target == Draft7 {
		setExtra(out, "definitions", defs)
		return nil
	}
	out.Definitions = js.Definitions(defs)
	return nil
}

// ref returns a $ref to s when it was lifted into the definitions and its
// inline schema otherwise.
func (c *converter) ref(s *zod.Schema) (*js.Schema, error) {
	s, err := resolve(s)
	if err != nil {
		return nil, err
	}
	d := s.Def()
	if d == c.root {
		return &js.Schema{Ref: "#"}, nil
	}
	if o := c.seen[d]; o != nil && o.name != "" {
		return &js.Schema{Ref: "#/" + c.opts.Target.DefsKey() + "/" + o.name}, nil
	}
	return c.build(s)
}

func (c *converter) build(s *zod.Schema) (*js.Schema, error) {
	d := s.Def()
	var (
		out *js.Schema
		err error
	)
	switch d.Type {
	case zod.KindString:
		out = c.stringSchema(d)
	case zod.KindNumber:
		out = numberSchema(d)
	case zod.KindBoolean:
		out = &js.Schema{Type: "boolean"}
	case zod.KindNull:
		out = &js.Schema{Type: "null"}
	case zod.KindAny, zod.KindUnknown:
		out = anySchema()
	case zod.KindNever:
		out = &js.Schema{Not: anySchema()}
	case zod.KindLiteral:
		out, err = c.literal(d)
	case zod.KindEnum:
		out = enumSchema(d)
	case zod.KindObject:
		out, err = c.object(d)
	case zod.KindArray:
		out, err = c.array(d)
	case zod.KindTuple:
		out, err = c.tuple(d)
	case zod.KindRecord:
		out, err = c.record(d)
	case zod.KindUnion:
		out, err = c.union(d)
	case zod.KindIntersection:
		out, err = c.intersection(d)
	case zod.KindNullable:
		var inner *js.Schema
		if inner, err = c.ref(d.Inner); err == nil {
			out = &js.Schema{AnyOf: []*js.Schema{inner, {Type: "null"}}}
		}
	case zod.KindOptional, zod.KindPromise:
		out, err = c.ref(d.Inner)
	case zod.KindReadonly:
		if out, err = c.ref(d.Inner); err == nil {
			out = c.sibling(out)
			out.ReadOnly = true
		}
	case zod.KindDefault, zod.KindCatch:
		if out, err = c.ref(d.Inner); err == nil {
			out = c.withDefault(out, d)
		}
	case zod.KindPipe:
		out, err = c.ref(c.side(d))
	default:
		out, err = c.unrepresentable(string(d.Type))
	}
	if err != nil {
		return nil, err
	}
	return c.annotate(out, d), nil
}

func (c *converter) unrepresentable(what string) (*js.Schema, error) {
	if c.opts.Unrepresentable == UnrepresentableAny {
		return anySchema(), nil
	}
	return nil, fmt.Errorf("%s: %w", what, ErrUnrepresentable)
}

// anySchema is the empty schema. The non-nil Extras keeps it encoding as {}
// rather than true.
func anySchema() *js.Schema {
	return &js.Schema{Extras: map[string]any{}}
}

// sibling returns a schema that can carry keywords next to out. Draft 7
// ignores keywords beside $ref, so there the reference moves into allOf.
func (c *converter) sibling(out *js.Schema) *js.Schema {
	if out.Ref == "" || c.opts.Target != Draft7 {
		return out
	}
	return &js.Schema{AllOf: []*js.Schema{out}}
}

func setExtra(s *js.Schema, key string, v any) {
	if s.Extras == nil {
		s.Extras = make(map[string]any)
	}
	s.Extras[key] = v
}

func (c *converter) withDefault(out *js.Schema, d *zod.Def) *js.Schema {
	v, err := d.DefaultValue()
	if err != nil {
		return out
	}
	j, ok := value.ToJSON(v)
	if !ok {
		return out
	}
	out = c.sibling(out)
	if j == nil {
		setExtra(out, "default", nil)
	} else {
		out.Default = j
	}
	return out
}

// annotate applies the description and metadata registered on d.
func (c *converter) annotate(out *js.Schema, d *zod.Def) *js.Schema {
	if d.Description == "" && d.Meta.Len() == 0 {
		return out
	}
	out = c.sibling(out)
	if d.Description != "" {
		out.Description = d.Description
	}
	for _, k := range d.Meta.Keys() {
		v, _ := d.Meta.Get(k)
		switch k {
		case "id", "description":
			continue
		case "title":
			if s, ok := v.(string); ok {
				out.Title = s
				continue
			}
		case "deprecated":
			if b, ok := v.(bool); ok {
				out.Deprecated = b
				continue
			}
		case "examples":
			if j, ok := value.ToJSON(v); ok {
				if list, ok := j.([]any); ok {
					out.Examples = list
					continue
				}
			}
		}
		if j, ok := value.ToJSON(v); ok {
			setExtra(out, k, j)
		}
	}
	return out
}

func (c *converter) stringSchema(d *zod.Def) *js.Schema {
	out := &js.Schema{Type: "string"}
	var patterns []string
	for _, ch := range d.Checks {
		switch ch.Kind {
		case zod.CheckMinLength:
			out.MinLength = atLeast(out.MinLength, ch.Value)
		case zod.CheckMaxLength:
			out.MaxLength = atMost(out.MaxLength, ch.Value)
		case zod.CheckLength:
			out.MinLength, out.MaxLength = count(ch.Value), count(ch.Value)
		case zod.CheckFormat:
			name, _ := ch.Value.(string)
			switch {
			case name == "base64":
				out.ContentEncoding = "base64"
			case formats[name] != "":
				out.Format = formats[name]
			default:
				out.Format = name
			}
		case zod.CheckRegex:
			if re, ok := ch.Value.(*value.Regexp); ok {
				patterns = append(patterns, re.Source)
			}
		case zod.CheckStartsWith:
			patterns = append(patterns, "^"+regexp.QuoteMeta(affix(ch.Value)))
		case zod.CheckEndsWith:
			patterns = append(patterns, regexp.QuoteMeta(affix(ch.Value))+"$")
		case zod.CheckIncludes:
			patterns = append(patterns, regexp.QuoteMeta(affix(ch.Value)))
		}
	}
	if len(patterns) > 0 {
		out.Pattern = patterns[0]
		for _, p := range patterns[1:] {
			extra := &js.Schema{Pattern: p}
			if c.opts.Target == Draft7 {
				extra.Type = "string"
			}
			out.AllOf = append(out.AllOf, extra)
		}
	}
	return out
}

func affix(v any) string {
	s, _ := v.(string)
	return s
}

func count(v any) *uint64 {
	f, _ := v.(float64)
	if f < 0 || math.IsNaN(f) {
		f = 0
	}
	n := uint64(f)
	return &n
}

func atLeast(cur *uint64, v any) *uint64 {
	n := count(v)
	if cur != nil && *cur > *n {
		return cur
	}
	return n
}

func atMost(cur *uint64, v any) *uint64 {
	n := count(v)
	if cur != nil && *cur < *n {
		return cur
	}
	return n
}

type limit struct {
	v         float64
	inclusive bool
}

// tighter keeps the more restrictive of two lower (or upper) bounds.
func tighter(cur *limit, next limit, lower bool) *limit {
	switch {
	case cur == nil:
		return &next
	case next.v == cur.v:
		if !next.inclusive {
			return &next
		}
		return cur
	case lower == (next.v > cur.v):
		return &next
	}
	return cur
}

func number(f float64) stdjson.Number {
	return stdjson.Number(strconv.FormatFloat(f, 'f', -1, 64))
}

func finite(v any) (float64, bool) {
	f, ok := v.(float64)
	return f, ok && !math.IsInf(f, 0) && !math.IsNaN(f)
}

func numberSchema(d *zod.Def) *js.Schema {
	out := &js.Schema{Type: "number"}
	var lo, hi *limit
	for _, ch := range d.Checks {
		switch ch.Kind {
		case zod.CheckInt:
			out.Type = "integer"
		case zod.CheckGreater:
			if f, ok := finite(ch.Value); ok {
				lo = tighter(lo, limit{f, ch.Inclusive}, true)
			}
		case zod.CheckLess:
			if f, ok := finite(ch.Value); ok {
				hi = tighter(hi, limit{f, ch.Inclusive}, false)
			}
		case zod.CheckMultipleOf:
			if f, ok := finite(ch.Value); ok {
				out.MultipleOf = number(f)
			}
		}
	}
	if lo != nil {
		if lo.inclusive {
			out.Minimum = number(lo.v)
		} else {
			out.ExclusiveMinimum = number(lo.v)
		}
	}
	if hi != nil {
		if hi.inclusive {
			out.Maximum = number(hi.v)
		} else {
			out.ExclusiveMaximum = number(hi.v)
		}
	}
	return out
}

// jsonType names the JSON type of a literal value.
func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	}
	return ""
}

// commonType returns the JSON type shared by all values, or "".
func commonType(vals []any) string {
	if len(vals) == 0 {
		return ""
	}
	t := jsonType(vals[0])
	for _, v := range vals[1:] {
		if jsonType(v) != t {
			return ""
		}
	}
	return t
}

func (c *converter) literal(d *zod.Def) (*js.Schema, error) {
	vals := make([]any, 0, len(d.Values))
	for _, v := range d.Values {
		if jsonType(v) == "" {
			return c.unrepresentable("literal " + value.Describe(v))
		}
		vals = append(vals, v)
	}
	out := &js.Schema{Type: commonType(vals)}
	switch {
	case len(vals) == 0:
		return anySchema(), nil
	case len(vals) > 1:
		out.Enum = vals
	case vals[0] == nil:
		setExtra(out, "const", nil)
	default:
		out.Const = vals[0]
	}
	return out, nil
}

func enumSchema(d *zod.Def) *js.Schema {
	vals := append([]any{}, d.Values...)
	return &js.Schema{Type: commonType(vals), Enum: vals}
}

func (c *converter) object(d *zod.Def) (*js.Schema, error) {
	out := &js.Schema{Type: "object", Properties: orderedmap.New[string, *js.Schema]()}
	for _, f := range d.Shape {
		p, err := c.ref(f.Schema)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", f.Name, err)
		}
		out.Properties.Set(f.Name, p)
		if !c.optional(f.Schema) {
			out.Required = append(out.Required, f.Name)
		}
	}
	switch {
	case d.Catchall != nil && d.Catchall.Kind() != zod.KindNever:
		rest, err := c.ref(d.Catchall)
		if err != nil {
			return nil, fmt.Errorf("catchall: %w", err)
		}
		out.AdditionalProperties = rest
	case d.Catchall != nil, d.Unknown == zod.UnknownStrict:
		out.AdditionalProperties = js.FalseSchema
	case d.Unknown == zod.UnknownPassthrough:
		out.AdditionalProperties = anySchema()
	case c.opts.IO == IOOutput:
		out.AdditionalProperties = js.FalseSchema
	}
	return out, nil
}

// optional reports whether a property holding s may be absent on the
// documented side of parsing.
func (c *converter) optional(s *zod.Schema) bool {
	for i := 0; i < maxLazyDepth; i++ {
		d := s.Def()
		switch d.Type {
		case zod.KindOptional, zod.KindUndefined:
			return true
		case zod.KindDefault, zod.KindCatch:
			return c.opts.IO == IOInput
		case zod.KindNullable, zod.KindReadonly, zod.KindPromise:
			s = d.Inner
		case zod.KindPipe:
			s = c.side(d)
		case zod.KindLazy:
			next, err := d.Resolve()
			if err != nil {
				return false
			}
			s = next
		default:
			return false
		}
	}
	return false
}

func (c *converter) array(d *zod.Def) (*js.Schema, error) {
	items, err := c.ref(d.Element)
	if err != nil {
		return nil, fmt.Errorf("array element: %w", err)
	}
	out := &js.Schema{Type: "array", Items: items}
	for _, ch := range d.Checks {
		switch ch.Kind {
		case zod.CheckMinLength:
			out.MinItems = atLeast(out.MinItems, ch.Value)
		case zod.CheckMaxLength:
			out.MaxItems = atMost(out.MaxItems, ch.Value)
		case zod.CheckLength:
			out.MinItems, out.MaxItems = count(ch.Value), count(ch.Value)
		}
	}
	return out, nil
}

func (c *converter) tuple(d *zod.Def) (*js.Schema, error) {
	items := make([]*js.Schema, 0, len(d.Items))
	for i, it := range d.Items {
		s, err := c.ref(it)
		if err != nil {
			return nil, fmt.Errorf("tuple item %d: %w", i, err)
		}
		items = append(items, s)
	}
	var rest *js.Schema
	if d.Rest != nil {
		var err error
		if rest, err = c.ref(d.Rest); err != nil {
			return nil, fmt.Errorf("tuple rest: %w", err)
		}
	}
	out := &js.Schema{Type: "array"}
	if c.opts.Target == Draft7 {
		setExtra(out, "items", items)
		if rest != nil {
			setExtra(out, "additionalItems", rest)
		}
		return out, nil
	}
	out.PrefixItems = items
	out.Items = rest
	return out, nil
}

func (c *converter) record(d *zod.Def) (*js.Schema, error) {
	key, err := c.ref(d.Key)
	if err != nil {
		return nil, fmt.Errorf("record key: %w", err)
	}
	val, err := c.ref(d.Value)
	if err != nil {
		return nil, fmt.Errorf("record value: %w", err)
	}
	return &js.Schema{Type: "object", PropertyNames: key, AdditionalProperties: val}, nil
}

func (c *converter) union(d *zod.Def) (*js.Schema, error) {
	opts := make([]*js.Schema, 0, len(d.Options))
	for i, o := range d.Options {
		s, err := c.ref(o)
		if err != nil {
			return nil, fmt.Errorf("union option %d: %w", i, err)
		}
		opts = append(opts, s)
	}
	if d.Discriminator != "" {
		return &js.Schema{OneOf: opts}, nil
	}
	return &js.Schema{AnyOf: opts}, nil
}

func (c *converter) intersection(d *zod.Def) (*js.Schema, error) {
	l, err := c.ref(d.Left)
	if err != nil {
		return nil, fmt.Errorf("intersection: %w", err)
	}
	r, err := c.ref(d.Right)
	if err != nil {
		return nil, fmt.Errorf("intersection: %w", err)
	}
	return &js.Schema{AllOf: []*js.Schema{l, r}}, nil
}
