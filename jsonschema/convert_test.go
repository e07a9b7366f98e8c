package jsonschema_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	json "github.com/goccy/go-json"
	sjs "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/reoring/zod2jsonschema/internal/loader"
	"github.com/reoring/zod2jsonschema/jsonschema"
)

// adapterOptions are the options batch conversion uses.
var adapterOptions = jsonschema.Options{
	Unrepresentable: jsonschema.UnrepresentableAny,
	Reused:          jsonschema.ReusedRef,
	Cycles:          jsonschema.CyclesRef,
	IO:              jsonschema.IOOutput,
}

// loadExport evaluates src as a module and returns the named export.
func loadExport(t *testing.T, src, name string) any {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "schemas.ts")
	if err := os.WriteFile(p, []byte(src), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	m, err := loader.New(loader.Options{}).Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	v, ok := m.Lookup(name)
	if !ok {
		t.Fatalf("export %q missing", name)
	}
	return v
}

func convert(t *testing.T, src, name string, opts jsonschema.Options) *jsonschema.Document {
	t.Helper()
	doc, err := jsonschema.Convert(loadExport(t, src, name), opts)
	if err != nil {
		t.Fatalf("convert %s: %v", name, err)
	}
	return doc
}

// normalize decodes JSON into generic values so comparisons ignore key order.
func normalize(t *testing.T, b []byte) any {
	t.Helper()
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		t.Fatalf("unmarshal %s: %v", b, err)
	}
	return v
}

func assertJSON(t *testing.T, doc *jsonschema.Document, want string) {
	t.Helper()
	got, err := doc.Encode(false)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !reflect.DeepEqual(normalize(t, got), normalize(t, []byte(want))) {
		t.Fatalf("document mismatch\n got=%s\nwant=%s", got, want)
	}
}

// compile checks doc against its dialect's metaschema.
func compile(t *testing.T, doc *jsonschema.Document, draft *sjs.Draft) *sjs.Schema {
	t.Helper()
	b, err := doc.Encode(false)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	c := sjs.NewCompiler()
	c.Draft = draft
	if err := c.AddResource("mem:schema", bytes.NewReader(b)); err != nil {
		t.Fatalf("add resource: %v", err)
	}
	s, err := c.Compile("mem:schema")
	if err != nil {
		t.Fatalf("compile %s: %v", b, err)
	}
	return s
}

const userSrc = `
import { z } from "zod";

export const UserSchema = z.object({
  id: z.string().uuid(),
  name: z.string().min(1).max(100),
  age: z.number().int().nonnegative().optional(),
  role: z.enum(["admin", "user"]).default("user"),
  email: z.string().email().describe("primary address"),
});
`

func TestConvert_ObjectSnapshot(t *testing.T) {
	doc := convert(t, userSrc, "UserSchema", adapterOptions)
	assertJSON(t, doc, `{
	  "$schema": "https://json-schema.org/draft/2020-12/schema",
	  "type": "object",
	  "properties": {
	    "id": {"type": "string", "format": "uuid"},
	    "name": {"type": "string", "minLength": 1, "maxLength": 100},
	    "age": {"type": "integer", "minimum": 0},
	    "role": {"type": "string", "enum": ["admin", "user"], "default": "user"},
	    "email": {"type": "string", "format": "email", "description": "primary address"}
	  },
	  "required": ["id", "name", "role", "email"],
	  "additionalProperties": false
	}`)
	if got := doc.Keys()[0]; got != "$schema" {
		t.Fatalf("first key got=%q want=$schema", got)
	}
}

func TestConvert_PropertyOrderFollowsShape(t *testing.T) {
	doc := convert(t, userSrc, "UserSchema", adapterOptions)
	props, ok := doc.Get("properties")
	if !ok {
		t.Fatalf("properties missing")
	}
	got := props.(*jsonschema.Document).Keys()
	want := []string{"id", "name", "age", "role", "email"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("property order got=%v want=%v", got, want)
	}
}

func TestConvert_Draft7SchemaURL(t *testing.T) {
	opts := adapterOptions
	opts.Target = jsonschema.Draft7
	doc := convert(t, userSrc, "UserSchema", opts)
	v, _ := doc.Get("$schema")
	if v != "http://json-schema.org/draft-07/schema#" {
		t.Fatalf("$schema got=%v", v)
	}
	compile(t, doc, sjs.Draft7)
}

func TestConvert_CompiledSchemaValidates(t *testing.T) {
	doc := convert(t, userSrc, "UserSchema", adapterOptions)
	s := compile(t, doc, sjs.Draft2020)

	good := normalize(t, []byte(`{"id":"5f0c3b8e-8a3a-4d0e-9d8e-6f1b2c3d4e5f","name":"ann","role":"user","email":"a@b.c"}`))
	if err := s.Validate(good); err != nil {
		t.Fatalf("valid instance rejected: %v", err)
	}
	bad := normalize(t, []byte(`{"id":"x","name":"","role":"root","email":"a@b.c","extra":1}`))
	if err := s.Validate(bad); err == nil {
		t.Fatalf("invalid instance accepted")
	}
}

func TestConvert_GetterRecursionReferencesRoot(t *testing.T) {
	src := `
import { z } from "zod";
export const Category = z.object({
  name: z.string(),
  get children() {
    return z.array(Category);
  },
});
`
	doc := convert(t, src, "Category", adapterOptions)
	assertJSON(t, doc, `{
	  "$schema": "https://json-schema.org/draft/2020-12/schema",
	  "type": "object",
	  "properties": {
	    "name": {"type": "string"},
	    "children": {"type": "array", "items": {"$ref": "#"}}
	  },
	  "required": ["name", "children"],
	  "additionalProperties": false
	}`)
	compile(t, doc, sjs.Draft2020)
}

const listSrc = `
import { z } from "zod/v3";
const Node = z.object({
  value: z.number(),
  next: z.lazy(() => Node).optional(),
});
export const List = z.object({ head: Node });
`

func TestConvert_NestedCycleBecomesDefinition(t *testing.T) {
	opts := adapterOptions
	opts.Target = jsonschema.Draft7
	doc := convert(t, listSrc, "List", opts)
	assertJSON(t, doc, `{
	  "$schema": "http://json-schema.org/draft-07/schema#",
	  "type": "object",
	  "properties": {"head": {"$ref": "#/definitions/__schema0"}},
	  "required": ["head"],
	  "additionalProperties": false,
	  "definitions": {
	    "__schema0": {
	      "type": "object",
	      "properties": {
	        "value": {"type": "number"},
	        "next": {"$ref": "#/definitions/__schema0"}
	      },
	      "required": ["value"],
	      "additionalProperties": false
	    }
	  }
	}`)
	compile(t, doc, sjs.Draft7)
}

func TestConvert_CyclesThrow(t *testing.T) {
	opts := adapterOptions
	opts.Cycles = jsonschema.CyclesThrow
	_, err := jsonschema.Convert(loadExport(t, listSrc, "List"), opts)
	if !errors.Is(err, jsonschema.ErrCycle) {
		t.Fatalf("expected ErrCycle, got %v", err)
	}
}

const personSrc = `
import { z } from "zod";
const Address = z.object({ city: z.string() });
export const Person = z.object({ home: Address, work: Address });
`

func TestConvert_ReusedSchemas(t *testing.T) {
	doc := convert(t, personSrc, "Person", adapterOptions)
	assertJSON(t, doc, `{
	  "$schema": "https://json-schema.org/draft/2020-12/schema",
	  "type": "object",
	  "properties": {
	    "home": {"$ref": "#/$defs/__schema0"},
	    "work": {"$ref": "#/$defs/__schema0"}
	  },
	  "required": ["home", "work"],
	  "additionalProperties": false,
	  "$defs": {
	    "__schema0": {
	      "type": "object",
	      "properties": {"city": {"type": "string"}},
	      "required": ["city"],
	      "additionalProperties": false
	    }
	  }
	}`)

	opts := adapterOptions
	opts.Reused = jsonschema.ReusedInline
	inline := convert(t, personSrc, "Person", opts)
	if inline.Has("$defs") {
		t.Fatalf("inline conversion should not emit $defs")
	}
}

func TestConvert_Unrepresentable(t *testing.T) {
	src := `
import { z } from "zod";
export const Event = z.object({ at: z.date(), size: z.bigint() });
export const Parsed = z.string().transform((s) => s.length);
`
	strict := adapterOptions
	strict.Unrepresentable = jsonschema.UnrepresentableThrow
	if _, err := jsonschema.Convert(loadExport(t, src, "Event"), strict); !errors.Is(err, jsonschema.ErrUnrepresentable) {
		t.Fatalf("expected ErrUnrepresentable, got %v", err)
	}

	doc := convert(t, src, "Event", adapterOptions)
	assertJSON(t, doc, `{
	  "$schema": "https://json-schema.org/draft/2020-12/schema",
	  "type": "object",
	  "properties": {"at": {}, "size": {}},
	  "required": ["at", "size"],
	  "additionalProperties": false
	}`)

	input := adapterOptions
	input.IO = jsonschema.IOInput
	assertJSON(t, convert(t, src, "Parsed", input), `{
	  "$schema": "https://json-schema.org/draft/2020-12/schema",
	  "type": "string"
	}`)
	assertJSON(t, convert(t, src, "Parsed", adapterOptions), `{
	  "$schema": "https://json-schema.org/draft/2020-12/schema"
	}`)
}

func TestConvert_Kinds(t *testing.T) {
	src := `
import { z } from "zod";
export const Maybe = z.string().nullable();
export const Either = z.union([z.string(), z.number()]);
export const Shape = z.discriminatedUnion("kind", [
  z.object({ kind: z.literal("a") }),
  z.object({ kind: z.literal("b") }),
]);
export const Both = z.intersection(z.object({ a: z.string() }), z.object({ b: z.number() }));
export const Pair = z.tuple([z.string(), z.number()]);
export const Tags = z.record(z.string(), z.boolean());
export const Loose = z.object({ a: z.string() }).passthrough();
export const Strict = z.strictObject({ a: z.string() });
export const Rest = z.object({}).catchall(z.number());
export const Range = z.number().gt(1).lte(10).multipleOf(0.5);
export const Items = z.array(z.string()).min(1).max(3);
export const Slug = z.string().regex(/^[a-z-]+$/).startsWith("x");
export const Flag = z.literal(false);
export const Nothing = z.never();
export const Status = z.enum(["on", "off"]).meta({ title: "Status", deprecated: true, examples: ["on"] });
`
	cases := []struct {
		name string
		want string
	}{
		{"Maybe", `{"anyOf": [{"type": "string"}, {"type": "null"}]}`},
		{"Either", `{"anyOf": [{"type": "string"}, {"type": "number"}]}`},
		{"Shape", `{"oneOf": [
		  {"type": "object", "properties": {"kind": {"type": "string", "const": "a"}}, "required": ["kind"], "additionalProperties": false},
		  {"type": "object", "properties": {"kind": {"type": "string", "const": "b"}}, "required": ["kind"], "additionalProperties": false}
		]}`},
		{"Both", `{"allOf": [
		  {"type": "object", "properties": {"a": {"type": "string"}}, "required": ["a"], "additionalProperties": false},
		  {"type": "object", "properties": {"b": {"type": "number"}}, "required": ["b"], "additionalProperties": false}
		]}`},
		{"Pair", `{"type": "array", "prefixItems": [{"type": "string"}, {"type": "number"}]}`},
		{"Tags", `{"type": "object", "propertyNames": {"type": "string"}, "additionalProperties": {"type": "boolean"}}`},
		{"Loose", `{"type": "object", "properties": {"a": {"type": "string"}}, "required": ["a"], "additionalProperties": {}}`},
		{"Strict", `{"type": "object", "properties": {"a": {"type": "string"}}, "required": ["a"], "additionalProperties": false}`},
		{"Rest", `{"type": "object", "properties": {}, "additionalProperties": {"type": "number"}}`},
		{"Range", `{"type": "number", "exclusiveMinimum": 1, "maximum": 10, "multipleOf": 0.5}`},
		{"Items", `{"type": "array", "items": {"type": "string"}, "minItems": 1, "maxItems": 3}`},
		{"Slug", `{"type": "string", "pattern": "^[a-z-]+$", "allOf": [{"pattern": "^x"}]}`},
		{"Flag", `{"type": "boolean", "const": false}`},
		{"Nothing", `{"not": {}}`},
		{"Status", `{"type": "string", "enum": ["on", "off"], "title": "Status", "deprecated": true, "examples": ["on"]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := convert(t, src, tc.name, adapterOptions)
			if !doc.Delete("$schema") {
				t.Fatalf("$schema missing")
			}
			assertJSON(t, doc, tc.want)
			compile(t, doc, sjs.Draft2020)
		})
	}
}

func TestConvert_Draft7TupleAndRefSiblings(t *testing.T) {
	src := `
import { z } from "zod";
const Id = z.string();
export const Pair = z.tuple([Id, Id], z.number());
export const Wrapped = z.object({ a: Id, b: Id.readonly() });
`
	opts := adapterOptions
	opts.Target = jsonschema.Draft7
	doc := convert(t, src, "Pair", opts)
	assertJSON(t, doc, `{
	  "$schema": "http://json-schema.org/draft-07/schema#",
	  "type": "array",
	  "items": [{"$ref": "#/definitions/__schema0"}, {"$ref": "#/definitions/__schema0"}],
	  "additionalItems": {"type": "number"},
	  "definitions": {"__schema0": {"type": "string"}}
	}`)
	compile(t, doc, sjs.Draft7)

	doc = convert(t, src, "Wrapped", opts)
	assertJSON(t, doc, `{
	  "$schema": "http://json-schema.org/draft-07/schema#",
	  "type": "object",
	  "properties": {
	    "a": {"$ref": "#/definitions/__schema0"},
	    "b": {"allOf": [{"$ref": "#/definitions/__schema0"}], "readOnly": true}
	  },
	  "required": ["a", "b"],
	  "additionalProperties": false,
	  "definitions": {"__schema0": {"type": "string"}}
	}`)
}

func TestConvert_RejectsNonSchema(t *testing.T) {
	_, err := jsonschema.Convert("not a schema", adapterOptions)
	if !errors.Is(err, jsonschema.ErrNotSchema) {
		t.Fatalf("expected ErrNotSchema, got %v", err)
	}
}

func TestParseTarget(t *testing.T) {
	for _, s := range []string{"draft-7", "draft-2020-12"} {
		if _, err := jsonschema.ParseTarget(s); err != nil {
			t.Fatalf("%s: %v", s, err)
		}
	}
	if _, err := jsonschema.ParseTarget("draft-04"); !errors.Is(err, jsonschema.ErrUnknownTarget) {
		t.Fatalf("expected ErrUnknownTarget, got %v", err)
	}
}
