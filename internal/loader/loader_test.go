package loader_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/reoring/zod2jsonschema/internal/loader"
	"github.com/reoring/zod2jsonschema/internal/value"
	"github.com/reoring/zod2jsonschema/internal/zod"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte(src), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func exportNames(m *loader.Module) []string {
	out := make([]string, 0, len(m.Exports))
	for _, e := range m.Exports {
		out = append(out, e.Name)
	}
	return out
}

func mustSchema(t *testing.T, m *loader.Module, name string) *zod.Schema {
	t.Helper()
	v, ok := m.Lookup(name)
	if !ok {
		t.Fatalf("export %q missing; have %v", name, exportNames(m))
	}
	s, ok := zod.From(v)
	if !ok {
		t.Fatalf("export %q is %s, not a schema", name, value.Describe(v))
	}
	return s
}

func TestLoad_ObjectSchemaWithTypes(t *testing.T) {
	dir := writeFiles(t, map[string]string{"user.ts": `
import { z } from "zod";
import type { Something } from "./types";

type Role = "admin" | "user";
interface Shape {
  id: string;
}

export const UserSchema = z.object({
  id: z.string().uuid(),
  name: z.string().min(1).max(100),
  age: z.number().int().nonnegative().optional(),
  role: z.enum(["admin", "user"]).default("user"),
}).describe("A user");

export type User = z.infer<typeof UserSchema>;
export const helper = (x: number): number => x * 2;
`})
	m, err := loader.New(loader.Options{}).Load(filepath.Join(dir, "user.ts"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got, want := exportNames(m), []string{"UserSchema", "helper"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("exports got=%v want=%v", got, want)
	}
	s := mustSchema(t, m, "UserSchema")
	if s.Kind() != zod.KindObject || s.Def().Description != "A user" {
		t.Fatalf("unexpected schema %v desc=%q", s, s.Def().Description)
	}
	var fields []string
	for _, f := range s.Def().Shape {
		fields = append(fields, f.Name)
	}
	if want := []string{"id", "name", "age", "role"}; !reflect.DeepEqual(fields, want) {
		t.Fatalf("fields got=%v want=%v", fields, want)
	}
	age, _ := s.Def().Field("age")
	if age.Kind() != zod.KindOptional {
		t.Fatalf("age kind got=%s want=optional", age.Kind())
	}
	helper, _ := m.Lookup("helper")
	out, err := helper.(*value.Function).Invoke(float64(21))
	if err != nil || out != float64(42) {
		t.Fatalf("helper(21) got=%v err=%v", out, err)
	}
}

func TestLoad_RelativeImportsAndReexports(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"common/address.ts": `
import * as z from "zod";
export const AddressSchema = z.object({ city: z.string() });
`,
		"common/index.ts": `export * from "./address";
export { AddressSchema as Location } from "./address";
`,
		"order.ts": `
import { z } from "zod";
import { AddressSchema } from "./common/index.js";
export const OrderSchema = z.object({ shipTo: AddressSchema, billTo: AddressSchema.optional() });
export { AddressSchema };
`,
		"barrel.ts": `export * from "./common";`,
	})
	l := loader.New(loader.Options{})
	order, err := l.Load(filepath.Join(dir, "order.ts"))
	if err != nil {
		t.Fatalf("load order: %v", err)
	}
	if got, want := exportNames(order), []string{"AddressSchema", "OrderSchema"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("exports got=%v want=%v", got, want)
	}
	addr := mustSchema(t, order, "AddressSchema")
	ship, _ := mustSchema(t, order, "OrderSchema").Def().Field("shipTo")
	if ship != addr {
		t.Fatalf("imported schema should keep identity")
	}
	barrel, err := l.Load(filepath.Join(dir, "barrel.ts"))
	if err != nil {
		t.Fatalf("load barrel: %v", err)
	}
	if got, want := exportNames(barrel), []string{"AddressSchema", "Location"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("barrel exports got=%v want=%v", got, want)
	}
	if mustSchema(t, barrel, "Location") != addr {
		t.Fatalf("re-export should resolve to the cached module's schema")
	}
}

func TestLoad_V3Namespace(t *testing.T) {
	dir := writeFiles(t, map[string]string{"legacy.ts": `
import { z } from "zod/v3";
export const zLegacy = z.string().email();
`})
	m, err := loader.New(loader.Options{}).Load(filepath.Join(dir, "legacy.ts"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s := mustSchema(t, m, "zLegacy")
	if s.Generation() != zod.V3 {
		t.Fatalf("generation got=%v want=v3", s.Generation())
	}
	if _, ok := s.Get("_def"); !ok {
		t.Fatalf("v3 schema must expose _def")
	}
	if _, ok := s.Get("_zod"); ok {
		t.Fatalf("v3 schema must not expose _zod")
	}
}

func TestLoad_RecursionThroughLazyAndGetters(t *testing.T) {
	dir := writeFiles(t, map[string]string{"tree.ts": `
import { z } from "zod";

export const Category: z.ZodType<any> = z.lazy(() =>
  z.object({ name: z.string(), children: z.array(Category) })
);

export const NodeSchema = z.object({
  value: z.number(),
  get next() {
    return NodeSchema.optional();
  },
});
`})
	m, err := loader.New(loader.Options{}).Load(filepath.Join(dir, "tree.ts"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cat := mustSchema(t, m, "Category")
	inner, err := cat.Def().Resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	children, _ := inner.Def().Field("children")
	if children.Def().Element != cat {
		t.Fatalf("lazy recursion should point back at Category")
	}
	node := mustSchema(t, m, "NodeSchema")
	next, _ := node.Def().Field("next")
	if next.Kind() != zod.KindLazy {
		t.Fatalf("getter field kind got=%s want=lazy", next.Kind())
	}
	resolved, err := next.Def().Resolve()
	if err != nil {
		t.Fatalf("resolve getter: %v", err)
	}
	if resolved.Def().Inner != node {
		t.Fatalf("getter should resolve to NodeSchema.optional()")
	}
}

func TestLoad_EnumsAndConstants(t *testing.T) {
	dir := writeFiles(t, map[string]string{"enums.ts": `
import { z } from "zod";
export enum Color { Red, Green = 5, Blue }
enum Mode { On = "on", Off = "off" }
const LIMIT = 10 * 2;
const PREFIX = "id_";
export const ColorSchema = z.nativeEnum(Color);
export const ModeSchema = z.enum(Mode);
export const LimitedSchema = z.string().max(LIMIT).startsWith(PREFIX + "x");
export const Status = { ACTIVE: "active", INACTIVE: "inactive" } as const;
export const StatusSchema = z.enum(Object.values(Status) as [string, ...string[]]);
`})
	m, err := loader.New(loader.Options{}).Load(filepath.Join(dir, "enums.ts"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got, want := mustSchema(t, m, "ColorSchema").Def().Values, []any{float64(0), float64(5), float64(6)}; !reflect.DeepEqual(got, want) {
		t.Fatalf("native enum values got=%v want=%v", got, want)
	}
	if got, want := mustSchema(t, m, "ModeSchema").Def().Values, []any{"on", "off"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("string enum values got=%v want=%v", got, want)
	}
	checks := mustSchema(t, m, "LimitedSchema").Def().Checks
	if len(checks) != 2 || checks[0].Value != float64(20) || checks[1].Value != "id_x" {
		t.Fatalf("checks got=%+v", checks)
	}
	if got, want := mustSchema(t, m, "StatusSchema").Def().Values, []any{"active", "inactive"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("enum from values got=%v want=%v", got, want)
	}
}

func TestLoad_Failures(t *testing.T) {
	cases := []struct {
		name string
		src  string
		is   error
	}{
		{name: "syntax", src: "export const A = z.object({ a: ;\n"},
		{name: "unknown_package", src: `import { v } from "valibot"; export const A = v;`, is: loader.ErrUnresolved},
		{name: "missing_file", src: `import { A } from "./nope"; export const B = A;`, is: loader.ErrUnresolved},
		{name: "undefined_identifier", src: `export const A = missing.string();`},
		{name: "tdz", src: "import { z } from 'zod';\nexport const A = B;\nconst B = z.string();"},
		{name: "reference_in_statement", src: `if (x) { }`},
		{name: "throws", src: `throw new Error("boom");`},
		{name: "zod_misuse", src: `import { z } from "zod"; export const A = z.number().email();`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := writeFiles(t, map[string]string{"bad.ts": tc.src})
			path := filepath.Join(dir, "bad.ts")
			_, err := loader.New(loader.Options{}).Load(path)
			var le *loader.Error
			if !errors.As(err, &le) {
				t.Fatalf("expected *loader.Error, got %v", err)
			}
			if le.Path != path {
				t.Fatalf("error path got=%q want=%q", le.Path, path)
			}
			if tc.is != nil && !errors.Is(err, tc.is) {
				t.Fatalf("expected errors.Is(%v), got %v", tc.is, err)
			}
		})
	}
}

func TestLoad_TDZReportsPosition(t *testing.T) {
	dir := writeFiles(t, map[string]string{"bad.ts": "import { z } from 'zod';\nexport const A = B;\nconst B = z.string();\n"})
	_, err := loader.New(loader.Options{}).Load(filepath.Join(dir, "bad.ts"))
	var le *loader.Error
	if !errors.As(err, &le) {
		t.Fatalf("expected *loader.Error, got %v", err)
	}
	if le.Line != 2 || le.Col == 0 {
		t.Fatalf("position got=%d:%d want line 2", le.Line, le.Col)
	}
}

func TestLoad_ImportCycles(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.ts":     `import { B } from "./b"; export const A = B + 1;`,
		"b.ts":     `import { A } from "./a"; export const B = 1; export const readA = () => A;`,
		"eager.ts": `import { D } from "./d"; export const C = 1;`,
		"d.ts":     `import { C } from "./eager"; export const D = C + 1;`,
	})
	l := loader.New(loader.Options{})
	a, err := l.Load(filepath.Join(dir, "a.ts"))
	if err != nil {
		t.Fatalf("a cycle that reads bindings lazily should load: %v", err)
	}
	if v, _ := a.Lookup("A"); v != float64(2) {
		t.Fatalf("A got=%v want=2", v)
	}
	b, err := l.Load(filepath.Join(dir, "b.ts"))
	if err != nil {
		t.Fatalf("load b: %v", err)
	}
	readA, _ := b.Lookup("readA")
	if v, err := readA.(*value.Function).Invoke(); err != nil || v != float64(2) {
		t.Fatalf("readA() got=%v err=%v", v, err)
	}

	_, err = l.Load(filepath.Join(dir, "eager.ts"))
	var le *loader.Error
	if !errors.As(err, &le) {
		t.Fatalf("reading a binding before its module ran should fail, got %v", err)
	}
}

func TestLoad_CachesFailures(t *testing.T) {
	dir := writeFiles(t, map[string]string{"bad.ts": `export const A = ;`})
	l := loader.New(loader.Options{})
	path := filepath.Join(dir, "bad.ts")
	_, first := l.Load(path)
	if err := os.WriteFile(path, []byte(`export const A = 1;`), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	_, second := l.Load(path)
	if first == nil || second != first {
		t.Fatalf("expected the cached failure, got first=%v second=%v", first, second)
	}
}

func TestLoad_CustomBuiltins(t *testing.T) {
	lib := value.NewObject()
	lib.Set("answer", float64(42))
	dir := writeFiles(t, map[string]string{"m.ts": `import { answer } from "lib"; export const A = answer + 1;`})
	l := loader.New(loader.Options{Builtins: map[string]*value.Object{"lib": lib}})
	m, err := l.Load(filepath.Join(dir, "m.ts"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if v, _ := m.Lookup("A"); v != float64(43) {
		t.Fatalf("A got=%v want=43", v)
	}
}

func TestLoad_GeneralModuleCode(t *testing.T) {
	dir := writeFiles(t, map[string]string{"account.ts": `
import { z } from "zod";

const prefix = "usr";

function idPattern(kind: string): RegExp {
  const parts: string[] = [];
  for (const p of [prefix, kind]) {
    parts.push(p);
  }
  return new RegExp(` + "`^${parts.join(\"_\")}_[a-z0-9]+$`" + `);
}

class Limits {
  static readonly tags = Math.max(1, 3);
}

const base = { createdAt: z.string() };
const { createdAt, ...rest } = { ...base, extra: 1 };

export const Greeting = ` + "`abc${1}`" + `;
export const AccountSchema = z.object({
  ...base,
  id: z.string().regex(idPattern("acct")),
  tags: z.array(z.string()).max(Limits.tags),
  label: z.string().default(` + "`${prefix}-${2 * 21}`" + `),
  note: z.string().optional() ?? z.never(),
});
export const restKeys = Object.keys(rest);
`})
	m, err := loader.New(loader.Options{}).Load(filepath.Join(dir, "account.ts"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if v, _ := m.Lookup("Greeting"); v != "abc1" {
		t.Fatalf("Greeting got=%v want=abc1", v)
	}
	if v, _ := m.Lookup("restKeys"); !reflect.DeepEqual(v, []any{"extra"}) {
		t.Fatalf("restKeys got=%v", v)
	}
	s := mustSchema(t, m, "AccountSchema")
	var fields []string
	for _, f := range s.Def().Shape {
		fields = append(fields, f.Name)
	}
	if want := []string{"createdAt", "id", "tags", "label", "note"}; !reflect.DeepEqual(fields, want) {
		t.Fatalf("fields got=%v want=%v", fields, want)
	}
	id, _ := s.Def().Field("id")
	re, ok := id.Def().Checks[0].Value.(*value.Regexp)
	if !ok || re.Source != "^usr_acct_[a-z0-9]+$" {
		t.Fatalf("id regex got=%+v", id.Def().Checks)
	}
	label, _ := s.Def().Field("label")
	if v, err := label.Def().DefaultValue(); err != nil || v != "usr-42" {
		t.Fatalf("label default got=%v err=%v", v, err)
	}
}

func TestLoad_RegexpRoundTrip(t *testing.T) {
	dir := writeFiles(t, map[string]string{"tag.ts": `
import { z } from "zod";
export const TagSchema = z.string().regex(/^<a&b>$/i);
`})
	m, err := loader.New(loader.Options{}).Load(filepath.Join(dir, "tag.ts"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	checks := mustSchema(t, m, "TagSchema").Def().Checks
	re, ok := checks[0].Value.(*value.Regexp)
	if !ok || re.Source != "^<a&b>$" || re.Flags != "i" {
		t.Fatalf("regex got=%+v", checks)
	}
}
