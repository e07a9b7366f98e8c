package zod2jsonschema

// Package zod2jsonschema converts the Zod schemas exported by a tree of
// TypeScript files into JSON Schema documents.
//
// The pipeline:
//
// - Scan walks the input directory with a doublestar pattern, loads every
//   matching file as a module and keeps the exports IsSchema recognizes
// - Aggregate flattens the per-file results and resolves name collisions
// - Adapter converts one schema, injecting its name as the document title
// - Writer emits one file per schema, or a single document with a $defs map
//
// Design policy:
// - Keep the pipeline API in the root package; the module loader and the Zod
//   runtime live under internal/, the converter under jsonschema/ and the CLI
//   under cmd/zod2jsonschema.
// - Failures local to one file or one schema are logged and counted, never fatal.
//
// Typical usage:
//
//  opts := zod2jsonschema.DefaultOptions()
//  opts.Target = zod2jsonschema.Draft7
//  report, err := zod2jsonschema.Run(ctx, "./src/schemas", opts, zod2jsonschema.NopLogger)
//
