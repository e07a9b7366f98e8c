package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	z2j "github.com/reoring/zod2jsonschema"
	"github.com/reoring/zod2jsonschema/jsonschema"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type cliFlags struct {
	output   string
	combined bool
	target   string
	format   bool
	verbose  bool
	pattern  string
	exclude  []string
	config   string
	check    bool
}

func newRootCmd() *cobra.Command {
	var f cliFlags
	cmd := &cobra.Command{
		Use:   "zod2jsonschema <input>",
		Short: "Convert the Zod schemas of a TypeScript source tree to JSON Schema",
		Long: `Scan a directory of TypeScript files, evaluate every module, and convert
each exported Zod schema to a JSON Schema document.

Exports are picked up when they are Zod schemas named like UserSchema,
ProductZod, zAddress or OrderValidator (every schema export with --verbose).

Examples:
  # One file per schema in ./json-schemas
  zod2jsonschema ./src/schemas

  # A single draft-07 document with a $defs map
  zod2jsonschema ./src --combined --target draft-7 -o ./dist

  # Only *.schema.ts files, verifying every emitted document
  zod2jsonschema ./src -p "**/*.schema.ts" --check`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := resolveOptions(cmd, f)
			if err != nil {
				return err
			}
			log := newConsoleLogger(cmd.OutOrStdout(), cmd.ErrOrStderr(), opts.Verbose)
			printHeader(cmd, args[0], opts)
			_, err = z2j.Run(cmd.Context(), args[0], opts, log)
			return err
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.output, "output", "o", z2j.DefaultOutput, "output directory")
	fl.BoolVarP(&f.combined, "combined", "c", false, "write a single schemas.json with a $defs map")
	fl.StringVarP(&f.target, "target", "t", string(z2j.Draft202012), "JSON Schema dialect: draft-7 or draft-2020-12")
	fl.BoolVar(&f.format, "format", true, "pretty-print output")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "report per-file detail and include every schema export")
	fl.StringVarP(&f.pattern, "pattern", "p", z2j.DefaultPattern, "glob of files to scan, relative to <input>")
	fl.StringSliceVarP(&f.exclude, "exclude", "e", z2j.DefaultExclude, "globs of files to skip")
	fl.StringVar(&f.config, "config", "", "YAML config file (default ./"+z2j.ConfigFileName+" when present)")
	fl.BoolVar(&f.check, "check", false, "compile every emitted document to verify it")
	return cmd
}

// resolveOptions layers defaults, the config file and explicitly set flags.
func resolveOptions(cmd *cobra.Command, f cliFlags) (z2j.Options, error) {
	opts := z2j.DefaultOptions()

	path := f.config
	if path == "" {
		if _, err := os.Stat(z2j.ConfigFileName); err == nil {
			path = z2j.ConfigFileName
		} else if !errors.Is(err, fs.ErrNotExist) {
			return opts, err
		}
	}
	if path != "" {
		cfg, err := z2j.LoadConfigFile(path)
		if err != nil {
			return opts, err
		}
		cfg.Apply(&opts)
	}

	fl := cmd.Flags()
	if fl.Changed("output") {
		opts.Output = f.output
	}
	if fl.Changed("combined") {
		opts.Combined = f.combined
	}
	if fl.Changed("target") {
		opts.Target = z2j.Target(f.target)
	}
	if fl.Changed("format") {
		opts.Format = f.format
	}
	if fl.Changed("verbose") {
		opts.Verbose = f.verbose
	}
	if fl.Changed("pattern") {
		opts.Pattern = f.pattern
	}
	if fl.Changed("exclude") {
		opts.Exclude = f.exclude
	}
	if fl.Changed("check") {
		opts.Check = f.check
	}

	target, err := jsonschema.ParseTarget(string(opts.Target))
	if err != nil {
		return opts, err
	}
	opts.Target = target
	return opts, nil
}

func printHeader(cmd *cobra.Command, input string, opts z2j.Options) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	mode := "separate"
	if opts.Combined {
		mode = "combined"
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n", cyan("zod2jsonschema"))
	fmt.Fprintf(out, "  Input:   %s\n", input)
	fmt.Fprintf(out, "  Output:  %s\n", opts.Output)
	fmt.Fprintf(out, "  Mode:    %s\n", mode)
	fmt.Fprintf(out, "  Target:  %s\n", opts.Target)
	fmt.Fprintf(out, "  Pattern: %s (excluding %s)\n", opts.Pattern, strings.Join(opts.Exclude, ", "))
}
