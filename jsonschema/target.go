package jsonschema

import (
	"errors"
	"fmt"
)

// Target is the JSON Schema dialect a document is written for.
type Target string

const (
	Draft7      Target = "draft-7"
	Draft202012 Target = "draft-2020-12"
)

// ErrUnknownTarget is returned by ParseTarget for unsupported dialect names.
var ErrUnknownTarget = errors.New("unknown target")

// ParseTarget validates a dialect name given on the command line or in a config file.
func ParseTarget(s string) (Target, error) {
	switch t := Target(s); t {
	case Draft7, Draft202012:
		return t, nil
	}
	return "", fmt.Errorf("%w %q (want %q or %q)", ErrUnknownTarget, s, Draft7, Draft202012)
}

// SchemaURL returns the `$schema` value identifying the dialect.
func (t Target) SchemaURL() string {
	if t == Draft7 {
		return "http://json-schema.org/draft-07/schema#"
	}
	return "https://json-schema.org/draft/2020-12/schema"
}

// DefsKey returns the keyword holding shared definitions.
func (t Target) DefsKey() string {
	if t == Draft7 {
		return "definitions"
	}
	return "$defs"
}

func (t Target) String() string { return string(t) }
