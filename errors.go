package zod2jsonschema

import (
	"errors"
	"fmt"
)

var (
	// ErrInputNotFound is returned when the input path does not exist.
	ErrInputNotFound = errors.New("input path does not exist")
	// ErrNotDirectory is returned when the input path is not a directory.
	ErrNotDirectory = errors.New("input path is not a directory")
)

// ConvertError reports a schema that could not be converted. It fails only
// that schema; the rest of the batch continues.
type ConvertError struct {
	Name string
	Err  error
}

func (e *ConvertError) Error() string {
	return fmt.Sprintf("convert schema %q: %v", e.Name, e.Err)
}

func (e *ConvertError) Unwrap() error { return e.Err }

// AsConvertError extracts a *ConvertError using errors.As internally.
func AsConvertError(err error) (*ConvertError, bool) {
	if err == nil {
		return nil, false
	}
	var ce *ConvertError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// WriteError reports an output file that could not be written.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string { return fmt.Sprintf("write %s: %v", e.Path, e.Err) }

func (e *WriteError) Unwrap() error { return e.Err }
