package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrFileNotFound is returned when the input document does not exist.
	ErrFileNotFound = errors.New("file not found")
	// ErrInvalidJSON is returned when the input is not well-formed JSON.
	ErrInvalidJSON = errors.New("invalid or malformed JSON")
	// ErrNotObject is returned when a JSON document's top level is not an object.
	ErrNotObject = errors.New("expected a JSON object at the top level")
	// ErrInvalidXML is returned when the input is not well-formed XML.
	ErrInvalidXML = errors.New("invalid or malformed XML")
	// ErrNoTables is returned when no layout rule matched the document.
	ErrNoTables = errors.New("no tables extracted")
)

// Stable machine-readable codes for pipeline failures.
const (
	CodeFileNotFound = "file_not_found"
	CodeInvalidJSON  = "invalid_json"
	CodeNotObject    = "not_object"
	CodeInvalidXML   = "invalid_xml"
	CodeNoTables     = "no_tables"
	CodeInternal     = "internal"
)

var codes = []struct {
	err  error
	code string
}{
	{ErrFileNotFound, CodeFileNotFound},
	{ErrInvalidJSON, CodeInvalidJSON},
	{ErrNotObject, CodeNotObject},
	{ErrInvalidXML, CodeInvalidXML},
	{ErrNoTables, CodeNoTables},
}

// InputError ties a classified failure to the input that caused it.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// Code maps err to one of the Code constants. Unclassified errors are CodeInternal.
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}

// FromCode returns the sentinel for code, or nil when code is not a
// classified failure.
func FromCode(code string) error {
	for _, c := range codes {
		if c.code == code {
			return c.err
		}
	}
	return nil
}

// Message renders err as the text shown to a person running a pipeline.
func Message(err error) string {
	if err == nil {
		return ""
	}

	path := ""
	var inErr *InputError
	if errors.As(err, &inErr) {
		path = inErr.Path
	}

	switch {
	case errors.Is(err, ErrFileNotFound):
		return fmt.Sprintf("Error: the file '%s' was not found.", path)
	case errors.Is(err, ErrInvalidJSON):
		return "Error: invalid or malformed JSON file."
	case errors.Is(err, ErrNotObject):
		return "Error: expected a JSON object at the top level."
	case errors.Is(err, ErrInvalidXML):
		return "Error: invalid or malformed XML file."
	case errors.Is(err, ErrNoTables):
		return "Error: no tables could be extracted from the JSON file."
	default:
		return fmt.Sprintf("Unexpected error: %v", err)
	}
}
