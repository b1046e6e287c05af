package core

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels for the two whole-request failure kinds. Use errors.Is.
var (
	ErrDataUnavailable = errors.New("data unavailable")
	ErrSchema          = errors.New("schema error")
)

// Reasons carried by DataUnavailableError.
const (
	ReasonNotFound   = "file not found"
	ReasonUnreadable = "file unreadable"
	ReasonEmpty      = "empty file"
	ReasonNoRows     = "no data rows"
	ReasonUnparsable = "file unparsable"
)

// DataUnavailableError reports a dataset that is missing, unreadable, empty
// or unparsable.
type DataUnavailableError struct {
	Source string
	Reason string
	Err    error
}

func (e *DataUnavailableError) Error() string {
	msg := fmt.Sprintf("data unavailable: %s", e.Reason)
	if e.Source != "" {
		msg += fmt.Sprintf(" (%s)", e.Source)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }

// Is matches ErrDataUnavailable.
func (e *DataUnavailableError) Is(target error) bool { return target == ErrDataUnavailable }

// SchemaError reports required columns that are absent from the header or
// carry no value in any row.
type SchemaError struct {
	Missing []string
	Empty   []string
}

func (e *SchemaError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required columns: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Empty) > 0 {
		parts = append(parts, "required columns have no values: "+strings.Join(e.Empty, ", "))
	}
	return "schema error: " + strings.Join(parts, "; ")
}

// Is matches ErrSchema.
func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

func unavailable(source, reason string, err error) error {
	return &DataUnavailableError{Source: source, Reason: reason, Err: err}
}
