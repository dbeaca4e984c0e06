package record

import (
	"fmt"
	"strings"
)

// UnknownTypeError reports a type field outside the five known kinds.
type UnknownTypeError struct {
	Value string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown transaction type %q", e.Value)
}

// TooFewFieldsError reports a record with fewer than three fields.
type TooFewFieldsError struct {
	Fields []string
}

func (e *TooFewFieldsError) Error() string {
	return fmt.Sprintf("too few fields (%d): [%s]", len(e.Fields), strings.Join(e.Fields, ", "))
}

// FieldError reports a field that failed to parse as its required type.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("failed to parse %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
