package engine

import (
	"errors"
	"fmt"
)

// Error classes returned by the engine. Callers match them with errors.Is;
// the wrapping message names the offending table, column, operator or method.
var (
	ErrNotFound        = errors.New("not found")
	ErrType            = errors.New("type error")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrSchemaViolation = errors.New("schema violation")
)

func tableNotFound(name string) error {
	return fmt.Errorf("%w: table %q (load it first)", ErrNotFound, name)
}

func columnNotFound(col, tbl string) error {
	return fmt.Errorf("%w: column %q in table %q", ErrNotFound, col, tbl)
}

func notNumeric(op, col string) error {
	return fmt.Errorf("%w: %s requires a numeric column, %q is text", ErrType, op, col)
}
