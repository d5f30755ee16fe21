// Package calcerr defines the error kinds reported by the raster calculator.
package calcerr

import (
	"errors"
	"fmt"
)

var (
	ErrDivisionByZero = errors.New("division by zero")
	ErrOutOfMemory    = errors.New("raster is too large to be processed")
	ErrCancelled      = errors.New("operation cancelled")
)

// SyntaxError reports a malformed expression.
type SyntaxError struct {
	Expr string
	Pos  int // byte offset into the normalized expression, -1 if unknown
	Msg  string
}

func (e SyntaxError) Error() string {
	if e.Expr == "" {
		return e.Msg
	}
	if e.Pos < 0 {
		return fmt.Sprintf("%s in expression '%s'", e.Msg, e.Expr)
	}
	return fmt.Sprintf("%s at %d in expression '%s'", e.Msg, e.Pos, e.Expr)
}

// DimensionMismatchError reports raster operands of differing size.
type DimensionMismatchError struct {
	Op           string
	Want, Got    [2]int // rows, columns
	WantPath     string
	MismatchPath string
}

func (e DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: the input images must have the same dimensions: %s is %dx%d but %s is %dx%d",
		e.Op, e.WantPath, e.Want[0], e.Want[1], e.MismatchPath, e.Got[0], e.Got[1])
}

// UnsupportedOperationError reports an operation applied to the wrong kind of
// operand, such as if() with a scalar condition.
type UnsupportedOperationError struct {
	Op  string
	Msg string
}

func (e UnsupportedOperationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

// FileNotFoundError reports a missing raster backing file.
type FileNotFoundError struct {
	Path string
}

func (e FileNotFoundError) Error() string {
	return fmt.Sprintf("file not found: %s", e.Path)
}
