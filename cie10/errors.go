package cie10

import (
	"errors"
	"fmt"
)

// ErrFormat is matched by every FormatError through errors.Is
var ErrFormat = errors.New("invalid cie10 mapping file")

// FormatError reports a CSV file that lacks the required columns or has a
// malformed row. Line is 0 when the problem is not tied to a single line.
type FormatError struct {
	Line   int
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	msg := e.Reason
	if e.Line > 0 {
		msg = fmt.Sprintf("line %d: %s", e.Line, e.Reason)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return ErrFormat.Error() + ": " + msg
}

// Is lets errors.Is(err, ErrFormat) match any FormatError
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

func (e *FormatError) Unwrap() error {
	return e.Err
}
