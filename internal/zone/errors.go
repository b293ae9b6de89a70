package zone

import (
	"fmt"

	"github.com/pkg/errors"
)

var ErrRecordNotFound = errors.New("record not found")

type InvalidRecordTypeError struct {
	Type string
}

func (e *InvalidRecordTypeError) Error() string {
	return fmt.Sprintf("unsupported resource record type %q", e.Type)
}

// InputTypeError is returned by setters given a value of the wrong kind or range.
type InputTypeError struct {
	Field  string
	Value  any
	Reason string
}

func (e *InputTypeError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}
