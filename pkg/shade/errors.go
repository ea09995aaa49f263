package shade

import (
	"errors"
	"fmt"
)

// Shade errors.
var (
	ErrOutOfRange      = errors.New("out of range")
	ErrInvalidPosition = errors.New("position must be within 0-100")
)

// RangeError reports an address, unit or travel time outside the
// hardware limits.
type RangeError struct {
	Field string
	Value any
	Min   any
	Max   any
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s %v out of range [%v, %v]", e.Field, e.Value, e.Min, e.Max)
}

// Is makes errors.Is(err, ErrOutOfRange) match any RangeError.
func (e *RangeError) Is(target error) bool {
	return target == ErrOutOfRange
}
