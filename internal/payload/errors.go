package payload

import (
	"errors"
	"fmt"
)

var (
	// ErrDecode is returned when raw payload bytes cannot be read as a weight.
	ErrDecode = errors.New("payload decode failed")

	// ErrInvalidWeight is returned when a decoded weight is outside the domain of the scoring function.
	ErrInvalidWeight = errors.New("invalid payload weight")

	// ErrInvalidPayload is returned when delimited payload text is not a finite
	// number or its weight is rejected by the configured function.
	ErrInvalidPayload = errors.New("invalid payload text")
)

// DecodeError reports a payload whose length is not Size bytes.
type DecodeError struct {
	Length int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("payload decode failed: got %d bytes, want %d", e.Length, Size)
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// InvalidWeightError reports a weight rejected by a scoring function.
type InvalidWeightError struct {
	Weight   float64
	Function string
}

func (e *InvalidWeightError) Error() string {
	return fmt.Sprintf("invalid payload weight %v for %s", e.Weight, e.Function)
}

func (e *InvalidWeightError) Is(target error) bool {
	return target == ErrInvalidWeight
}
