package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound        = errors.New("resource not found")
	ErrColumnNotFound  = fmt.Errorf("%w: column", ErrNotFound)
	ErrResultNotFound  = fmt.Errorf("%w: archived result", ErrNotFound)
	ErrToolNotFound    = fmt.Errorf("%w: tool", ErrNotFound)
	ErrMeasureNotFound = fmt.Errorf("%w: direct measure", ErrNotFound)

	// Validation errors
	ErrEmptyResults          = errors.New("no verification results")
	ErrSizeMismatch          = errors.New("size mismatch")
	ErrHeterogeneousResults  = errors.New("heterogeneous verification results")
	ErrNotMultiple           = errors.New("the length of convergence data should be a multiple of the number of mesh refinements")
	ErrInvalidMeshCount      = errors.New("invalid number of mesh refinements")
	ErrIndexOutOfRange       = errors.New("index out of range")
	ErrZeroNormalization     = errors.New("normalization by zero")
	ErrUnsupportedFileFormat = errors.New("unsupported file format")
	ErrInsufficientData      = errors.New("insufficient data for analysis")
	ErrMissingBaseModel      = errors.New("a base model must be provided to create a model composition")
	ErrMissingInput          = errors.New("missing discipline input")
)

// NewColumnNotFoundError reports a column missing from a convergence table
func NewColumnNotFoundError(name string) error {
	return fmt.Errorf("%w: %q", ErrColumnNotFound, name)
}

// NewSizeMismatchError reports a variable whose value count disagrees with the
// number of extrapolated values of its result
func NewSizeMismatchError(result int, variable string, values, extrapolated int) error {
	return fmt.Errorf("%w in result %d: variable %s has %d values but there are %d extrapolated values",
		ErrSizeMismatch, result, variable, values, extrapolated)
}

// NewNotMultipleError reports a row count that does not split into whole trajectories
func NewNotMultipleError(length, meshes int) error {
	return fmt.Errorf("%w. But the length is %d and the number of mesh refinements is %d",
		ErrNotMultiple, length, meshes)
}

// NewIndexError reports an index outside [0, length)
func NewIndexError(what string, index, length int) error {
	return fmt.Errorf("%w: %s index %d with length %d", ErrIndexOutOfRange, what, index, length)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyResults) ||
		errors.Is(err, ErrSizeMismatch) ||
		errors.Is(err, ErrHeterogeneousResults) ||
		errors.Is(err, ErrNotMultiple) ||
		errors.Is(err, ErrInvalidMeshCount)
}

func IsDataError(err error) bool {
	return errors.Is(err, ErrColumnNotFound) ||
		errors.Is(err, ErrIndexOutOfRange) ||
		errors.Is(err, ErrZeroNormalization)
}
