package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	ErrNotFound    = errors.New("resource not found")
	ErrRunNotFound = fmt.Errorf("%w: analysis run", ErrNotFound)

	// Analysis errors. Each one is scoped to a single condition/parameter group.
	ErrInsufficientData   = errors.New("insufficient data to fit a line")
	ErrUndefinedShelfLife = errors.New("shelf-life undefined")
	ErrUnknownCondition   = errors.New("unknown storage condition")

	// Ingestion errors
	ErrInvalidObservation = errors.New("invalid observation")
	ErrInvalidSpecLimit   = errors.New("invalid specification limit")
)

// NewInsufficientDataError reports a group that cannot be fitted
func NewInsufficientDataError(points, distinctTimes int) error {
	return fmt.Errorf("%w: %d points with %d distinct time values (need at least 2)", ErrInsufficientData, points, distinctTimes)
}

// NewUndefinedShelfLifeError reports a fitted line that never crosses the limit
func NewUndefinedShelfLifeError(reason string) error {
	return fmt.Errorf("%w: %s", ErrUndefinedShelfLife, reason)
}

// NewUnknownConditionError reports a condition identifier absent from the category lookup
func NewUnknownConditionError(condition string) error {
	return fmt.Errorf("%w: %q is not in the category lookup", ErrUnknownCondition, condition)
}

// NewInvalidObservationError reports an observation rejected at the ingestion boundary
func NewInvalidObservationError(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidObservation, field, reason)
}

func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInsufficientDataError(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}

func IsUndefinedShelfLifeError(err error) bool {
	return errors.Is(err, ErrUndefinedShelfLife)
}

func IsUnknownConditionError(err error) bool {
	return errors.Is(err, ErrUnknownCondition)
}

// IsInputError reports whether err was caused by caller-supplied data
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidObservation) ||
		errors.Is(err, ErrInvalidSpecLimit)
}
