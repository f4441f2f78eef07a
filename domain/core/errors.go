package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	ErrNotFound           = errors.New("resource not found")
	ErrExperimentNotFound = fmt.Errorf("%w: experiment", ErrNotFound)
	ErrConditionNotFound  = fmt.Errorf("%w: condition", ErrNotFound)
	ErrResultNotFound     = fmt.Errorf("%w: analysis result", ErrNotFound)

	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrMissingCondition = errors.New("required condition missing")
	ErrNoCombination    = errors.New("at least one combination condition is required")
	ErrEmptyReplicates  = errors.New("replicate values cannot be empty")
	ErrTooManyValues    = errors.New("too many replicate values")
	ErrNonFiniteValue   = errors.New("replicate value is not finite")
	ErrNegativeAmount   = errors.New("additive amount cannot be negative")
)

// NewMissingConditionError names the condition key that is absent
func NewMissingConditionError(key ConditionKey) error {
	return fmt.Errorf("%w: %s", ErrMissingCondition, key)
}
