package domain

import "errors"

// Domain errors
var (
	ErrNotFound            = errors.New("resource not found")
	ErrPlanningNotFound    = errors.New("planning transaction not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInternalError       = errors.New("internal error")
	ErrNameRequired        = errors.New("name is required")
	ErrNameTooLong         = errors.New("name exceeds maximum length")
	ErrInvalidRule         = errors.New("invalid recurrence rule")
	ErrInvalidPattern      = errors.New("invalid recurrence pattern")
	ErrInvalidEndCondition = errors.New("invalid end condition")
	ErrInvalidExecutionDay = errors.New("execution day out of range for pattern")
	ErrInvalidAmountSpec   = errors.New("invalid amount specification")
	ErrProjectionBounds    = errors.New("projection window out of bounds")
)

// Validation constants
const (
	MaxPlanningNameLength = 255
)
