package contract

import "errors"

var (
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrValidation      = errors.New("validation failed")
	ErrInvalidMessage  = errors.New("user input cannot be empty")
	ErrUnknownTool     = errors.New("unknown tool")
)
