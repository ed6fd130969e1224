package contract

import "errors"

var (
	ErrContextUnavailable = errors.New("context store unavailable")
	ErrAgentUnavailable   = errors.New("language model unavailable")
	ErrProfileNotFound    = errors.New("vehicle profile not found")
	ErrValidation         = errors.New("validation failed")
	ErrSchemaViolation    = errors.New("model response violates schema")
)
