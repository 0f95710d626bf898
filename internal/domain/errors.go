package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the prediction pipeline
var (
	ErrNotFound        = errors.New("not found")
	ErrTenantDisabled  = errors.New("readmission prediction disabled for tenant")
	ErrJudgeTimeout    = errors.New("predictive judge call timed out")
	ErrNoJSONInReply   = errors.New("no JSON object found in judge response")
)

// Error codes for different failure scenarios
const (
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeDatabase     = "DATABASE_ERROR"
	ErrCodeJudge        = "JUDGE_ERROR"
	ErrCodeParse        = "PARSE_ERROR"
	ErrCodePrediction   = "PREDICTION_ERROR"
	ErrCodeRateLimit    = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal     = "INTERNAL_SERVER_ERROR"
)

// ValidationError represents an input validation failure. Validation
// failures are fatal and raised before any extractor runs.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// ParseError represents a fatal judge-response parse failure.
type ParseError struct {
	Reason string `json:"reason"`
	Raw    string `json:"raw,omitempty"`
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return fmt.Sprintf("judge response parse error: %s", e.Reason)
}

// NewParseError creates a new ParseError
func NewParseError(reason, raw string) *ParseError {
	return &ParseError{Reason: reason, Raw: raw}
}
