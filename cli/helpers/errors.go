package helpers

import (
	"errors"
	"fmt"
	"time"
)

// ErrAuth marks failures that a new login would fix.
var ErrAuth = errors.New("authentication error")

// CliError is the structured error every command reports.
type CliError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   string         `json:"details,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

func (e *CliError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewCliError(code, message string, details ...string) *CliError {
	err := &CliError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

// WithContext attaches a key/value pair shown in JSON output.
func (e *CliError) WithContext(key string, value any) *CliError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// AuthError reports a missing or rejected session.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

func (e *AuthError) Is(target error) bool {
	return target == ErrAuth
}

func NewAuthError(reason string) error {
	return &AuthError{Reason: reason}
}

// IsAuthError reports whether err is an AuthError.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuth)
}
