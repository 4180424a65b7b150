package crud

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Match them with errors.Is.
var (
	ErrLoadFailed   = errors.New("load failed")
	ErrSubmitFailed = errors.New("submit failed")
	ErrDeleteFailed = errors.New("delete failed")
	ErrNotFound     = errors.New("record not found")
	ErrAlreadyOpen  = errors.New("a form is already open")
	ErrNoModal      = errors.New("no form is open")
	ErrBusy         = errors.New("a submit is already in progress")
)

// Op names the controller operation that failed.
type Op string

const (
	OpLoad       Op = "load"
	OpOpenCreate Op = "open_create"
	OpOpenEdit   Op = "open_edit"
	OpSubmit     Op = "submit"
	OpDelete     Op = "delete"
)

// Error is returned by every failing controller operation. Message is the
// text to show the user; Err is the collaborator error, when there is one.
type Error struct {
	Op      Op
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Kind)
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessager is implemented by collaborator errors that carry text
// suitable for display, such as backend validation messages.
type UserMessager interface {
	UserMessage() string
}

// Message returns the user-facing text for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var ce *Error
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	return extractMessage(err, err.Error())
}

func extractMessage(err error, fallback string) string {
	var um UserMessager
	if errors.As(err, &um) {
		if msg := strings.TrimSpace(um.UserMessage()); msg != "" {
			return msg
		}
	}
	return fallback
}

func newError(op Op, kind error, cause error, fallback string) *Error {
	return &Error{
		Op:      op,
		Kind:    kind,
		Message: extractMessage(cause, fallback),
		Err:     cause,
	}
}
