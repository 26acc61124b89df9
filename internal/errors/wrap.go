package errors

import (
	"errors"
	"fmt"
)

// Wrapper attaches a module, an operation and a user-facing message to errors.
type Wrapper struct {
	Module    string
	Operation string
}

// NewWrapper creates a Wrapper.
func NewWrapper(module, operation string) Wrapper {
	return Wrapper{Module: module, Operation: operation}
}

// Wrap returns nil for a nil err.
func (w Wrapper) Wrap(err error, userMessage string) error {
	if err == nil {
		return nil
	}
	return &WrappedError{
		Module:      w.Module,
		Operation:   w.Operation,
		Cause:       err,
		UserMessage: userMessage,
	}
}

// WrappedError carries the internal cause and the message shown to callers.
type WrappedError struct {
	Module      string
	Operation   string
	Cause       error
	UserMessage string
}

func (e *WrappedError) Error() string {
	return fmt.Sprintf("[%s:%s] %s: %v", e.Module, e.Operation, e.UserMessage, e.Cause)
}

func (e *WrappedError) Unwrap() error {
	return e.Cause
}

// GetUserMessage returns the message of the outermost WrappedError in err's
// chain, or err's own text when there is none.
func GetUserMessage(err error) string {
	if err == nil {
		return ""
	}
	if wrapped, ok := errors.AsType[*WrappedError](err); ok {
		return wrapped.UserMessage
	}
	return err.Error()
}
