package genai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	domerrors "github.com/garyellow/triangulator-go/internal/errors"
)

// ErrorAction is what the fallback chain does after a failed call.
type ErrorAction int

const (
	// ActionRetry retries the same model after a backoff.
	ActionRetry ErrorAction = iota
	// ActionFallback moves on to the next model or provider.
	ActionFallback
	// ActionFail stops the chain; the caller gave up.
	ActionFail
)

var actionNames = [...]string{ActionRetry: "retry", ActionFallback: "fallback", ActionFail: "fail"}

func (a ErrorAction) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return "unknown"
	}
	return actionNames[a]
}

// LLMError records which provider and model failed, and the HTTP status
// when one is known.
type LLMError struct {
	Err        error
	StatusCode int
	Provider   Provider
	Model      string
}

func (e *LLMError) Error() string {
	who := string(e.Provider)
	if e.Model != "" {
		who += "/" + e.Model
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %v (status: %d)", who, e.Err, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", who, e.Err)
}

func (e *LLMError) Unwrap() error {
	return e.Err
}

// WrapError tags err with provider and model. A zero statusCode is taken
// from an UpstreamError in err's chain, if any.
func WrapError(err error, provider Provider, model string, statusCode int) error {
	if err == nil {
		return nil
	}
	if statusCode == 0 {
		if up, ok := errors.AsType[*domerrors.UpstreamError](err); ok {
			statusCode = up.StatusCode
		}
	}
	return &LLMError{Err: err, StatusCode: statusCode, Provider: provider, Model: model}
}

// phraseRules classify errors that carry no status code, by message text.
// Order matters: quota exhaustion is checked before generic rate limiting.
var phraseRules = []struct {
	action  ErrorAction
	phrases []string
}{
	{ActionFallback, []string{"quota", "daily limit", "monthly limit", "billing"}},
	{ActionRetry, []string{"429", "rate limit", "too many requests", "resource_exhausted"}},
	{ActionRetry, []string{"unavailable", "500", "502", "503", "504", "internal server error",
		"bad gateway", "gateway timeout", "overloaded", "capacity"}},
	{ActionRetry, []string{"408", "409", "timeout", "deadline", "connection"}},
}

// ClassifyError decides how the chain reacts to err. Transient failures are
// retried, permanent ones for this model fall through to the next, and
// cancellation stops everything.
func ClassifyError(err error) ErrorAction {
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return ActionFail
	case errors.Is(err, context.DeadlineExceeded):
		return ActionRetry
	case errors.Is(err, domerrors.ErrMissingCredential), errors.Is(err, domerrors.ErrMalformedResponse):
		return ActionFallback
	}

	if llmErr, ok := errors.AsType[*LLMError](err); ok && llmErr.StatusCode > 0 {
		return classifyStatusCode(llmErr.StatusCode)
	}

	msg := strings.ToLower(err.Error())
	for _, rule := range phraseRules {
		for _, p := range rule.phrases {
			if strings.Contains(msg, p) {
				return rule.action
			}
		}
	}
	return ActionFallback
}

func classifyStatusCode(code int) ErrorAction {
	switch {
	case code == http.StatusTooManyRequests, code == http.StatusRequestTimeout, code == http.StatusConflict:
		return ActionRetry
	case code >= 500 && code < 600:
		return ActionRetry
	case code >= 400 && code < 500:
		return ActionFallback
	default:
		return ActionRetry
	}
}

// IsRetryable reports whether err is transient.
func IsRetryable(err error) bool {
	return ClassifyError(err) == ActionRetry
}

// classifyErrorType maps err to the status label of the LLM call metric.
func classifyErrorType(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, domerrors.ErrMissingCredential):
		return "auth_error"
	}

	if llmErr, ok := errors.AsType[*LLMError](err); ok {
		switch code := llmErr.StatusCode; {
		case code == http.StatusTooManyRequests:
			return "rate_limit"
		case code >= 500:
			return "server_error"
		case code == http.StatusUnauthorized, code == http.StatusForbidden:
			return "auth_error"
		case code == http.StatusBadRequest:
			return "invalid_request"
		}
	}

	if IsRetryable(err) {
		return "transient_error"
	}
	return "error"
}

// containsAny checks if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
