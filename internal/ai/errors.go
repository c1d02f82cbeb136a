package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
)

type Category string

const (
	CategoryCredential      Category = "credential"
	CategoryTimeout         Category = "timeout"
	CategoryCanceled        Category = "canceled"
	CategoryTransport       Category = "transport"
	CategoryHTTPStatus      Category = "http_status"
	CategoryInvalidResponse Category = "invalid_response"
	CategoryProvider        Category = "provider"
	CategoryUnknown         Category = "unknown"
)

// Error is returned by every model client for a failed completion.
type Error struct {
	Category   Category
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("llm %s (status %d): %v", e.Category, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("llm %s: %v", e.Category, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CategoryOf reports the failure category of err.
func CategoryOf(err error) Category {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Category
	}
	return transportCategory(err)
}

func transportCategory(err error) Category {
	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTimeout
	}
	if errors.Is(err, context.Canceled) {
		return CategoryCanceled
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CategoryTimeout
	}
	if err != nil {
		return CategoryTransport
	}
	return CategoryUnknown
}

func credentialError(err error) error {
	return &Error{Category: CategoryCredential, Err: fmt.Errorf("get credential failed: %w", err)}
}
