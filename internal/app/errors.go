package app

import (
	"errors"
	"fmt"

	"llm-session-relay/internal/ai"
)

var (
	// ErrSessionUnavailable covers both unknown and ended sessions.
	ErrSessionUnavailable = errors.New("session not found or ended")
	ErrUpstreamFailure    = errors.New("upstream model call failed")
)

// UpstreamError is returned when the model call fails. Nothing was persisted
// for the reply, so the caller may retry.
type UpstreamError struct {
	Category ai.Category
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("llm failed: %s: %v", e.Category, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstreamFailure
}
