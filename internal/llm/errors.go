package llm

import (
	"errors"
	"fmt"
	"time"
)

// Envelope messages.
const (
	MsgInvalidJSON   = "Invalid JSON"
	MsgRequestFailed = "Request failed"
)

// ErrRateLimit indicates the provider returned a rate limit error (429).
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse indicates the LLM returned content that does not
// conform to the requested schema.
type ErrInvalidResponse struct {
	Content string
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid LLM response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable indicates the provider is down or unreachable.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
	}
	return "LLM provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded indicates the response was truncated because it
// hit the MaxTokens limit.
type ErrMaxTokensExceeded struct {
	Content string
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "LLM response truncated: max tokens exceeded"
}

// ErrorEnvelope is the error value produced at a parse boundary when a reply
// cannot be read as the shape its instruction asked for. It keeps the raw
// completion text so the output can be inspected or recovered by hand.
type ErrorEnvelope struct {
	Message   string `json:"error"`
	RawOutput string `json:"raw_output"`
	cause     error
}

// NewEnvelope wraps a malformed reply.
func NewEnvelope(raw string, cause error) *ErrorEnvelope {
	return &ErrorEnvelope{Message: MsgInvalidJSON, RawOutput: raw, cause: cause}
}

// FailedRequest wraps a transport failure for a call whose outcome is kept
// as data (a per-prompt record) rather than returned.
func FailedRequest(cause error) *ErrorEnvelope {
	return &ErrorEnvelope{Message: MsgRequestFailed, cause: cause}
}

func (e *ErrorEnvelope) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *ErrorEnvelope) Unwrap() error { return e.cause }

// AsEnvelope converts err into an envelope. Malformed and truncated replies
// keep the raw text; anything else becomes a failed request.
func AsEnvelope(err error) *ErrorEnvelope {
	if err == nil {
		return nil
	}
	var env *ErrorEnvelope
	if errors.As(err, &env) {
		return env
	}
	var inv *ErrInvalidResponse
	if errors.As(err, &inv) {
		return NewEnvelope(inv.Content, err)
	}
	var trunc *ErrMaxTokensExceeded
	if errors.As(err, &trunc) {
		return NewEnvelope(trunc.Content, err)
	}
	return FailedRequest(err)
}

// IsMalformed reports whether err means the service replied with text that
// could not be read as the requested shape, as opposed to a failed call.
func IsMalformed(err error) bool {
	var inv *ErrInvalidResponse
	var trunc *ErrMaxTokensExceeded
	var env *ErrorEnvelope
	if errors.As(err, &env) {
		return env.Message == MsgInvalidJSON
	}
	return errors.As(err, &inv) || errors.As(err, &trunc)
}
