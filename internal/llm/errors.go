package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Error kinds. Match them with errors.Is.
var (
	ErrRateLimit           = errors.New("rate limited")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrRequestRejected     = errors.New("request rejected")
	ErrInvalidResponse     = errors.New("invalid response")
	ErrMaxTokensExceeded   = errors.New("response truncated at max tokens")
)

// CallError is a failed completion.
type CallError struct {
	Kind     error
	Provider string

	// RetryAfter is the server's requested wait, if it sent one.
	RetryAfter time.Duration

	// Text is the raw completion for ErrInvalidResponse and
	// ErrMaxTokensExceeded.
	Text string

	Err error
}

func (e *CallError) Error() string {
	msg := "llm"
	if e.Provider != "" {
		msg += " " + e.Provider
	}
	msg += ": " + e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CallError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// statusError maps an HTTP status from a provider SDK to an error kind.
func statusError(provider string, status int, header http.Header, err error) error {
	ce := &CallError{Provider: provider, Err: err}
	switch {
	case status == http.StatusTooManyRequests:
		ce.Kind = ErrRateLimit
		if header != nil {
			ce.RetryAfter = parseRetryAfter(header.Get("Retry-After"))
		}
	case status >= 500, status == 0:
		ce.Kind = ErrProviderUnavailable
	case status >= 400:
		ce.Kind = ErrRequestRejected
	default:
		ce.Kind = ErrProviderUnavailable
	}
	return ce
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func invalidResponse(provider, text string, format string, args ...any) error {
	return &CallError{Kind: ErrInvalidResponse, Provider: provider, Text: text, Err: fmt.Errorf(format, args...)}
}
