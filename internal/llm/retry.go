package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// RetryPolicy controls retries of transient failures.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Factor    float64

	// Jitter is the +/- fraction applied to each delay.
	Jitter float64
}

// DefaultRetryPolicy tries three times with 1s, 2s backoff capped at 10s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:  3,
		BaseDelay: time.Second,
		MaxDelay:  10 * time.Second,
		Factor:    2,
		Jitter:    0.2,
	}
}

// delay returns the wait before retry n (0-based).
func (p RetryPolicy) delay(n int, err error) time.Duration {
	var ce *CallError
	if errors.As(err, &ce) && ce.RetryAfter > 0 {
		return ce.RetryAfter
	}
	d := float64(p.BaseDelay) * math.Pow(p.Factor, float64(n))
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	if p.Jitter > 0 {
		d += d * p.Jitter * (2*rand.Float64() - 1)
	}
	return time.Duration(max(d, 0))
}

type retrying struct {
	Provider
	policy RetryPolicy
}

// WithRetry retries rate limits and outages with exponential backoff, and
// gives a malformed structured response one more try. Rejected requests,
// truncated output and context errors fail immediately.
func WithRetry(p Provider, policy RetryPolicy) Provider {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	return &retrying{Provider: p, policy: policy}
}

func (r *retrying) Complete(ctx context.Context, p Prompt) (*Completion, error) {
	var (
		lastErr      error
		retriedShape bool
	)
	for n := range r.policy.Attempts {
		c, err := r.Provider.Complete(ctx, p)
		if err == nil {
			return c, nil
		}
		lastErr = err

		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, err
		case errors.Is(err, ErrMaxTokensExceeded), errors.Is(err, ErrRequestRejected):
			return nil, err
		case errors.Is(err, ErrInvalidResponse):
			if retriedShape {
				return nil, err
			}
			retriedShape = true
		}

		if n == r.policy.Attempts-1 {
			break
		}
		t := time.NewTimer(r.policy.delay(n, err))
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	return nil, lastErr
}

type timeoutProvider struct {
	Provider
	d time.Duration
}

// WithTimeout bounds each Complete call.
func WithTimeout(p Provider, d time.Duration) Provider {
	return &timeoutProvider{Provider: p, d: d}
}

func (t *timeoutProvider) Complete(ctx context.Context, p Prompt) (*Completion, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.Provider.Complete(ctx, p)
}
