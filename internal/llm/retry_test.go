package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{Attempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Factor: 2}
}

func fail(kind error) Reply {
	return Reply{Err: &CallError{Kind: kind, Provider: "test"}}
}

func TestRetryRecoversFromTransientErrors(t *testing.T) {
	m := NewMock(fail(ErrRateLimit), fail(ErrProviderUnavailable), Reply{Text: "ok"})
	p := WithRetry(m, fastPolicy(3))

	c, err := p.Complete(context.Background(), Prompt{User: "x"})
	require.NoError(t, err)
	assert.Equal(t, "ok", c.Text)
	assert.Len(t, m.Prompts(), 3)
}

func TestRetryGivesUpAfterAttempts(t *testing.T) {
	m := NewMock(fail(ErrProviderUnavailable), fail(ErrProviderUnavailable), Reply{Text: "late"})
	p := WithRetry(m, fastPolicy(2))

	_, err := p.Complete(context.Background(), Prompt{User: "x"})
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	assert.Len(t, m.Prompts(), 2)
}

func TestRetryStopsOnPermanentErrors(t *testing.T) {
	for _, kind := range []error{ErrRequestRejected, ErrMaxTokensExceeded} {
		m := NewMock(fail(kind), Reply{Text: "never"})
		p := WithRetry(m, fastPolicy(3))

		_, err := p.Complete(context.Background(), Prompt{User: "x"})
		assert.ErrorIs(t, err, kind)
		assert.Len(t, m.Prompts(), 1, kind.Error())
	}
}

func TestRetryInvalidResponseOnce(t *testing.T) {
	m := NewMock(fail(ErrInvalidResponse), fail(ErrInvalidResponse), Reply{Text: "never"})
	p := WithRetry(m, fastPolicy(5))

	_, err := p.Complete(context.Background(), Prompt{User: "x"})
	assert.ErrorIs(t, err, ErrInvalidResponse)
	assert.Len(t, m.Prompts(), 2)
}

func TestRetryMalformedStructuredReply(t *testing.T) {
	m := NewMock(Reply{Text: `{"nope":1}`}, JSONReply(map[string]string{"feedback": "Correct."}))
	p := WithRetry(m, fastPolicy(3))

	c, err := p.Complete(context.Background(), Prompt{User: "x", Format: testFormat})
	require.NoError(t, err)
	assert.JSONEq(t, `{"feedback":"Correct."}`, c.Text)
}

func TestRetryHonoursCancellation(t *testing.T) {
	m := NewMock(fail(ErrProviderUnavailable), Reply{Text: "ok"})
	p := WithRetry(m, RetryPolicy{Attempts: 3, BaseDelay: time.Hour, Factor: 1})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := p.Complete(ctx, Prompt{User: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryDoesNotRetryContextErrors(t *testing.T) {
	m := NewMock(Reply{Err: context.DeadlineExceeded}, Reply{Text: "ok"})
	p := WithRetry(m, fastPolicy(3))

	_, err := p.Complete(context.Background(), Prompt{User: "x"})
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Len(t, m.Prompts(), 1)
}

func TestRetryDelay(t *testing.T) {
	p := RetryPolicy{BaseDelay: time.Second, MaxDelay: 5 * time.Second, Factor: 2}
	assert.Equal(t, time.Second, p.delay(0, errors.New("x")))
	assert.Equal(t, 4*time.Second, p.delay(2, errors.New("x")))
	assert.Equal(t, 5*time.Second, p.delay(6, errors.New("x")))

	rl := &CallError{Kind: ErrRateLimit, RetryAfter: 7 * time.Second}
	assert.Equal(t, 7*time.Second, p.delay(0, rl))
}

func TestWithTimeout(t *testing.T) {
	slow := providerFunc(func(ctx context.Context, _ Prompt) (*Completion, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	_, err := WithTimeout(slow, 5*time.Millisecond).Complete(context.Background(), Prompt{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type providerFunc func(context.Context, Prompt) (*Completion, error)

func (f providerFunc) Complete(ctx context.Context, p Prompt) (*Completion, error) { return f(ctx, p) }
func (providerFunc) Name() string                                                  { return "func" }
func (providerFunc) Model() string                                                 { return "func" }
