package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// Reply is a canned Mock result.
type Reply struct {
	Text  string
	Usage Usage
	Err   error
}

// JSONReply marshals v as the reply text. It panics if v cannot be
// marshalled.
func JSONReply(v any) Reply {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return Reply{Text: string(b)}
}

// Mock replays canned replies in order and records the prompts it gets.
// Structured replies are checked against the prompt's Format like a real
// provider would.
type Mock struct {
	mu      sync.Mutex
	replies []Reply
	prompts []Prompt
}

// NewMock returns a Mock that will serve replies in order.
func NewMock(replies ...Reply) *Mock {
	return &Mock{replies: replies}
}

// Push queues another reply.
func (m *Mock) Push(r Reply) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, r)
}

// Complete serves the next reply. An empty queue is ErrProviderUnavailable.
func (m *Mock) Complete(_ context.Context, p Prompt) (*Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prompts = append(m.prompts, p)
	if len(m.replies) == 0 {
		return nil, &CallError{Kind: ErrProviderUnavailable, Provider: ProviderMock}
	}
	r := m.replies[0]
	m.replies = m.replies[1:]
	if r.Err != nil {
		return nil, r.Err
	}
	if err := checkFormat(ProviderMock, p.Format, r.Text); err != nil {
		return nil, err
	}
	return &Completion{Text: r.Text, Usage: r.Usage, Model: ProviderMock, Finish: FinishStop}, nil
}

// Prompts returns the prompts received so far.
func (m *Mock) Prompts() []Prompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Prompt, len(m.prompts))
	copy(out, m.prompts)
	return out
}

func (m *Mock) Name() string  { return ProviderMock }
func (m *Mock) Model() string { return ProviderMock }
