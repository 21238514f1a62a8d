package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"ai-agent-be/pkg/llm"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	replies []*llm.Message
	errs    []error
	calls   int
	// histories seen on each call, for asserting what the model was shown
	seen [][]llm.Message
}

func (p *scriptedProvider) Chat(_ context.Context, history []llm.Message, _ []llm.ToolSchema, _ ...llm.Option) (*llm.Message, error) {
	snapshot := make([]llm.Message, len(history))
	copy(snapshot, history)
	p.seen = append(p.seen, snapshot)

	i := p.calls
	p.calls++
	if i < len(p.errs) && p.errs[i] != nil {
		return nil, p.errs[i]
	}
	if i < len(p.replies) {
		return p.replies[i], nil
	}
	return &llm.Message{Role: llm.RoleAssistant, Content: "done"}, nil
}

type memoryStore struct {
	history   []llm.Message
	saves     int
	failAfter int // fail on save number failAfter (1-based); 0 disables
}

func (s *memoryStore) Load(_ context.Context, _, _ uuid.UUID) ([]llm.Message, error) {
	out := make([]llm.Message, len(s.history))
	copy(out, s.history)
	return out, nil
}

func (s *memoryStore) Save(_ context.Context, _, _ uuid.UUID, history []llm.Message) error {
	s.saves++
	if s.failAfter > 0 && s.saves >= s.failAfter {
		return errors.New("database unavailable")
	}
	s.history = make([]llm.Message, len(history))
	copy(s.history, history)
	return nil
}

type stubRunner struct {
	content string
	calls   []llm.ToolCall
}

func (r *stubRunner) Execute(_ context.Context, _ uuid.UUID, call llm.ToolCall) llm.Message {
	r.calls = append(r.calls, call)
	return llm.Message{Role: llm.RoleTool, ToolCallId: call.Id, Content: r.content}
}

type stubInventory struct {
	summary string
	err     error
}

func (s *stubInventory) Summary(context.Context, uuid.UUID) (string, error) {
	return s.summary, s.err
}

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}

func newTestOrchestrator(provider llm.Provider, store HistoryStore, runner ToolRunner, inventory InventorySummarizer) *Orchestrator {
	return NewOrchestrator(Config{
		Provider:     provider,
		Store:        store,
		Tools:        runner,
		Inventory:    inventory,
		Logger:       nopLogger{},
		SystemPrompt: "You are a helpful assistant.",
		Now: func() time.Time {
			return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
		},
	})
}

func TestRunTurnPlainAnswer(t *testing.T) {
	provider := &scriptedProvider{
		replies: []*llm.Message{{Role: llm.RoleAssistant, Content: "hello there"}},
	}
	store := &memoryStore{}
	o := newTestOrchestrator(provider, store, &stubRunner{}, &stubInventory{summary: "- notes.txt (folder: Top-level)"})

	added, err := o.RunTurn(context.Background(), uuid.New(), uuid.New(), "hi")
	require.NoError(t, err)

	require.Len(t, added, 2)
	assert.Equal(t, llm.RoleUser, added[0].Role)
	assert.Equal(t, "hi", added[0].Content)
	assert.Equal(t, llm.RoleAssistant, added[1].Role)
	assert.Equal(t, "hello there", added[1].Content)

	// The model saw a fresh system message carrying prompt, inventory and clock.
	require.NotEmpty(t, provider.seen)
	system := provider.seen[0][0]
	assert.Equal(t, llm.RoleSystem, system.Role)
	assert.Contains(t, system.Content, "You are a helpful assistant.")
	assert.Contains(t, system.Content, "- notes.txt (folder: Top-level)")
	assert.Contains(t, system.Content, "2026-08-30 12:00:00")
}

func TestRunTurnRewritesStaleSystemMessage(t *testing.T) {
	store := &memoryStore{history: []llm.Message{
		{Role: llm.RoleSystem, Content: "stale prompt from last turn"},
		{Role: llm.RoleUser, Content: "earlier question"},
		{Role: llm.RoleAssistant, Content: "earlier answer"},
	}}
	provider := &scriptedProvider{
		replies: []*llm.Message{{Role: llm.RoleAssistant, Content: "ok"}},
	}
	o := newTestOrchestrator(provider, store, &stubRunner{}, &stubInventory{summary: "- fresh.pdf (folder: docs)"})

	_, err := o.RunTurn(context.Background(), uuid.New(), uuid.New(), "again")
	require.NoError(t, err)

	system := provider.seen[0][0]
	assert.NotContains(t, system.Content, "stale prompt")
	assert.Contains(t, system.Content, "- fresh.pdf (folder: docs)")
	// Earlier conversation survives untouched after the system slot.
	assert.Equal(t, "earlier question", provider.seen[0][1].Content)
	assert.Equal(t, "earlier answer", provider.seen[0][2].Content)
}

func TestRunTurnExecutesToolCallsInOrder(t *testing.T) {
	provider := &scriptedProvider{
		replies: []*llm.Message{
			{
				Role: llm.RoleAssistant,
				ToolCalls: []llm.ToolCall{
					{Id: "call_a", Name: "search_uploaded_files", Arguments: `{"query":"x"}`},
					{Id: "call_b", Name: "calculator", Arguments: `{"expression":"1+1"}`},
				},
			},
			{Role: llm.RoleAssistant, Content: "final answer"},
		},
	}
	runner := &stubRunner{content: "tool output"}
	store := &memoryStore{}
	o := newTestOrchestrator(provider, store, runner, &stubInventory{})

	added, err := o.RunTurn(context.Background(), uuid.New(), uuid.New(), "do things")
	require.NoError(t, err)

	// user, assistant-with-calls, two tool results, final assistant
	require.Len(t, added, 5)
	assert.Equal(t, llm.RoleTool, added[2].Role)
	assert.Equal(t, "call_a", added[2].ToolCallId)
	assert.Equal(t, llm.RoleTool, added[3].Role)
	assert.Equal(t, "call_b", added[3].ToolCallId)
	assert.Equal(t, "final answer", added[4].Content)

	require.Len(t, runner.calls, 2)
	assert.Equal(t, "call_a", runner.calls[0].Id)
	assert.Equal(t, "call_b", runner.calls[1].Id)

	// The second model call saw the tool results in the history.
	second := provider.seen[1]
	assert.Equal(t, "call_b", second[len(second)-1].ToolCallId)
}

func TestRunTurnStopsAtIterationLimit(t *testing.T) {
	looping := &llm.Message{
		Role:      llm.RoleAssistant,
		ToolCalls: []llm.ToolCall{{Id: "loop", Name: "calculator", Arguments: `{"expression":"1"}`}},
	}
	replies := make([]*llm.Message, DefaultMaxIterations+5)
	for i := range replies {
		replies[i] = looping
	}
	provider := &scriptedProvider{replies: replies}
	store := &memoryStore{}
	o := newTestOrchestrator(provider, store, &stubRunner{content: "1"}, &stubInventory{})

	added, err := o.RunTurn(context.Background(), uuid.New(), uuid.New(), "loop forever")
	require.NoError(t, err)

	assert.Equal(t, DefaultMaxIterations, provider.calls)
	last := added[len(added)-1]
	assert.Equal(t, llm.RoleAssistant, last.Role)
	assert.Equal(t, iterationLimitText, last.Content)
}

func TestRunTurnClassifiesModelFailures(t *testing.T) {
	cases := []struct {
		kind llm.ErrorKind
		want string
	}{
		{llm.KindRateLimited, rateLimitedText},
		{llm.KindUnreachable, unreachableText},
		{llm.KindTimedOut, timedOutText},
		{llm.KindUpstreamError, upstreamText},
		{llm.KindUnexpected, unexpectedText},
	}
	for _, tc := range cases {
		t.Run(tc.kind.String(), func(t *testing.T) {
			provider := &scriptedProvider{
				errs: []error{&llm.Error{Kind: tc.kind, Err: fmt.Errorf("boom")}},
			}
			store := &memoryStore{}
			o := newTestOrchestrator(provider, store, &stubRunner{}, &stubInventory{})

			added, err := o.RunTurn(context.Background(), uuid.New(), uuid.New(), "hi")
			require.NoError(t, err)

			last := added[len(added)-1]
			assert.Equal(t, llm.RoleAssistant, last.Role)
			assert.Equal(t, tc.want, last.Content)
			// Both the user message and the failure answer were persisted.
			assert.Equal(t, last.Content, store.history[len(store.history)-1].Content)
		})
	}
}

func TestRunTurnPersistsAfterEveryAppend(t *testing.T) {
	provider := &scriptedProvider{
		replies: []*llm.Message{
			{
				Role:      llm.RoleAssistant,
				ToolCalls: []llm.ToolCall{{Id: "c1", Name: "calculator", Arguments: `{"expression":"1"}`}},
			},
			{Role: llm.RoleAssistant, Content: "answer"},
		},
	}
	store := &memoryStore{}
	o := newTestOrchestrator(provider, store, &stubRunner{content: "1"}, &stubInventory{})

	added, err := o.RunTurn(context.Background(), uuid.New(), uuid.New(), "compute")
	require.NoError(t, err)

	// One save per appended message: user, assistant, tool result, answer.
	assert.Equal(t, len(added), store.saves)
	assert.Equal(t, 4, store.saves)
}

func TestRunTurnSurfacesPersistenceFailure(t *testing.T) {
	provider := &scriptedProvider{
		replies: []*llm.Message{{Role: llm.RoleAssistant, Content: "answer"}},
	}
	store := &memoryStore{failAfter: 2}
	o := newTestOrchestrator(provider, store, &stubRunner{}, &stubInventory{})

	_, err := o.RunTurn(context.Background(), uuid.New(), uuid.New(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persist history")
}

func TestRunTurnInterruptedPersistenceKeepsOnlySavedMessages(t *testing.T) {
	looping := &llm.Message{
		Role:      llm.RoleAssistant,
		ToolCalls: []llm.ToolCall{{Id: "c", Name: "calculator", Arguments: `{"expression":"1"}`}},
	}
	provider := &scriptedProvider{replies: []*llm.Message{looping, looping, looping}}
	// Saves 1-3 succeed (user, assistant, tool result); save 4 is the crash.
	store := &memoryStore{failAfter: 4}
	o := newTestOrchestrator(provider, store, &stubRunner{content: "1"}, &stubInventory{})

	_, err := o.RunTurn(context.Background(), uuid.New(), uuid.New(), "loop")
	require.Error(t, err)

	// System message plus the three appends that made it to disk.
	require.Len(t, store.history, 4)
	assert.Equal(t, llm.RoleSystem, store.history[0].Role)
	assert.Equal(t, llm.RoleUser, store.history[1].Role)
	assert.Equal(t, llm.RoleAssistant, store.history[2].Role)
	assert.Equal(t, llm.RoleTool, store.history[3].Role)
}

func TestRunTurnInventoryFailureDegradesToEmpty(t *testing.T) {
	provider := &scriptedProvider{
		replies: []*llm.Message{{Role: llm.RoleAssistant, Content: "ok"}},
	}
	o := newTestOrchestrator(provider, &memoryStore{}, &stubRunner{}, &stubInventory{err: errors.New("store down")})

	_, err := o.RunTurn(context.Background(), uuid.New(), uuid.New(), "hi")
	require.NoError(t, err)
	assert.Contains(t, provider.seen[0][0].Content, "Uploaded files:\n(none)")
}
