package agent

import (
	"context"
	"testing"
	"time"

	"ai-agent-be/pkg/agent/tools"
	"ai-agent-be/pkg/llm"
	"ai-agent-be/pkg/vectorindex"
	"ai-agent-be/pkg/websearch"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type unitEmbedder struct{}

func (unitEmbedder) Generate(context.Context, string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

type offlineWeb struct{}

func (offlineWeb) Search(context.Context, string) ([]websearch.Result, error) {
	return nil, nil
}

func (offlineWeb) FetchPage(context.Context, string) (string, error) {
	return "", nil
}

// A document search against an empty index must surface the sentinel to the
// model, and the final answer must come back through the loop untouched.
func TestTurnWithNoUploadsReportsSentinel(t *testing.T) {
	diskStore, err := vectorindex.NewDiskStore(t.TempDir())
	require.NoError(t, err)
	manager := vectorindex.NewManager(unitEmbedder{}, diskStore)
	executor := tools.NewExecutor(manager, offlineWeb{}, nopLogger{})

	provider := &scriptedProvider{
		replies: []*llm.Message{
			{
				Role: llm.RoleAssistant,
				ToolCalls: []llm.ToolCall{
					{Id: "c1", Name: tools.NameRetrievalSearch, Arguments: `{"query":"the budget"}`},
				},
			},
			{Role: llm.RoleAssistant, Content: "You have no documents uploaded yet."},
		},
	}
	store := &memoryStore{}
	o := NewOrchestrator(Config{
		Provider:     provider,
		Store:        store,
		Tools:        executor,
		ToolSchemas:  tools.Schemas(),
		Inventory:    manager,
		Logger:       nopLogger{},
		SystemPrompt: "You are a helpful assistant.",
		Now:          func() time.Time { return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC) },
	})

	added, err := o.RunTurn(context.Background(), uuid.New(), uuid.New(), "what does the budget say?")
	require.NoError(t, err)

	// user, assistant tool call, tool result, final answer
	require.Len(t, added, 4)
	assert.Equal(t, llm.RoleTool, added[2].Role)
	assert.Equal(t, "c1", added[2].ToolCallId)
	assert.Equal(t, tools.NoDocsSentinel, added[2].Content)
	assert.Equal(t, "You have no documents uploaded yet.", added[3].Content)
}
