package tools

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"ai-agent-be/pkg/llm"
	"ai-agent-be/pkg/vectorindex"
	"ai-agent-be/pkg/websearch"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubIndex struct {
	hits       []vectorindex.ScoredChunk
	err        error
	lastUserId uuid.UUID
	lastQuery  string
	lastK      int
	lastScore  float64
}

func (s *stubIndex) Search(_ context.Context, userId uuid.UUID, query string, k int, minScore float64) ([]vectorindex.ScoredChunk, error) {
	s.lastUserId = userId
	s.lastQuery = query
	s.lastK = k
	s.lastScore = minScore
	return s.hits, s.err
}

type stubWeb struct {
	results  []websearch.Result
	page     string
	err      error
	fetched  string
	searched string
}

func (s *stubWeb) Search(_ context.Context, query string) ([]websearch.Result, error) {
	s.searched = query
	return s.results, s.err
}

func (s *stubWeb) FetchPage(_ context.Context, pageURL string) (string, error) {
	s.fetched = pageURL
	return s.page, s.err
}

type nopLogger struct{}

func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}

func TestDecodeAppliesRetrievalDefaults(t *testing.T) {
	inv, err := Decode(NameRetrievalSearch, `{"query":"deadlines"}`)
	require.NoError(t, err)

	search, ok := inv.(RetrievalSearch)
	require.True(t, ok)
	assert.Equal(t, "deadlines", search.Query)
	assert.Equal(t, DefaultMinScore, search.MinScore)
	assert.Equal(t, DefaultKAmount, search.K)
}

func TestDecodeKeepsExplicitRetrievalArguments(t *testing.T) {
	inv, err := Decode(NameRetrievalSearch, `{"query":"q","min_score":0.7,"k_amount":2}`)
	require.NoError(t, err)

	search := inv.(RetrievalSearch)
	assert.Equal(t, 0.7, search.MinScore)
	assert.Equal(t, 2, search.K)
}

func TestDecodeRejectsUnknownTool(t *testing.T) {
	_, err := Decode("delete_everything", `{}`)
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestDecodeEmptyArgumentsAsEmptyObject(t *testing.T) {
	inv, err := Decode(NameCalculator, "")
	require.NoError(t, err)
	assert.Equal(t, Calculate{}, inv)
}

func TestSchemasCoverEveryInvocation(t *testing.T) {
	schemas := Schemas()
	require.Len(t, schemas, 3)

	names := make(map[string]bool, len(schemas))
	for _, s := range schemas {
		names[s.Name] = true
		assert.NotEmpty(t, s.Description)
		assert.NotEmpty(t, s.Parameters)
	}
	assert.True(t, names[NameRetrievalSearch])
	assert.True(t, names[NameWebSearch])
	assert.True(t, names[NameCalculator])
}

func TestExecuteRetrievalInjectsAuthenticatedUser(t *testing.T) {
	userId := uuid.New()
	index := &stubIndex{
		hits: []vectorindex.ScoredChunk{
			{
				Chunk: vectorindex.DocumentChunk{
					Content: "quarterly numbers",
					Metadata: vectorindex.ChunkMetadata{
						Filename:   "report.pdf",
						FolderPath: "finance",
					},
				},
				Similarity: 0.9,
			},
		},
	}
	executor := NewExecutor(index, &stubWeb{}, nopLogger{})

	msg := executor.Execute(context.Background(), userId, llm.ToolCall{
		Id:        "call_1",
		Name:      NameRetrievalSearch,
		Arguments: `{"query":"numbers"}`,
	})

	assert.Equal(t, userId, index.lastUserId)
	assert.Equal(t, DefaultKAmount, index.lastK)
	assert.Equal(t, llm.RoleTool, msg.Role)
	assert.Equal(t, "call_1", msg.ToolCallId)
	assert.Equal(t, "File: report.pdf\nPath: finance\nContent: quarterly numbers", msg.Content)
}

func TestExecuteRetrievalEmptyIndexReturnsSentinel(t *testing.T) {
	executor := NewExecutor(&stubIndex{}, &stubWeb{}, nopLogger{})

	msg := executor.Execute(context.Background(), uuid.New(), llm.ToolCall{
		Id:        "call_2",
		Name:      NameRetrievalSearch,
		Arguments: `{"query":"anything"}`,
	})

	assert.Equal(t, NoDocsSentinel, msg.Content)
}

func TestExecuteRetrievalFailureBecomesContent(t *testing.T) {
	index := &stubIndex{err: errors.New("disk gone")}
	executor := NewExecutor(index, &stubWeb{}, nopLogger{})

	msg := executor.Execute(context.Background(), uuid.New(), llm.ToolCall{
		Id:        "call_3",
		Name:      NameRetrievalSearch,
		Arguments: `{"query":"anything"}`,
	})

	assert.Equal(t, "call_3", msg.ToolCallId)
	assert.Contains(t, msg.Content, "disk gone")
}

func TestExecuteWebSearchFormatsResults(t *testing.T) {
	web := &stubWeb{
		results: []websearch.Result{
			{Title: "Go", Link: "https://go.dev", Content: "the language"},
			{Title: "Fiber", Link: "https://gofiber.io", Content: "the framework"},
		},
	}
	executor := NewExecutor(&stubIndex{}, web, nopLogger{})

	msg := executor.Execute(context.Background(), uuid.New(), llm.ToolCall{
		Id:        "call_4",
		Name:      NameWebSearch,
		Arguments: `{"query":"golang"}`,
	})

	assert.Equal(t, "golang", web.searched)
	assert.Equal(t,
		"Title: Go\nLink: https://go.dev\nContent: the language\n\n"+
			"Title: Fiber\nLink: https://gofiber.io\nContent: the framework",
		msg.Content)
}

func TestExecuteWebSearchNoResultsReturnsSentinel(t *testing.T) {
	executor := NewExecutor(&stubIndex{}, &stubWeb{}, nopLogger{})

	msg := executor.Execute(context.Background(), uuid.New(), llm.ToolCall{
		Id:        "call_5",
		Name:      NameWebSearch,
		Arguments: `{"query":"nothing matches this"}`,
	})

	assert.Equal(t, NoResultsSentinel, msg.Content)
}

func TestExecuteWebSearchWithURLFetchesPage(t *testing.T) {
	web := &stubWeb{page: "article body"}
	executor := NewExecutor(&stubIndex{}, web, nopLogger{})

	msg := executor.Execute(context.Background(), uuid.New(), llm.ToolCall{
		Id:        "call_6",
		Name:      NameWebSearch,
		Arguments: `{"query":"https://example.com/post"}`,
	})

	assert.Equal(t, "https://example.com/post", web.fetched)
	assert.Equal(t, "article body", msg.Content)
}

func TestExecuteWebFetchTruncatesAtRuneBoundary(t *testing.T) {
	// Three-byte runes guarantee the byte cap would land mid-rune.
	web := &stubWeb{page: strings.Repeat("界", maxPageTextLen)}
	executor := NewExecutor(&stubIndex{}, web, nopLogger{})

	msg := executor.Execute(context.Background(), uuid.New(), llm.ToolCall{
		Id:        "call_10",
		Name:      NameWebSearch,
		Arguments: `{"query":"https://example.com/cjk"}`,
	})

	require.NotEmpty(t, msg.Content)
	assert.LessOrEqual(t, len(msg.Content), maxPageTextLen)
	assert.True(t, utf8.ValidString(msg.Content))
}

func TestExecuteCalculator(t *testing.T) {
	executor := NewExecutor(&stubIndex{}, &stubWeb{}, nopLogger{})

	msg := executor.Execute(context.Background(), uuid.New(), llm.ToolCall{
		Id:        "call_7",
		Name:      NameCalculator,
		Arguments: `{"expression":"(2 + 3) * 4"}`,
	})

	assert.Equal(t, "20", msg.Content)
}

func TestExecuteCalculatorBadExpression(t *testing.T) {
	executor := NewExecutor(&stubIndex{}, &stubWeb{}, nopLogger{})

	msg := executor.Execute(context.Background(), uuid.New(), llm.ToolCall{
		Id:        "call_8",
		Name:      NameCalculator,
		Arguments: `{"expression":"2 +* 3"}`,
	})

	assert.Contains(t, msg.Content, "Error evaluating expression:")
}

func TestExecuteUnknownToolStillAnswersTheCall(t *testing.T) {
	executor := NewExecutor(&stubIndex{}, &stubWeb{}, nopLogger{})

	msg := executor.Execute(context.Background(), uuid.New(), llm.ToolCall{
		Id:        "call_9",
		Name:      "format_disk",
		Arguments: `{}`,
	})

	assert.Equal(t, llm.RoleTool, msg.Role)
	assert.Equal(t, "call_9", msg.ToolCallId)
	assert.Contains(t, msg.Content, "unknown tool name")
}
