package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"ai-agent-be/pkg/llm"
	"ai-agent-be/pkg/vectorindex"
	"ai-agent-be/pkg/websearch"

	"github.com/Knetic/govaluate"
	"github.com/google/uuid"
)

// Sentinels returned as tool content instead of faults.
const (
	NoDocsSentinel    = "No docs uploaded."
	NoResultsSentinel = "No results found."
)

// Result content of a fetched page is capped so a single tool call cannot
// flood the model context.
const maxPageTextLen = 8000

// RetrievalSearcher is the slice of the index manager the executor needs.
type RetrievalSearcher interface {
	Search(ctx context.Context, userId uuid.UUID, query string, k int, minScore float64) ([]vectorindex.ScoredChunk, error)
}

// WebClient is the slice of the web search client the executor needs.
type WebClient interface {
	Search(ctx context.Context, query string) ([]websearch.Result, error)
	FetchPage(ctx context.Context, pageURL string) (string, error)
}

type Logger interface {
	Warn(module, message string, details map[string]interface{})
	Error(module, message string, details map[string]interface{})
}

// Executor dispatches decoded invocations to their capabilities. Every call
// produces exactly one tool message carrying the originating tool call id;
// internal failures become textual content, never faults.
type Executor struct {
	index RetrievalSearcher
	web   WebClient
	log   Logger
}

func NewExecutor(index RetrievalSearcher, web WebClient, log Logger) *Executor {
	return &Executor{
		index: index,
		web:   web,
		log:   log,
	}
}

// Execute runs one tool call on behalf of userId. The user id is injected
// here from the authenticated request, never taken from model-supplied
// arguments, so a prompt-injected call cannot read another user's index.
func (e *Executor) Execute(ctx context.Context, userId uuid.UUID, call llm.ToolCall) llm.Message {
	result := llm.Message{
		Role:       llm.RoleTool,
		ToolCallId: call.Id,
	}

	invocation, err := Decode(call.Name, call.Arguments)
	if err != nil {
		// Unknown tools should be impossible: the model is only offered
		// registered schemas. Log loudly, answer with the failure text.
		e.log.Error("tools", "failed to decode tool call", map[string]interface{}{
			"tool":  call.Name,
			"error": err.Error(),
		})
		result.Content = fmt.Sprintf("Tool call failed: %v", err)
		return result
	}

	switch inv := invocation.(type) {
	case RetrievalSearch:
		result.Content = e.searchUploadedFiles(ctx, userId, inv)
	case WebSearch:
		result.Content = e.searchWeb(ctx, inv)
	case Calculate:
		result.Content = evaluate(inv.Expression)
	default:
		e.log.Error("tools", "invocation variant without executor branch", map[string]interface{}{
			"tool": call.Name,
		})
		result.Content = fmt.Sprintf("Tool call failed: no executor for %q", call.Name)
	}
	return result
}

func (e *Executor) searchUploadedFiles(ctx context.Context, userId uuid.UUID, inv RetrievalSearch) string {
	hits, err := e.index.Search(ctx, userId, inv.Query, inv.K, inv.MinScore)
	if err != nil {
		e.log.Warn("tools", "retrieval search failed", map[string]interface{}{
			"user_id": userId.String(),
			"error":   err.Error(),
		})
		return fmt.Sprintf("Error searching uploaded files: %v", err)
	}
	if len(hits) == 0 {
		return NoDocsSentinel
	}

	records := make([]string, 0, len(hits))
	for _, hit := range hits {
		records = append(records, fmt.Sprintf(
			"File: %s\nPath: %s\nContent: %s",
			hit.Chunk.Metadata.Filename,
			hit.Chunk.Metadata.FolderPath,
			hit.Chunk.Content,
		))
	}
	return strings.Join(records, "\n\n")
}

func (e *Executor) searchWeb(ctx context.Context, inv WebSearch) string {
	if websearch.IsURL(inv.Query) {
		text, err := e.web.FetchPage(ctx, inv.Query)
		if err != nil {
			return fmt.Sprintf("Error fetching page: %v", err)
		}
		if text == "" {
			return NoResultsSentinel
		}
		return truncate(text, maxPageTextLen)
	}

	results, err := e.web.Search(ctx, inv.Query)
	if err != nil {
		return fmt.Sprintf("Error searching the web: %v", err)
	}
	if len(results) == 0 {
		return NoResultsSentinel
	}

	records := make([]string, 0, len(results))
	for _, r := range results {
		records = append(records, fmt.Sprintf(
			"Title: %s\nLink: %s\nContent: %s",
			r.Title, r.Link, r.Content,
		))
	}
	return strings.Join(records, "\n\n")
}

// truncate caps s at limit bytes without splitting a multi-byte rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

func evaluate(expression string) string {
	expr, err := govaluate.NewEvaluableExpression(expression)
	if err != nil {
		return fmt.Sprintf("Error evaluating expression: %v", err)
	}
	value, err := expr.Evaluate(nil)
	if err != nil {
		return fmt.Sprintf("Error evaluating expression: %v", err)
	}
	if f, ok := value.(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprintf("%v", value)
}
