// Package agent runs the conversational loop: it keeps the live system
// message current, calls the model, executes requested tool calls and
// persists every message the moment it exists.
package agent

import (
	"context"
	"fmt"
	"time"

	"ai-agent-be/pkg/llm"

	"github.com/google/uuid"
)

// DefaultMaxIterations bounds how many model round-trips one user turn may
// trigger before the loop is cut.
const DefaultMaxIterations = 10

// User-facing texts for the ways a turn can end without a model answer.
const (
	iterationLimitText = "I had to stop because too many tool calls were triggered in a row. Try rephrasing your request."
	rateLimitedText    = "I'm receiving too many requests right now. Please try again in a moment."
	unreachableText    = "I couldn't reach the language model service. Please check the connection and try again."
	timedOutText       = "The language model took too long to respond. Please try again."
	upstreamText       = "The language model service reported an error. Please try again later."
	unexpectedText     = "Something unexpected went wrong while generating a response. Please try again."
)

// HistoryStore persists conversation histories. Save is called after every
// message append so a crash mid-turn never loses messages that already
// happened.
type HistoryStore interface {
	Load(ctx context.Context, userId, chatId uuid.UUID) ([]llm.Message, error)
	Save(ctx context.Context, userId, chatId uuid.UUID, history []llm.Message) error
}

// ToolRunner executes one tool call for the authenticated user and always
// answers it with exactly one tool message.
type ToolRunner interface {
	Execute(ctx context.Context, userId uuid.UUID, call llm.ToolCall) llm.Message
}

// InventorySummarizer renders the user's current upload inventory for the
// system message.
type InventorySummarizer interface {
	Summary(ctx context.Context, userId uuid.UUID) (string, error)
}

type Logger interface {
	Debug(module, message string, details map[string]interface{})
	Info(module, message string, details map[string]interface{})
	Warn(module, message string, details map[string]interface{})
	Error(module, message string, details map[string]interface{})
}

// Config carries the orchestrator's collaborators and tuning.
type Config struct {
	Provider      llm.Provider
	Store         HistoryStore
	Tools         ToolRunner
	ToolSchemas   []llm.ToolSchema
	Inventory     InventorySummarizer
	Logger        Logger
	SystemPrompt  string
	MaxIterations int

	// Now is the clock used for the system message timestamp. Nil means
	// time.Now.
	Now func() time.Time
}

// Orchestrator drives one conversation turn at a time. Callers serialize
// turns per chat; the orchestrator itself holds no per-chat state.
type Orchestrator struct {
	provider      llm.Provider
	store         HistoryStore
	tools         ToolRunner
	toolSchemas   []llm.ToolSchema
	inventory     InventorySummarizer
	log           Logger
	systemPrompt  string
	maxIterations int
	now           func() time.Time
}

func NewOrchestrator(cfg Config) *Orchestrator {
	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		provider:      cfg.Provider,
		store:         cfg.Store,
		tools:         cfg.Tools,
		toolSchemas:   cfg.ToolSchemas,
		inventory:     cfg.Inventory,
		log:           cfg.Logger,
		systemPrompt:  cfg.SystemPrompt,
		maxIterations: maxIterations,
		now:           now,
	}
}

// RunTurn processes one user message: it refreshes the system message,
// appends the user message, then alternates model calls and tool execution
// until the model answers without tool calls or the iteration limit is hit.
// It returns every message this turn added to the history, the final
// assistant answer last. Model failures are answered with a classified
// user-facing message instead of an error; only persistence failures
// propagate.
func (o *Orchestrator) RunTurn(ctx context.Context, userId, chatId uuid.UUID, userMessage string) ([]llm.Message, error) {
	history, err := o.store.Load(ctx, userId, chatId)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if len(history) == 0 {
		history = []llm.Message{{Role: llm.RoleSystem}}
	}
	history[0] = o.systemMessage(ctx, userId)

	turn := &turnState{orchestrator: o, userId: userId, chatId: chatId, history: history}
	if err := turn.append(ctx, llm.Message{Role: llm.RoleUser, Content: userMessage}); err != nil {
		return nil, err
	}

	for iteration := 0; iteration < o.maxIterations; iteration++ {
		reply, err := o.provider.Chat(ctx, turn.history, o.toolSchemas)
		if err != nil {
			o.log.Error("agent", "model call failed", map[string]interface{}{
				"chat_id":   chatId.String(),
				"iteration": iteration,
				"kind":      llm.KindOf(err).String(),
				"error":     err.Error(),
			})
			if appendErr := turn.append(ctx, llm.Message{
				Role:    llm.RoleAssistant,
				Content: failureText(err),
			}); appendErr != nil {
				return nil, appendErr
			}
			return turn.added, nil
		}

		if err := turn.append(ctx, *reply); err != nil {
			return nil, err
		}
		if len(reply.ToolCalls) == 0 {
			return turn.added, nil
		}

		for _, call := range reply.ToolCalls {
			o.log.Debug("agent", "executing tool call", map[string]interface{}{
				"chat_id": chatId.String(),
				"tool":    call.Name,
			})
			result := o.tools.Execute(ctx, userId, call)
			if err := turn.append(ctx, result); err != nil {
				return nil, err
			}
		}
	}

	o.log.Warn("agent", "iteration limit reached", map[string]interface{}{
		"chat_id":        chatId.String(),
		"max_iterations": o.maxIterations,
	})
	if err := turn.append(ctx, llm.Message{Role: llm.RoleAssistant, Content: iterationLimitText}); err != nil {
		return nil, err
	}
	return turn.added, nil
}

// systemMessage builds the live system message: base prompt, the current
// upload inventory and the current time. It is rebuilt at the start of every
// turn so uploads and deletions between turns are always reflected.
func (o *Orchestrator) systemMessage(ctx context.Context, userId uuid.UUID) llm.Message {
	inventory := "(none)"
	summary, err := o.inventory.Summary(ctx, userId)
	if err != nil {
		o.log.Warn("agent", "failed to summarize uploads", map[string]interface{}{
			"user_id": userId.String(),
			"error":   err.Error(),
		})
	} else if summary != "" {
		inventory = summary
	}

	content := fmt.Sprintf(
		"%s\n\nUploaded files:\n%s\n\nCurrent date and time: %s",
		o.systemPrompt,
		inventory,
		o.now().Format("2006-01-02 15:04:05"),
	)
	return llm.Message{Role: llm.RoleSystem, Content: content}
}

// turnState tracks the history and this turn's additions, persisting the
// whole history after every append.
type turnState struct {
	orchestrator *Orchestrator
	userId       uuid.UUID
	chatId       uuid.UUID
	history      []llm.Message
	added        []llm.Message
}

func (t *turnState) append(ctx context.Context, msg llm.Message) error {
	t.history = append(t.history, msg)
	if err := t.orchestrator.store.Save(ctx, t.userId, t.chatId, t.history); err != nil {
		return fmt.Errorf("persist history: %w", err)
	}
	t.added = append(t.added, msg)
	return nil
}

// failureText maps a model error to the message shown to the user.
func failureText(err error) string {
	switch llm.KindOf(err) {
	case llm.KindRateLimited:
		return rateLimitedText
	case llm.KindUnreachable:
		return unreachableText
	case llm.KindTimedOut:
		return timedOutText
	case llm.KindUpstreamError:
		return upstreamText
	default:
		return unexpectedText
	}
}
