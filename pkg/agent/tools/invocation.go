package tools

import (
	"encoding/json"
	"errors"
	"fmt"

	"ai-agent-be/pkg/llm"
)

// Tool names are the externally visible API surface offered to the model.
const (
	NameRetrievalSearch = "search_uploaded_files"
	NameWebSearch       = "search_web_online"
	NameCalculator      = "calculator"
)

const (
	DefaultMinScore = 0.3
	DefaultKAmount  = 5
)

// ErrUnknownTool means the model requested a tool that was never offered.
// That is a contract violation, not a user error, and must surface loudly.
var ErrUnknownTool = errors.New("tools: unknown tool name")

// Argument structs double as the schema contract and the decode target.

type RetrievalSearchArgs struct {
	Query    string  `json:"query" jsonschema:"required" jsonschema_description:"The search query to run against the user's uploaded documents."`
	MinScore float64 `json:"min_score,omitempty" jsonschema_description:"Minimum similarity score a match must exceed. Defaults to 0.3."`
	KAmount  int     `json:"k_amount,omitempty" jsonschema_description:"Maximum number of matches to return. Defaults to 5."`
}

type WebSearchArgs struct {
	Query string `json:"query" jsonschema:"required" jsonschema_description:"A search query or a direct http(s) URL to read."`
}

type CalculateArgs struct {
	Expression string `json:"expression" jsonschema:"required" jsonschema_description:"The mathematical expression to evaluate."`
}

// Invocation is the closed set of capabilities the agent can execute. The
// model picks by name; Decode resolves the name plus raw JSON arguments
// into exactly one of these variants.
type Invocation interface {
	isInvocation()
}

type RetrievalSearch struct {
	Query    string
	MinScore float64
	K        int
}

type WebSearch struct {
	Query string
}

type Calculate struct {
	Expression string
}

func (RetrievalSearch) isInvocation() {}
func (WebSearch) isInvocation()       {}
func (Calculate) isInvocation()       {}

// Decode resolves a model-requested tool call into an Invocation, applying
// the declared defaults. Unknown names are rejected with ErrUnknownTool.
func Decode(name string, arguments string) (Invocation, error) {
	raw := []byte(arguments)
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	switch name {
	case NameRetrievalSearch:
		var args RetrievalSearchArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, fmt.Errorf("tools: decode %s arguments: %w", name, err)
		}
		inv := RetrievalSearch{Query: args.Query, MinScore: args.MinScore, K: args.KAmount}
		if inv.MinScore <= 0 {
			inv.MinScore = DefaultMinScore
		}
		if inv.K <= 0 {
			inv.K = DefaultKAmount
		}
		return inv, nil
	case NameWebSearch:
		var args WebSearchArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, fmt.Errorf("tools: decode %s arguments: %w", name, err)
		}
		return WebSearch{Query: args.Query}, nil
	case NameCalculator:
		var args CalculateArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, fmt.Errorf("tools: decode %s arguments: %w", name, err)
		}
		return Calculate{Expression: args.Expression}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
}

// Schemas declares the three built-in tools. Descriptions and parameter
// contracts are what the model is told to honor.
func Schemas() []llm.ToolSchema {
	return []llm.ToolSchema{
		{
			Name:        NameRetrievalSearch,
			Description: "Search the user's uploaded documents for relevant information.",
			Parameters:  generateSchema[RetrievalSearchArgs](),
		},
		{
			Name:        NameWebSearch,
			Description: "Search the web for current information.",
			Parameters:  generateSchema[WebSearchArgs](),
		},
		{
			Name:        NameCalculator,
			Description: "Evaluate a mathematical expression safely and return the result.",
			Parameters:  generateSchema[CalculateArgs](),
		},
	}
}
