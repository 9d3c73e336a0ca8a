package service

import (
	"context"

	"furnisher/internal/model"
)

// IntentExtractor reads planning facts from an utterance. Implementations
// must return an error rather than a partially valid result.
type IntentExtractor interface {
	ParseIntent(ctx context.Context, text string) (*model.IntentResult, error)
}

// Summarizer produces the structured overview of a turn
type Summarizer interface {
	Summarize(ctx context.Context, text string, hints SummaryHints) (*model.RichSummary, error)
}

// SummaryHints grounds the summary on what the engine already resolved
type SummaryHints struct {
	Plan  *model.RoomPlan `json:"plan,omitempty"`
	Items []string        `json:"items,omitempty"`
	Theme string          `json:"theme,omitempty"`
}

// AIClient is the interface for LLM providers backing all three collaborators
type AIClient interface {
	IntentExtractor
	Summarizer
	EssentialsProposer

	// IsEnabled returns whether the AI client is configured and ready
	IsEnabled() bool
}

// Ensure OpenAIClient implements AIClient
var _ AIClient = (*OpenAIClient)(nil)
