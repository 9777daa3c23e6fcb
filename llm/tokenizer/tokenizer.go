// Package tokenizer provides token counting for generation requests and
// responses. Estimate is the canonical approximation used for all reported
// counts; an exact tiktoken-backed counter is available where precision
// matters more than speed (budget planning, offline analysis).
package tokenizer

import (
	"encoding/json"

	"github.com/noahdevelopsio/lifeos/llm"
)

// Counter is the unified token-counting interface.
type Counter interface {
	// Count returns the token count for the given text.
	Count(text string) (int, error)

	// CountMessages returns the total token count for a conversation,
	// including per-message overhead.
	CountMessages(messages []llm.Message) (int, error)

	// Name identifies the counting strategy.
	Name() string
}

// Estimate is the single-sourced token approximation: ceil(len/4).
// Every call site that reports a token estimate uses this formula so that
// downstream cost math stays consistent.
func Estimate(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}

// EstimateMessages estimates the token count of a full message history by
// serializing it the same way it is submitted upstream.
func EstimateMessages(messages []llm.Message) int {
	if len(messages) == 0 {
		return 0
	}
	raw, err := json.Marshal(messages)
	if err != nil {
		return 0
	}
	return Estimate(string(raw))
}
