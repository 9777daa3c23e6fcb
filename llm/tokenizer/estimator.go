package tokenizer

import "github.com/noahdevelopsio/lifeos/llm"

// Estimator is the Counter form of the canonical Estimate formula.
type Estimator struct{}

// NewEstimator creates a character-length-based token counter.
func NewEstimator() *Estimator {
	return &Estimator{}
}

func (e *Estimator) Count(text string) (int, error) {
	return Estimate(text), nil
}

func (e *Estimator) CountMessages(messages []llm.Message) (int, error) {
	return EstimateMessages(messages), nil
}

func (e *Estimator) Name() string {
	return "estimator"
}
