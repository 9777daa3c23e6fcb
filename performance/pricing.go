// Package performance accounts for the latency, throughput, and dollar cost
// of generation calls, and raises telemetry alerts when a single call is
// slow or expensive.
package performance

import "sync"

// DefaultModel is the pricing fallback for unknown model names. Costing an
// unknown model at the cheapest known rate keeps accounting running when a
// provider ships a new model before the table is updated.
const DefaultModel = "gemini-2.5-flash-lite"

// Price is the cost of one million tokens, split by direction.
type Price struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// PriceTable maps model names to per-million-token prices. Safe for
// concurrent lookup and update.
type PriceTable struct {
	mu     sync.RWMutex
	prices map[string]Price
}

// NewPriceTable returns a table seeded with the built-in model prices.
func NewPriceTable() *PriceTable {
	return &PriceTable{
		prices: map[string]Price{
			"gemini-2.5-flash-lite": {InputPerMillion: 0.075, OutputPerMillion: 0.30},
			"gemini-2.5-flash":      {InputPerMillion: 0.15, OutputPerMillion: 0.60},
			"claude-3-5-haiku":      {InputPerMillion: 0.80, OutputPerMillion: 4.00},
		},
	}
}

// Lookup returns the price for model, falling back to DefaultModel when the
// model is unknown.
func (t *PriceTable) Lookup(model string) Price {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if p, ok := t.prices[model]; ok {
		return p
	}
	return t.prices[DefaultModel]
}

// SetPrice inserts or replaces the price for model.
func (t *PriceTable) SetPrice(model string, p Price) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prices[model] = p
}

// Cost returns the dollar cost of a call with the given token counts under
// price p.
func (p Price) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)/1e6*p.InputPerMillion +
		float64(outputTokens)/1e6*p.OutputPerMillion
}
