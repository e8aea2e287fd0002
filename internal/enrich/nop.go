package enrich

import (
	"context"

	"github.com/freese/jobradar/internal/model"
)

// NopAnalyzer is used when enrichment is disabled (--no-llm or ai.enabled
// false). Listings are stored with raw fields only.
type NopAnalyzer struct{}

// NewNopAnalyzer returns a NopAnalyzer.
func NewNopAnalyzer() *NopAnalyzer {
	return &NopAnalyzer{}
}

// Analyze returns the zero Enrichment: every field absent.
func (n *NopAnalyzer) Analyze(_ context.Context, _, _, _ string) model.Enrichment {
	return model.Enrichment{}
}
