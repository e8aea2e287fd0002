// Package enrich turns a listing's raw text into structured classification
// fields via an LLM. Enrichment is best-effort: every failure mode degrades
// to the zero result, never to an error in the pipeline.
package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"text/template"

	"github.com/freese/jobradar/internal/model"
)

// completer sends a prompt to an LLM and returns the raw text response.
type completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Analyzer implements model.Analyzer on top of an LLM completer.
type Analyzer struct {
	provider completer
	tmpl     *template.Template
	logger   *slog.Logger
}

// NewAnalyzer creates an analyzer using the given provider.
func NewAnalyzer(provider completer, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		provider: provider,
		tmpl:     template.Must(template.New("prompt").Parse(promptTemplate)),
		logger:   logger,
	}
}

// Analyze enriches rawText against the candidate's profile text and the
// search profile's scoring context. Any failure yields the zero Enrichment.
func (a *Analyzer) Analyze(ctx context.Context, rawText, profileText, scoringContext string) model.Enrichment {
	if strings.TrimSpace(rawText) == "" {
		a.logger.Debug("no raw text, skipping enrichment")
		return model.Enrichment{}
	}

	var buf bytes.Buffer
	err := a.tmpl.Execute(&buf, promptData{
		Text:           rawText,
		Profile:        profileText,
		ScoringContext: scoringContext,
	})
	if err != nil {
		a.logger.Error("rendering enrichment prompt", "error", err)
		return model.Enrichment{}
	}

	raw, err := a.provider.Complete(ctx, buf.String())
	if err != nil {
		a.logger.Error("enrichment call failed", "error", err)
		return model.Enrichment{}
	}

	result, err := parseResult(raw)
	if err != nil {
		a.logger.Error("parsing enrichment response", "error", err)
		return model.Enrichment{}
	}
	return result
}

// parseResult deserializes the model response. Code fences are stripped
// first since the model occasionally wraps the JSON despite instructions.
func parseResult(raw string) (model.Enrichment, error) {
	raw = stripCodeFence(strings.TrimSpace(raw))

	var e model.Enrichment
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return model.Enrichment{}, err
	}
	if e.FitScore < 1 || e.FitScore > 5 {
		e.FitScore = 0
	}
	e.Raw = raw
	return e, nil
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if _, rest, ok := strings.Cut(s, "\n"); ok {
		s = rest
	}
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
