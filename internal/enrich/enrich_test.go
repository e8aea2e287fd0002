package enrich

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/freese/jobradar/internal/model"
)

type fakeCompleter struct {
	response string
	err      error
	prompt   string
	calls    int
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	return f.response, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const goodResponse = `{
	"normalized_title": "Data Engineer",
	"remote": "hybrid",
	"contract_type": "permanent",
	"seniority": "mid",
	"tech_stack": ["Python", "SQL"],
	"summary": "Solid data role.",
	"fit_score": 4
}`

func TestAnalyze(t *testing.T) {
	provider := &fakeCompleter{response: goodResponse}
	a := NewAnalyzer(provider, testLogger())

	got := a.Analyze(context.Background(), "Stellentext", "profile text", "scoring hints")

	if got.NormalizedTitle != "Data Engineer" || got.FitScore != 4 {
		t.Errorf("Analyze = %+v", got)
	}
	if len(got.TechStack) != 2 || got.TechStack[0] != "Python" {
		t.Errorf("TechStack = %v", got.TechStack)
	}
	if got.Raw == "" {
		t.Error("Raw response not preserved")
	}
	for _, part := range []string{"Stellentext", "profile text", "scoring hints"} {
		if !strings.Contains(provider.prompt, part) {
			t.Errorf("prompt missing %q", part)
		}
	}
}

func TestAnalyzeEmptyTextSkipsProvider(t *testing.T) {
	provider := &fakeCompleter{response: goodResponse}
	a := NewAnalyzer(provider, testLogger())

	got := a.Analyze(context.Background(), "   \n", "profile", "")
	if !reflect.DeepEqual(got, model.Enrichment{}) {
		t.Errorf("Analyze(empty) = %+v, want zero", got)
	}
	if provider.calls != 0 {
		t.Error("provider called for empty raw text")
	}
}

func TestAnalyzeDegradesOnProviderError(t *testing.T) {
	provider := &fakeCompleter{err: errors.New("rate limited")}
	a := NewAnalyzer(provider, testLogger())

	got := a.Analyze(context.Background(), "Stellentext", "profile", "")
	if !reflect.DeepEqual(got, model.Enrichment{}) {
		t.Errorf("Analyze after provider error = %+v, want zero", got)
	}
}

func TestAnalyzeDegradesOnBadJSON(t *testing.T) {
	provider := &fakeCompleter{response: "I cannot classify this posting."}
	a := NewAnalyzer(provider, testLogger())

	got := a.Analyze(context.Background(), "Stellentext", "profile", "")
	if !reflect.DeepEqual(got, model.Enrichment{}) {
		t.Errorf("Analyze on non-JSON = %+v, want zero", got)
	}
}

func TestParseResult(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantTitle string
		wantScore int
		wantErr   bool
	}{
		{
			name:      "plain json",
			raw:       goodResponse,
			wantTitle: "Data Engineer",
			wantScore: 4,
		},
		{
			name:      "fenced json",
			raw:       "```json\n" + goodResponse + "\n```",
			wantTitle: "Data Engineer",
			wantScore: 4,
		},
		{
			name:      "fenced without language tag",
			raw:       "```\n" + goodResponse + "\n```",
			wantTitle: "Data Engineer",
			wantScore: 4,
		},
		{
			name:      "score above range dropped",
			raw:       `{"normalized_title": "X", "fit_score": 9}`,
			wantTitle: "X",
			wantScore: 0,
		},
		{
			name:      "score below range dropped",
			raw:       `{"normalized_title": "X", "fit_score": -1}`,
			wantTitle: "X",
			wantScore: 0,
		},
		{
			name:      "null fields stay absent",
			raw:       `{"normalized_title": null, "fit_score": null}`,
			wantTitle: "",
			wantScore: 0,
		},
		{
			name:    "not json",
			raw:     "sorry, no",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseResult(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseResult: %v", err)
			}
			if got.NormalizedTitle != tt.wantTitle || got.FitScore != tt.wantScore {
				t.Errorf("got %+v, want title %q score %d", got, tt.wantTitle, tt.wantScore)
			}
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"{}", "{}"},
		{"```json\n{}\n```", "{}"},
		{"```\n{}\n```", "{}"},
		{"```json\n{}", "{}"},
	}
	for _, tt := range tests {
		if got := stripCodeFence(tt.in); got != tt.want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNopAnalyzer(t *testing.T) {
	got := NewNopAnalyzer().Analyze(context.Background(), "text", "profile", "ctx")
	if !reflect.DeepEqual(got, model.Enrichment{}) {
		t.Errorf("NopAnalyzer returned %+v, want zero", got)
	}
}
