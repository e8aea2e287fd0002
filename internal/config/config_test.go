package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

const minimalConfig = `
candidates:
  - name: alex
    profile_text: "Data engineer, five years of Python."
    search_profiles:
      - name: koeln
        locations: [köln]
        title_keywords: [engineer]
`

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), minimalConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DBPath != "job_radar.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.Schedule != "@every 6h" {
		t.Errorf("Schedule = %q", cfg.Schedule)
	}
	aa := cfg.Sources.Arbeitsagentur
	if aa.APIKey != "jobboerse-jobsuche" || aa.MinDelay != time.Second {
		t.Errorf("arbeitsagentur defaults = %+v", aa)
	}
	an := cfg.Sources.Arbeitnow
	if an.MaxPages != 5 {
		t.Errorf("arbeitnow defaults = %+v", an)
	}
	if cfg.AI.Enabled {
		t.Error("AI enabled by default")
	}
	if cfg.AI.Model != "claude-3-5-haiku-latest" || cfg.AI.MaxTokens != 1024 {
		t.Errorf("AI defaults = %+v", cfg.AI)
	}

	if len(cfg.Candidates) != 1 {
		t.Fatalf("got %d candidates", len(cfg.Candidates))
	}
	sp := cfg.Candidates[0].SearchProfiles[0]
	if !sp.Enabled {
		t.Error("profile without enabled key should default to enabled")
	}
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
db_path: /tmp/x.db
anthropic_api_key: sk-test
schedule: "@every 1h"
sources:
  arbeitsagentur:
    min_delay: 2s
  arbeitnow:
    max_pages: 2
    min_delay: 500ms
ai:
  enabled: true
  model: test-model
  max_tokens: 2048
  timeout: 30s
candidates:
  - name: alex
    profile_text: "profile"
    search_profiles:
      - name: remote
        remote_only: true
        title_keywords: [engineer]
        title_excludes: [lead]
        fit_score_context: "prefers small teams"
        arbeitsagentur_queries:
          - was: data engineer
            wo: Köln
      - name: paused
        enabled: false
        title_keywords: [analyst]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DBPath != "/tmp/x.db" || cfg.Schedule != "@every 1h" {
		t.Errorf("root fields = %q, %q", cfg.DBPath, cfg.Schedule)
	}
	if cfg.Sources.Arbeitsagentur.MinDelay != 2*time.Second {
		t.Errorf("aa MinDelay = %v", cfg.Sources.Arbeitsagentur.MinDelay)
	}
	if cfg.Sources.Arbeitnow.MinDelay != 500*time.Millisecond || cfg.Sources.Arbeitnow.MaxPages != 2 {
		t.Errorf("arbeitnow = %+v", cfg.Sources.Arbeitnow)
	}
	if !cfg.AI.Enabled || cfg.AI.Timeout != 30*time.Second || cfg.AI.Model != "test-model" {
		t.Errorf("AI = %+v", cfg.AI)
	}

	profiles := cfg.Candidates[0].SearchProfiles
	if len(profiles) != 2 {
		t.Fatalf("got %d search profiles", len(profiles))
	}
	remote := profiles[0]
	if !remote.RemoteOnly || remote.FitScoreContext != "prefers small teams" {
		t.Errorf("remote profile = %+v", remote)
	}
	if len(remote.ArbeitsagenturQueries) != 1 || remote.ArbeitsagenturQueries[0]["wo"] != "Köln" {
		t.Errorf("queries = %v", remote.ArbeitsagenturQueries)
	}
	if profiles[1].Enabled {
		t.Error("enabled: false not honored")
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("TEST_ANTHROPIC_KEY", "sk-from-env")
	path := writeConfig(t, t.TempDir(), `
anthropic_api_key: ${TEST_ANTHROPIC_KEY}
candidates:
  - name: alex
    profile_text: "profile"
    search_profiles:
      - name: koeln
        title_keywords: [engineer]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AnthropicAPIKey != "sk-from-env" {
		t.Errorf("AnthropicAPIKey = %q", cfg.AnthropicAPIKey)
	}
}

func TestLoadProfileFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "profile.md"), []byte("CV text"), 0o644); err != nil {
		t.Fatalf("writing profile file: %v", err)
	}
	path := writeConfig(t, dir, `
candidates:
  - name: alex
    profile_file: profile.md
    search_profiles:
      - name: koeln
        title_keywords: [engineer]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Candidates[0].ProfileText != "CV text" {
		t.Errorf("ProfileText = %q", cfg.Candidates[0].ProfileText)
	}
}

func TestLoadRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no candidates", `db_path: x.db`},
		{
			"candidate without profiles",
			`
candidates:
  - name: alex
    profile_text: p
    search_profiles: []
`,
		},
		{
			"all profiles disabled",
			`
candidates:
  - name: alex
    profile_text: p
    search_profiles:
      - name: koeln
        enabled: false
        title_keywords: [engineer]
`,
		},
		{
			"ai enabled without key",
			`
ai:
  enabled: true
candidates:
  - name: alex
    profile_text: p
    search_profiles:
      - name: koeln
        title_keywords: [engineer]
`,
		},
		{
			"bad duration",
			`
sources:
  arbeitsagentur:
    min_delay: often
candidates:
  - name: alex
    profile_text: p
    search_profiles:
      - name: koeln
        title_keywords: [engineer]
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.content)
			if _, err := Load(path); err == nil {
				t.Error("Load accepted invalid config")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load of absent file succeeded")
	}
}
