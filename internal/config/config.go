package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the jobradar pipeline.
type Config struct {
	DBPath          string `validate:"required"`
	AnthropicAPIKey string
	Schedule        string // cron spec for the start daemon
	Sources         SourcesConfig
	AI              AIConfig
	Candidates      []CandidateProfile `validate:"min=1,dive"`
}

// SourcesConfig holds per-source connection settings.
type SourcesConfig struct {
	Arbeitsagentur ArbeitsagenturConfig
	Arbeitnow      ArbeitnowConfig
}

// ArbeitsagenturConfig configures the Arbeitsagentur Jobsuche REST API.
type ArbeitsagenturConfig struct {
	BaseURL  string `validate:"required,url"`
	APIKey   string `validate:"required"`
	MinDelay time.Duration // minimum gap between requests, incl. detail pages
}

// ArbeitnowConfig configures the Arbeitnow job-board API.
type ArbeitnowConfig struct {
	BaseURL  string `validate:"required,url"`
	MaxPages int    `validate:"min=1"`
	MinDelay time.Duration
}

// AIConfig controls the Claude enrichment layer.
type AIConfig struct {
	Enabled   bool
	Model     string
	MaxTokens int
	Timeout   time.Duration // per-request timeout
}

// CandidateProfile is a named applicant: free-text profile plus an ordered
// list of search profiles.
type CandidateProfile struct {
	Name           string `validate:"required"`
	ProfileText    string
	SearchProfiles []SearchProfile `validate:"min=1,dive"`
}

// SearchProfile bundles the matching rules for one search.
type SearchProfile struct {
	Name            string `validate:"required"`
	Enabled         bool
	RemoteOnly      bool
	Locations       []string
	TitleKeywords   []string
	TitleExcludes   []string
	FitScoreContext string
	// ArbeitsagenturQueries are per-profile query overlays merged onto the
	// fixed default parameter set. Zero overlays means the source is skipped
	// for this profile, not defaulted.
	ArbeitsagenturQueries []map[string]string
}

const (
	defaultDBPath      = "job_radar.db"
	defaultSchedule    = "@every 6h"
	defaultAABaseURL   = "https://rest.arbeitsagentur.de/jobboerse/jobsuche-service/pc/v4"
	defaultAAAPIKey    = "jobboerse-jobsuche"
	defaultAnBaseURL   = "https://www.arbeitnow.com/api/job-board-api"
	defaultAnMaxPages  = 5
	defaultSourceDelay = 1 * time.Second
	defaultAIModel     = "claude-3-5-haiku-latest"
	defaultAIMaxTokens = 1024
	defaultAITimeout   = 60 * time.Second
)

// rawConfig is used for YAML unmarshaling (snake_case fields, durations as strings).
type rawConfig struct {
	DBPath          string         `yaml:"db_path"`
	AnthropicAPIKey string         `yaml:"anthropic_api_key"`
	Schedule        string         `yaml:"schedule"`
	Sources         rawSources     `yaml:"sources"`
	AI              rawAIConfig    `yaml:"ai"`
	Candidates      []rawCandidate `yaml:"candidates"`
}

type rawSources struct {
	Arbeitsagentur rawArbeitsagentur `yaml:"arbeitsagentur"`
	Arbeitnow      rawArbeitnow      `yaml:"arbeitnow"`
}

type rawArbeitsagentur struct {
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	MinDelay string `yaml:"min_delay"`
}

type rawArbeitnow struct {
	BaseURL  string `yaml:"base_url"`
	MaxPages int    `yaml:"max_pages"`
	MinDelay string `yaml:"min_delay"`
}

type rawAIConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
	Timeout   string `yaml:"timeout"`
}

type rawCandidate struct {
	Name           string             `yaml:"name"`
	ProfileText    string             `yaml:"profile_text"`
	ProfileFile    string             `yaml:"profile_file"`
	SearchProfiles []rawSearchProfile `yaml:"search_profiles"`
}

type rawSearchProfile struct {
	Name                  string              `yaml:"name"`
	Enabled               *bool               `yaml:"enabled"` // nil means enabled
	RemoteOnly            bool                `yaml:"remote_only"`
	Locations             []string            `yaml:"locations"`
	TitleKeywords         []string            `yaml:"title_keywords"`
	TitleExcludes         []string            `yaml:"title_excludes"`
	FitScoreContext       string              `yaml:"fit_score_context"`
	ArbeitsagenturQueries []map[string]string `yaml:"arbeitsagentur_queries"`
}

// Load reads and parses the YAML config at path, expands environment
// variables, applies defaults, and validates the result. Relative
// profile_file paths are resolved against the config file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	aaDelay, err := parseDuration(raw.Sources.Arbeitsagentur.MinDelay, defaultSourceDelay)
	if err != nil {
		return nil, fmt.Errorf("parse sources.arbeitsagentur.min_delay: %w", err)
	}
	anDelay, err := parseDuration(raw.Sources.Arbeitnow.MinDelay, defaultSourceDelay)
	if err != nil {
		return nil, fmt.Errorf("parse sources.arbeitnow.min_delay: %w", err)
	}
	aiTimeout, err := parseDuration(raw.AI.Timeout, defaultAITimeout)
	if err != nil {
		return nil, fmt.Errorf("parse ai.timeout: %w", err)
	}

	cfg := &Config{
		DBPath:          stringOr(raw.DBPath, defaultDBPath),
		AnthropicAPIKey: raw.AnthropicAPIKey,
		Schedule:        stringOr(raw.Schedule, defaultSchedule),
		Sources: SourcesConfig{
			Arbeitsagentur: ArbeitsagenturConfig{
				BaseURL:  stringOr(raw.Sources.Arbeitsagentur.BaseURL, defaultAABaseURL),
				APIKey:   stringOr(raw.Sources.Arbeitsagentur.APIKey, defaultAAAPIKey),
				MinDelay: aaDelay,
			},
			Arbeitnow: ArbeitnowConfig{
				BaseURL:  stringOr(raw.Sources.Arbeitnow.BaseURL, defaultAnBaseURL),
				MaxPages: intOr(raw.Sources.Arbeitnow.MaxPages, defaultAnMaxPages),
				MinDelay: anDelay,
			},
		},
		AI: AIConfig{
			Enabled:   raw.AI.Enabled,
			Model:     stringOr(raw.AI.Model, defaultAIModel),
			MaxTokens: intOr(raw.AI.MaxTokens, defaultAIMaxTokens),
			Timeout:   aiTimeout,
		},
	}

	baseDir := filepath.Dir(path)
	for _, rc := range raw.Candidates {
		cand, err := buildCandidate(rc, baseDir)
		if err != nil {
			return nil, err
		}
		cfg.Candidates = append(cfg.Candidates, cand)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func buildCandidate(rc rawCandidate, baseDir string) (CandidateProfile, error) {
	cand := CandidateProfile{
		Name:        rc.Name,
		ProfileText: rc.ProfileText,
	}

	if cand.ProfileText == "" && rc.ProfileFile != "" {
		p := rc.ProfileFile
		if !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return cand, fmt.Errorf("read profile_file for candidate %q: %w", rc.Name, err)
		}
		cand.ProfileText = string(data)
	}

	for _, rp := range rc.SearchProfiles {
		cand.SearchProfiles = append(cand.SearchProfiles, SearchProfile{
			Name:                  rp.Name,
			Enabled:               rp.Enabled == nil || *rp.Enabled,
			RemoteOnly:            rp.RemoteOnly,
			Locations:             rp.Locations,
			TitleKeywords:         rp.TitleKeywords,
			TitleExcludes:         rp.TitleExcludes,
			FitScoreContext:       rp.FitScoreContext,
			ArbeitsagenturQueries: rp.ArbeitsagenturQueries,
		})
	}

	return cand, nil
}

func validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	enabled := 0
	for _, cand := range cfg.Candidates {
		for _, sp := range cand.SearchProfiles {
			if sp.Enabled {
				enabled++
			}
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one search profile must be enabled")
	}

	if cfg.AI.Enabled && cfg.AnthropicAPIKey == "" {
		return fmt.Errorf("anthropic_api_key is required when ai.enabled is true")
	}

	return nil
}

func parseDuration(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	return time.ParseDuration(s)
}

func stringOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func intOr(n, fallback int) int {
	if n == 0 {
		return fallback
	}
	return n
}
