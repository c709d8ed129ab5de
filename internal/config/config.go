// Package config holds the run configuration: provider credentials, the
// model assignment per role, the roster of debating seats, and filesystem
// locations. Configuration is YAML over defaults, with environment
// variables overriding credentials.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all consilium configuration.
type Config struct {
	// Provider credentials and transport settings
	Providers ProvidersConfig `yaml:"providers"`

	// Model assignment per agent role
	Models ModelsConfig `yaml:"models"`

	// The debating seats
	Roster []SeatConfig `yaml:"roster"`

	// Where per-run directories (ledger, report) are created
	RunsDir string `yaml:"runs_dir"`

	// Ground-truth reference notes, required for the red-team round
	GroundTruthPath string `yaml:"ground_truth_path"`

	// Directory of specialist persona prompts (one .md file per role)
	SpecialistPromptDir string `yaml:"specialist_prompt_dir"`

	// Logging
	Debug bool `yaml:"debug"`
}

// ProvidersConfig configures the model providers.
type ProvidersConfig struct {
	OpenAI  OpenAIProvider `yaml:"openai"`
	Gemini  GeminiProvider `yaml:"gemini"`
	Timeout string         `yaml:"timeout"`
}

// OpenAIProvider configures the OpenAI-compatible endpoint.
type OpenAIProvider struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// GeminiProvider configures the Gemini endpoint.
type GeminiProvider struct {
	APIKey string `yaml:"api_key"`
}

// ModelsConfig assigns a model to each agent role. Fallback is the shared
// substitute model for recoverable failures.
type ModelsConfig struct {
	Architect      string `yaml:"architect"`
	DevilsAdvocate string `yaml:"devils_advocate"`
	Synthesizer    string `yaml:"synthesizer"`
	QA             string `yaml:"qa"`
	Selector       string `yaml:"selector"`
	Analogy        string `yaml:"analogy"`
	ProjectManager string `yaml:"project_manager"`
	Fallback       string `yaml:"fallback"`
}

// SeatConfig describes one debating seat. An empty Model inherits
// Models.Architect; an empty Persona means the seat argues from the
// specialist persona chosen at run time.
type SeatConfig struct {
	Name    string `yaml:"name"`
	Model   string `yaml:"model"`
	Persona string `yaml:"persona"`
}

// DefaultConfig returns the default configuration: a three-seat roster on
// the stock model assignment.
func DefaultConfig() *Config {
	return &Config{
		Providers: ProvidersConfig{
			OpenAI:  OpenAIProvider{BaseURL: "https://api.openai.com/v1"},
			Timeout: "10m",
		},
		Models: ModelsConfig{
			Architect:      "gemini-2.5-pro",
			DevilsAdvocate: "gpt-5",
			Synthesizer:    "gemini-2.5-pro",
			QA:             "gpt-5-mini",
			Selector:       "gemini-2.5-flash",
			Analogy:        "gemini-2.5-flash",
			ProjectManager: "gemini-2.5-flash",
			Fallback:       "gpt-5",
		},
		Roster: []SeatConfig{
			{Name: "architect_1"},
			{Name: "architect_2"},
			{Name: "architect_3"},
		},
		RunsDir:         "runs",
		GroundTruthPath: "context.md",
	}
}

// Load reads configuration from a YAML file over the defaults. A missing
// file yields the defaults. Credentials found in the environment override
// the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides lets environment variables win over file-configured
// credentials, so keys never have to live in a checked-in YAML file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Providers.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.Providers.OpenAI.BaseURL = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Providers.Gemini.APIKey = v
	}
}

// Timeout parses the provider timeout, falling back to ten minutes on a
// missing or malformed value.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.Providers.Timeout)
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}

// SeatModel returns the model for a seat, inheriting the architect model
// when the seat does not set one.
func (c *Config) SeatModel(seat SeatConfig) string {
	if seat.Model != "" {
		return seat.Model
	}
	return c.Models.Architect
}

// LoadSpecialistPrompts reads every .md file in dir into a role->prompt
// map; the role name is the lowercased file stem. The keys become the
// selector's allow-list. A missing or empty dir yields an empty map.
func LoadSpecialistPrompts(dir string) (map[string]string, error) {
	prompts := map[string]string{}
	if dir == "" {
		return prompts, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return prompts, nil
		}
		return nil, fmt.Errorf("failed to read specialist prompt dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read specialist prompt %s: %w", entry.Name(), err)
		}
		role := strings.ToLower(strings.TrimSuffix(entry.Name(), ".md"))
		prompts[role] = string(data)
	}
	return prompts, nil
}
