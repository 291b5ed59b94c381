package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Engine names accepted in providers.candidate_a / candidate_b
const (
	EngineOpenAI          = "openai"
	EngineGemini          = "gemini"
	EngineOpenRouter      = "openrouter"
	EngineAnthropic       = "anthropic"
	EngineDummyOpenAI     = "dummy_openai"
	EngineDummyGemini     = "dummy_gemini"
	EngineDummyOpenRouter = "dummy_openrouter"
)

// KnownEngines lists every engine the provider registry can build
var KnownEngines = []string{
	EngineOpenAI, EngineGemini, EngineOpenRouter, EngineAnthropic,
	EngineDummyOpenAI, EngineDummyGemini, EngineDummyOpenRouter,
}

// ProviderConfig configures one answer-generation engine
type ProviderConfig struct {
	APIKey      string        `yaml:"api_key"` // never logged
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	Timeout     time.Duration `yaml:"timeout"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int64         `yaml:"max_tokens"`
}

// IsEnabled returns true if the engine has credentials
func (p ProviderConfig) IsEnabled() bool {
	return p.APIKey != ""
}

// ProvidersConfig picks the two engines of every ask and configures each
type ProvidersConfig struct {
	CandidateA string                    `yaml:"candidate_a"`
	CandidateB string                    `yaml:"candidate_b"`
	Engines    map[string]ProviderConfig `yaml:"engines"`
}

// DefaultProviders returns the default engine configuration
func DefaultProviders() ProvidersConfig {
	return ProvidersConfig{
		CandidateA: EngineOpenAI,
		CandidateB: EngineGemini,
		Engines: map[string]ProviderConfig{
			EngineOpenAI: {
				Model:       "gpt-4o-mini",
				Timeout:     20 * time.Second,
				Temperature: 0.2,
				MaxTokens:   512,
			},
			EngineGemini: {
				BaseURL:     "https://generativelanguage.googleapis.com/v1beta/models",
				Model:       "gemini-2.0-flash",
				Timeout:     20 * time.Second,
				Temperature: 0.2,
				MaxTokens:   512,
			},
			EngineOpenRouter: {
				BaseURL:     "https://openrouter.ai/api/v1",
				Model:       "openai/gpt-4o-mini",
				Timeout:     20 * time.Second,
				Temperature: 0.2,
				MaxTokens:   512,
			},
			EngineAnthropic: {
				Model:       "claude-3-5-haiku-latest",
				Timeout:     20 * time.Second,
				Temperature: 0.2,
				MaxTokens:   512,
			},
		},
	}
}

// Engine returns the configuration for name. Dummy engines share the
// settings of the engine they stand in for.
func (p ProvidersConfig) Engine(name string) ProviderConfig {
	if cfg, ok := p.Engines[name]; ok {
		return cfg
	}
	if real := strings.TrimPrefix(name, "dummy_"); real != name {
		return p.Engines[real]
	}
	return ProviderConfig{}
}

// Validate checks that two distinct, known engines are selected
func (p ProvidersConfig) Validate() error {
	for _, name := range []string{p.CandidateA, p.CandidateB} {
		if !isKnownEngine(name) {
			return fmt.Errorf("unknown engine %q (known: %s)", name, strings.Join(KnownEngines, ", "))
		}
	}
	if p.CandidateA == p.CandidateB {
		return fmt.Errorf("candidate_a and candidate_b must differ, both are %q", p.CandidateA)
	}
	for name, cfg := range p.Engines {
		if cfg.Timeout <= 0 {
			return fmt.Errorf("engine %s: timeout must be positive", name)
		}
	}
	return nil
}

func isKnownEngine(name string) bool {
	for _, known := range KnownEngines {
		if known == name {
			return true
		}
	}
	return false
}

func (p *ProvidersConfig) applyEnv() error {
	if v := os.Getenv("ENABLED_ENGINES"); v != "" {
		names := splitList(v)
		if len(names) != 2 {
			return fmt.Errorf("ENABLED_ENGINES must name exactly two engines, got %q", v)
		}
		p.CandidateA, p.CandidateB = names[0], names[1]
	}
	p.fillDefaults()
	for _, name := range []string{EngineOpenAI, EngineGemini, EngineOpenRouter, EngineAnthropic} {
		cfg := p.Engines[name]
		prefix := strings.ToUpper(name) + "_"
		envOverride(&cfg.APIKey, prefix+"API_KEY")
		envOverride(&cfg.BaseURL, prefix+"BASE_URL")
		envOverride(&cfg.Model, prefix+"MODEL")
		if err := envOverrideSeconds(&cfg.Timeout, prefix+"TIMEOUT_S"); err != nil {
			return err
		}
		if err := envOverrideFloat(&cfg.Temperature, prefix+"TEMPERATURE"); err != nil {
			return err
		}
		if err := envOverrideInt64(&cfg.MaxTokens, prefix+"MAX_TOKENS"); err != nil {
			return err
		}
		p.Engines[name] = cfg
	}
	return nil
}

// fillDefaults restores default fields a partial YAML engine block left zero
func (p *ProvidersConfig) fillDefaults() {
	if p.Engines == nil {
		p.Engines = map[string]ProviderConfig{}
	}
	for name, def := range DefaultProviders().Engines {
		cfg := p.Engines[name]
		if cfg.BaseURL == "" {
			cfg.BaseURL = def.BaseURL
		}
		if cfg.Model == "" {
			cfg.Model = def.Model
		}
		if cfg.Timeout == 0 {
			cfg.Timeout = def.Timeout
		}
		if cfg.Temperature == 0 {
			cfg.Temperature = def.Temperature
		}
		if cfg.MaxTokens == 0 {
			cfg.MaxTokens = def.MaxTokens
		}
		p.Engines[name] = cfg
	}
}
