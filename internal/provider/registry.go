package provider

import (
	"fmt"
	"time"

	"evalconsole/internal/config"
	"evalconsole/internal/logger"
)

// Registry maps engine names to providers
type Registry struct {
	engines map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{engines: make(map[string]Provider)}
}

// Register adds p under its name, bounding each call by timeout
func (r *Registry) Register(p Provider, timeout time.Duration) {
	r.engines[p.Name()] = withTimeout{Provider: p, timeout: timeout}
}

// Get returns the engine registered under name
func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.engines[name]
	if !ok {
		return nil, fmt.Errorf("engine %q is not registered", name)
	}
	return p, nil
}

// Names lists the registered engines
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	return names
}

// BuildRegistry registers the two configured candidate engines. A real engine
// without an API key is replaced by its dummy.
func BuildRegistry(cfg config.ProvidersConfig, log *logger.Logger) (*Registry, error) {
	reg := NewRegistry()
	for _, name := range []string{cfg.CandidateA, cfg.CandidateB} {
		ec := cfg.Engine(name)
		p, err := newEngine(name, ec, log)
		if err != nil {
			return nil, err
		}
		reg.Register(p, ec.Timeout)
		log.Info("engine registered", "engine", name, "model", ec.Model, "timeout", ec.Timeout.String())
	}
	return reg, nil
}

func newEngine(name string, ec config.ProviderConfig, log *logger.Logger) (Provider, error) {
	switch name {
	case config.EngineDummyOpenAI:
		return NewDummyOpenAI(name), nil
	case config.EngineDummyGemini:
		return NewDummyGemini(name), nil
	case config.EngineDummyOpenRouter:
		return NewDummyOpenRouter(name, ec.Model), nil
	}

	if !ec.IsEnabled() {
		log.Warn("engine has no api key, serving dummy answers", "engine", name)
		switch name {
		case config.EngineOpenAI:
			return NewDummyOpenAI(name), nil
		case config.EngineGemini:
			return NewDummyGemini(name), nil
		case config.EngineOpenRouter:
			return NewDummyOpenRouter(name, ec.Model), nil
		case config.EngineAnthropic:
			return NewDummyAnthropic(name), nil
		}
	}

	switch name {
	case config.EngineOpenAI, config.EngineOpenRouter:
		return NewOpenAIProvider(name, ec), nil
	case config.EngineGemini:
		return NewGeminiProvider(ec), nil
	case config.EngineAnthropic:
		return NewAnthropicProvider(ec), nil
	}
	return nil, fmt.Errorf("unknown engine %q", name)
}
