package provider

import (
	"context"
	"fmt"
	"time"
)

// DummyProvider answers deterministically without any network call. It keeps
// the service usable in development and when an engine has no credentials.
type DummyProvider struct {
	name   string
	model  string
	render func(userPrompt string) string
}

func (p *DummyProvider) Name() string { return p.name }

func (p *DummyProvider) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	return &Result{
		Provider:  p.name,
		Model:     p.model,
		Answer:    p.render(req.UserPrompt),
		LatencyMS: elapsedMS(start),
	}, nil
}

// NewDummyOpenAI answers in numbered steps
func NewDummyOpenAI(name string) *DummyProvider {
	return &DummyProvider{
		name:  name,
		model: "gpt-dummy",
		render: func(prompt string) string {
			return fmt.Sprintf("[OpenAI Dummy]\nStep 1: %s\nStep 2: Example explanation.", prompt)
		},
	}
}

// NewDummyGemini answers in bullets
func NewDummyGemini(name string) *DummyProvider {
	return &DummyProvider{
		name:  name,
		model: "gemini-dummy",
		render: func(prompt string) string {
			return fmt.Sprintf("[Gemini Dummy]\n• %s\n• Alternative explanation.", prompt)
		},
	}
}

func NewDummyOpenRouter(name, model string) *DummyProvider {
	return &DummyProvider{
		name:  name,
		model: "dummy-free",
		render: func(prompt string) string {
			return fmt.Sprintf("[OpenRouter Dummy - %s]\nStep 1: %s\nStep 2: Example answer from OpenRouter free model.", model, prompt)
		},
	}
}

func NewDummyAnthropic(name string) *DummyProvider {
	return &DummyProvider{
		name:  name,
		model: "claude-dummy",
		render: func(prompt string) string {
			return fmt.Sprintf("[Anthropic Dummy]\n%s\n\nWarning: this is a placeholder answer.", prompt)
		},
	}
}
