package provider

import (
	"context"
	"time"

	"evalconsole/internal/model"
)

// Request is one generation call. Prompts are built once per ask and shared
// by both engines.
type Request struct {
	QuestionID   string
	Question     model.Question
	SystemPrompt string
	UserPrompt   string
}

// Result is an engine's answer with its call metadata
type Result struct {
	Provider  string
	Model     string
	Answer    string
	LatencyMS int64
	TokensIn  int64
	TokensOut int64
}

// Provider generates one candidate answer. Implementations must honor ctx
// cancellation and return an error rather than an empty answer.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (*Result, error)
}

// withTimeout bounds every call of the wrapped provider
type withTimeout struct {
	Provider
	timeout time.Duration
}

func (p withTimeout) Generate(ctx context.Context, req Request) (*Result, error) {
	if p.timeout <= 0 {
		return p.Provider.Generate(ctx, req)
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.Provider.Generate(ctx, req)
}

func elapsedMS(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
