package provider

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"evalconsole/internal/config"
)

// OpenAIProvider calls an OpenAI-compatible chat completions API. OpenRouter
// uses the same client with its own base URL.
type OpenAIProvider struct {
	name   string
	client openai.Client
	cfg    config.ProviderConfig
}

func NewOpenAIProvider(name string, cfg config.ProviderConfig) *OpenAIProvider {
	options := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		options = append(options, option.WithBaseURL(cfg.BaseURL))
	}
	if name == config.EngineOpenRouter {
		options = append(options, option.WithHeader("X-Title", "evalconsole"))
	}
	return &OpenAIProvider{
		name:   name,
		client: openai.NewClient(options...),
		cfg:    cfg,
	}
}

func (p *OpenAIProvider) Name() string { return p.name }

func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.SystemPrompt),
			openai.UserMessage(req.UserPrompt),
		},
		Model:       p.cfg.Model,
		Temperature: openai.Float(p.cfg.Temperature),
		MaxTokens:   openai.Int(p.cfg.MaxTokens),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("client didn't return any content choices")
	}

	return &Result{
		Provider:  p.name,
		Model:     p.cfg.Model,
		Answer:    strings.TrimSpace(resp.Choices[0].Message.Content),
		LatencyMS: elapsedMS(start),
		TokensIn:  resp.Usage.PromptTokens,
		TokensOut: resp.Usage.CompletionTokens,
	}, nil
}
