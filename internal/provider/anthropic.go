package provider

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"evalconsole/internal/config"
)

type AnthropicProvider struct {
	client anthropic.Client
	cfg    config.ProviderConfig
}

func NewAnthropicProvider(cfg config.ProviderConfig) *AnthropicProvider {
	options := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		options = append(options, option.WithBaseURL(cfg.BaseURL))
	}
	return &AnthropicProvider{
		client: anthropic.NewClient(options...),
		cfg:    cfg,
	}
}

func (p *AnthropicProvider) Name() string { return config.EngineAnthropic }

func (p *AnthropicProvider) Generate(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	message, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(p.cfg.Model),
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: anthropic.Float(p.cfg.Temperature),
		System: []anthropic.TextBlockParam{
			{Text: req.SystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserPrompt)),
		},
	})
	if err != nil {
		return nil, err
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			return &Result{
				Provider:  p.Name(),
				Model:     p.cfg.Model,
				Answer:    strings.TrimSpace(block.Text),
				LatencyMS: elapsedMS(start),
				TokensIn:  message.Usage.InputTokens,
				TokensOut: message.Usage.OutputTokens,
			}, nil
		}
	}
	return nil, errors.New("no text content in Anthropic response")
}
