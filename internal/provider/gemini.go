package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"evalconsole/internal/config"
)

// GeminiProvider calls the Gemini generateContent REST endpoint
type GeminiProvider struct {
	cfg    config.ProviderConfig
	client *http.Client
}

func NewGeminiProvider(cfg config.ProviderConfig) *GeminiProvider {
	return &GeminiProvider{
		cfg:    cfg,
		client: &http.Client{},
	}
}

func (p *GeminiProvider) Name() string { return config.EngineGemini }

func (p *GeminiProvider) endpoint() string {
	return fmt.Sprintf("%s/%s:generateContent", strings.TrimRight(p.cfg.BaseURL, "/"), p.cfg.Model)
}

func (p *GeminiProvider) Generate(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	// generateContent takes no system role here, so the system prompt leads
	prompt := req.UserPrompt
	if req.SystemPrompt != "" {
		prompt = strings.TrimSpace(req.SystemPrompt + "\n\n" + req.UserPrompt)
	}
	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]string{
					{"text": prompt},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"temperature":     p.cfg.Temperature,
			"maxOutputTokens": p.cfg.MaxTokens,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(), bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	// transport errors carry the URL, so the key goes in a header
	httpReq.Header.Set("x-goog-api-key", p.cfg.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini returned status %d", resp.StatusCode)
	}

	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
		UsageMetadata struct {
			PromptTokenCount     int64 `json:"promptTokenCount"`
			CandidatesTokenCount int64 `json:"candidatesTokenCount"`
		} `json:"usageMetadata"`
	}
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return nil, err
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	var text strings.Builder
	for _, part := range geminiResp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	return &Result{
		Provider:  p.Name(),
		Model:     p.cfg.Model,
		Answer:    strings.TrimSpace(text.String()),
		LatencyMS: elapsedMS(start),
		TokensIn:  geminiResp.UsageMetadata.PromptTokenCount,
		TokensOut: geminiResp.UsageMetadata.CandidatesTokenCount,
	}, nil
}
