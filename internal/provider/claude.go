// internal/provider/claude.go
package provider

import (
	"context"
	"encoding/base64"

	"meal-ai/internal/models"
)

const (
	DefaultClaudeBaseURL = "https://api.anthropic.com/v1"
	DefaultClaudeModel   = "claude-3-haiku-20240307"

	anthropicVersion       = "2023-06-01"
	defaultClaudeMaxTokens = 1200
	claudeJSONInstruction  = "\nRespond strictly with a single JSON object."
)

type Claude struct {
	creds Credentials
	opts  options
}

func NewClaude(creds Credentials, opts ...Option) *Claude {
	return &Claude{creds: creds, opts: buildOptions(DefaultClaudeBaseURL, DefaultClaudeModel, opts)}
}

func (c *Claude) Name() models.Vendor { return models.VendorClaude }

type claudeRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	System      string          `json:"system,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
	Messages    []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string        `json:"role"`
	Content []claudeBlock `json:"content"`
}

type claudeBlock struct {
	Type   string             `json:"type"`
	Text   string             `json:"text,omitempty"`
	Source *claudeImageSource `json:"source,omitempty"`
}

type claudeImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

func (c *Claude) Send(ctx context.Context, req Request) (string, error) {
	vendor := c.Name()
	if err := checkpoint(ctx, vendor); err != nil {
		return "", err
	}
	key, err := apiKey(c.creds, vendor)
	if err != nil {
		return "", err
	}

	var blocks []claudeBlock
	if len(req.Image) > 0 {
		if err := checkpoint(ctx, vendor); err != nil {
			return "", err
		}
		blocks = append(blocks, claudeBlock{
			Type: "image",
			Source: &claudeImageSource{
				Type:      "base64",
				MediaType: "image/jpeg",
				Data:      base64.StdEncoding.EncodeToString(req.Image),
			},
		})
	}
	prompt := req.UserPrompt
	if req.ForceJSON {
		prompt += claudeJSONInstruction
	}
	blocks = append(blocks, claudeBlock{Type: "text", Text: prompt})

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultClaudeMaxTokens
	}
	temperature := clamp(req.Temperature, 0, 1)
	body := claudeRequest{
		Model:       c.opts.model,
		MaxTokens:   maxTokens,
		System:      req.SystemPrompt,
		Temperature: &temperature,
		Messages:    []claudeMessage{{Role: "user", Content: blocks}},
	}

	data, err := postJSON(ctx, c.opts.httpClient, vendor, c.opts.baseURL+"/messages", map[string]string{
		"x-api-key":         key,
		"anthropic-version": anthropicVersion,
	}, body)
	if err != nil {
		return "", err
	}

	if text := contentText(data, "content"); text != "" {
		return text, nil
	}
	return "", emptyResponse(vendor, data)
}
