// internal/provider/gemini.go
package provider

import (
	"context"
	"encoding/base64"
	"net/url"

	"meal-ai/internal/models"
)

const (
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGeminiModel   = "gemini-1.5-flash"

	defaultGeminiMaxTokens = 1200
)

type Gemini struct {
	creds Credentials
	opts  options
}

func NewGemini(creds Credentials, opts ...Option) *Gemini {
	return &Gemini{creds: creds, opts: buildOptions(DefaultGeminiBaseURL, DefaultGeminiModel, opts)}
}

func (c *Gemini) Name() models.Vendor { return models.VendorGemini }

type geminiRequest struct {
	SystemInstruction *geminiContent         `json:"system_instruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiGenerationConfig struct {
	Temperature      *float64 `json:"temperature,omitempty"`
	MaxOutputTokens  int      `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string   `json:"responseMimeType,omitempty"`
}

func (c *Gemini) Send(ctx context.Context, req Request) (string, error) {
	vendor := c.Name()
	if err := checkpoint(ctx, vendor); err != nil {
		return "", err
	}
	key, err := apiKey(c.creds, vendor)
	if err != nil {
		return "", err
	}

	parts := []geminiPart{{Text: req.UserPrompt}}
	if len(req.Image) > 0 {
		if err := checkpoint(ctx, vendor); err != nil {
			return "", err
		}
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{
			MimeType: "image/jpeg",
			Data:     base64.StdEncoding.EncodeToString(req.Image),
		}})
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultGeminiMaxTokens
	}
	temperature := clamp(req.Temperature, 0, 2)
	body := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     &temperature,
			MaxOutputTokens: maxTokens,
		},
	}
	if req.SystemPrompt != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.SystemPrompt}}}
	}
	if req.ForceJSON {
		body.GenerationConfig.ResponseMimeType = "application/json"
	}

	endpoint := c.opts.baseURL + "/models/" + url.PathEscape(c.opts.model) + ":generateContent"
	data, err := postJSON(ctx, c.opts.httpClient, vendor, endpoint, map[string]string{"x-goog-api-key": key}, body)
	if err != nil {
		return "", err
	}

	if text := contentText(data, "candidates.0.content.parts"); text != "" {
		return text, nil
	}
	return "", emptyResponse(vendor, data)
}
