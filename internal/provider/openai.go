// internal/provider/openai.go
package provider

import (
	"context"
	"encoding/base64"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"meal-ai/internal/models"
)

const (
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOpenAIModel   = openai.GPT4oMini

	defaultOpenAIMaxTokens = 900
)

type OpenAI struct {
	creds Credentials
	opts  options
}

func NewOpenAI(creds Credentials, opts ...Option) *OpenAI {
	return &OpenAI{creds: creds, opts: buildOptions(DefaultOpenAIBaseURL, DefaultOpenAIModel, opts)}
}

func (c *OpenAI) Name() models.Vendor { return models.VendorOpenAI }

// openAIRequest overrides the temperature field so that zero is sent instead
// of being dropped by omitempty.
type openAIRequest struct {
	openai.ChatCompletionRequest
	Temperature *float32 `json:"temperature,omitempty"`
}

func (c *OpenAI) Send(ctx context.Context, req Request) (string, error) {
	vendor := c.Name()
	if err := checkpoint(ctx, vendor); err != nil {
		return "", err
	}
	key, err := apiKey(c.creds, vendor)
	if err != nil {
		return "", err
	}

	user := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.UserPrompt}
	if len(req.Image) > 0 {
		if err := checkpoint(ctx, vendor); err != nil {
			return "", err
		}
		user = openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: req.UserPrompt},
				{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(req.Image),
					},
				},
			},
		}
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultOpenAIMaxTokens
	}
	body := openAIRequest{
		ChatCompletionRequest: openai.ChatCompletionRequest{
			Model: c.opts.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
				user,
			},
			MaxCompletionTokens: maxTokens,
		},
	}
	if req.ForceJSON {
		body.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}
	// Reasoning models reject a custom temperature.
	if strings.HasPrefix(c.opts.model, "gpt-4o") {
		t := float32(clamp(req.Temperature, 0, 1.5))
		body.Temperature = &t
	}

	data, err := postJSON(ctx, c.opts.httpClient, vendor, c.opts.baseURL+"/chat/completions",
		map[string]string{"Authorization": "Bearer " + key}, body)
	if err != nil {
		return "", err
	}

	if text := contentText(data, "choices.0.message.content"); text != "" {
		return text, nil
	}
	return "", emptyResponse(vendor, data)
}
