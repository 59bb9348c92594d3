// internal/provider/provider.go
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

	"meal-ai/internal/models"
)

const (
	// BodyExcerptLength bounds the response text carried by transport errors.
	BodyExcerptLength = 800

	defaultHTTPTimeout = 60 * time.Second
)

// Request is one prompt sent to a vendor.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	// Image is compressed JPEG data, sent inline when non-empty.
	Image       []byte
	Temperature float64
	MaxTokens   int
	ForceJSON   bool
}

// Client sends a prompt to one vendor and returns the assistant text.
type Client interface {
	Name() models.Vendor
	Send(ctx context.Context, req Request) (string, error)
}

// Credentials resolves API keys. Keys are looked up on every call so changes
// to the settings take effect on the next request.
type Credentials interface {
	APIKey(vendor models.Vendor) string
}

// StaticCredentials is a fixed key set, mostly useful in tests.
type StaticCredentials map[models.Vendor]string

func (s StaticCredentials) APIKey(vendor models.Vendor) string { return s[vendor] }

type Option func(*options)

type options struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = strings.TrimRight(u, "/") }
}

func WithModel(model string) Option {
	return func(o *options) { o.model = model }
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

func buildOptions(baseURL, model string, opts []Option) options {
	o := options{
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// checkpoint fails with Cancelled once ctx is done.
func checkpoint(ctx context.Context, vendor models.Vendor) error {
	if err := ctx.Err(); err != nil {
		return &models.AnalysisError{Kind: models.KindCancelled, Provider: string(vendor), Err: err}
	}
	return nil
}

func apiKey(creds Credentials, vendor models.Vendor) (string, error) {
	var key string
	if creds != nil {
		key = strings.TrimSpace(creds.APIKey(vendor))
	}
	if key == "" {
		return "", &models.AnalysisError{Kind: models.KindCredentialMissing, Provider: string(vendor)}
	}
	return key, nil
}

// postJSON marshals body, posts it and returns the raw 2xx response body.
// The last two cancellation checkpoints (before and after the network call)
// live here.
func postJSON(ctx context.Context, hc *http.Client, vendor models.Vendor, url string, headers map[string]string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", vendor, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if err := checkpoint(ctx, vendor); err != nil {
		return nil, err
	}

	resp, err := hc.Do(req)
	if err != nil {
		if cerr := checkpoint(ctx, vendor); cerr != nil {
			return nil, cerr
		}
		return nil, &models.AnalysisError{Kind: models.KindNetwork, Provider: string(vendor), Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if cerr := checkpoint(ctx, vendor); cerr != nil {
		return nil, cerr
	}
	if err != nil {
		return nil, &models.AnalysisError{Kind: models.KindNetwork, Provider: string(vendor), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &models.AnalysisError{
			Kind:       models.KindHTTPFailure,
			Provider:   string(vendor),
			StatusCode: resp.StatusCode,
			Excerpt:    models.Excerpt(strings.TrimSpace(string(data)), BodyExcerptLength),
		}
	}
	return data, nil
}

func emptyResponse(vendor models.Vendor, body []byte) error {
	return &models.AnalysisError{
		Kind:     models.KindEmptyResponse,
		Provider: string(vendor),
		Excerpt:  models.Excerpt(string(body), BodyExcerptLength),
	}
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}

// New returns the client for vendor.
func New(vendor models.Vendor, creds Credentials, opts ...Option) (Client, error) {
	switch vendor {
	case models.VendorOpenAI:
		return NewOpenAI(creds, opts...), nil
	case models.VendorClaude:
		return NewClaude(creds, opts...), nil
	case models.VendorGemini:
		return NewGemini(creds, opts...), nil
	}
	return nil, fmt.Errorf("unknown provider %q", vendor)
}
