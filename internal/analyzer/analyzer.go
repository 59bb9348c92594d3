// internal/analyzer/analyzer.go

// Package analyzer runs one meal analysis: it picks the provider, retries
// transient failures with backoff, races the call against a timeout and
// decodes the reply into a NutritionResult.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"meal-ai/internal/config"
	"meal-ai/internal/decode"
	"meal-ai/internal/macros"
	"meal-ai/internal/models"
	"meal-ai/internal/provider"
	"meal-ai/internal/router"
)

const (
	DefaultTimeout    = 25 * time.Second
	DefaultMaxRetries = 2
	DefaultBaseDelay  = 400 * time.Millisecond
)

// SettingsSource yields the settings in effect for the next analysis.
type SettingsSource interface {
	Effective() config.Settings
}

// Input is one analysis request. Image selects the photo path; otherwise
// Text is analyzed.
type Input struct {
	Image []byte
	Text  string
	Hint  string
	// Base carries looked-up values the provider should refine.
	Base *models.BaseInfo
	// Vendor overrides routing when set.
	Vendor models.Vendor
}

type Output struct {
	Result     *models.NutritionResult
	Raw        string
	Vendor     models.Vendor
	Recomputed bool
}

type Analyzer struct {
	settings SettingsSource
	clients  map[models.Vendor]provider.Client

	timeout    time.Duration
	maxRetries int
	baseDelay  time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
	observer   func(Transition)
	logger     *zap.Logger
}

type Option func(*Analyzer)

func WithTimeout(d time.Duration) Option {
	return func(a *Analyzer) { a.timeout = d }
}

func WithRetries(maxRetries int, baseDelay time.Duration) Option {
	return func(a *Analyzer) {
		a.maxRetries = maxRetries
		a.baseDelay = baseDelay
	}
}

// WithSleep replaces the backoff sleep. fn must return early with ctx's
// error when ctx is done.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(a *Analyzer) { a.sleep = fn }
}

// WithObserver registers fn for every state transition. fn may be called
// from another goroutine.
func WithObserver(fn func(Transition)) Option {
	return func(a *Analyzer) { a.observer = fn }
}

func WithLogger(l *zap.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

func New(settings SettingsSource, clients []provider.Client, opts ...Option) *Analyzer {
	a := &Analyzer{
		settings:   settings,
		clients:    make(map[models.Vendor]provider.Client, len(clients)),
		timeout:    DefaultTimeout,
		maxRetries: DefaultMaxRetries,
		baseDelay:  DefaultBaseDelay,
		sleep:      sleepContext,
		logger:     zap.NewNop(),
	}
	for _, c := range clients {
		a.clients[c.Name()] = c
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze runs one analysis to completion.
func (a *Analyzer) Analyze(ctx context.Context, in Input) (*Output, error) {
	m := newMachine(a.observer, a.logger)
	out, err := a.analyze(ctx, m, in)
	switch {
	case err == nil:
		m.to(StateDone, nil)
	case models.IsCancelled(err):
		m.to(StateCancelled, err)
	default:
		m.to(StateFailed, err)
	}
	return out, err
}

func (a *Analyzer) analyze(ctx context.Context, m *machine, in Input) (*Output, error) {
	if err := contextError(ctx, ""); err != nil {
		return nil, err
	}

	s := a.settings.Effective()
	vendor, err := a.vendorFor(s, in)
	if err != nil {
		return nil, err
	}
	client, ok := a.clients[vendor]
	if !ok {
		return nil, fmt.Errorf("%w: %q", router.ErrUnknownVendor, vendor)
	}

	var req provider.Request
	if len(in.Image) > 0 {
		req = imageRequest(s, in.Image, in.Hint)
	} else {
		if strings.TrimSpace(in.Text) == "" {
			return nil, errors.New("nothing to analyze: image and text are both empty")
		}
		req = textRequest(s, in.Text, in.Hint, in.Base)
	}

	m.to(StateSending, nil)
	raw, err := a.send(ctx, m, client, req)
	if err != nil {
		return nil, err
	}

	m.to(StateDecoding, nil)
	if err := contextError(ctx, vendor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw) == "" {
		return nil, &models.AnalysisError{Kind: models.KindEmptyContent, Provider: string(vendor)}
	}
	result, err := decode.Decode(raw)
	if err != nil {
		var ae *models.AnalysisError
		if errors.As(err, &ae) {
			ae.Provider = string(vendor)
		}
		return nil, err
	}

	out := &Output{Result: result, Raw: raw, Vendor: vendor}
	if s.AnalysisMode == config.ModePremium {
		if recomputed, ok := macros.Recompute(result); ok {
			out.Result, out.Recomputed = recomputed, true
		} else {
			a.logger.Info("premium recomputation skipped, foods lack weights", zap.Int("foods", len(result.Foods)))
		}
	}
	return out, nil
}

func (a *Analyzer) vendorFor(s config.Settings, in Input) (models.Vendor, error) {
	if in.Vendor != "" {
		return in.Vendor, nil
	}
	if len(in.Image) > 0 {
		d, err := router.Route(s, router.InputImage)
		if err != nil {
			return "", err
		}
		return d.Vendor, nil
	}
	if !s.AIAnalysisEnabled {
		return "", fmt.Errorf("ai analysis: %w", router.ErrRouteDisabled)
	}
	v, err := models.ParseVendor(string(s.Provider))
	if err != nil {
		return "", fmt.Errorf("%w: %q", router.ErrUnknownVendor, s.Provider)
	}
	return v, nil
}

// TestConnection sends a minimal non-JSON prompt to vendor and returns the
// reply.
func (a *Analyzer) TestConnection(ctx context.Context, vendor models.Vendor) (string, error) {
	client, ok := a.clients[vendor]
	if !ok {
		return "", fmt.Errorf("%w: %q", router.ErrUnknownVendor, vendor)
	}
	m := newMachine(a.observer, a.logger)
	m.to(StateSending, nil)
	text, err := a.send(ctx, m, client, pingRequest())
	switch {
	case err == nil:
		m.to(StateDone, nil)
	case models.IsCancelled(err):
		m.to(StateCancelled, err)
	default:
		m.to(StateFailed, err)
	}
	return text, err
}

type outcome struct {
	text string
	err  error
}

// send races the retried provider call against the timeout. The loser is
// cancelled.
func (a *Analyzer) send(ctx context.Context, m *machine, client provider.Client, req provider.Request) (string, error) {
	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		text, err := a.withRetry(callCtx, m, client, req)
		done <- outcome{text: text, err: err}
	}()

	timer := time.NewTimer(a.timeout)
	defer timer.Stop()

	vendor := client.Name()
	select {
	case o := <-done:
		if o.err != nil {
			if err := contextError(ctx, vendor); err != nil {
				return "", err
			}
			return "", o.err
		}
		return o.text, nil
	case <-timer.C:
		cancel()
		a.logger.Warn("analysis timed out", zap.String("provider", string(vendor)), zap.Duration("timeout", a.timeout))
		return "", &models.AnalysisError{Kind: models.KindTimedOut, Provider: string(vendor)}
	case <-ctx.Done():
		cancel()
		return "", contextError(ctx, vendor)
	}
}

func (a *Analyzer) withRetry(ctx context.Context, m *machine, client provider.Client, req provider.Request) (string, error) {
	vendor := client.Name()
	for attempt := 0; ; attempt++ {
		if err := contextError(ctx, vendor); err != nil {
			return "", err
		}

		text, err := client.Send(ctx, req)
		if err == nil {
			return text, nil
		}
		if attempt >= a.maxRetries || !retryable(err) {
			return "", err
		}

		delay := a.baseDelay << attempt
		a.logger.Info("retrying provider call",
			zap.String("provider", string(vendor)),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err))

		if err := contextError(ctx, vendor); err != nil {
			return "", err
		}
		m.to(StateRetrying, err)
		if err := a.sleep(ctx, delay); err != nil {
			return "", &models.AnalysisError{Kind: models.KindCancelled, Provider: string(vendor), Err: err}
		}
	}
}

// retryable reports whether err is transient: a transport failure, a
// timeout or throttling status, or a server error.
func retryable(err error) bool {
	var ae *models.AnalysisError
	if !errors.As(err, &ae) {
		return false
	}
	switch ae.Kind {
	case models.KindNetwork:
		return true
	case models.KindHTTPFailure:
		return ae.StatusCode == http.StatusRequestTimeout ||
			ae.StatusCode == http.StatusTooManyRequests ||
			ae.StatusCode >= 500
	}
	return false
}

// contextError maps a done context to Cancelled, or to TimedOut when the
// caller's own deadline expired.
func contextError(ctx context.Context, vendor models.Vendor) error {
	err := ctx.Err()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return &models.AnalysisError{Kind: models.KindTimedOut, Provider: string(vendor), Err: err}
	default:
		return &models.AnalysisError{Kind: models.KindCancelled, Provider: string(vendor), Err: err}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
