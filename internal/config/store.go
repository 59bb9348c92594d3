// internal/config/store.go
package config

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"meal-ai/internal/models"
)

// Persister loads and saves the settings document.
type Persister interface {
	LoadSettings(ctx context.Context) (*Settings, error)
	SaveSettings(ctx context.Context, s Settings) error
}

// Store holds the current settings snapshot. Readers get a copy; writers
// replace the snapshot and persist it.
type Store struct {
	mu       sync.RWMutex
	settings Settings

	persist Persister
	envKeys map[models.Vendor]string
	envUSDA string
	logger  *zap.Logger
}

type StoreOption func(*Store)

func WithPersister(p Persister) StoreOption {
	return func(s *Store) { s.persist = p }
}

// WithFallbackKeys sets keys used when the settings hold none, typically from
// the environment.
func WithFallbackKeys(keys map[models.Vendor]string, usda string) StoreOption {
	return func(s *Store) {
		s.envKeys = keys
		s.envUSDA = usda
	}
}

func WithLogger(l *zap.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// NewStore returns a Store primed with the persisted settings, or the
// defaults when nothing was saved yet.
func NewStore(ctx context.Context, opts ...StoreOption) (*Store, error) {
	s := &Store{settings: DefaultSettings(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.persist == nil {
		return s, nil
	}

	saved, err := s.persist.LoadSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if saved != nil {
		if err := saved.Normalize(); err != nil {
			s.logger.Warn("ignoring invalid saved settings", zap.Error(err))
		} else {
			s.settings = *saved
		}
	}
	return s, nil
}

func (s *Store) Snapshot() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Update applies fn to a copy of the settings, validates it, persists it and
// then publishes it. On error the published snapshot is unchanged.
func (s *Store) Update(ctx context.Context, fn func(*Settings)) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.settings
	fn(&next)
	if err := next.Normalize(); err != nil {
		return s.settings, err
	}
	if s.persist != nil {
		if err := s.persist.SaveSettings(ctx, next); err != nil {
			return s.settings, fmt.Errorf("failed to save settings: %w", err)
		}
	}
	s.settings = next
	s.logger.Info("settings updated",
		zap.String("provider", string(next.Provider)),
		zap.String("mode", string(next.AnalysisMode)))
	return next, nil
}

// Effective is the snapshot with empty keys filled from the fallbacks. Routing
// decisions are made on this view.
func (s *Store) Effective() Settings {
	cur := s.Snapshot()
	if cur.OpenAIKey == "" {
		cur.OpenAIKey = strings.TrimSpace(s.envKeys[models.VendorOpenAI])
	}
	if cur.ClaudeKey == "" {
		cur.ClaudeKey = strings.TrimSpace(s.envKeys[models.VendorClaude])
	}
	if cur.GeminiKey == "" {
		cur.GeminiKey = strings.TrimSpace(s.envKeys[models.VendorGemini])
	}
	if cur.USDAKey == "" {
		cur.USDAKey = strings.TrimSpace(s.envUSDA)
	}
	return cur
}

// APIKey returns the key for vendor: the user's own when set, otherwise the
// fallback.
func (s *Store) APIKey(vendor models.Vendor) string {
	return s.Effective().Key(vendor)
}

func (s *Store) USDAKey() string {
	return s.Effective().USDAKey
}
