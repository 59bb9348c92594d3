// internal/analyzer/search.go
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"meal-ai/internal/lookup"
	"meal-ai/internal/macros"
	"meal-ai/internal/models"
	"meal-ai/internal/router"
)

const defaultPortionG = 100

// Query is a text or barcode search.
type Query struct {
	Kind router.InputKind
	// Text is the food name, or the barcode digits for InputBarcode.
	Text string
	// Hint may carry a portion weight such as "250 g".
	Hint string
}

type SearchResult struct {
	Result   *models.NutritionResult
	Base     *models.BaseInfo
	Decision router.Decision
	// Refined is true when the provider produced the result.
	Refined bool
	Vendor  models.Vendor
	Raw     string
}

// Searcher runs text and barcode searches: deterministic lookup first, then
// AI refinement when the route allows it.
type Searcher struct {
	settings SettingsSource
	analyzer *Analyzer
	sources  map[router.Lookup]lookup.Source
	logger   *zap.Logger
}

func NewSearcher(settings SettingsSource, a *Analyzer, sources map[router.Lookup]lookup.Source, logger *zap.Logger) *Searcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Searcher{settings: settings, analyzer: a, sources: sources, logger: logger}
}

func (s *Searcher) Search(ctx context.Context, q Query) (*SearchResult, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty query", lookup.ErrInvalidQuery)
	}

	if q.Kind == router.InputImage {
		return nil, fmt.Errorf("%w: images go through Analyze", router.ErrUnknownInput)
	}
	d, err := router.Route(s.settings.Effective(), q.Kind)
	if err != nil {
		return nil, err
	}

	base, err := s.lookup(ctx, d, text)
	if err != nil {
		return nil, err
	}

	res := &SearchResult{Base: base, Decision: d}
	if base.Complete() && (d.DirectOnHit || !d.UsesAI()) {
		res.Result = baseResult(base, q.Hint)
		return res, nil
	}
	if !d.UsesAI() {
		if base == nil {
			return nil, fmt.Errorf("%q: %w", text, lookup.ErrNotFound)
		}
		res.Result = baseResult(base, q.Hint)
		return res, nil
	}

	description := text
	if q.Kind == router.InputBarcode {
		// A bare barcode means nothing to a language model.
		if base == nil {
			return nil, fmt.Errorf("barcode %s: %w", text, lookup.ErrNotFound)
		}
		description = base.Name
	}

	out, err := s.analyzer.Analyze(ctx, Input{Text: description, Hint: q.Hint, Base: base, Vendor: d.Vendor})
	if err != nil {
		return nil, err
	}
	res.Result, res.Refined, res.Vendor, res.Raw = out.Result, true, out.Vendor, out.Raw
	return res, nil
}

// lookup returns nil without error on a miss. Failures of an optional source
// are logged and treated as misses.
func (s *Searcher) lookup(ctx context.Context, d router.Decision, query string) (*models.BaseInfo, error) {
	src, ok := s.sources[d.Lookup]
	if !ok {
		s.logger.Warn("no lookup source configured", zap.String("lookup", string(d.Lookup)))
		return nil, nil
	}

	base, err := src.Lookup(ctx, query)
	switch {
	case err == nil:
		return base, nil
	case errors.Is(err, lookup.ErrInvalidQuery), models.IsCancelled(err):
		return nil, err
	case ctx.Err() != nil:
		return nil, contextError(ctx, "")
	case errors.Is(err, lookup.ErrNotFound):
		s.logger.Debug("lookup miss", zap.String("source", src.Name()), zap.String("query", query))
		return nil, nil
	default:
		s.logger.Warn("lookup failed", zap.String("source", src.Name()), zap.Error(err))
		return nil, nil
	}
}

// baseResult scales per-100 g base values to the grams given in hint, or to
// 100 g.
func baseResult(base *models.BaseInfo, hint string) *models.NutritionResult {
	weight := float64(defaultPortionG)
	if w, ok := macros.ParseGrams(hint); ok && w > 0 {
		weight = w
	}
	per100 := base.Per100g()
	r := &models.NutritionResult{
		Totals:        per100.Scale(weight / 100).Clamped(),
		Per100g:       &per100,
		Foods:         []models.FoodComponent{{Name: base.Name, EstimatedWeightG: &weight}},
		ReasoningText: fmt.Sprintf("Values from %s per 100 g, scaled to %.0f g.", base.Source, weight),
	}
	r.SetMealName(base.Name)
	return r
}
