package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"meal-ai/internal/config"
	"meal-ai/internal/lookup"
	"meal-ai/internal/models"
	"meal-ai/internal/provider"
	"meal-ai/internal/router"
)

type fakeSource struct {
	name    string
	base    *models.BaseInfo
	err     error
	queries []string
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Lookup(_ context.Context, query string) (*models.BaseInfo, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.base, nil
}

func ptr(v float64) *float64 { return &v }

func oatmeal() *models.BaseInfo {
	return &models.BaseInfo{Name: "Oat porridge", Carbs: ptr(12), Protein: ptr(2.5), Fat: ptr(1.5), Source: "openfoodfacts"}
}

type searchFixture struct {
	client  *fakeClient
	sources map[router.Lookup]lookup.Source
	off     *fakeSource
	table   *fakeSource
}

func newSearcher(t *testing.T, s config.Settings, fx *searchFixture) *Searcher {
	t.Helper()
	if fx.client == nil {
		fx.client = &fakeClient{vendor: models.VendorOpenAI, respond: reply(flatReply)}
	}
	if fx.off == nil {
		fx.off = &fakeSource{name: "openfoodfacts", err: lookup.ErrNotFound}
	}
	if fx.table == nil {
		fx.table = &fakeSource{name: "table", err: lookup.ErrNotFound}
	}
	fx.sources = map[router.Lookup]lookup.Source{
		router.LookupOpenFoodFacts: fx.off,
		router.LookupTable:         fx.table,
	}
	settings := staticSettings(s)
	a := New(settings, []provider.Client{fx.client}, WithSleep(noSleep))
	return NewSearcher(settings, a, fx.sources, zaptest.NewLogger(t))
}

func TestSearchBarcodeDirectHit(t *testing.T) {
	fx := &searchFixture{off: &fakeSource{name: "openfoodfacts", base: oatmeal()}}
	srch := newSearcher(t, config.DefaultSettings(), fx)

	res, err := srch.Search(context.Background(), Query{Kind: router.InputBarcode, Text: " 6414893400012 ", Hint: "250 g"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Refined || fx.client.callCount() != 0 {
		t.Fatalf("a priority barcode hit must not reach the provider")
	}
	if res.Result.Totals != (models.MacroTriple{CarbsG: 30, ProteinG: 6.25, FatG: 3.75}) {
		t.Fatalf("expected totals scaled to 250 g, got %+v", res.Result.Totals)
	}
	if res.Result.MealName != "Oat porridge" || fx.off.queries[0] != "6414893400012" {
		t.Fatalf("unexpected result %+v (queries %v)", res.Result, fx.off.queries)
	}
}

func TestSearchBarcodeRefinesWithBase(t *testing.T) {
	s := config.DefaultSettings()
	s.BarcodePriorityEnabled = false
	fx := &searchFixture{off: &fakeSource{name: "openfoodfacts", base: oatmeal()}}
	srch := newSearcher(t, s, fx)

	res, err := srch.Search(context.Background(), Query{Kind: router.InputBarcode, Text: "6414893400012"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Refined || res.Vendor != models.VendorOpenAI || res.Base == nil {
		t.Fatalf("expected a refined result, got %+v", res)
	}
	prompt := fx.client.requests[0].UserPrompt
	if !strings.Contains(prompt, "Oat porridge") || !strings.Contains(prompt, "Known base per 100 g") {
		t.Fatalf("prompt does not carry the base values:\n%s", prompt)
	}
	if strings.Contains(prompt, "6414893400012") {
		t.Fatalf("the barcode itself should not be sent to the provider")
	}
}

func TestSearchBarcodeMiss(t *testing.T) {
	srch := newSearcher(t, config.DefaultSettings(), &searchFixture{})
	_, err := srch.Search(context.Background(), Query{Kind: router.InputBarcode, Text: "123"})
	if !errors.Is(err, lookup.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSearchTextWithoutAI(t *testing.T) {
	s := config.DefaultSettings()
	s.AIAnalysisEnabled = false
	fx := &searchFixture{table: &fakeSource{name: "table", base: &models.BaseInfo{
		Name: "rice", Carbs: ptr(28), Protein: ptr(2.5), Fat: ptr(0.5), Source: "table",
	}}}
	srch := newSearcher(t, s, fx)

	res, err := srch.Search(context.Background(), Query{Kind: router.InputText, Text: "rice", Hint: "weight_g=200"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Refined || res.Result.Totals != (models.MacroTriple{CarbsG: 56, ProteinG: 5, FatG: 1}) {
		t.Fatalf("unexpected result %+v", res.Result)
	}

	fx.table.base, fx.table.err = nil, lookup.ErrNotFound
	if _, err := srch.Search(context.Background(), Query{Kind: router.InputText, Text: "mystery"}); !errors.Is(err, lookup.ErrNotFound) {
		t.Fatalf("expected ErrNotFound without AI, got %v", err)
	}
}

func TestSearchTextMissGoesToProvider(t *testing.T) {
	fx := &searchFixture{table: &fakeSource{name: "table", err: errors.New("connection reset")}}
	srch := newSearcher(t, config.DefaultSettings(), fx)

	res, err := srch.Search(context.Background(), Query{Kind: router.InputText, Text: "grandma's stew"})
	if err != nil {
		t.Fatalf("lookup failures must be treated as misses: %v", err)
	}
	if !res.Refined || res.Base != nil || fx.client.callCount() != 1 {
		t.Fatalf("expected provider analysis, got %+v", res)
	}
	if !strings.Contains(fx.client.requests[0].UserPrompt, "grandma's stew") {
		t.Fatalf("prompt missing query")
	}
}

// cancellingSource cancels the search mid-lookup and fails like a transport
// would.
type cancellingSource struct {
	cancel context.CancelFunc
}

func (cancellingSource) Name() string { return "table" }

func (c cancellingSource) Lookup(ctx context.Context, _ string) (*models.BaseInfo, error) {
	c.cancel()
	return nil, fmt.Errorf("usda request: %w", ctx.Err())
}

func TestSearchCancelledDuringLookup(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fx := &searchFixture{}
	srch := newSearcher(t, config.DefaultSettings(), fx)
	srch.sources[router.LookupTable] = cancellingSource{cancel: cancel}

	_, err := srch.Search(ctx, Query{Kind: router.InputText, Text: "rice"})
	if !models.IsCancelled(err) || !errors.Is(err, models.ErrCancelled) {
		t.Fatalf("expected Cancelled, got %v", err)
	}
	if fx.client.callCount() != 0 {
		t.Fatalf("a cancelled search must not reach the provider")
	}
}

func TestSearchRejectsBadQueries(t *testing.T) {
	srch := newSearcher(t, config.DefaultSettings(), &searchFixture{})

	if _, err := srch.Search(context.Background(), Query{Kind: router.InputText, Text: "  "}); !errors.Is(err, lookup.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
	if _, err := srch.Search(context.Background(), Query{Kind: router.InputImage, Text: "x"}); !errors.Is(err, router.ErrUnknownInput) {
		t.Fatalf("expected ErrUnknownInput, got %v", err)
	}

	s := config.DefaultSettings()
	s.FoodSearchEnabled = false
	srch = newSearcher(t, s, &searchFixture{})
	if _, err := srch.Search(context.Background(), Query{Kind: router.InputText, Text: "apple"}); !errors.Is(err, router.ErrRouteDisabled) {
		t.Fatalf("expected ErrRouteDisabled, got %v", err)
	}
}
