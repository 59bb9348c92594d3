package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"meal-ai/internal/config"
	"meal-ai/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func ptr(f float64) *float64 { return &f }

func TestSaveAndGetMeal(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	meal := &models.Meal{
		ID:     uuid.NewString(),
		Source: models.SourceCamera,
		Vendor: "openai",
		Query:  "lunch",
		Result: models.NutritionResult{
			MealName:      "Chicken and rice",
			Totals:        models.MacroTriple{CarbsG: 56, ProteinG: 31, FatG: 5},
			Per100g:       &models.MacroTriple{CarbsG: 18.7, ProteinG: 10.3, FatG: 1.7},
			ReasoningText: "two items",
			Explanation:   "rice 200 g, chicken 100 g",
			Advanced:      map[string]string{"safetyAlerts": "none"},
			Foods: []models.FoodComponent{
				{Name: "rice", EstimatedWeightG: ptr(200), Confidence: ptr(0.9)},
				{Name: "chicken", ProteinG: ptr(26), Notes: "weight_g=100"},
			},
		},
		Recomputed: true,
		CreatedAt:  time.Date(2025, 8, 23, 12, 30, 0, 0, time.UTC),
	}
	if err := s.SaveMeal(ctx, meal); err != nil {
		t.Fatalf("SaveMeal failed: %v", err)
	}

	meals, err := s.GetMeals(ctx, "", "", 10)
	if err != nil {
		t.Fatalf("GetMeals failed: %v", err)
	}
	if len(meals) != 1 {
		t.Fatalf("expected 1 meal, got %d", len(meals))
	}
	got := meals[0]
	if got.ID != meal.ID || got.Source != models.SourceCamera || !got.Recomputed || !got.CreatedAt.Equal(meal.CreatedAt) {
		t.Fatalf("unexpected meal %+v", got)
	}
	if got.Result.Totals != meal.Result.Totals || *got.Result.Per100g != *meal.Result.Per100g {
		t.Fatalf("unexpected macros %+v", got.Result)
	}
	if got.Result.Advanced["safetyAlerts"] != "none" || got.Result.Explanation != meal.Result.Explanation {
		t.Fatalf("unexpected text fields %+v", got.Result)
	}
	if len(got.Result.Foods) != 2 {
		t.Fatalf("expected 2 foods, got %d", len(got.Result.Foods))
	}
	rice, chicken := got.Result.Foods[0], got.Result.Foods[1]
	if rice.Name != "rice" || *rice.EstimatedWeightG != 200 || rice.CarbsG != nil {
		t.Fatalf("unexpected first food %+v", rice)
	}
	if chicken.Notes != "weight_g=100" || *chicken.ProteinG != 26 || chicken.EstimatedWeightG != nil {
		t.Fatalf("unexpected second food %+v", chicken)
	}
}

func TestGetMealsFiltersAndOrder(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	days := []int{1, 2, 3, 4}
	for _, d := range days {
		meal := &models.Meal{
			ID:        uuid.NewString(),
			Source:    models.SourceText,
			Query:     time.Date(2025, 9, d, 0, 0, 0, 0, time.UTC).Format("Jan 2"),
			CreatedAt: time.Date(2025, 9, d, 18, 0, 0, 0, time.UTC),
		}
		if err := s.SaveMeal(ctx, meal); err != nil {
			t.Fatalf("SaveMeal failed: %v", err)
		}
	}

	meals, err := s.GetMeals(ctx, "2025-09-02", "2025-09-03", 10)
	if err != nil {
		t.Fatalf("GetMeals failed: %v", err)
	}
	if len(meals) != 2 || meals[0].Query != "Sep 3" || meals[1].Query != "Sep 2" {
		t.Fatalf("unexpected filtered meals %v", queries(meals))
	}

	meals, err = s.GetMeals(ctx, "", "", 3)
	if err != nil {
		t.Fatalf("GetMeals failed: %v", err)
	}
	if len(meals) != 3 || meals[0].Query != "Sep 4" {
		t.Fatalf("unexpected limited meals %v", queries(meals))
	}
	if meals[0].Result.Foods != nil || meals[0].Result.Per100g != nil || meals[0].Result.Advanced != nil {
		t.Fatalf("empty optional fields must stay empty: %+v", meals[0].Result)
	}
}

func queries(meals []*models.Meal) []string {
	var out []string
	for _, m := range meals {
		out = append(out, m.Query)
	}
	return out
}

func TestLookupCache(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	if got, err := s.GetLookup(ctx, "usda", "rice", time.Hour); err != nil || got != nil {
		t.Fatalf("expected empty cache, got %v %v", got, err)
	}

	info := &models.BaseInfo{Name: "Rice", Carbs: ptr(28), Protein: ptr(2.7), Fat: ptr(0.3), Source: "usda"}
	if err := s.PutLookup(ctx, "usda", "rice", info); err != nil {
		t.Fatalf("PutLookup failed: %v", err)
	}
	got, err := s.GetLookup(ctx, "usda", "rice", time.Hour)
	if err != nil || got == nil || got.Name != "Rice" || !got.Complete() {
		t.Fatalf("unexpected cache hit %+v %v", got, err)
	}
	if other, _ := s.GetLookup(ctx, "openfoodfacts", "rice", time.Hour); other != nil {
		t.Fatalf("cache must be keyed by source")
	}

	now = now.Add(2 * time.Hour)
	if got, _ := s.GetLookup(ctx, "usda", "rice", time.Hour); got != nil {
		t.Fatalf("expired entry must not be returned")
	}
	if n, err := s.PruneLookups(ctx, time.Hour); err != nil || n != 1 {
		t.Fatalf("expected one pruned entry, got %d %v", n, err)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	if got, err := s.LoadSettings(ctx); err != nil || got != nil {
		t.Fatalf("expected no saved settings, got %v %v", got, err)
	}

	want := config.DefaultSettings()
	want.Provider = models.VendorGemini
	want.GeminiKey = "g-key"
	want.AnalysisMode = config.ModePremium
	want.ShortcutName = "Log Carbs"
	for i := 0; i < 2; i++ {
		if err := s.SaveSettings(ctx, want); err != nil {
			t.Fatalf("SaveSettings failed: %v", err)
		}
	}

	got, err := s.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if *got != want {
		t.Fatalf("got %+v, want %+v", *got, want)
	}
}

func TestStorageBacksSettingsStore(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	store, err := config.NewStore(ctx, config.WithPersister(s))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if _, err := store.Update(ctx, func(st *config.Settings) { st.Language = config.LanguageEN }); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	reopened, err := config.NewStore(ctx, config.WithPersister(s))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if reopened.Snapshot().Language != config.LanguageEN {
		t.Fatalf("language not persisted")
	}
}
