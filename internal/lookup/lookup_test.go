package lookup

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"meal-ai/internal/models"
)

type staticKey string

func (k staticKey) USDAKey() string { return string(k) }

func TestOpenFoodFactsLookup(t *testing.T) {
	var gotPath, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotUA = r.URL.Path, r.Header.Get("User-Agent")
		w.Write([]byte(`{
			"status": 1,
			"product": {
				"product_name": " Oat drink ",
				"serving_size": "250 ml",
				"nutriments": {"carbohydrates_100g": 6.6, "proteins_100g": "1,0", "fat_100g": "1.5"}
			}
		}`))
	}))
	defer srv.Close()

	off := NewOpenFoodFacts(srv.URL, "meal-ai-test", nil)
	info, err := off.Lookup(context.Background(), " 7394376616228 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/api/v2/product/7394376616228.json" || gotUA != "meal-ai-test" {
		t.Fatalf("unexpected request %q %q", gotPath, gotUA)
	}
	if info.Name != "Oat drink" || info.ServingSize != "250 ml" || info.Source != SourceOpenFoodFacts {
		t.Fatalf("unexpected info %+v", info)
	}
	if !info.Complete() || *info.Carbs != 6.6 || *info.Protein != 1 || *info.Fat != 1.5 {
		t.Fatalf("unexpected nutriments %+v", info.Per100g())
	}
}

func TestOpenFoodFactsMisses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"status zero", http.StatusOK, `{"status": 0, "status_verbose": "product not found"}`},
		{"no product", http.StatusOK, `{"status": 1}`},
		{"http 404", http.StatusNotFound, `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewOpenFoodFacts(srv.URL, "", nil).Lookup(context.Background(), "123")
			if !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestOpenFoodFactsRejectsBadBarcode(t *testing.T) {
	off := NewOpenFoodFacts("http://127.0.0.1:0", "", nil)
	for _, code := range []string{"", "12ab", "../etc"} {
		if _, err := off.Lookup(context.Background(), code); !errors.Is(err, ErrInvalidQuery) {
			t.Errorf("Lookup(%q) = %v, want ErrInvalidQuery", code, err)
		}
	}
}

func TestUSDALookup(t *testing.T) {
	var gotQuery, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery, gotKey = r.URL.Query().Get("query"), r.Header.Get("X-Api-Key")
		w.Write([]byte(`{"foods": [{
			"description": "Rice, white, cooked",
			"foodNutrients": [
				{"nutrientName": "Protein", "value": 2.69, "unitName": "G"},
				{"nutrientName": "Total lipid (fat)", "value": 0.28, "unitName": "G"},
				{"nutrientName": "Carbohydrate, by difference", "value": 28.2, "unitName": "G"},
				{"nutrientName": "Energy", "value": 130, "unitName": "KCAL"}
			]
		}]}`))
	}))
	defer srv.Close()

	info, err := NewUSDA(srv.URL, staticKey("k"), nil).Lookup(context.Background(), "white rice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQuery != "white rice" || gotKey != "k" {
		t.Fatalf("unexpected request query=%q key=%q", gotQuery, gotKey)
	}
	want := models.MacroTriple{CarbsG: 28.2, ProteinG: 2.69, FatG: 0.28}
	if info.Name != "Rice, white, cooked" || !info.Complete() || info.Per100g() != want {
		t.Fatalf("unexpected info %+v", info)
	}
}

func TestUSDAMissingKeyAndEmptyResult(t *testing.T) {
	if _, err := NewUSDA("http://127.0.0.1:0", staticKey(""), nil).Lookup(context.Background(), "rice"); !errors.Is(err, models.ErrCredentialMissing) {
		t.Fatalf("expected CredentialMissing, got %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"foods": []}`))
	}))
	defer srv.Close()
	if _, err := NewUSDA(srv.URL, staticKey("k"), nil).Lookup(context.Background(), "zzz"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTableLookup(t *testing.T) {
	info, err := Table{}.Lookup(context.Background(), "Basmati rice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Name != "rice" || info.Per100g() != (models.MacroTriple{CarbsG: 28, ProteinG: 2.5, FatG: 0.5}) {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := (Table{}).Lookup(context.Background(), "qwerty"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

type memCache struct {
	mu      sync.Mutex
	entries map[string]*models.BaseInfo
	failGet bool
}

func (m *memCache) GetLookup(_ context.Context, source, key string, _ time.Duration) (*models.BaseInfo, error) {
	if m.failGet {
		return nil, errors.New("cache unavailable")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[source+"|"+key], nil
}

func (m *memCache) PutLookup(_ context.Context, source, key string, info *models.BaseInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = map[string]*models.BaseInfo{}
	}
	m.entries[source+"|"+key] = info
	return nil
}

type countingSource struct {
	calls int
	err   error
}

func (c *countingSource) Name() string { return "count" }

func (c *countingSource) Lookup(_ context.Context, q string) (*models.BaseInfo, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return &models.BaseInfo{Name: q, Source: "count"}, nil
}

func TestCached(t *testing.T) {
	src := &countingSource{}
	cache := &memCache{}
	c := NewCached(src, cache, time.Hour, zaptest.NewLogger(t))

	for _, q := range []string{"Rye Bread", "  rye   bread ", "RYE BREAD"} {
		if _, err := c.Lookup(context.Background(), q); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if src.calls != 1 {
		t.Fatalf("expected one upstream call, got %d", src.calls)
	}
}

func TestCachedDoesNotStoreMisses(t *testing.T) {
	src := &countingSource{err: ErrNotFound}
	c := NewCached(src, &memCache{}, time.Hour, nil)

	for i := 0; i < 2; i++ {
		if _, err := c.Lookup(context.Background(), "x"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	}
	if src.calls != 2 {
		t.Fatalf("misses must not be cached, got %d calls", src.calls)
	}
}

func TestCachedSurvivesCacheFailure(t *testing.T) {
	src := &countingSource{}
	c := NewCached(src, &memCache{failGet: true}, time.Hour, zaptest.NewLogger(t))
	if info, err := c.Lookup(context.Background(), "x"); err != nil || info == nil {
		t.Fatalf("cache failure must fall through, got %v", err)
	}
}
