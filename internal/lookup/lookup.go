// internal/lookup/lookup.go

// Package lookup resolves per-100 g nutrition facts from deterministic
// sources: Open Food Facts for barcodes, USDA FoodData Central and the local
// macro table for food names.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"meal-ai/internal/models"
)

var (
	ErrNotFound     = errors.New("no nutrition data found")
	ErrInvalidQuery = errors.New("invalid lookup query")
)

// Source resolves a query to base nutrition values per 100 g.
type Source interface {
	Name() string
	Lookup(ctx context.Context, query string) (*models.BaseInfo, error)
}

const defaultTimeout = 15 * time.Second

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}

func getJSON(ctx context.Context, hc *http.Client, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, models.Excerpt(string(body), 200))
	}
	return body, nil
}

// flexNumber reads a JSON number or a numeric string. Open Food Facts returns
// either, depending on how the product was entered.
func flexNumber(v gjson.Result) *float64 {
	var f float64
	switch v.Type {
	case gjson.Number:
		f = v.Num
	case gjson.String:
		parsed, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(v.Str), ",", "."), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if f < 0 {
		f = 0
	}
	return &f
}
