// internal/lookup/usda.go
package lookup

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"meal-ai/internal/models"
)

const SourceUSDA = "usda"

// KeySource supplies the FoodData Central API key on each call.
type KeySource interface {
	USDAKey() string
}

type USDA struct {
	baseURL string
	keys    KeySource
	hc      *http.Client
}

func NewUSDA(baseURL string, keys KeySource, hc *http.Client) *USDA {
	if hc == nil {
		hc = defaultHTTPClient()
	}
	return &USDA{baseURL: strings.TrimRight(baseURL, "/"), keys: keys, hc: hc}
}

func (u *USDA) Name() string { return SourceUSDA }

// Lookup searches FoodData Central and returns the best match.
func (u *USDA) Lookup(ctx context.Context, query string) (*models.BaseInfo, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty food name", ErrInvalidQuery)
	}
	var key string
	if u.keys != nil {
		key = strings.TrimSpace(u.keys.USDAKey())
	}
	if key == "" {
		return nil, &models.AnalysisError{Kind: models.KindCredentialMissing, Provider: SourceUSDA}
	}

	q := url.Values{}
	q.Set("query", query)
	q.Set("pageSize", "1")
	body, err := getJSON(ctx, u.hc, u.baseURL+"/fdc/v1/foods/search?"+q.Encode(), map[string]string{"X-Api-Key": key})
	if err != nil {
		return nil, fmt.Errorf("usda search %q: %w", query, err)
	}

	food := gjson.GetBytes(body, "foods.0")
	if !food.Exists() {
		return nil, fmt.Errorf("usda search %q: %w", query, ErrNotFound)
	}

	info := &models.BaseInfo{
		Name:   strings.TrimSpace(food.Get("description").String()),
		Source: SourceUSDA,
	}
	if info.Name == "" {
		info.Name = query
	}
	food.Get("foodNutrients").ForEach(func(_, n gjson.Result) bool {
		value := flexNumber(n.Get("value"))
		switch n.Get("nutrientName").String() {
		case "Carbohydrate, by difference":
			info.Carbs = value
		case "Protein":
			info.Protein = value
		case "Total lipid (fat)":
			info.Fat = value
		}
		return true
	})
	return info, nil
}
