// internal/lookup/openfoodfacts.go
package lookup

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"github.com/tidwall/gjson"

	"meal-ai/internal/models"
)

const SourceOpenFoodFacts = "openfoodfacts"

type OpenFoodFacts struct {
	baseURL   string
	userAgent string
	hc        *http.Client
}

func NewOpenFoodFacts(baseURL, userAgent string, hc *http.Client) *OpenFoodFacts {
	if hc == nil {
		hc = defaultHTTPClient()
	}
	return &OpenFoodFacts{baseURL: strings.TrimRight(baseURL, "/"), userAgent: userAgent, hc: hc}
}

func (o *OpenFoodFacts) Name() string { return SourceOpenFoodFacts }

// Lookup fetches the product with the given barcode.
func (o *OpenFoodFacts) Lookup(ctx context.Context, code string) (*models.BaseInfo, error) {
	code = strings.TrimSpace(code)
	if code == "" || strings.IndexFunc(code, func(r rune) bool { return !unicode.IsDigit(r) }) >= 0 {
		return nil, fmt.Errorf("%w: barcode %q", ErrInvalidQuery, code)
	}

	u := fmt.Sprintf("%s/api/v2/product/%s.json?fields=%s", o.baseURL, url.PathEscape(code),
		url.QueryEscape("product_name,brands,nutriments,serving_size"))
	body, err := getJSON(ctx, o.hc, u, map[string]string{"User-Agent": o.userAgent})
	if err != nil {
		return nil, fmt.Errorf("open food facts %s: %w", code, err)
	}

	root := gjson.ParseBytes(body)
	product := root.Get("product")
	if root.Get("status").Int() != 1 || !product.IsObject() {
		return nil, fmt.Errorf("open food facts %s: %w", code, ErrNotFound)
	}

	name := strings.TrimSpace(product.Get("product_name").String())
	if name == "" {
		name = strings.TrimSpace(product.Get("brands").String())
	}
	if name == "" {
		name = code
	}

	n := product.Get("nutriments")
	return &models.BaseInfo{
		Name:        name,
		Carbs:       flexNumber(n.Get("carbohydrates_100g")),
		Protein:     flexNumber(n.Get("proteins_100g")),
		Fat:         flexNumber(n.Get("fat_100g")),
		ServingSize: strings.TrimSpace(product.Get("serving_size").String()),
		Source:      SourceOpenFoodFacts,
	}, nil
}
