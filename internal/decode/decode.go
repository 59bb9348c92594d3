// internal/decode/decode.go
package decode

import (
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"meal-ai/internal/models"
)

// ExcerptLength is how much of the offending text a decode error carries.
const ExcerptLength = 200

// advancedKeys are the optional advanced-dosing text fields a prompt may ask
// for.
var advancedKeys = []string{
	"fatProteinUnits",
	"netCarbsAdjustment",
	"insulinTimingRecommendations",
	"fpuDosingGuidance",
	"exerciseConsiderations",
	"absorptionTimeReasoning",
	"mealSizeImpact",
	"individualizationFactors",
	"safetyAlerts",
}

// Decode converts provider text into a NutritionResult. The raw text is tried
// first, then its sanitized form; for each, the full structured shape
//
//	{"analysis": {"totals": {...}, "per100g": {...}, "foods": [...]}, "reasoning": "...", "mealName": "..."}
//
// is tried before the flat shape {"carbs_g", "protein_g", "fat_g", "meal_name"}.
// A failure is InvalidJSON when no candidate parses as JSON at all and
// SchemaMismatch otherwise.
func Decode(text string) (*models.NutritionResult, error) {
	raw := strings.TrimSpace(strings.ReplaceAll(text, "\ufeff", ""))
	candidates := []string{raw}
	if cleaned := Sanitize(raw); cleaned != raw {
		candidates = append(candidates, cleaned)
	}

	validJSON := false
	for _, c := range candidates {
		if !gjson.Valid(c) {
			continue
		}
		validJSON = true
		root := gjson.Parse(c)
		if !root.IsObject() {
			continue
		}
		if r, ok := decodeFull(root); ok {
			return r, nil
		}
		if r, ok := decodeFlat(root); ok {
			return r, nil
		}
	}

	kind := models.KindInvalidJSON
	if validJSON {
		kind = models.KindSchemaMismatch
	}
	return nil, &models.AnalysisError{Kind: kind, Excerpt: models.Excerpt(raw, ExcerptLength)}
}

func decodeFull(root gjson.Result) (*models.NutritionResult, bool) {
	analysis := root.Get("analysis")
	if !analysis.IsObject() {
		return nil, false
	}
	totals, ok := triple(analysis.Get("totals"))
	if !ok {
		return nil, false
	}

	r := &models.NutritionResult{Totals: totals}
	if per, ok := triple(analysis.Get("per100g")); ok {
		r.Per100g = &per
	}
	r.Foods = foods(analysis.Get("foods"))
	r.ReasoningText = stringField(root, "reasoning")
	r.Explanation = firstString(root, "explanation", "selvitys")
	r.SetMealName(firstString(root, "mealName", "meal_name"))
	r.Advanced = advanced(root)
	return r, true
}

func decodeFlat(root gjson.Result) (*models.NutritionResult, bool) {
	totals, ok := triple(root)
	if !ok {
		return nil, false
	}
	r := &models.NutritionResult{Totals: totals}
	r.SetMealName(firstString(root, "meal_name", "mealName"))
	r.Advanced = advanced(root)
	return r, true
}

// triple requires all three macro keys with numeric values.
func triple(obj gjson.Result) (models.MacroTriple, bool) {
	if !obj.IsObject() {
		return models.MacroTriple{}, false
	}
	carbs, ok1 := number(obj.Get("carbs_g"))
	protein, ok2 := number(obj.Get("protein_g"))
	fat, ok3 := number(obj.Get("fat_g"))
	if !ok1 || !ok2 || !ok3 {
		return models.MacroTriple{}, false
	}
	return models.MacroTriple{CarbsG: carbs, ProteinG: protein, FatG: fat}.Clamped(), true
}

// number accepts JSON numbers and numeric strings such as "45.0" or "45,0".
func number(v gjson.Result) (float64, bool) {
	switch v.Type {
	case gjson.Number:
		return v.Num, true
	case gjson.String:
		s := strings.ReplaceAll(strings.TrimSpace(v.Str), ",", ".")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func optionalNumber(obj gjson.Result, keys ...string) *float64 {
	for _, k := range keys {
		if f, ok := number(obj.Get(k)); ok {
			return &f
		}
	}
	return nil
}

// foods decodes the optional food list. Entries without a name invalidate the
// whole list, which is then dropped.
func foods(arr gjson.Result) []models.FoodComponent {
	if !arr.IsArray() {
		return nil
	}
	var out []models.FoodComponent
	valid := true
	arr.ForEach(func(_, item gjson.Result) bool {
		name := item.Get("name")
		if !item.IsObject() || name.Type != gjson.String {
			valid = false
			return false
		}
		out = append(out, models.FoodComponent{
			Name:             name.Str,
			CarbsG:           optionalNumber(item, "carbs_g"),
			ProteinG:         optionalNumber(item, "protein_g"),
			FatG:             optionalNumber(item, "fat_g"),
			Confidence:       optionalNumber(item, "confidence"),
			EstimatedWeightG: optionalNumber(item, "estimated_weight_g", "estimatedWeightG"),
			Notes:            stringField(item, "notes"),
		})
		return true
	})
	if !valid {
		return nil
	}
	return out
}

func stringField(obj gjson.Result, key string) string {
	v := obj.Get(key)
	if v.Type != gjson.String {
		return ""
	}
	return v.Str
}

func firstString(obj gjson.Result, keys ...string) string {
	for _, k := range keys {
		if s := stringField(obj, k); s != "" {
			return s
		}
	}
	return ""
}

func advanced(root gjson.Result) map[string]string {
	var out map[string]string
	for _, k := range advancedKeys {
		s := strings.TrimSpace(stringField(root, k))
		if s == "" {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[k] = s
	}
	return out
}
