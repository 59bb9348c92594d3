// internal/macros/engine.go
package macros

import (
	"regexp"
	"strconv"
	"strings"

	"meal-ai/internal/models"
)

// absorbedOilRatio is roughly 7 g of oil per 100 g of fried or breaded food.
const absorbedOilRatio = 0.07

// Component is one food of a meal with its weight in grams.
type Component struct {
	Name    string  `json:"name"`
	WeightG float64 `json:"weight_g"`
}

// ComputeTotals sums the macros of every component. Negative weights count as
// zero, so no field of the result is ever negative.
func ComputeTotals(components []Component) models.MacroTriple {
	var total models.MacroTriple
	for _, c := range components {
		total = total.Add(macrosFor(ResolveClass(c.Name), c.WeightG))
	}
	return total.Clamped()
}

func macrosFor(class string, weightG float64) models.MacroTriple {
	d := DensityFor(class)
	factor := max(0, weightG) / 100
	return models.MacroTriple{
		CarbsG:   d.CarbsPer100g * factor,
		ProteinG: d.ProteinPer100g * factor,
		FatG:     d.FatPer100g * factor,
	}
}

// Per100g scales totals to 100 g of food. It returns zeros when the total
// weight is unknown.
func Per100g(totals models.MacroTriple, totalWeightG float64) models.MacroTriple {
	if totalWeightG <= 0 {
		return models.MacroTriple{}
	}
	return totals.Scale(100 / totalWeightG)
}

// TotalWeight sums the non-negative component weights.
func TotalWeight(components []Component) float64 {
	var w float64
	for _, c := range components {
		w += max(0, c.WeightG)
	}
	return w
}

// EstimatedAbsorbedOil estimates the oil taken up by fried or breaded food.
// It is not added to totals; callers may add it as a separate "oil"
// component.
func EstimatedAbsorbedOil(name string, weightG float64) float64 {
	class := ResolveClass(name)
	if class == "fried" || strings.Contains(class, "schnitzel") || strings.Contains(class, "fish_and_chips") {
		return max(0, weightG*absorbedOilRatio)
	}
	return 0
}

var weightPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)weight_g\s*=\s*([0-9]+(?:\.[0-9]+)?)`),
	regexp.MustCompile(`(?i)([0-9]+(?:\.[0-9]+)?)\s*g\b`),
	regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)\b`),
}

// ParseWeightHint extracts a weight in grams from annotation text such as
// "weight_g=250", "250,5 g" or "250".
func ParseWeightHint(text string) (float64, bool) {
	return parseWeight(text, weightPatterns)
}

// ParseGrams is ParseWeightHint without the bare-number fallback, for free
// text such as "2 slices, about 80 g".
func ParseGrams(text string) (float64, bool) {
	return parseWeight(text, weightPatterns[:2])
}

func parseWeight(text string, patterns []*regexp.Regexp) (float64, bool) {
	if strings.TrimSpace(text) == "" {
		return 0, false
	}
	s := strings.ReplaceAll(text, ",", ".")
	for _, re := range patterns {
		m := re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, false
		}
		return v, true
	}
	return 0, false
}

// ComponentsFromFoods turns decoded foods into weighted components. Weights
// come from estimated_weight_g, or from a hint in the notes. complete is
// false when some food had no usable weight; such foods are left out.
func ComponentsFromFoods(foods []models.FoodComponent) (components []Component, complete bool) {
	complete = len(foods) > 0
	for _, f := range foods {
		var (
			w  float64
			ok bool
		)
		if f.EstimatedWeightG != nil {
			w, ok = *f.EstimatedWeightG, true
		} else {
			w, ok = ParseWeightHint(f.Notes)
		}
		if !ok {
			complete = false
			continue
		}
		components = append(components, Component{Name: f.Name, WeightG: w})
	}
	return components, complete
}

// Recompute returns a copy of result with totals and per100g computed from
// the table when every food carries a weight. ok is false, and result is
// returned unchanged, otherwise.
func Recompute(result *models.NutritionResult) (*models.NutritionResult, bool) {
	if result == nil {
		return nil, false
	}
	components, complete := ComponentsFromFoods(result.Foods)
	if !complete {
		return result, false
	}
	out := *result
	out.Totals = ComputeTotals(components)
	per := Per100g(out.Totals, TotalWeight(components))
	out.Per100g = &per
	return &out, true
}
