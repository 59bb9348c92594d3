// internal/models/meal.go
package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxMealNameLength bounds the display label in runes.
const MaxMealNameLength = 60

type MacroTriple struct {
	CarbsG   float64 `json:"carbs_g"`
	ProteinG float64 `json:"protein_g"`
	FatG     float64 `json:"fat_g"`
}

// Clamped returns the triple with negative fields raised to zero.
func (m MacroTriple) Clamped() MacroTriple {
	return MacroTriple{
		CarbsG:   nonNegative(m.CarbsG),
		ProteinG: nonNegative(m.ProteinG),
		FatG:     nonNegative(m.FatG),
	}
}

// Scale multiplies every field by factor.
func (m MacroTriple) Scale(factor float64) MacroTriple {
	return MacroTriple{
		CarbsG:   m.CarbsG * factor,
		ProteinG: m.ProteinG * factor,
		FatG:     m.FatG * factor,
	}
}

func (m MacroTriple) Add(o MacroTriple) MacroTriple {
	return MacroTriple{
		CarbsG:   m.CarbsG + o.CarbsG,
		ProteinG: m.ProteinG + o.ProteinG,
		FatG:     m.FatG + o.FatG,
	}
}

func (m MacroTriple) IsZero() bool {
	return m.CarbsG == 0 && m.ProteinG == 0 && m.FatG == 0
}

// FoodComponent is one detected item of a meal before aggregation.
type FoodComponent struct {
	Name             string   `json:"name"`
	CarbsG           *float64 `json:"carbs_g,omitempty"`
	ProteinG         *float64 `json:"protein_g,omitempty"`
	FatG             *float64 `json:"fat_g,omitempty"`
	Confidence       *float64 `json:"confidence,omitempty"`
	EstimatedWeightG *float64 `json:"estimated_weight_g,omitempty"`
	Notes            string   `json:"notes,omitempty"`
}

// NutritionResult is the canonical output every accepted provider shape is
// normalized into.
type NutritionResult struct {
	MealName      string            `json:"meal_name,omitempty"`
	Totals        MacroTriple       `json:"totals"`
	Per100g       *MacroTriple      `json:"per100g,omitempty"`
	Foods         []FoodComponent   `json:"foods,omitempty"`
	ReasoningText string            `json:"reasoning"`
	Explanation   string            `json:"explanation,omitempty"`
	Advanced      map[string]string `json:"advanced,omitempty"`
}

// SetMealName stores name trimmed and cut to MaxMealNameLength runes.
func (r *NutritionResult) SetMealName(name string) {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > MaxMealNameLength {
		name = strings.TrimSpace(string([]rune(name)[:MaxMealNameLength]))
	}
	r.MealName = name
}

// Summary joins the explanation, a per-100 g line and the reasoning into the
// text shown under "AI reasoning". Empty parts are skipped.
func (r *NutritionResult) Summary() string {
	var parts []string
	if s := strings.TrimSpace(r.Explanation); s != "" {
		parts = append(parts, s)
	}
	if r.Per100g != nil {
		parts = append(parts, fmt.Sprintf("Per 100 g:\nCarbs: %.1f g, Fat: %.1f g, Proteins: %.1f g",
			r.Per100g.CarbsG, r.Per100g.FatG, r.Per100g.ProteinG))
	}
	if s := strings.TrimSpace(r.ReasoningText); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, "\n\n")
}

// InputSource records which entry point produced a meal.
type InputSource string

const (
	SourceCamera  InputSource = "camera"
	SourceText    InputSource = "text"
	SourceBarcode InputSource = "barcode"
)

// Meal is a persisted analysis.
type Meal struct {
	ID         string          `json:"id"`
	Source     InputSource     `json:"source"`
	Vendor     string          `json:"vendor,omitempty"`
	Query      string          `json:"query,omitempty"`
	Result     NutritionResult `json:"result"`
	Recomputed bool            `json:"recomputed"`
	CreatedAt  time.Time       `json:"created_at"`
}

// BaseInfo is nutrition data resolved by a deterministic lookup, per 100 g.
type BaseInfo struct {
	Name        string   `json:"name"`
	Carbs       *float64 `json:"carbs,omitempty"`
	Protein     *float64 `json:"protein,omitempty"`
	Fat         *float64 `json:"fat,omitempty"`
	ServingSize string   `json:"serving_size,omitempty"`
	Source      string   `json:"source"`
}

// Complete reports whether all three macros are known.
func (b *BaseInfo) Complete() bool {
	return b != nil && b.Carbs != nil && b.Protein != nil && b.Fat != nil
}

// Per100g returns the known macros, unknown ones as zero.
func (b *BaseInfo) Per100g() MacroTriple {
	var t MacroTriple
	if b.Carbs != nil {
		t.CarbsG = *b.Carbs
	}
	if b.Protein != nil {
		t.ProteinG = *b.Protein
	}
	if b.Fat != nil {
		t.FatG = *b.Fat
	}
	return t.Clamped()
}

func nonNegative(v float64) float64 {
	if v < 0 || v != v {
		return 0
	}
	return v
}
