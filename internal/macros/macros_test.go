package macros

import (
	"math"
	"testing"

	"meal-ai/internal/models"
)

func TestResolveClassIsTotal(t *testing.T) {
	inputs := []string{"", "   ", "!!!???", "—", "🍕🍕", "xyzzy", "Ääkköset ÅÖ", "\t\n"}
	for _, in := range inputs {
		class := ResolveClass(in)
		if !HasClass(class) {
			t.Errorf("ResolveClass(%q) = %q, not in density table", in, class)
		}
	}
}

func TestResolveClass(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Fish and Chips", "fish_and_chips"},
		{"fish", "fish"},
		{"Grilled SALMON fillet", "fish"},
		{"Jäätelö", "icecream"},
		{"poronkäristys ja muusi", "poronkaristys_meal"},
		{"Pepperoni Pizza!", "pizza"},
		{"chicken burger", "chicken_burger"},
		{"roast turkey", "poultry"},
		{"fish_and_chips", "fish_and_chips"},
		{"club sandwich with fries", "club_sandwich"},
		{"something unheard of", ClassOther},
		{"salad (plain)", "veg"},
		{"udon noodles", "ramen"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ResolveClass(tt.in); got != tt.want {
				t.Fatalf("ResolveClass(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("  Crème   Brûlée, (large) "); got != "creme brulee large" {
		t.Fatalf("unexpected normalization %q", got)
	}
}

func TestComputeTotalsRice(t *testing.T) {
	got := ComputeTotals([]Component{{Name: "rice", WeightG: 200}})
	want := models.MacroTriple{CarbsG: 56, ProteinG: 5, FatG: 1}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestComputeTotalsClampsNegativeWeight(t *testing.T) {
	neg := ComputeTotals([]Component{{Name: "rice", WeightG: -50}})
	zero := ComputeTotals([]Component{{Name: "rice", WeightG: 0}})
	if neg != zero || !neg.IsZero() {
		t.Fatalf("negative weight should equal zero weight, got %+v and %+v", neg, zero)
	}

	mixed := ComputeTotals([]Component{{Name: "rice", WeightG: 200}, {Name: "cheese", WeightG: -10}})
	if mixed != (models.MacroTriple{CarbsG: 56, ProteinG: 5, FatG: 1}) {
		t.Fatalf("negative component must contribute nothing, got %+v", mixed)
	}
}

func TestPer100gRoundTrip(t *testing.T) {
	components := []Component{
		{Name: "rice", WeightG: 180},
		{Name: "chicken", WeightG: 120},
		{Name: "sauce", WeightG: 35.5},
	}
	totals := ComputeTotals(components)
	weight := TotalWeight(components)
	back := Per100g(totals, weight).Scale(weight / 100)

	const eps = 1e-9
	if math.Abs(back.CarbsG-totals.CarbsG) > eps ||
		math.Abs(back.ProteinG-totals.ProteinG) > eps ||
		math.Abs(back.FatG-totals.FatG) > eps {
		t.Fatalf("round trip mismatch: %+v vs %+v", back, totals)
	}
}

func TestPer100gZeroWeight(t *testing.T) {
	got := Per100g(models.MacroTriple{CarbsG: 10, ProteinG: 10, FatG: 10}, 0)
	if !got.IsZero() {
		t.Fatalf("expected zeros, got %+v", got)
	}
}

func TestEstimatedAbsorbedOil(t *testing.T) {
	tests := []struct {
		name   string
		weight float64
		want   float64
	}{
		{"fried", 200, 14},
		{"schnitzel", 100, 7},
		{"fish and chips", 300, 21},
		{"rice", 200, 0},
		{"fried", -10, 0},
	}
	for _, tt := range tests {
		if got := EstimatedAbsorbedOil(tt.name, tt.weight); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("EstimatedAbsorbedOil(%q, %v) = %v, want %v", tt.name, tt.weight, got, tt.want)
		}
	}
}

func TestParseWeightHint(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"weight_g=250", 250, true},
		{"approx weight_g = 120.5, 3 pieces", 120.5, true},
		{"about 3 pieces, 180 g total", 180, true},
		{"250,5 g", 250.5, true},
		{"150", 150, true},
		{"two slices", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseWeightHint(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseWeightHint(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParseGrams(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"250 g", 250, true},
		{"2 slices, about 80g", 80, true},
		{"weight_g=120", 120, true},
		{"2 slices", 0, false},
		{"150", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseGrams(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseGrams(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestRecompute(t *testing.T) {
	w := 200.0
	result := &models.NutritionResult{
		Totals: models.MacroTriple{CarbsG: 1, ProteinG: 1, FatG: 1},
		Foods: []models.FoodComponent{
			{Name: "rice", EstimatedWeightG: &w},
			{Name: "chicken", Notes: "weight_g=100"},
		},
	}
	out, ok := Recompute(result)
	if !ok {
		t.Fatalf("expected recomputation")
	}
	want := models.MacroTriple{CarbsG: 56, ProteinG: 31, FatG: 5}
	if out.Totals != want {
		t.Fatalf("got %+v, want %+v", out.Totals, want)
	}
	if out.Per100g == nil || math.Abs(out.Per100g.ProteinG-31.0/3) > 1e-9 {
		t.Fatalf("unexpected per100g %+v", out.Per100g)
	}
	if result.Totals.CarbsG != 1 {
		t.Fatalf("input result must not be mutated")
	}

	partial := &models.NutritionResult{Foods: []models.FoodComponent{{Name: "rice"}}}
	if _, ok := Recompute(partial); ok {
		t.Fatalf("foods without weights must not be recomputed")
	}
}
