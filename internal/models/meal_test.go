package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestSetMealNameTruncatesRunes(t *testing.T) {
	var r NutritionResult
	r.SetMealName("  " + strings.Repeat("ä", 70) + "  ")
	if got := len([]rune(r.MealName)); got != MaxMealNameLength {
		t.Fatalf("expected %d runes, got %d", MaxMealNameLength, got)
	}
}

func TestSummarySkipsEmptyParts(t *testing.T) {
	r := NutritionResult{ReasoningText: "rice and chicken"}
	if got := r.Summary(); got != "rice and chicken" {
		t.Fatalf("unexpected summary %q", got)
	}

	r.Per100g = &MacroTriple{CarbsG: 20, ProteinG: 10, FatG: 5}
	r.Explanation = "two items"
	got := r.Summary()
	if !strings.HasPrefix(got, "two items\n\nPer 100 g:") || !strings.HasSuffix(got, "rice and chicken") {
		t.Fatalf("unexpected summary %q", got)
	}
}

func TestErrorKindMatching(t *testing.T) {
	err := fmt.Errorf("analyze: %w", &AnalysisError{Kind: KindHTTPFailure, StatusCode: 503, Excerpt: "busy"})

	if !errors.Is(err, ErrHTTPFailure) {
		t.Fatalf("expected HTTP failure to match sentinel")
	}
	if errors.Is(err, ErrTimedOut) {
		t.Fatalf("HTTP failure must not match timed out")
	}
	if KindOf(err) != KindHTTPFailure {
		t.Fatalf("unexpected kind %q", KindOf(err))
	}
	if !strings.Contains(err.Error(), "503") {
		t.Fatalf("expected status in message, got %q", err.Error())
	}
}

func TestCancelledWrapsContextError(t *testing.T) {
	err := &AnalysisError{Kind: KindCancelled, Err: context.Canceled}
	if !IsCancelled(err) {
		t.Fatalf("expected cancellation")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled in chain")
	}
	if IsCancelled(errors.New("boom")) {
		t.Fatalf("plain error is not a cancellation")
	}
}

func TestBaseInfoPer100g(t *testing.T) {
	carbs, fat := 12.5, -3.0
	b := &BaseInfo{Name: "oat drink", Carbs: &carbs, Fat: &fat}
	if b.Complete() {
		t.Fatalf("protein is missing, info must be incomplete")
	}
	got := b.Per100g()
	if got != (MacroTriple{CarbsG: 12.5}) {
		t.Fatalf("unexpected triple %+v", got)
	}
}
