// internal/router/router.go

// Package router decides, without doing any I/O, which lookup source and which
// AI vendor serve a given kind of input.
package router

import (
	"errors"
	"fmt"

	"meal-ai/internal/config"
	"meal-ai/internal/models"
)

type InputKind string

const (
	InputImage   InputKind = "image"
	InputText    InputKind = "text"
	InputBarcode InputKind = "barcode"
)

type Lookup string

const (
	LookupNone          Lookup = ""
	LookupTable         Lookup = "table"
	LookupUSDA          Lookup = "usda"
	LookupOpenFoodFacts Lookup = "openfoodfacts"
)

var (
	ErrRouteDisabled = errors.New("input path disabled in settings")
	ErrUnknownVendor = errors.New("unknown provider")
	ErrUnknownInput  = errors.New("unknown input kind")
)

// Decision is the dispatch plan for one input.
type Decision struct {
	Kind   InputKind
	Lookup Lookup
	// Vendor is the AI provider to call, or "" when AI is not allowed.
	Vendor models.Vendor
	// DirectOnHit means a complete lookup hit is returned without AI
	// refinement.
	DirectOnHit bool
}

// UsesAI reports whether the plan may call a provider.
func (d Decision) UsesAI() bool { return d.Vendor != "" }

func Route(s config.Settings, kind InputKind) (Decision, error) {
	d := Decision{Kind: kind}

	switch kind {
	case InputImage:
		if !s.CameraAnalysisEnabled {
			return Decision{}, fmt.Errorf("camera analysis: %w", ErrRouteDisabled)
		}
		v, err := vendor(s)
		if err != nil {
			return Decision{}, err
		}
		d.Vendor = v
		return d, nil

	case InputText:
		if !s.FoodSearchEnabled {
			return Decision{}, fmt.Errorf("food search: %w", ErrRouteDisabled)
		}
		d.Lookup = LookupTable
		if s.USDAKey != "" {
			d.Lookup = LookupUSDA
		}

	case InputBarcode:
		if !s.FoodSearchEnabled {
			return Decision{}, fmt.Errorf("barcode search: %w", ErrRouteDisabled)
		}
		d.Lookup = LookupOpenFoodFacts
		d.DirectOnHit = s.BarcodePriorityEnabled

	default:
		return Decision{}, fmt.Errorf("%w: %q", ErrUnknownInput, kind)
	}

	if s.AIAnalysisEnabled {
		v, err := vendor(s)
		if err != nil {
			return Decision{}, err
		}
		d.Vendor = v
	} else {
		d.DirectOnHit = true
	}
	return d, nil
}

func vendor(s config.Settings) (models.Vendor, error) {
	for _, v := range models.Vendors {
		if s.Provider == v {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownVendor, s.Provider)
}
