// internal/config/settings.go
package config

import (
	"errors"
	"fmt"
	"strings"

	"meal-ai/internal/models"
)

// ErrInvalidSettings wraps every validation failure of Normalize.
var ErrInvalidSettings = errors.New("invalid settings")

// AnalysisMode selects how much detail the image prompt asks for.
type AnalysisMode string

const (
	// ModeNormal asks for the three totals only.
	ModeNormal AnalysisMode = "normal"
	// ModeHigh asks for a food breakdown and explanation.
	ModeHigh AnalysisMode = "high"
	// ModePremium asks for component weights; totals are recomputed from the
	// macro table.
	ModePremium AnalysisMode = "premium"
)

type Language string

const (
	LanguageFI Language = "fi"
	LanguageEN Language = "en"
)

// Settings are the user preferences that drive routing and prompting.
type Settings struct {
	Provider  models.Vendor `json:"provider"`
	OpenAIKey string        `json:"openai_api_key,omitempty"`
	ClaudeKey string        `json:"claude_api_key,omitempty"`
	GeminiKey string        `json:"gemini_api_key,omitempty"`
	USDAKey   string        `json:"usda_api_key,omitempty"`

	FoodSearchEnabled      bool `json:"food_search_enabled"`
	AIAnalysisEnabled      bool `json:"ai_analysis_enabled"`
	CameraAnalysisEnabled  bool `json:"camera_analysis_enabled"`
	BarcodePriorityEnabled bool `json:"barcode_priority_enabled"`
	VoiceSearchEnabled     bool `json:"voice_search_enabled"`
	AdvancedDosingEnabled  bool `json:"advanced_dosing_enabled"`

	AnalysisMode     AnalysisMode `json:"analysis_mode"`
	Language         Language     `json:"language"`
	ShortcutName     string       `json:"shortcut_name"`
	ShortcutSendJSON bool         `json:"shortcut_send_json"`
}

func DefaultSettings() Settings {
	return Settings{
		Provider:               models.VendorOpenAI,
		FoodSearchEnabled:      true,
		AIAnalysisEnabled:      true,
		CameraAnalysisEnabled:  true,
		BarcodePriorityEnabled: true,
		AnalysisMode:           ModeNormal,
		Language:               LanguageFI,
		ShortcutSendJSON:       true,
	}
}

// Key returns the stored API key of vendor.
func (s Settings) Key(vendor models.Vendor) string {
	switch vendor {
	case models.VendorOpenAI:
		return s.OpenAIKey
	case models.VendorClaude:
		return s.ClaudeKey
	case models.VendorGemini:
		return s.GeminiKey
	}
	return ""
}

// Normalize lower-cases enum fields and fills empty ones with defaults. It
// fails on values outside the known sets.
func (s *Settings) Normalize() error {
	v, err := models.ParseVendor(string(s.Provider))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	s.Provider = v

	switch m := AnalysisMode(strings.ToLower(strings.TrimSpace(string(s.AnalysisMode)))); m {
	case "":
		s.AnalysisMode = ModeNormal
	case ModeNormal, ModeHigh, ModePremium:
		s.AnalysisMode = m
	default:
		return fmt.Errorf("%w: unknown analysis mode %q", ErrInvalidSettings, s.AnalysisMode)
	}

	switch l := Language(strings.ToLower(strings.TrimSpace(string(s.Language)))); l {
	case "":
		s.Language = LanguageFI
	case LanguageFI, LanguageEN:
		s.Language = l
	default:
		return fmt.Errorf("%w: unknown language %q", ErrInvalidSettings, s.Language)
	}

	s.OpenAIKey = strings.TrimSpace(s.OpenAIKey)
	s.ClaudeKey = strings.TrimSpace(s.ClaudeKey)
	s.GeminiKey = strings.TrimSpace(s.GeminiKey)
	s.USDAKey = strings.TrimSpace(s.USDAKey)
	s.ShortcutName = strings.TrimSpace(s.ShortcutName)
	return nil
}

// Redacted returns a copy safe to send to clients: every stored key is
// replaced by a mask keeping its last four characters.
func (s Settings) Redacted() Settings {
	s.OpenAIKey = mask(s.OpenAIKey)
	s.ClaudeKey = mask(s.ClaudeKey)
	s.GeminiKey = mask(s.GeminiKey)
	s.USDAKey = mask(s.USDAKey)
	return s
}

func mask(key string) string {
	if key == "" {
		return ""
	}
	r := []rune(key)
	if len(r) <= 4 {
		return "****"
	}
	return "****" + string(r[len(r)-4:])
}

// IsMasked reports whether key is a value produced by Redacted, which must
// not overwrite the stored key on update.
func IsMasked(key string) bool {
	return strings.HasPrefix(key, "****")
}
