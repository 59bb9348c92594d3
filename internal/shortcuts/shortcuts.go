// internal/shortcuts/shortcuts.go

// Package shortcuts builds the iOS Shortcuts deep link that hands meal macros
// to a user-named shortcut.
package shortcuts

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"

	"meal-ai/internal/models"
)

const (
	callbackScheme = "mealai"
	runShortcutURL = "shortcuts://x-callback-url/run-shortcut"
)

var (
	ErrNoShortcutName = errors.New("shortcut name is empty")
	ErrNothingToSend  = errors.New("no macros to send")
)

// Payload is the JSON input passed to the shortcut, in whole grams.
type Payload struct {
	Carbs   int `json:"carbs"`
	Protein int `json:"protein"`
	Fat     int `json:"fat"`
}

// NewPayload rounds totals to whole grams. ok is false when every value
// rounds to zero.
func NewPayload(totals models.MacroTriple) (Payload, bool) {
	t := totals.Clamped()
	p := Payload{
		Carbs:   int(math.Round(t.CarbsG)),
		Protein: int(math.Round(t.ProteinG)),
		Fat:     int(math.Round(t.FatG)),
	}
	return p, p != Payload{}
}

// RunURL returns the run-shortcut link for name. When sendJSON is set the
// payload goes along as the shortcut input.
func RunURL(name string, p Payload, sendJSON bool) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNoShortcutName
	}

	q := url.Values{}
	q.Set("name", name)
	q.Set("x-success", callbackScheme+"://done")
	q.Set("x-error", callbackScheme+"://error")
	q.Set("x-cancel", callbackScheme+"://cancel")
	if sendJSON {
		if p == (Payload{}) {
			return "", ErrNothingToSend
		}
		body, err := json.Marshal(p)
		if err != nil {
			return "", fmt.Errorf("failed to marshal shortcut payload: %w", err)
		}
		q.Set("input", string(body))
	}
	return runShortcutURL + "?" + strings.ReplaceAll(q.Encode(), "+", "%20"), nil
}

// Outcome is the result reported back through an x-callback URL.
type Outcome string

const (
	OutcomeDone   Outcome = "done"
	OutcomeError  Outcome = "error"
	OutcomeCancel Outcome = "cancel"
)

// ParseCallback interprets a mealai:// callback. For errors, message holds
// the error or message query value when present.
func ParseCallback(raw string) (outcome Outcome, message string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse callback: %w", err)
	}
	if u.Scheme != callbackScheme {
		return "", "", fmt.Errorf("unexpected callback scheme %q", u.Scheme)
	}
	switch o := Outcome(u.Host); o {
	case OutcomeDone, OutcomeCancel:
		return o, "", nil
	case OutcomeError:
		q := u.Query()
		message = q.Get("error")
		if message == "" {
			message = q.Get("message")
		}
		return o, message, nil
	default:
		return "", "", fmt.Errorf("unknown callback %q", u.Host)
	}
}
