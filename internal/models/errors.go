// internal/models/errors.go
package models

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

type ErrorKind string

const (
	KindCredentialMissing ErrorKind = "credential_missing"
	KindHTTPFailure       ErrorKind = "http_failure"
	KindNetwork           ErrorKind = "network"
	KindEmptyResponse     ErrorKind = "empty_response"
	KindEmptyContent      ErrorKind = "empty_content"
	KindInvalidJSON       ErrorKind = "invalid_json"
	KindSchemaMismatch    ErrorKind = "schema_mismatch"
	KindTimedOut          ErrorKind = "timed_out"
	KindCancelled         ErrorKind = "cancelled"
)

// Sentinels for errors.Is. They match any *AnalysisError of the same kind.
var (
	ErrCredentialMissing = &AnalysisError{Kind: KindCredentialMissing}
	ErrHTTPFailure       = &AnalysisError{Kind: KindHTTPFailure}
	ErrNetwork           = &AnalysisError{Kind: KindNetwork}
	ErrEmptyResponse     = &AnalysisError{Kind: KindEmptyResponse}
	ErrEmptyContent      = &AnalysisError{Kind: KindEmptyContent}
	ErrInvalidJSON       = &AnalysisError{Kind: KindInvalidJSON}
	ErrSchemaMismatch    = &AnalysisError{Kind: KindSchemaMismatch}
	ErrTimedOut          = &AnalysisError{Kind: KindTimedOut}
	ErrCancelled         = &AnalysisError{Kind: KindCancelled}
)

// AnalysisError is the single error type of the analysis pipeline.
type AnalysisError struct {
	Kind       ErrorKind
	Provider   string
	StatusCode int
	// Excerpt holds the leading part of the offending body or text.
	Excerpt string
	Err     error
}

func (e *AnalysisError) Error() string {
	msg := string(e.Kind)
	switch e.Kind {
	case KindCredentialMissing:
		msg = "API key missing"
	case KindHTTPFailure:
		msg = fmt.Sprintf("request failed with status %d", e.StatusCode)
	case KindNetwork:
		msg = "network request failed"
	case KindEmptyResponse:
		msg = "empty content in response"
	case KindEmptyContent:
		msg = "empty content"
	case KindInvalidJSON:
		msg = "no valid JSON in response"
	case KindSchemaMismatch:
		msg = "JSON is well-formed but does not match the expected schema"
	case KindTimedOut:
		msg = "analysis timed out"
	case KindCancelled:
		msg = "cancelled"
	}
	if e.Provider != "" {
		msg = e.Provider + ": " + msg
	}
	if e.Excerpt != "" {
		msg += ": " + e.Excerpt
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AnalysisError) Unwrap() error { return e.Err }

func (e *AnalysisError) Is(target error) bool {
	t, ok := target.(*AnalysisError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first AnalysisError in err's chain, or "".
func KindOf(err error) ErrorKind {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// IsCancelled reports whether err is a cancellation, which callers show as a
// neutral message rather than a failure.
func IsCancelled(err error) bool {
	return KindOf(err) == KindCancelled
}

// Excerpt returns at most n runes of s.
func Excerpt(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
