// internal/models/vendor.go
package models

import (
	"fmt"
	"strings"
)

// Vendor names a third-party language-model API.
type Vendor string

const (
	VendorOpenAI Vendor = "openai"
	VendorClaude Vendor = "claude"
	VendorGemini Vendor = "gemini"
)

// Vendors lists every supported vendor in display order.
var Vendors = []Vendor{VendorOpenAI, VendorClaude, VendorGemini}

// ParseVendor accepts a vendor name in any case. An empty name selects OpenAI.
func ParseVendor(s string) (Vendor, error) {
	switch v := Vendor(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return VendorOpenAI, nil
	case VendorOpenAI, VendorClaude, VendorGemini:
		return v, nil
	default:
		return "", fmt.Errorf("unknown provider %q", s)
	}
}

func (v Vendor) DisplayName() string {
	switch v {
	case VendorOpenAI:
		return "OpenAI"
	case VendorClaude:
		return "Claude"
	case VendorGemini:
		return "Gemini"
	}
	return string(v)
}
