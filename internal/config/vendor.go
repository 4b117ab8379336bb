package config

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Vendor identifies one of the known chat frontends. The driver keeps
// per-vendor fallback selector lists because the primary selectors break
// whenever a vendor ships a redesign.
type Vendor string

const (
	VendorChatGPT Vendor = "chatgpt"
	VendorClaude  Vendor = "claude"
	VendorGemini  Vendor = "gemini"
	VendorCustom  Vendor = ""
)

var knownVendors = []Vendor{VendorChatGPT, VendorClaude, VendorGemini}

// DetectVendor maps a profile name onto a known vendor. Matching is
// tolerant: "Chat GPT", "chat-gpt" and "ChatGPT (work)" all resolve to
// VendorChatGPT. Names that resemble no known vendor resolve to
// VendorCustom, which carries no fallback selectors.
func DetectVendor(name string) Vendor {
	normalized := strings.ToLower(name)
	for _, r := range []string{" ", "-", "_", "."} {
		normalized = strings.ReplaceAll(normalized, r, "")
	}
	for _, v := range knownVendors {
		if strings.Contains(normalized, string(v)) {
			return v
		}
	}
	for _, v := range knownVendors {
		if levenshtein.ComputeDistance(normalized, string(v)) <= 2 {
			return v
		}
	}
	return VendorCustom
}
