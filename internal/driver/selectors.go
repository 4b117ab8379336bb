package driver

import "github.com/jjansen/chatpilot/internal/config"

// Per-vendor fallback selectors, tried after the profile's own selector.
// Output markup differs per vendor and changes over time; custom services
// get no fallbacks and rely entirely on their configured selectors.
//
// Gemini is an Angular app, so its fallbacks avoid dynamically generated
// attributes and stick to (partial) class matches.

var inputFallbacks = map[config.Vendor][]string{
	config.VendorGemini: {
		".input-area",
		"[class*='input-area']",
		"textarea",
		".ql-editor",
		"[contenteditable='true'][role='textbox']",
		"[contenteditable='true']",
	},
	config.VendorClaude: {
		"div[contenteditable='true']",
		"[contenteditable='true'][data-placeholder]",
		"[contenteditable='true']",
	},
}

var outputFallbacks = map[config.Vendor][]string{
	config.VendorClaude: {
		"div.message-content",
		".font-claude-message",
		"[data-message-id]",
		"div[class*='message']",
		"div[class*='Message']",
	},
	config.VendorGemini: {
		".markdown",
		"[class*='markdown']",
		".model-response-text",
		"[class*='model-response']",
		".message-content",
		"[class*='message-content']",
		"[data-message-type='model']",
		"div[class*='response']",
		"div[class*='Response']",
	},
}

var submitFallbacks = map[config.Vendor][]string{
	config.VendorGemini: {
		"button[aria-label*='Send']",
		"button[aria-label*='send']",
		"button[data-testid*='send']",
		"button.send-button",
	},
}
