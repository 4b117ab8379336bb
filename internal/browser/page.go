// Package browser drives a Chrome instance with a persistent user profile.
// The profile directory keeps cookies and local storage between runs so a
// manual login survives into the next run.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/jjansen/chatpilot/internal/log"
)

// A Page allows to interact with the single page a session has open. The
// chrome-backed implementation is Session; tests use MockPage.
type Page interface {
	Navigate(ctx context.Context, urlStr string) error
	// WaitVisible blocks until the selector resolves to a visible element
	// or the timeout expires.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	// WaitHidden blocks until no element matching the selector is visible
	// anymore. An element that gets removed from the DOM counts as hidden.
	WaitHidden(ctx context.Context, selector string, timeout time.Duration) error
	Click(ctx context.Context, selector string) error
	// Clear removes residual content from an input or contenteditable
	// element.
	Clear(ctx context.Context, selector string) error
	// Type enters text into the selected element. With keyDelay > 0 the
	// text is typed key by key, which is needed for rich-text fields that
	// swallow synthetic fill events but not key events.
	Type(ctx context.Context, selector, text string, keyDelay time.Duration) error
	PressEnter(ctx context.Context) error
	// LastText returns the rendered text of the last (most recent) element
	// matching the selector, or "" if nothing matches.
	LastText(ctx context.Context, selector string) (string, error)
	// HTML returns the full document markup.
	HTML(ctx context.Context) (string, error)
	Screenshot(ctx context.Context, label string) error
}

// FirstMatch tries the candidate selectors in order, each with the given
// timeout, and returns the first one that resolves to a visible element.
// Empty candidates are skipped.
func FirstMatch(ctx context.Context, p Page, candidates []string, timeout time.Duration) (string, error) {
	logger := log.LoggerFromContext(ctx)
	tried := 0
	for _, sel := range candidates {
		if sel == "" {
			continue
		}
		tried++
		if err := p.WaitVisible(ctx, sel, timeout); err == nil {
			logger.Debug(fmt.Sprintf("selector resolved: %s", sel))
			return sel, nil
		}
		logger.Debug(fmt.Sprintf("selector did not resolve: %s", sel))
	}
	return "", fmt.Errorf("none of %d candidate selectors matched a visible element", tried)
}
