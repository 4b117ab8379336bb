package driver

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jjansen/chatpilot/internal/log"
	"github.com/jjansen/chatpilot/internal/utils"
)

// snippetMaxLength limits the page-body fallback of the extractor.
const snippetMaxLength = 500

const lowConfidencePrefix = "Extracted page text (may contain UI elements): "

// extractResponse pulls the latest response text out of the page. It never
// fails: candidate selectors are tried in order and when none of them
// matches, the result degrades to a truncated dump of the page body,
// explicitly labeled and flagged as low confidence. There is no structural
// signal that a matching element really is the answer, so this stays a best
// effort.
func (d *Driver) extractResponse(ctx context.Context) (string, bool) {
	logger := log.LoggerFromContext(ctx)
	candidates := append([]string{d.profile.OutputSelector}, outputFallbacks[d.vendor]...)
	for _, sel := range candidates {
		if sel == "" {
			continue
		}
		if err := d.page.WaitVisible(ctx, sel, d.extractTimeout); err != nil {
			logger.Debug(fmt.Sprintf("output selector did not resolve: %s", sel))
			continue
		}
		text, err := d.page.LastText(ctx, sel)
		if err != nil {
			logger.Debug(fmt.Sprintf("failed to read text for selector %s: %v", sel, err))
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			return text, false
		}
	}

	// no selector yielded anything, fall back to the page body
	htmlStr, err := d.page.HTML(ctx)
	if err != nil {
		return fmt.Sprintf("Error extracting response: %v", err), true
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return fmt.Sprintf("Error extracting response: %v", err), true
	}
	bodyText := utils.CollapseWhitespace(doc.Find("body").Text())
	if bodyText == "" {
		return "No response found - selectors may need updating", true
	}
	// the truncation marker counts towards the snippet limit
	return lowConfidencePrefix + utils.ShortenString(bodyText, snippetMaxLength-3), true
}
