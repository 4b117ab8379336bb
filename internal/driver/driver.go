// Package driver implements the per-question interaction loop against a
// chat frontend: locate the input field, type the question, submit it, wait
// for the response to finish generating and extract its text.
package driver

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jjansen/chatpilot/internal/browser"
	"github.com/jjansen/chatpilot/internal/config"
	"github.com/jjansen/chatpilot/internal/log"
	"github.com/jjansen/chatpilot/internal/types"
	"github.com/jjansen/chatpilot/internal/utils"
)

const (
	defaultCandidateTimeout  = 3 * time.Second
	defaultAppearTimeout     = 5 * time.Second
	defaultGenerationTimeout = 60 * time.Second
	defaultExtractTimeout    = 5 * time.Second
	defaultSettleDelay       = 2 * time.Second
	defaultQuestionGap       = 2 * time.Second
	defaultKeyDelay          = 50 * time.Millisecond
	defaultTypeSettle        = time.Second
)

// ProgressFunc receives a narration of every step of a run. The messages
// are the main tool for diagnosing selector drift.
type ProgressFunc func(completed, total int, message string)

// Driver runs questions against one page using one service profile.
type Driver struct {
	page     browser.Page
	profile  *config.ServiceProfile
	vendor   config.Vendor
	progress ProgressFunc

	// timing knobs with package defaults, tightened in tests
	candidateTimeout  time.Duration
	appearTimeout     time.Duration
	generationTimeout time.Duration
	extractTimeout    time.Duration
	settleDelay       time.Duration
	questionGap       time.Duration
	keyDelay          time.Duration
	typeSettle        time.Duration
	responseWait      time.Duration
}

func New(page browser.Page, profile *config.ServiceProfile, progress ProgressFunc) *Driver {
	if progress == nil {
		progress = func(int, int, string) {}
	}
	return &Driver{
		page:              page,
		profile:           profile,
		vendor:            config.DetectVendor(profile.Name),
		progress:          progress,
		candidateTimeout:  defaultCandidateTimeout,
		appearTimeout:     defaultAppearTimeout,
		generationTimeout: defaultGenerationTimeout,
		extractTimeout:    defaultExtractTimeout,
		settleDelay:       defaultSettleDelay,
		questionGap:       defaultQuestionGap,
		keyDelay:          defaultKeyDelay,
		typeSettle:        defaultTypeSettle,
		responseWait:      time.Duration(profile.ResponseWaitSeconds) * time.Second,
	}
}

// Run processes the questions strictly in order. The returned list has the
// same length and order as the input. A single question's failure is
// recorded in its answer and never aborts the run.
func (d *Driver) Run(ctx context.Context, questions []string) []types.Answer {
	total := len(questions)
	answers := make([]types.Answer, 0, total)
	for idx, question := range questions {
		nr := idx + 1
		if strings.TrimSpace(question) == "" {
			answers = append(answers, types.Answer{Response: "Empty question skipped", Skipped: true})
			d.progress(nr, total, fmt.Sprintf("Skipped empty question %d", nr))
			continue
		}

		d.progress(nr, total, fmt.Sprintf("Processing question %d/%d: %s", nr, total, utils.ShortenString(question, 50)))
		start := time.Now()
		answer := d.ask(ctx, nr, total, question)
		answer.Seconds = roundSeconds(time.Since(start))
		answers = append(answers, answer)

		if answer.Failed {
			d.progress(nr, total, fmt.Sprintf("Question %d/%d failed: %s", nr, total, answer.Response))
		} else {
			d.progress(nr, total, fmt.Sprintf("Question %d/%d completed in %.2fs", nr, total, answer.Seconds))
		}

		// brief pause between questions to let the page settle and to
		// keep the interaction cadence human-ish
		sleepCtx(ctx, d.questionGap)
	}
	return answers
}

// ask runs the interaction sequence for a single question. All failures
// are folded into the returned answer.
func (d *Driver) ask(ctx context.Context, nr, total int, question string) types.Answer {
	inputSel, err := d.locateInput(ctx)
	if err != nil {
		return failedAnswer(err)
	}
	d.progress(nr, total, fmt.Sprintf("Found input with selector: %s", inputSel))

	if err := d.page.Clear(ctx, inputSel); err != nil {
		return failedAnswer(fmt.Errorf("could not clear input field: %w", err))
	}

	d.progress(nr, total, fmt.Sprintf("Typing question %d...", nr))
	keyDelay := time.Duration(0)
	if d.richInput(inputSel) {
		keyDelay = d.keyDelay
	}
	if err := d.page.Type(ctx, inputSel, question, keyDelay); err != nil {
		return failedAnswer(fmt.Errorf("could not type question: %w", err))
	}
	sleepCtx(ctx, d.typeSettle)

	d.progress(nr, total, fmt.Sprintf("Submitting question %d...", nr))
	if err := d.submit(ctx, nr, total); err != nil {
		return failedAnswer(fmt.Errorf("could not submit question: %w", err))
	}

	d.progress(nr, total, fmt.Sprintf("Waiting for response to question %d...", nr))
	d.awaitCompletion(ctx)

	d.progress(nr, total, fmt.Sprintf("Extracting response for question %d...", nr))
	text, lowConfidence := d.extractResponse(ctx)

	if err := d.page.Screenshot(ctx, fmt.Sprintf("question-%d", nr)); err != nil {
		log.LoggerFromContext(ctx).Warn(fmt.Sprintf("failed to take screenshot: %v", err))
	}

	return types.Answer{Response: text, LowConfidence: lowConfidence}
}

// locateInput resolves the input field, trying the profile's selector first
// and then the vendor fallback list.
func (d *Driver) locateInput(ctx context.Context) (string, error) {
	candidates := append([]string{d.profile.InputSelector}, inputFallbacks[d.vendor]...)
	sel, err := browser.FirstMatch(ctx, d.page, candidates, d.candidateTimeout)
	if err != nil {
		return "", fmt.Errorf("could not find input field with any selector %v: %w", candidates, err)
	}
	return sel, nil
}

// richInput reports whether the input needs key-by-key typing. Rich-text
// editors intercept synthetic fill events but accept key events.
func (d *Driver) richInput(selector string) bool {
	if strings.Contains(strings.ToLower(selector), "contenteditable") {
		return true
	}
	return d.vendor == config.VendorClaude || d.vendor == config.VendorGemini
}

func (d *Driver) submit(ctx context.Context, nr, total int) error {
	if d.profile.SubmitMethod == config.SubmitButton {
		candidates := append([]string{d.profile.SubmitButtonSelector}, submitFallbacks[d.vendor]...)
		sel, err := browser.FirstMatch(ctx, d.page, candidates, d.candidateTimeout)
		if err == nil {
			if err := d.page.Click(ctx, sel); err == nil {
				d.progress(nr, total, fmt.Sprintf("Clicked submit button: %s", sel))
				return nil
			}
			// a resolved button can still refuse the click, eg. when it
			// is disabled or covered by an overlay
			d.progress(nr, total, fmt.Sprintf("Failed to click submit button %s, trying Enter key...", sel))
		} else {
			d.progress(nr, total, "Submit button not found, trying Enter key...")
		}
	}
	return d.page.PressEnter(ctx)
}

// awaitCompletion blocks until the generation indicator has appeared and
// vanished again. If the indicator never shows up it falls back to the
// profile's fixed wait. It never fails: a wrong guess means the extractor
// sees a partial response, which is accepted.
func (d *Driver) awaitCompletion(ctx context.Context) {
	logger := log.LoggerFromContext(ctx)
	if sel := d.profile.WaitSelector; sel != "" {
		if err := d.page.WaitVisible(ctx, sel, d.appearTimeout); err != nil {
			// indicator never appeared, the response may be done already
			// or the indicator markup drifted; wait the fixed time instead
			logger.Debug(fmt.Sprintf("wait selector %s did not appear, falling back to fixed wait", sel))
			sleepCtx(ctx, d.responseWait)
		} else if err := d.page.WaitHidden(ctx, sel, d.generationTimeout); err != nil {
			logger.Debug(fmt.Sprintf("wait selector %s did not vanish within %v, proceeding", sel, d.generationTimeout))
		}
	} else {
		sleepCtx(ctx, d.responseWait)
	}
	// let the last chunk render
	sleepCtx(ctx, d.settleDelay)
}

func failedAnswer(err error) types.Answer {
	return types.Answer{
		Response: fmt.Sprintf("Error: %v", err),
		Failed:   true,
	}
}

func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
