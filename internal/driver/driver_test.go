package driver

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jjansen/chatpilot/internal/browser"
	"github.com/jjansen/chatpilot/internal/config"
)

func testProfile() *config.ServiceProfile {
	return &config.ServiceProfile{
		Name:                "TestService",
		URL:                 "https://example.com",
		InputSelector:       "#input",
		OutputSelector:      "#output",
		SubmitMethod:        config.SubmitEnter,
		ResponseWaitSeconds: 1,
	}
}

// fastDriver tightens all timing knobs so tests finish in milliseconds.
func fastDriver(page browser.Page, profile *config.ServiceProfile, progress ProgressFunc) *Driver {
	d := New(page, profile, progress)
	d.candidateTimeout = 10 * time.Millisecond
	d.appearTimeout = 20 * time.Millisecond
	d.generationTimeout = 300 * time.Millisecond
	d.extractTimeout = 10 * time.Millisecond
	d.settleDelay = 5 * time.Millisecond
	d.questionGap = time.Millisecond
	d.keyDelay = 0
	d.typeSettle = time.Millisecond
	d.responseWait = 50 * time.Millisecond
	return d
}

func TestRunOrderAndLength(t *testing.T) {
	page := browser.NewMockPage()
	page.Visible["#input"] = true
	page.Visible["#output"] = true
	page.Texts["#output"] = "the answer"

	d := fastDriver(page, testProfile(), nil)
	questions := []string{"What is Go?", "   ", "What is a goroutine?"}
	answers := d.Run(context.Background(), questions)

	if len(answers) != len(questions) {
		t.Fatalf("expected %d answers, got %d", len(questions), len(answers))
	}
	for _, i := range []int{0, 2} {
		if answers[i].Response != "the answer" {
			t.Errorf("answer %d: expected 'the answer', got %q", i, answers[i].Response)
		}
		if answers[i].Failed || answers[i].Skipped || answers[i].LowConfidence {
			t.Errorf("answer %d: unexpected flags: %+v", i, answers[i])
		}
	}
	if !answers[1].Skipped {
		t.Errorf("expected blank question to be skipped, got %+v", answers[1])
	}
	if answers[1].Response != "Empty question skipped" {
		t.Errorf("unexpected skip response: %q", answers[1].Response)
	}
	if answers[1].Seconds != 0 {
		t.Errorf("skipped question should not take time, got %f", answers[1].Seconds)
	}
}

func TestRunBlankQuestionsDoNotTouchPage(t *testing.T) {
	page := browser.NewMockPage()
	page.Visible["#input"] = true

	d := fastDriver(page, testProfile(), nil)
	answers := d.Run(context.Background(), []string{"", "  \t "})

	if len(answers) != 2 {
		t.Fatalf("expected 2 answers, got %d", len(answers))
	}
	if actions := page.Actions(); len(actions) != 0 {
		t.Errorf("expected no page interactions for blank questions, got %v", actions)
	}
}

func TestRunFailureDoesNotAbortRun(t *testing.T) {
	page := browser.NewMockPage()
	page.Visible["#input"] = true
	page.TypeErr = context.DeadlineExceeded

	d := fastDriver(page, testProfile(), nil)
	answers := d.Run(context.Background(), []string{"first", "second"})

	if len(answers) != 2 {
		t.Fatalf("expected 2 answers, got %d", len(answers))
	}
	for i, a := range answers {
		if !a.Failed {
			t.Errorf("answer %d: expected failure, got %+v", i, a)
		}
		if !strings.HasPrefix(a.Response, "Error: ") {
			t.Errorf("answer %d: expected error response, got %q", i, a.Response)
		}
	}
}

func TestRunRecoversAfterFailedQuestion(t *testing.T) {
	// the input only becomes visible after the first question has already
	// given up looking for it, so question 1 fails and question 2 gets a
	// normal answer
	page := browser.NewMockPage()
	page.AppearAfter["#input"] = 60 * time.Millisecond
	page.Visible["#output"] = true
	page.Texts["#output"] = "the answer"

	d := fastDriver(page, testProfile(), nil)
	d.candidateTimeout = 40 * time.Millisecond
	answers := d.Run(context.Background(), []string{"first", "second"})

	if len(answers) != 2 {
		t.Fatalf("expected 2 answers, got %d", len(answers))
	}
	if !answers[0].Failed {
		t.Fatalf("expected first question to fail, got %+v", answers[0])
	}
	if !strings.Contains(answers[0].Response, "could not find input field") {
		t.Errorf("unexpected failure response: %q", answers[0].Response)
	}
	if answers[1].Failed || answers[1].Skipped || answers[1].LowConfidence {
		t.Fatalf("expected second question to recover, got %+v", answers[1])
	}
	if answers[1].Response != "the answer" {
		t.Errorf("unexpected response after recovery: %q", answers[1].Response)
	}
}

func TestRunNoInputFieldFails(t *testing.T) {
	page := browser.NewMockPage()

	d := fastDriver(page, testProfile(), nil)
	answers := d.Run(context.Background(), []string{"hello"})

	if !answers[0].Failed {
		t.Fatalf("expected failure, got %+v", answers[0])
	}
	if !strings.Contains(answers[0].Response, "could not find input field") {
		t.Errorf("unexpected response: %q", answers[0].Response)
	}
}

func TestAwaitCompletionIndicatorNeverAppears(t *testing.T) {
	page := browser.NewMockPage()
	profile := testProfile()
	profile.WaitSelector = "#spinner"

	d := fastDriver(page, profile, nil)
	start := time.Now()
	d.awaitCompletion(context.Background())
	elapsed := time.Since(start)

	// appear timeout plus fixed wait plus settle delay
	minWait := d.appearTimeout + d.responseWait
	if elapsed < minWait {
		t.Errorf("expected at least %v of waiting, got %v", minWait, elapsed)
	}
	if elapsed > 10*minWait {
		t.Errorf("waited far too long: %v", elapsed)
	}
}

func TestAwaitCompletionIndicatorVanishes(t *testing.T) {
	page := browser.NewMockPage()
	page.Visible["#spinner"] = true
	page.VanishAfter["#spinner"] = 30 * time.Millisecond
	profile := testProfile()
	profile.WaitSelector = "#spinner"

	d := fastDriver(page, profile, nil)
	d.responseWait = 10 * time.Second // must not be used on this path
	start := time.Now()
	d.awaitCompletion(context.Background())
	elapsed := time.Since(start)

	if elapsed >= time.Second {
		t.Errorf("fixed wait used although indicator vanished, took %v", elapsed)
	}
}

func TestSubmitButtonFallsBackToEnter(t *testing.T) {
	page := browser.NewMockPage()
	page.Visible["#input"] = true
	page.Visible["#output"] = true
	page.Texts["#output"] = "ok"
	profile := testProfile()
	profile.SubmitMethod = config.SubmitButton
	profile.SubmitButtonSelector = "#send"

	var messages []string
	d := fastDriver(page, profile, func(_, _ int, message string) {
		messages = append(messages, message)
	})
	answers := d.Run(context.Background(), []string{"hello"})

	if answers[0].Failed {
		t.Fatalf("unexpected failure: %+v", answers[0])
	}
	var pressedEnter bool
	for _, a := range page.Actions() {
		if a == "enter" {
			pressedEnter = true
		}
	}
	if !pressedEnter {
		t.Error("expected Enter key fallback after missing submit button")
	}
	var announced bool
	for _, m := range messages {
		if strings.Contains(m, "Submit button not found") {
			announced = true
		}
	}
	if !announced {
		t.Errorf("expected fallback progress message, got %v", messages)
	}
}

func TestSubmitButtonClickErrorFallsBackToEnter(t *testing.T) {
	// the button resolves but the click itself fails, eg. a disabled or
	// overlaid button; the question must still go out via Enter
	page := browser.NewMockPage()
	page.Visible["#input"] = true
	page.Visible["#send"] = true
	page.ClickErr = context.DeadlineExceeded
	page.Visible["#output"] = true
	page.Texts["#output"] = "ok"
	profile := testProfile()
	profile.SubmitMethod = config.SubmitButton
	profile.SubmitButtonSelector = "#send"

	var messages []string
	d := fastDriver(page, profile, func(_, _ int, message string) {
		messages = append(messages, message)
	})
	answers := d.Run(context.Background(), []string{"hello"})

	if answers[0].Failed {
		t.Fatalf("click failure must not fail the question: %+v", answers[0])
	}
	var pressedEnter bool
	for _, a := range page.Actions() {
		if a == "enter" {
			pressedEnter = true
		}
	}
	if !pressedEnter {
		t.Error("expected Enter key fallback after failed click")
	}
	var announced bool
	for _, m := range messages {
		if strings.Contains(m, "Failed to click submit button") {
			announced = true
		}
	}
	if !announced {
		t.Errorf("expected click failure progress message, got %v", messages)
	}
}

func TestSubmitButtonClicked(t *testing.T) {
	page := browser.NewMockPage()
	page.Visible["#input"] = true
	page.Visible["#send"] = true
	page.Visible["#output"] = true
	page.Texts["#output"] = "ok"
	profile := testProfile()
	profile.SubmitMethod = config.SubmitButton
	profile.SubmitButtonSelector = "#send"

	d := fastDriver(page, profile, nil)
	answers := d.Run(context.Background(), []string{"hello"})

	if answers[0].Failed {
		t.Fatalf("unexpected failure: %+v", answers[0])
	}
	var clicked, pressedEnter bool
	for _, a := range page.Actions() {
		if a == "click:#send" {
			clicked = true
		}
		if a == "enter" {
			pressedEnter = true
		}
	}
	if !clicked {
		t.Error("expected submit button click")
	}
	if pressedEnter {
		t.Error("Enter key must not be pressed when the button was found")
	}
}

func TestRichInput(t *testing.T) {
	tests := []struct {
		profileName string
		selector    string
		rich        bool
	}{
		{"TestService", "#input", false},
		{"TestService", "div[contenteditable='true']", true},
		{"Claude", "#input", true},
		{"Gemini", ".input-area", true},
		{"ChatGPT", "#prompt-textarea", false},
	}
	for _, tt := range tests {
		profile := testProfile()
		profile.Name = tt.profileName
		d := fastDriver(browser.NewMockPage(), profile, nil)
		if got := d.richInput(tt.selector); got != tt.rich {
			t.Errorf("richInput(%s, %s): expected %v, got %v", tt.profileName, tt.selector, tt.rich, got)
		}
	}
}
