package runner

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jjansen/chatpilot/internal/browser"
	"github.com/jjansen/chatpilot/internal/config"
	"github.com/jjansen/chatpilot/internal/types"
)

func testProfile() *config.ServiceProfile {
	return &config.ServiceProfile{
		Name:           "TestService",
		URL:            "https://example.com",
		InputSelector:  "#input",
		OutputSelector: "#output",
		SubmitMethod:   config.SubmitEnter,
	}
}

func mockFactory(page browser.Page) pageFactory {
	return func(ctx context.Context, rc *RunConfig) (browser.Page, func(), error) {
		return page, func() {}, nil
	}
}

func collectMessages(progress <-chan types.Progress) chan []string {
	out := make(chan []string, 1)
	go func() {
		var messages []string
		for p := range progress {
			messages = append(messages, p.Message)
		}
		out <- messages
	}()
	return out
}

func TestRunHappyPath(t *testing.T) {
	page := browser.NewMockPage()
	page.Visible["#input"] = true
	page.Visible["#output"] = true
	page.Texts["#output"] = "the answer"

	run := start(&RunConfig{
		Profile:    testProfile(),
		Questions:  []string{"hello"},
		ProfileDir: filepath.Join(t.TempDir(), "browser-data"),
	}, mockFactory(page))
	messages := collectMessages(run.Progress())

	answers, err := run.Wait(30 * time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(answers) != 1 {
		t.Fatalf("expected 1 answer, got %d", len(answers))
	}
	if answers[0].Response != "the answer" {
		t.Errorf("unexpected response: %q", answers[0].Response)
	}

	var navigated bool
	for _, a := range page.Actions() {
		if a == "navigate:https://example.com" {
			navigated = true
		}
	}
	if !navigated {
		t.Error("expected navigation to the profile url")
	}

	var sawCompletion bool
	for _, m := range <-messages {
		if m == "All questions completed" {
			sawCompletion = true
		}
	}
	if !sawCompletion {
		t.Error("expected completion progress message")
	}
}

func TestRunSetupFailure(t *testing.T) {
	failing := func(ctx context.Context, rc *RunConfig) (browser.Page, func(), error) {
		return nil, nil, errors.New("chrome exploded")
	}
	run := start(&RunConfig{
		Profile:    testProfile(),
		Questions:  []string{"hello"},
		ProfileDir: filepath.Join(t.TempDir(), "browser-data"),
	}, failing)
	messages := collectMessages(run.Progress())

	if _, err := run.Wait(5 * time.Second); err == nil {
		t.Fatal("expected error for failed setup")
	}
	var reported bool
	for _, m := range <-messages {
		if strings.Contains(m, "Failed to launch browser") && strings.Contains(m, "chrome exploded") {
			reported = true
		}
	}
	if !reported {
		t.Error("expected launch failure progress message")
	}
}

func TestRunNavigationFailure(t *testing.T) {
	page := browser.NewMockPage()
	page.NavigateErr = errors.New("dns broken")

	run := start(&RunConfig{
		Profile:    testProfile(),
		Questions:  []string{"hello"},
		ProfileDir: filepath.Join(t.TempDir(), "browser-data"),
	}, mockFactory(page))
	go func() {
		for range run.Progress() {
		}
	}()

	if _, err := run.Wait(5 * time.Second); err == nil {
		t.Fatal("expected error for failed navigation")
	}
}

func TestRunBlocksOnLoginConfirm(t *testing.T) {
	page := browser.NewMockPage()
	loginConfirm := make(chan struct{})

	run := start(&RunConfig{
		Profile:      testProfile(),
		Questions:    nil,
		ProfileDir:   filepath.Join(t.TempDir(), "browser-data"),
		LoginConfirm: loginConfirm,
	}, mockFactory(page))
	go func() {
		for range run.Progress() {
		}
	}()

	if _, err := run.Wait(100 * time.Millisecond); err == nil {
		t.Fatal("run must not finish before login is confirmed")
	}
	close(loginConfirm)
	answers, err := run.Wait(5 * time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(answers) != 0 {
		t.Errorf("expected no answers for an empty question list, got %d", len(answers))
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	r := &Run{progress: make(chan types.Progress, 1)}
	done := make(chan struct{})
	go func() {
		r.publish(0, 1, "first")
		r.publish(0, 1, "second, dropped")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full progress channel")
	}
	if p := <-r.progress; p.Message != "first" {
		t.Errorf("unexpected message: %s", p.Message)
	}
}
