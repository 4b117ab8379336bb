// Package runner executes one batch run in a background goroutine and
// reports back over two channels: a progress channel narrating every step
// and a one-shot result channel. A nil result means the run failed during
// setup and produced no partial data.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jjansen/chatpilot/internal/browser"
	"github.com/jjansen/chatpilot/internal/config"
	"github.com/jjansen/chatpilot/internal/driver"
	"github.com/jjansen/chatpilot/internal/types"
)

// RunConfig carries everything a run needs. All state a run depends on is
// in here; the runner keeps no ambient state between runs.
type RunConfig struct {
	Profile    *config.ServiceProfile
	Questions  []string
	ProfileDir string
	UserAgent  string
	Headless   bool
	DebugDir   string
	// LoginConfirm, when non-nil, blocks the run after navigation until
	// the channel is closed, giving the operator time to log in by hand.
	// The runner itself has no notion of "logged in"; first-run detection
	// and the confirmation affordance are the caller's job.
	LoginConfirm <-chan struct{}
}

// Run is the handle to a running batch. At most one run should be active
// per browser profile directory; the profile lock chrome enforces makes
// concurrent runs fail rather than corrupt.
type Run struct {
	progress chan types.Progress
	result   chan []types.Answer
}

type pageFactory func(ctx context.Context, rc *RunConfig) (browser.Page, func(), error)

func newChromePage(ctx context.Context, rc *RunConfig) (browser.Page, func(), error) {
	session, err := browser.NewSession(ctx, &browser.SessionConfig{
		ProfileDir: rc.ProfileDir,
		UserAgent:  rc.UserAgent,
		Headless:   rc.Headless,
		DebugDir:   rc.DebugDir,
	})
	if err != nil {
		return nil, nil, err
	}
	return session, session.Close, nil
}

// Start launches the run and returns immediately.
func Start(rc *RunConfig) *Run {
	return start(rc, newChromePage)
}

func start(rc *RunConfig, newPage pageFactory) *Run {
	r := &Run{
		progress: make(chan types.Progress, 64),
		result:   make(chan []types.Answer, 1),
	}
	go r.run(rc, newPage)
	return r
}

// Progress returns the progress channel. It is closed when the run ends.
func (r *Run) Progress() <-chan types.Progress {
	return r.progress
}

// Wait blocks until the run finishes or the timeout ceiling expires.
func (r *Run) Wait(timeout time.Duration) ([]types.Answer, error) {
	select {
	case answers := <-r.result:
		if answers == nil {
			return nil, errors.New("run failed, no partial data")
		}
		return answers, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("run did not finish within %v", timeout)
	}
}

func (r *Run) publish(completed, total int, message string) {
	select {
	case r.progress <- types.Progress{Completed: completed, Total: total, Message: message}:
	default:
		// a consumer that stopped draining must never wedge the run
	}
}

func (r *Run) fail(message string) {
	r.publish(0, 1, message)
	r.result <- nil
}

func (r *Run) run(rc *RunConfig, newPage pageFactory) {
	defer close(r.progress)
	ctx := context.Background()
	total := len(rc.Questions)

	r.publish(0, total, "Starting browser...")
	r.publish(0, total, fmt.Sprintf("Headless mode: %v", rc.Headless))

	if err := os.MkdirAll(rc.ProfileDir, os.ModePerm); err != nil {
		r.fail(fmt.Sprintf("Failed to create browser profile directory: %v", err))
		return
	}
	r.publish(0, total, fmt.Sprintf("Browser profile directory ready: %s", rc.ProfileDir))

	page, closePage, err := newPage(ctx, rc)
	if err != nil {
		r.fail(fmt.Sprintf("Failed to launch browser: %v", err))
		return
	}
	defer closePage()
	r.publish(0, total, "Browser launched successfully")

	r.publish(0, total, fmt.Sprintf("Navigating to %s...", rc.Profile.URL))
	if err := page.Navigate(ctx, rc.Profile.URL); err != nil {
		r.fail(fmt.Sprintf("Error during navigation: %v", err))
		return
	}

	if rc.LoginConfirm != nil {
		r.publish(0, total, "Waiting for login confirmation...")
		<-rc.LoginConfirm
	}

	r.publish(0, total, "Page loaded. Starting questions...")
	answers := driver.New(page, rc.Profile, r.publish).Run(ctx, rc.Questions)
	r.publish(total, total, "All questions completed")
	r.result <- answers
}
