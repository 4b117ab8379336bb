package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strconv"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/jjansen/chatpilot/internal/log"
	"github.com/jjansen/chatpilot/internal/utils"
)

// SessionConfig carries everything needed to launch a browser session.
type SessionConfig struct {
	ProfileDir string
	UserAgent  string
	Headless   bool
	DebugDir   string
}

// Session is a chrome instance bound to a persistent profile directory.
// It implements Page. A session owns its profile directory exclusively;
// chrome itself enforces the profile lock against concurrent use.
type Session struct {
	*SessionConfig
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewSession launches chrome with the persistent profile directory and
// blocks until the browser is up.
func NewSession(ctx context.Context, sc *SessionConfig) (*Session, error) {
	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", sc.Headless),
		chromedp.UserDataDir(sc.ProfileDir),
		chromedp.WindowSize(1920, 1080), // init with a desktop view (sometimes pages look different on mobile, eg buttons are missing)
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.Flag("disable-infobars", true),
	)
	if sc.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(sc.UserAgent))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx)
	s := &Session{
		SessionConfig: sc,
		allocCtx:      allocCtx,
		cancelAlloc:   cancelAlloc,
		ctx:           browserCtx,
		cancel:        cancel,
	}

	logger := log.LoggerFromContext(ctx)
	if err := chromedp.Run(browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		if !log.Debug {
			return nil
		}
		protocolVersion, product, revision, userAgent, jsVersion, err := cdpbrowser.GetVersion().Do(ctx)
		if err != nil {
			logger.Warn("failed to get chrome version", slog.String("err", err.Error()))
			return nil
		}
		logger.Debug(fmt.Sprintf("chrome version: protocolVersion=%s, product=%s, revision=%s, userAgent=%s, jsVersion=%s",
			protocolVersion, product, revision, userAgent, jsVersion))
		return nil
	})); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	return s, nil
}

// Close shuts down the browser. The profile directory stays behind so the
// next session starts logged in.
func (s *Session) Close() {
	s.cancel()
	s.cancelAlloc()
}

func (s *Session) run(timeout time.Duration, actions ...chromedp.Action) error {
	ctx := s.ctx
	if timeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(s.ctx, timeout)
		defer cancelTimeout()
	}
	return chromedp.Run(ctx, actions...)
}

func (s *Session) Navigate(ctx context.Context, urlStr string) error {
	logger := log.LoggerFromContext(ctx)
	logger.Debug(fmt.Sprintf("navigating to %s", urlStr), slog.String("user-agent", s.UserAgent))
	if err := s.run(45*time.Second,
		chromedp.Navigate(urlStr),
		chromedp.WaitVisible("body", chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),
	); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", urlStr, err)
	}
	return nil
}

func (s *Session) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	return s.run(timeout, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

// WaitHidden polls a visibility check instead of using chromedp's wait
// helpers: the "still generating" indicators of some frontends are removed
// from the DOM on completion, others are merely hidden, and both have to
// count as gone.
func (s *Session) WaitHidden(ctx context.Context, selector string, timeout time.Duration) error {
	expr := fmt.Sprintf(`(() => {
		const els = document.querySelectorAll(%s);
		for (const el of els) {
			const style = window.getComputedStyle(el);
			if (style.display !== 'none' && style.visibility !== 'hidden' && el.offsetWidth > 0 && el.offsetHeight > 0) {
				return true;
			}
		}
		return false;
	})()`, strconv.Quote(selector))

	deadline := time.Now().Add(timeout)
	for {
		var visible bool
		if err := s.run(5*time.Second, chromedp.Evaluate(expr, &visible)); err != nil {
			return err
		}
		if !visible {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("element %s still visible after %v", selector, timeout)
		}
		time.Sleep(500 * time.Millisecond)
	}
}

func (s *Session) Click(ctx context.Context, selector string) error {
	return s.run(10*time.Second,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
	)
}

func (s *Session) Clear(ctx context.Context, selector string) error {
	// select-all plus delete works for contenteditable fields as well,
	// chromedp.Clear only for plain inputs
	err := s.run(10*time.Second,
		chromedp.Click(selector, chromedp.ByQuery),
		chromedp.Sleep(300*time.Millisecond),
		chromedp.KeyEvent("a", chromedp.KeyModifiers(input.ModifierCtrl)),
		chromedp.Sleep(200*time.Millisecond),
		chromedp.KeyEvent(kb.Delete),
	)
	if err == nil {
		return nil
	}
	log.LoggerFromContext(ctx).Debug(fmt.Sprintf("keyboard clear failed for %s, clearing value directly: %v", selector, err))
	return s.run(5*time.Second, chromedp.Clear(selector, chromedp.ByQuery))
}

func (s *Session) Type(ctx context.Context, selector, text string, keyDelay time.Duration) error {
	if keyDelay <= 0 {
		return s.run(30*time.Second,
			chromedp.WaitVisible(selector, chromedp.ByQuery),
			chromedp.SendKeys(selector, text, chromedp.ByQuery),
		)
	}
	actions := []chromedp.Action{
		chromedp.Click(selector, chromedp.ByQuery),
		chromedp.Sleep(300 * time.Millisecond),
	}
	for _, r := range text {
		actions = append(actions, chromedp.KeyEvent(string(r)), chromedp.Sleep(keyDelay))
	}
	// typing time grows with the question, the timeout has to follow
	timeout := 30*time.Second + time.Duration(len(text))*keyDelay*2
	return s.run(timeout, actions...)
}

func (s *Session) PressEnter(ctx context.Context) error {
	return s.run(5*time.Second, chromedp.KeyEvent(kb.Enter))
}

func (s *Session) LastText(ctx context.Context, selector string) (string, error) {
	expr := fmt.Sprintf(`(() => {
		const els = document.querySelectorAll(%s);
		if (els.length === 0) {
			return "";
		}
		const el = els[els.length - 1];
		return el.innerText || el.textContent || "";
	})()`, strconv.Quote(selector))
	var text string
	if err := s.run(5*time.Second, chromedp.Evaluate(expr, &text)); err != nil {
		return "", err
	}
	return text, nil
}

func (s *Session) HTML(ctx context.Context) (string, error) {
	var body string
	err := s.run(10*time.Second, chromedp.ActionFunc(func(ctx context.Context) error {
		node, err := dom.GetDocument().Do(ctx)
		if err != nil {
			return err
		}
		body, err = dom.GetOuterHTML().WithNodeID(node.NodeID).Do(ctx)
		return err
	}))
	return body, err
}

// Screenshot saves a screenshot into the debug dir. Only active in debug
// mode.
func (s *Session) Screenshot(ctx context.Context, label string) error {
	if !log.Debug || s.DebugDir == "" {
		return nil
	}
	if err := os.MkdirAll(s.DebugDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create debug directory: %w", err)
	}
	r, err := utils.RandomString(label)
	if err != nil {
		return err
	}
	filename := path.Join(s.DebugDir, fmt.Sprintf("%s.png", r))
	var buf []byte
	if err := s.run(15*time.Second, chromedp.CaptureScreenshot(&buf)); err != nil {
		return err
	}
	log.LoggerFromContext(ctx).Debug(fmt.Sprintf("writing screenshot to file %s", filename))
	return os.WriteFile(filename, buf, 0644)
}
