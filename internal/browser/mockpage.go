package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// MockPage is a scripted Page implementation for tests. Selector visibility
// can be made time-dependent to simulate indicators that appear and vanish
// while a response is being generated.
type MockPage struct {
	// Visible lists selectors that resolve to a visible element.
	Visible map[string]bool
	// AppearAfter makes a selector visible once the given duration has
	// passed since the page was created.
	AppearAfter map[string]time.Duration
	// VanishAfter hides a selector again once the given duration has
	// passed since the page was created.
	VanishAfter map[string]time.Duration
	// Texts maps a selector to the text LastText returns for it.
	Texts map[string]string
	// BodyText is wrapped into a minimal document returned by HTML.
	BodyText string
	// NavigateErr lets Navigate fail.
	NavigateErr error
	// TypeErr lets Type fail.
	TypeErr error
	// ClickErr lets Click fail even for visible elements.
	ClickErr error

	mu      sync.Mutex
	start   time.Time
	actions []string
}

func NewMockPage() *MockPage {
	return &MockPage{
		Visible:     map[string]bool{},
		AppearAfter: map[string]time.Duration{},
		VanishAfter: map[string]time.Duration{},
		Texts:       map[string]string{},
		start:       time.Now(),
	}
}

// Actions returns the log of page interactions in order.
func (m *MockPage) Actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.actions...)
}

func (m *MockPage) record(format string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions = append(m.actions, fmt.Sprintf(format, args...))
}

func (m *MockPage) visibleAt(selector string, at time.Time) bool {
	elapsed := at.Sub(m.start)
	if d, ok := m.VanishAfter[selector]; ok && elapsed >= d {
		return false
	}
	if m.Visible[selector] {
		return true
	}
	if d, ok := m.AppearAfter[selector]; ok && elapsed >= d {
		return true
	}
	return false
}

func (m *MockPage) Navigate(ctx context.Context, urlStr string) error {
	m.record("navigate:%s", urlStr)
	return m.NavigateErr
}

func (m *MockPage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	m.record("waitvisible:%s", selector)
	deadline := time.Now().Add(timeout)
	for {
		now := time.Now()
		if m.visibleAt(selector, now) {
			return nil
		}
		if now.After(deadline) {
			return fmt.Errorf("element %s not visible after %v", selector, timeout)
		}
		time.Sleep(time.Millisecond)
	}
}

func (m *MockPage) WaitHidden(ctx context.Context, selector string, timeout time.Duration) error {
	m.record("waithidden:%s", selector)
	deadline := time.Now().Add(timeout)
	for {
		now := time.Now()
		if !m.visibleAt(selector, now) {
			return nil
		}
		if now.After(deadline) {
			return fmt.Errorf("element %s still visible after %v", selector, timeout)
		}
		time.Sleep(time.Millisecond)
	}
}

func (m *MockPage) Click(ctx context.Context, selector string) error {
	m.record("click:%s", selector)
	if !m.visibleAt(selector, time.Now()) {
		return errors.New("element not visible")
	}
	return m.ClickErr
}

func (m *MockPage) Clear(ctx context.Context, selector string) error {
	m.record("clear:%s", selector)
	return nil
}

func (m *MockPage) Type(ctx context.Context, selector, text string, keyDelay time.Duration) error {
	m.record("type:%s:%s", selector, text)
	return m.TypeErr
}

func (m *MockPage) PressEnter(ctx context.Context) error {
	m.record("enter")
	return nil
}

func (m *MockPage) LastText(ctx context.Context, selector string) (string, error) {
	m.record("lasttext:%s", selector)
	return m.Texts[selector], nil
}

func (m *MockPage) HTML(ctx context.Context) (string, error) {
	m.record("html")
	return fmt.Sprintf("<html><head></head><body>%s</body></html>", m.BodyText), nil
}

func (m *MockPage) Screenshot(ctx context.Context, label string) error {
	return nil
}
