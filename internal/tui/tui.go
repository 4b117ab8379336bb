// Package tui renders an interactive terminal view of a batch run: a
// preview table of the loaded questions, a scrolling progress log fed from
// the runner's progress channel, and a confirm button that unblocks the
// run once the operator has logged in.
package tui

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/jjansen/chatpilot/internal/types"
	"github.com/jjansen/chatpilot/internal/utils"
)

const previewMaxRows = 15

// UI is a single-run terminal view. Build it with New, hand its
// LoginConfirm channel to the runner, call Watch on the runner's progress
// channel and then Run on the main goroutine.
type UI struct {
	app          *tview.Application
	logView      *tview.TextView
	button       *tview.Button
	loginConfirm chan struct{}
	confirmOnce  sync.Once
	stopped      chan struct{}
	stopOnce     sync.Once
	needLogin    bool
}

// New builds the view for a run against the named service. When needLogin
// is set the confirm button gates the run; otherwise it just quits.
func New(serviceName string, questions []string, needLogin bool) *UI {
	u := &UI{
		app:          tview.NewApplication(),
		loginConfirm: make(chan struct{}),
		stopped:      make(chan struct{}),
		needLogin:    needLogin,
	}

	table := tview.NewTable().SetBorders(true)
	table.SetCell(0, 0, tview.NewTableCell("#").
		SetTextColor(tcell.ColorBlue).
		SetAlign(tview.AlignCenter))
	table.SetCell(0, 1, tview.NewTableCell(fmt.Sprintf("questions for %s", serviceName)).
		SetTextColor(tcell.ColorBlue).
		SetAlign(tview.AlignCenter))
	for i, q := range questions {
		if i == previewMaxRows {
			table.SetCell(i+1, 1, tview.NewTableCell(fmt.Sprintf("... and %d more", len(questions)-previewMaxRows)).
				SetTextColor(tcell.ColorGray).
				SetAlign(tview.AlignCenter))
			break
		}
		table.SetCell(i+1, 0, tview.NewTableCell(fmt.Sprintf("[%d]", i+1)).
			SetTextColor(tcell.ColorGreen).
			SetAlign(tview.AlignCenter))
		table.SetCell(i+1, 1, tview.NewTableCell(utils.ShortenString(q, 60)).
			SetTextColor(tcell.ColorWhite).
			SetAlign(tview.AlignLeft))
	}

	u.logView = tview.NewTextView().
		SetScrollable(true).
		SetChangedFunc(func() {
			u.app.Draw()
		})
	u.logView.SetBorder(true).SetTitle("progress")

	label := "Hit Enter once you are logged in"
	if !needLogin {
		label = "Hit Enter to quit"
	}
	u.button = tview.NewButton(label).SetSelectedFunc(func() {
		if u.needLogin {
			u.confirmLogin()
			return
		}
		u.Stop()
	})

	grid := tview.NewGrid().SetRows(-6, -5, -1).SetColumns(-1, -1, -1).SetBorders(false).
		AddItem(table, 0, 0, 1, 3, 0, 0, false).
		AddItem(u.logView, 1, 0, 1, 3, 0, 0, false).
		AddItem(u.button, 2, 1, 1, 1, 0, 0, true)
	grid.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyTab {
			if u.button.HasFocus() {
				u.app.SetFocus(u.logView)
			} else {
				u.app.SetFocus(u.button)
			}
			return nil
		}
		if event.Key() == tcell.KeyEscape {
			u.Stop()
			return nil
		}
		return event
	})

	u.app.SetRoot(grid, true).SetFocus(grid)
	return u
}

func (u *UI) confirmLogin() {
	u.confirmOnce.Do(func() {
		close(u.loginConfirm)
	})
	u.needLogin = false
	u.button.SetLabel("Run in progress...")
}

// LoginConfirm is closed once the operator confirms login. It is safe to
// pass to the runner even when no login gate is needed; it just never
// blocks anything then.
func (u *UI) LoginConfirm() <-chan struct{} {
	return u.loginConfirm
}

// Watch consumes the progress channel and appends each message to the log
// view. It returns when the channel is closed, so run it in its own
// goroutine alongside Run. Once the view is stopped it keeps draining the
// channel without touching the application.
func (u *UI) Watch(progress <-chan types.Progress) {
	for p := range progress {
		msg := p.Message
		u.queueUpdate(func() {
			fmt.Fprintf(u.logView, "%s\n", msg)
			u.logView.ScrollToEnd()
		})
	}
	u.queueUpdate(func() {
		fmt.Fprintln(u.logView, "Run finished.")
		u.button.SetLabel("Hit Enter to quit")
	})
}

// queueUpdate is QueueUpdateDraw guarded against a stopped event loop,
// which would otherwise block the queueing goroutine forever.
func (u *UI) queueUpdate(f func()) {
	select {
	case <-u.stopped:
		return
	default:
	}
	done := make(chan struct{})
	go func() {
		u.app.QueueUpdateDraw(f)
		close(done)
	}()
	select {
	case <-done:
	case <-u.stopped:
	}
}

// Run blocks on the terminal event loop until the view is stopped.
func (u *UI) Run() error {
	if !u.needLogin {
		u.confirmOnce.Do(func() {
			close(u.loginConfirm)
		})
	}
	return u.app.Run()
}

// Stop ends the event loop. Safe to call from any goroutine.
func (u *UI) Stop() {
	u.stopOnce.Do(func() {
		close(u.stopped)
	})
	u.app.Stop()
}
