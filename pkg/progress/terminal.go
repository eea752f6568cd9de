package progress

import (
	"io"
	"os"
	"sync"

	"github.com/pterm/pterm"
)

// TerminalReporter renders live pterm bars and spinners. It is meant for an
// interactive terminal; redirected output should use LogReporter instead.
type TerminalReporter struct {
	w io.Writer
}

// NewTerminalReporter creates a TerminalReporter writing to w.
// A nil writer means stdout.
func NewTerminalReporter(w io.Writer) *TerminalReporter {
	if w == nil {
		w = os.Stdout
	}
	return &TerminalReporter{w: w}
}

func (r *TerminalReporter) Bar(title, done string, total int) Tracker {
	bar, err := pterm.DefaultProgressbar.
		WithTotal(max(total, 1)).
		WithTitle(title).
		WithRemoveWhenDone(true).
		WithWriter(r.w).
		Start()
	if err != nil {
		return noopTracker{}
	}
	return &barTracker{bar: bar, done: done, w: r.w}
}

func (r *TerminalReporter) Spinner(title, done string) Tracker {
	spinner, err := pterm.DefaultSpinner.
		WithRemoveWhenDone(false).
		WithWriter(r.w).
		Start(title)
	if err != nil {
		return noopTracker{}
	}
	return &spinnerTracker{spinner: spinner, done: done}
}

// barTracker serializes access to the pterm bar, which is not safe for
// concurrent increments.
type barTracker struct {
	mu       sync.Mutex
	bar      *pterm.ProgressbarPrinter
	done     string
	w        io.Writer
	finished bool
}

func (t *barTracker) Increment() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.finished {
		t.bar.Increment()
	}
}

func (t *barTracker) Finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished {
		return
	}
	t.finished = true
	_, _ = t.bar.Stop()
	pterm.Success.WithWriter(t.w).Println(t.done)
}

func (t *barTracker) Abort() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished {
		return
	}
	t.finished = true
	_, _ = t.bar.Stop()
}

type spinnerTracker struct {
	once    sync.Once
	spinner *pterm.SpinnerPrinter
	done    string
}

// Increment is a no-op; a spinner has no counter.
func (t *spinnerTracker) Increment() {}

func (t *spinnerTracker) Finish() {
	t.once.Do(func() { t.spinner.Success(t.done) })
}

func (t *spinnerTracker) Abort() {
	t.once.Do(func() { _ = t.spinner.Stop() })
}
