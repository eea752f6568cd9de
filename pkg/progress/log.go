package progress

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/paulschiretz/pgl-modpack/pkg/plog"
)

// LogReporter reports progress as plog lines. Bars log their counter on a
// fixed interval while running; both kinds log once when finished.
type LogReporter struct {
	interval time.Duration
}

// NewLogReporter creates a LogReporter. A non-positive interval disables the
// periodic lines and only start and finish are logged.
func NewLogReporter(interval time.Duration) *LogReporter {
	return &LogReporter{interval: interval}
}

func (r *LogReporter) Bar(title, done string, total int) Tracker {
	t := &logTracker{title: title, done: done, total: int64(total), bounded: true, start: time.Now()}
	plog.Info(title, "total", total)
	t.startProgress(r.interval)
	return t
}

func (r *LogReporter) Spinner(title, done string) Tracker {
	t := &logTracker{title: title, done: done, start: time.Now()}
	plog.Info(title)
	t.startProgress(r.interval)
	return t
}

// logTracker holds the atomic counter for one step.
type logTracker struct {
	title   string
	done    string
	total   int64
	bounded bool
	start   time.Time

	completed atomic.Int64

	stopChan   chan struct{}
	finishOnce sync.Once
}

func (t *logTracker) Increment() { t.completed.Add(1) }

func (t *logTracker) startProgress(interval time.Duration) {
	if interval <= 0 {
		return
	}
	t.stopChan = make(chan struct{})
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				t.logSummary(t.title)
			case <-t.stopChan:
				return
			}
		}
	}()
}

func (t *logTracker) Finish() {
	t.finishOnce.Do(func() {
		t.stopProgress()
		t.logSummary(t.done)
	})
}

func (t *logTracker) Abort() {
	t.finishOnce.Do(func() {
		t.stopProgress()
		plog.Debug("step aborted", "step", t.title, "completed", t.completed.Load())
	})
}

func (t *logTracker) stopProgress() {
	if t.stopChan != nil {
		close(t.stopChan)
	}
}

// logSummary logs the current state of the counter.
func (t *logTracker) logSummary(msg string) {
	elapsed := time.Since(t.start).Round(time.Millisecond)
	if t.bounded {
		plog.Info(msg, "completed", t.completed.Load(), "total", t.total, "elapsed", elapsed)
		return
	}
	plog.Info(msg, "elapsed", elapsed)
}
