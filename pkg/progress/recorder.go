package progress

import (
	"sync"
	"sync/atomic"
)

// Kind tells bounded and indeterminate steps apart.
type Kind int

const (
	KindBar Kind = iota
	KindSpinner
)

// Step is one tracker handed out by a Recorder.
type Step struct {
	Kind     Kind
	Title    string
	Done     string
	Total    int
	count    atomic.Int64
	finished atomic.Bool
	aborted  atomic.Bool
}

// Count returns the number of increments seen so far.
func (s *Step) Count() int64 { return s.count.Load() }

// Finished reports whether Finish was called.
func (s *Step) Finished() bool { return s.finished.Load() }

// Aborted reports whether Abort was called before Finish.
func (s *Step) Aborted() bool { return s.aborted.Load() }

func (s *Step) Increment() { s.count.Add(1) }

func (s *Step) Finish() {
	if !s.aborted.Load() {
		s.finished.Store(true)
	}
}

func (s *Step) Abort() {
	if !s.finished.Load() {
		s.aborted.Store(true)
	}
}

// Recorder is a Reporter that keeps every step in memory. It lets callers
// assert which kind of indicator a stage picked and how far it counted.
type Recorder struct {
	mu    sync.Mutex
	steps []*Step
}

func (r *Recorder) Bar(title, done string, total int) Tracker {
	return r.add(&Step{Kind: KindBar, Title: title, Done: done, Total: total})
}

func (r *Recorder) Spinner(title, done string) Tracker {
	return r.add(&Step{Kind: KindSpinner, Title: title, Done: done})
}

func (r *Recorder) add(s *Step) *Step {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, s)
	return s
}

// Steps returns the recorded steps in creation order.
func (r *Recorder) Steps() []*Step {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Step, len(r.steps))
	copy(out, r.steps)
	return out
}

// Titles returns the titles of all recorded steps.
func (r *Recorder) Titles() []string {
	steps := r.Steps()
	titles := make([]string, len(steps))
	for i, s := range steps {
		titles[i] = s.Title
	}
	return titles
}
