package enhance

import (
	"sync"
	"time"

	"golang.org/x/net/html"

	"pagekit/dom"
)

// DefaultRestoreTimeout bounds how long a scoped mutation waits for the
// completion notification before restoring on its own.
const DefaultRestoreTimeout = 800 * time.Millisecond

// Timer is a scheduled callback.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RealClock schedules with the time package.
type RealClock struct{}

// AfterFunc implements Clock.
func (RealClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Mutation is a reversible change to a subtree. Apply captures the prior
// state before changing anything; Restore reverts to it.
type Mutation interface {
	Apply()
	Restore()
}

// Session tracks one scoped mutation.
type Session struct {
	once  sync.Once
	done  chan struct{}
	timer Timer
	m     Mutation
	mu    sync.Mutex
	count int
}

func (s *Session) restore() {
	s.once.Do(func() {
		s.mu.Lock()
		t := s.timer
		s.mu.Unlock()
		if t != nil {
			t.Stop()
		}
		s.m.Restore()
		s.mu.Lock()
		s.count++
		s.mu.Unlock()
		close(s.done)
	})
}

// Done is closed once the mutation has been restored.
func (s *Session) Done() <-chan struct{} { return s.done }

// Restored reports whether restoration has run.
func (s *Session) Restored() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Restores returns how many times Restore ran; always 0 or 1.
func (s *Session) Restores() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Orchestrator runs temporary mutations around an external action.
type Orchestrator struct {
	Clock   Clock
	Timeout time.Duration
}

// Run applies m, starts action and restores m on the first of: action
// calling done, or the timeout elapsing. Either trigger may fire any
// number of times in any order; Restore runs exactly once.
func (o *Orchestrator) Run(m Mutation, action func(done func())) *Session {
	clock := o.Clock
	if clock == nil {
		clock = RealClock{}
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = DefaultRestoreTimeout
	}
	s := &Session{done: make(chan struct{}), m: m}
	m.Apply()
	// Arm the fallback before the action so a synchronous completion
	// still finds the timer to stop.
	t := clock.AfterFunc(timeout, s.restore)
	s.mu.Lock()
	s.timer = t
	s.mu.Unlock()
	if action != nil {
		action(s.restore)
	}
	return s
}

// DetailsMutation force-opens every collapsible under Root and marks the
// body while the mutation is active.
type DetailsMutation struct {
	Doc         Document
	Root        *html.Node
	MarkerClass string

	details []*html.Node
	prev    []bool
}

// Apply implements Mutation.
func (m *DetailsMutation) Apply() {
	m.details, _ = dom.QueryAllIn(m.Root, "details")
	m.prev = make([]bool, len(m.details))
	for i, d := range m.details {
		m.prev[i] = dom.Open(d)
		dom.SetOpen(d, true)
	}
	if m.MarkerClass != "" {
		dom.AddClass(m.Doc.Body(), m.MarkerClass)
	}
}

// Restore implements Mutation. Collapsibles are matched by position;
// ones added after Apply are left as they are.
func (m *DetailsMutation) Restore() {
	if m.MarkerClass != "" {
		dom.RemoveClass(m.Doc.Body(), m.MarkerClass)
	}
	current, _ := dom.QueryAllIn(m.Root, "details")
	for i, d := range current {
		if i < len(m.prev) {
			dom.SetOpen(d, m.prev[i])
		}
	}
}
