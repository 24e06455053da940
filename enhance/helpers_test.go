package enhance

import (
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"pagekit/dom"
)

type mapBackend struct {
	mu       sync.Mutex
	data     map[string][]byte
	failSet  bool
	failGet  bool
	setCalls int
}

func newMapBackend() *mapBackend { return &mapBackend{data: map[string][]byte{}} }

func (b *mapBackend) GetItem(key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failGet {
		return nil, errors.New("storage disabled")
	}
	v, ok := b.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (b *mapBackend) SetItem(key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setCalls++
	if b.failSet {
		return errors.New("quota exceeded")
	}
	b.data[key] = append([]byte(nil), value...)
	return nil
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped && !t.fired
	t.stopped = true
	return was
}

// fakeClock fires timers only when advanced. Stopped timers can still be
// fired with FireAll to model a timer racing its cancellation.
type fakeClock struct {
	now    time.Duration
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	t := &fakeTimer{clock: c, at: c.now + d, fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now += d
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			t.fn()
		}
	}
}

func (c *fakeClock) FireAll() {
	for _, t := range c.timers {
		t.fired = true
		t.fn()
	}
}

func parseDoc(t *testing.T, src, path string) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(src, path)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	return doc
}

func count(t *testing.T, doc *dom.Document, sel string) int {
	t.Helper()
	nodes, err := doc.QueryAll(sel)
	if err != nil {
		t.Fatalf("QueryAll(%q): %v", sel, err)
	}
	return len(nodes)
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
