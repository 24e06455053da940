package dom

import "golang.org/x/net/html"

// Event is a dispatched DOM event.
type Event struct {
	Type   string
	Target *html.Node

	defaultPrevented bool
	stopped          bool
}

// PreventDefault suppresses the default activation behaviour.
func (e *Event) PreventDefault() { e.defaultPrevented = true }

// DefaultPrevented reports whether a listener called PreventDefault.
func (e *Event) DefaultPrevented() bool { return e.defaultPrevented }

// StopPropagation prevents delivery to further ancestors.
func (e *Event) StopPropagation() { e.stopped = true }

// Listener handles a dispatched event.
type Listener func(*Event)

// On registers fn for events of the given type on target. A nil target
// registers a document-level listener.
func (d *Document) On(target *html.Node, typ string, fn Listener) {
	if fn == nil {
		return
	}
	if target == nil {
		d.docLevel[typ] = append(d.docLevel[typ], fn)
		return
	}
	byType := d.listeners[target]
	if byType == nil {
		byType = make(map[string][]Listener)
		d.listeners[target] = byType
	}
	byType[typ] = append(byType[typ], fn)
}

// ListenerCount returns how many listeners of typ are registered on target
// (document level when target is nil).
func (d *Document) ListenerCount(target *html.Node, typ string) int {
	if target == nil {
		return len(d.docLevel[typ])
	}
	return len(d.listeners[target][typ])
}

// Dispatch delivers an event to target and bubbles it through its
// ancestors, then to document-level listeners. A nil target only reaches
// document-level listeners.
func (d *Document) Dispatch(target *html.Node, typ string) *Event {
	ev := &Event{Type: typ, Target: target}
	for cur := target; cur != nil && !ev.stopped; cur = cur.Parent {
		for _, fn := range d.listeners[cur][typ] {
			fn(ev)
		}
	}
	if !ev.stopped {
		for _, fn := range d.docLevel[typ] {
			fn(ev)
		}
	}
	return ev
}
