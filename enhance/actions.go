package enhance

import (
	"pagekit/dom"
)

// Action markers recognised on clickable elements.
const (
	ActionAttr           = "data-action"
	ActionPrintPage      = "print-page"
	ActionPrintChecklist = "print-checklist"
	ActionResetChecklist = "reset-checklist"
)

// ActionFunc handles a triggered action.
type ActionFunc func(doc Document, ev *dom.Event)

// Actions routes clicks on [data-action] elements to handlers.
type Actions struct {
	handlers map[string]ActionFunc
	bound    map[Document]struct{}
}

// NewActions returns an empty router.
func NewActions() *Actions {
	return &Actions{
		handlers: make(map[string]ActionFunc),
		bound:    make(map[Document]struct{}),
	}
}

// Handle registers fn for action name.
func (a *Actions) Handle(name string, fn ActionFunc) {
	a.handlers[name] = fn
}

// Bind installs the document-level click listener once per document.
func (a *Actions) Bind(doc Document) {
	if _, ok := a.bound[doc]; ok {
		return
	}
	a.bound[doc] = struct{}{}
	doc.On(nil, "click", func(ev *dom.Event) {
		el := dom.Closest(ev.Target, "["+ActionAttr+"]")
		if el == nil {
			return
		}
		name := dom.Attr(el, ActionAttr)
		if name == "" {
			return
		}
		// Marked elements may be links; never follow them.
		ev.PreventDefault()
		if fn := a.handlers[name]; fn != nil {
			fn(doc, ev)
		}
	})
}
