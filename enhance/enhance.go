// Package enhance is the page enhancement engine: it normalizes injected
// UI fragments so exactly one canonical instance survives, persists
// checklist state per page, and runs print flows that temporarily mutate
// the document with guaranteed rollback.
package enhance

import (
	"time"

	"golang.org/x/net/html"

	"pagekit/dom"
)

// Document is what the engine needs from a page. *dom.Document satisfies
// it; tests wrap it to inject failures.
type Document interface {
	Path() string
	Body() *html.Node
	Head() *html.Node
	View() *dom.Viewport
	ByID(id string) *html.Node
	QueryAll(sel string) ([]*html.Node, error)

	FindRoot() *html.Node
	FindToggles(root *html.Node) []*html.Node
	FindAnchor(selector string) *html.Node

	Remove(n *html.Node)
	Append(parent, n *html.Node)
	InsertBefore(n, ref *html.Node) bool

	On(target *html.Node, typ string, fn dom.Listener)
}

// Env carries the environment signals a page reacts to.
type Env struct {
	// Now supplies the current date for derived content.
	Now func() time.Time
	// Clock schedules the print restore fallback.
	Clock Clock
	// Print starts the external print step and calls done once the
	// environment reports completion. It may never call done.
	Print func(done func())
	// Notify shows a user acknowledgment. Nil means silent.
	Notify func(msg string)
}

func (e Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Env) clock() Clock {
	if e.Clock != nil {
		return e.Clock
	}
	return RealClock{}
}

func (e Env) print(done func()) {
	if e.Print == nil {
		done()
		return
	}
	e.Print(done)
}

func (e Env) notify(msg string) {
	if e.Notify != nil {
		e.Notify(msg)
	}
}
