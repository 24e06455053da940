package enhance

import (
	"io"
	"log"

	"golang.org/x/net/html"

	"pagekit/dom"
)

// ResetMessage is the acknowledgment shown after a reset.
const ResetMessage = "Checklist has been reset."

// checklist is the per-root record of one reconciled widget.
type checklist struct {
	key   string
	state map[string]bool
}

// Reconciler binds persisted checkbox state to live toggles.
type Reconciler struct {
	store   *Storage
	logger  *log.Logger
	widgets map[*html.Node]*checklist
	bound   map[*html.Node]struct{}
}

// NewReconciler returns a reconciler persisting through store.
func NewReconciler(store *Storage, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Reconciler{
		store:   store,
		logger:  logger,
		widgets: make(map[*html.Node]*checklist),
		bound:   make(map[*html.Node]struct{}),
	}
}

// Key returns the storage key the checklist under root persists to.
func (r *Reconciler) Key(doc Document, root *html.Node) string {
	return DeriveKey(ScopeFor(root, doc.Path()))
}

func (r *Reconciler) widget(doc Document, root *html.Node) *checklist {
	if w, ok := r.widgets[root]; ok {
		return w
	}
	key := r.Key(doc, root)
	state, ok := r.store.Load(key)
	if !ok {
		state = map[string]bool{}
	}
	w := &checklist{key: key, state: state}
	r.widgets[root] = w
	return w
}

// Reconcile applies persisted state to every identified toggle under root
// and wires changes back to storage. Calling it again is harmless:
// listeners are bound once per element.
func (r *Reconciler) Reconcile(doc Document, root *html.Node) {
	if root == nil {
		return
	}
	w := r.widget(doc, root)
	for _, cb := range doc.FindToggles(root) {
		id := dom.Attr(cb, "id")
		if id == "" {
			continue
		}
		dom.SetChecked(cb, w.state[id])
		if _, done := r.bound[cb]; done {
			continue
		}
		r.bound[cb] = struct{}{}
		cb, id := cb, id
		doc.On(cb, "change", func(*dom.Event) {
			w.state[id] = dom.Checked(cb)
			if !r.store.Save(w.key, w.state) {
				r.logger.Printf("CHECKLIST %s: change to %s kept in memory only", w.key, id)
			}
		})
	}
}

// State returns a copy of the in-memory state for the checklist under root.
func (r *Reconciler) State(doc Document, root *html.Node) map[string]bool {
	if root == nil {
		return nil
	}
	w := r.widget(doc, root)
	out := make(map[string]bool, len(w.state))
	for k, v := range w.state {
		out[k] = v
	}
	return out
}

// ResetState unchecks every toggle under root and persists an empty
// mapping. It does not notify the user.
func (r *Reconciler) ResetState(doc Document, root *html.Node) {
	if root == nil {
		return
	}
	w := r.widget(doc, root)
	for _, cb := range doc.FindToggles(root) {
		dom.SetChecked(cb, false)
	}
	w.state = map[string]bool{}
	r.store.Save(w.key, w.state)
}

// Reset is ResetState followed by the user acknowledgment.
func (r *Reconciler) Reset(doc Document, root *html.Node, env Env) {
	if root == nil {
		return
	}
	r.ResetState(doc, root)
	env.notify(ResetMessage)
}
