package enhance

import (
	"strings"
	"testing"

	"pagekit/dom"
)

const checklistPage = `<!DOCTYPE html><html><head></head><body>
<section id="workflowChecklistSection">
  <details><summary>Prep</summary>
    <input type="checkbox" id="step-1"><input type="checkbox" id="step-2">
  </details>
  <details open><summary>Run</summary><input type="checkbox" id="step-3"></details>
  <input type="checkbox" class="scratch">
</section>
<a href="/print" data-action="print-checklist" id="print">Print</a>
<button data-action="reset-checklist" id="reset">Reset</button>
</body></html>`

func toggle(doc *dom.Document, id string, on bool) {
	n := doc.ByID(id)
	dom.SetChecked(n, on)
	doc.Dispatch(n, "change")
}

func TestReconcileRoundTrip(t *testing.T) {
	backend := newMapBackend()
	store := NewStorage(backend, nil)

	first := parseDoc(t, checklistPage, "/guide")
	r := NewReconciler(store, nil)
	r.Reconcile(first, first.FindRoot())
	toggle(first, "step-1", true)
	toggle(first, "step-3", true)
	toggle(first, "step-3", false)

	// fresh page load
	second := parseDoc(t, checklistPage, "/guide")
	NewReconciler(store, nil).Reconcile(second, second.FindRoot())
	want := map[string]bool{"step-1": true, "step-2": false, "step-3": false}
	for id, on := range want {
		if got := dom.Checked(second.ByID(id)); got != on {
			t.Fatalf("%s checked = %v, want %v", id, got, on)
		}
	}
	stored, _ := store.Load("workflow_checklist:v1:/guide")
	if strings.Join(sortedKeys(stored), ",") != "step-1,step-3" {
		t.Fatalf("unexpected stored ids %v", stored)
	}
}

func TestReconcileIgnoresUnknownIDsAndAnonymousToggles(t *testing.T) {
	store := NewStorage(newMapBackend(), nil)
	store.Save("workflow_checklist:v1:/guide", map[string]bool{"gone": true, "step-2": true})

	doc := parseDoc(t, checklistPage, "/guide")
	r := NewReconciler(store, nil)
	r.Reconcile(doc, doc.FindRoot())
	if !dom.Checked(doc.ByID("step-2")) {
		t.Fatalf("expected step-2 restored")
	}
	if doc.ByID("gone") != nil {
		t.Fatalf("reconcile must not fabricate elements")
	}
	scratch := doc.Query("input.scratch")
	dom.SetChecked(scratch, true)
	doc.Dispatch(scratch, "change")
	if doc.ListenerCount(scratch, "change") != 0 {
		t.Fatalf("anonymous toggle must stay unbound")
	}
	if _, ok := r.State(doc, doc.FindRoot())[""]; ok {
		t.Fatalf("empty id persisted")
	}
}

func TestReconcileBindsOnce(t *testing.T) {
	backend := newMapBackend()
	doc := parseDoc(t, checklistPage, "/guide")
	r := NewReconciler(NewStorage(backend, nil), nil)
	root := doc.FindRoot()
	r.Reconcile(doc, root)
	r.Reconcile(doc, root)
	if n := doc.ListenerCount(doc.ByID("step-1"), "change"); n != 1 {
		t.Fatalf("expected one change listener, got %d", n)
	}
	toggle(doc, "step-1", true)
	if backend.setCalls != 1 {
		t.Fatalf("expected a single write per change, got %d", backend.setCalls)
	}
}

func TestReconcileKeepsWorkingWhenStorageFails(t *testing.T) {
	backend := newMapBackend()
	backend.failSet = true
	doc := parseDoc(t, checklistPage, "/guide")
	r := NewReconciler(NewStorage(backend, nil), nil)
	r.Reconcile(doc, doc.FindRoot())
	toggle(doc, "step-1", true)
	toggle(doc, "step-2", true)
	state := r.State(doc, doc.FindRoot())
	if !state["step-1"] || !state["step-2"] {
		t.Fatalf("expected in-memory state to track changes, got %v", state)
	}
}

func TestResetClearsPersistedState(t *testing.T) {
	store := NewStorage(newMapBackend(), nil)
	doc := parseDoc(t, checklistPage, "/guide")
	r := NewReconciler(store, nil)
	root := doc.FindRoot()
	r.Reconcile(doc, root)
	toggle(doc, "step-1", true)
	toggle(doc, "step-2", true)

	var notes []string
	r.Reset(doc, root, Env{Notify: func(msg string) { notes = append(notes, msg) }})
	for _, cb := range doc.FindToggles(root) {
		if dom.Checked(cb) {
			t.Fatalf("toggle %q still checked", dom.Attr(cb, "id"))
		}
	}
	stored, ok := store.Load(r.Key(doc, root))
	if !ok || len(stored) != 0 {
		t.Fatalf("expected empty persisted mapping, got %v ok=%v", stored, ok)
	}
	if len(notes) != 1 || notes[0] != ResetMessage {
		t.Fatalf("unexpected notifications %v", notes)
	}

	// later changes must not resurrect cleared entries
	toggle(doc, "step-3", true)
	stored, _ = store.Load(r.Key(doc, root))
	if strings.Join(sortedKeys(stored), ",") != "step-3" {
		t.Fatalf("cleared entries came back: %v", stored)
	}
}

func TestResetStateWithoutAcknowledgment(t *testing.T) {
	store := NewStorage(newMapBackend(), nil)
	doc := parseDoc(t, checklistPage, "/guide")
	r := NewReconciler(store, nil)
	r.Reconcile(doc, doc.FindRoot())
	toggle(doc, "step-1", true)
	r.ResetState(doc, doc.FindRoot())
	if dom.Checked(doc.ByID("step-1")) {
		t.Fatalf("expected step-1 unchecked")
	}
}
