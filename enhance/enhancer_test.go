package enhance

import (
	"testing"

	"pagekit/dom"
)

func TestEnhancerReadyPipeline(t *testing.T) {
	store := NewStorage(newMapBackend(), nil)
	store.Save("workflow_checklist:v1:/guide", map[string]bool{"step-2": true})

	doc := parseDoc(t, checklistPage, "/guide")
	e := New(Options{Storage: store})
	e.Ready(doc, Env{Now: fixedNow})

	if !dom.Checked(doc.ByID("step-2")) {
		t.Fatalf("persisted state not applied")
	}
	if count(t, doc, "footer.site-footer") != 1 || count(t, doc, ".home-link-wrap") != 1 {
		t.Fatalf("fragments missing:\n%s", doc.String())
	}
}

func TestPrintChecklistAction(t *testing.T) {
	doc := parseDoc(t, checklistPage, "/guide")
	clock := &fakeClock{}
	var completions []func()
	env := Env{
		Now:   fixedNow,
		Clock: clock,
		Print: func(done func()) { completions = append(completions, done) },
	}
	e := New(Options{Storage: NewStorage(newMapBackend(), nil)})
	e.Ready(doc, env)

	ev := doc.Dispatch(doc.ByID("print"), "click")
	if !ev.DefaultPrevented() {
		t.Fatalf("expected link activation to be suppressed")
	}
	if len(completions) != 1 {
		t.Fatalf("expected one print, got %d", len(completions))
	}
	if !dom.HasClass(doc.Body(), PrintOnlyMarker) {
		t.Fatalf("expected marker class while printing")
	}
	completions[0]()
	clock.Advance(DefaultRestoreTimeout)
	if dom.HasClass(doc.Body(), PrintOnlyMarker) {
		t.Fatalf("marker class not removed")
	}
	if s := e.LastPrint(); s == nil || s.Restores() != 1 {
		t.Fatalf("unexpected session %+v", s)
	}
}

func TestPrintChecklistWithoutRootPrintsPage(t *testing.T) {
	doc := parseDoc(t, `<html><body><button data-action="print-checklist" id="p">p</button></body></html>`, "/x")
	prints := 0
	env := Env{Now: fixedNow, Clock: &fakeClock{}, Print: func(func()) { prints++ }}
	e := New(Options{})
	e.Ready(doc, env)
	doc.Dispatch(doc.ByID("p"), "click")
	if prints != 1 {
		t.Fatalf("expected plain print, got %d", prints)
	}
	if e.LastPrint() != nil {
		t.Fatalf("no scoped mutation expected without checklist")
	}
	if dom.HasClass(doc.Body(), PrintOnlyMarker) {
		t.Fatalf("marker class set without checklist")
	}
}

func TestResetAction(t *testing.T) {
	store := NewStorage(newMapBackend(), nil)
	doc := parseDoc(t, checklistPage, "/guide")
	var notes []string
	e := New(Options{Storage: store})
	e.Ready(doc, Env{Now: fixedNow, Notify: func(m string) { notes = append(notes, m) }})
	toggle(doc, "step-1", true)

	doc.Dispatch(doc.ByID("reset"), "click")
	if dom.Checked(doc.ByID("step-1")) {
		t.Fatalf("reset did not uncheck")
	}
	if st, _ := store.Load("workflow_checklist:v1:/guide"); len(st) != 0 {
		t.Fatalf("reset left state %v", st)
	}
	if len(notes) != 1 {
		t.Fatalf("expected acknowledgment, got %v", notes)
	}
}

func TestUnknownActionStillSuppressesDefault(t *testing.T) {
	doc := parseDoc(t, `<html><body><a href="/x" data-action="share" id="s">s</a><a href="/y" id="plain">y</a></body></html>`, "/x")
	New(Options{}).Ready(doc, Env{Now: fixedNow})
	if !doc.Dispatch(doc.ByID("s"), "click").DefaultPrevented() {
		t.Fatalf("marked element should not navigate")
	}
	if doc.Dispatch(doc.ByID("plain"), "click").DefaultPrevented() {
		t.Fatalf("unmarked link must keep its default")
	}
}

func TestBackToTopVisibilityAndScroll(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		offset  int
		visible bool
	}{
		{"top", 0, false},
		{"threshold", BackToTopThreshold, false},
		{"past threshold", BackToTopThreshold + 1, true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			doc := parseDoc(t, `<html><body></body></html>`, "/x")
			New(Options{}).Ready(doc, Env{Now: fixedNow})
			doc.View().ScrollY = tc.offset
			doc.Dispatch(nil, "scroll")
			fab := doc.ByID(BackToTopFabID)
			if got := dom.HasClass(fab, VisibleClass); got != tc.visible {
				t.Fatalf("visible = %v, want %v", got, tc.visible)
			}
		})
	}
}

func TestBackToTopClickHonoursReducedMotion(t *testing.T) {
	for _, reduced := range []bool{false, true} {
		doc := parseDoc(t, `<html><body></body></html>`, "/x")
		New(Options{}).Ready(doc, Env{Now: fixedNow})
		v := doc.View()
		v.ReducedMotion = reduced
		v.ScrollY = 900
		doc.Dispatch(nil, "resize")
		doc.Dispatch(doc.ByID(BackToTopBtnID), "click")
		want := dom.ScrollSmooth
		if reduced {
			want = dom.ScrollAuto
		}
		if v.ScrollY != 0 || v.LastScrollBehavior != want {
			t.Fatalf("reduced=%v: scroll %+v", reduced, v)
		}
		if dom.HasClass(doc.ByID(BackToTopFabID), VisibleClass) {
			t.Fatalf("button still visible at top")
		}
	}
}

func TestSharedEnhancerKeepsEnvPerDocument(t *testing.T) {
	store := NewStorage(newMapBackend(), nil)
	e := New(Options{Storage: store})
	first := parseDoc(t, checklistPage, "/first")
	second := parseDoc(t, checklistPage, "/second")

	var firstNotes, secondNotes []string
	firstPrints, secondPrints := 0, 0
	e.Ready(first, Env{
		Now:    fixedNow,
		Clock:  &fakeClock{},
		Print:  func(done func()) { firstPrints++; done() },
		Notify: func(m string) { firstNotes = append(firstNotes, m) },
	})
	e.Ready(second, Env{
		Now:    fixedNow,
		Clock:  &fakeClock{},
		Print:  func(done func()) { secondPrints++; done() },
		Notify: func(m string) { secondNotes = append(secondNotes, m) },
	})

	first.Dispatch(first.ByID("reset"), "click")
	first.Dispatch(first.ByID("print"), "click")
	if len(firstNotes) != 1 || len(secondNotes) != 0 {
		t.Fatalf("reset notified first=%v second=%v", firstNotes, secondNotes)
	}
	if firstPrints != 1 || secondPrints != 0 {
		t.Fatalf("print routed first=%d second=%d", firstPrints, secondPrints)
	}

	second.Dispatch(second.ByID("print"), "click")
	if firstPrints != 1 || secondPrints != 1 {
		t.Fatalf("second print routed first=%d second=%d", firstPrints, secondPrints)
	}
}

func TestSiteDefaultsFillEachField(t *testing.T) {
	t.Parallel()
	got := withSiteDefaults(SiteInfo{LandingPaths: []string{"/home"}, Contact: "ops@example.com"})
	def := DefaultSiteInfo()
	if got.Owner != def.Owner || got.HomeLabel != def.HomeLabel || got.HomeHref != def.HomeHref || got.TopLabel != def.TopLabel {
		t.Fatalf("empty labels not defaulted: %+v", got)
	}
	if len(got.LandingPaths) != 1 || got.LandingPaths[0] != "/home" || got.Contact != "ops@example.com" {
		t.Fatalf("configured fields lost: %+v", got)
	}

	e := New(Options{Site: SiteInfo{LandingPaths: []string{"/home"}}})
	doc := parseDoc(t, `<html><body><p>x</p></body></html>`, "/home")
	e.Ready(doc, Env{Now: fixedNow})
	if count(t, doc, ".home-link-wrap") != 0 {
		t.Fatalf("configured landing alias ignored:\n%s", doc.String())
	}
	if count(t, doc, "footer.site-footer") != 1 {
		t.Fatalf("footer missing:\n%s", doc.String())
	}
}
