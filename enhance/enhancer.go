package enhance

import (
	"io"
	"log"
	"time"

	"pagekit/dom"
)

// Options configures an Enhancer.
type Options struct {
	Site           SiteInfo
	Storage        *Storage
	Logger         *log.Logger
	RestoreTimeout time.Duration
}

// Enhancer runs the page-ready pipeline for one page: fragment overlay,
// checklist reconciliation, action routing and the back-to-top button.
type Enhancer struct {
	overlay   *Overlay
	checklist *Reconciler
	actions   *Actions
	backToTop *BackToTop
	timeout   time.Duration
	logger    *log.Logger
	lastPrint *Session
	envs      map[Document]Env
}

// New assembles an Enhancer.
func New(opts Options) *Enhancer {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	e := &Enhancer{
		overlay:   NewOverlay(StandardFragments(withSiteDefaults(opts.Site)), logger),
		checklist: NewReconciler(opts.Storage, logger),
		actions:   NewActions(),
		backToTop: NewBackToTop(),
		timeout:   opts.RestoreTimeout,
		logger:    logger,
		envs:      make(map[Document]Env),
	}
	e.actions.Handle(ActionPrintPage, func(d Document, _ *dom.Event) { e.PrintPage(e.envs[d]) })
	e.actions.Handle(ActionPrintChecklist, func(d Document, _ *dom.Event) { e.PrintChecklist(d, e.envs[d]) })
	e.actions.Handle(ActionResetChecklist, func(d Document, _ *dom.Event) {
		e.checklist.Reset(d, d.FindRoot(), e.envs[d])
	})
	return e
}

// withSiteDefaults fills each empty field from DefaultSiteInfo. Contact
// has no default.
func withSiteDefaults(site SiteInfo) SiteInfo {
	def := DefaultSiteInfo()
	if site.Owner == "" {
		site.Owner = def.Owner
	}
	if site.HomeLabel == "" {
		site.HomeLabel = def.HomeLabel
	}
	if site.HomeHref == "" {
		site.HomeHref = def.HomeHref
	}
	if site.TopLabel == "" {
		site.TopLabel = def.TopLabel
	}
	if len(site.LandingPaths) == 0 {
		site.LandingPaths = def.LandingPaths
	}
	return site
}

// Checklist exposes the reconciler.
func (e *Enhancer) Checklist() *Reconciler { return e.checklist }

// LastPrint returns the session of the most recent checklist print, or nil.
func (e *Enhancer) LastPrint() *Session { return e.lastPrint }

// Ready runs the page-ready pipeline. Each step is isolated: a failure
// skips that enhancement and leaves the page usable. Actions triggered in
// doc use the env of the latest Ready call for that same doc.
func (e *Enhancer) Ready(doc Document, env Env) {
	e.envs[doc] = env
	e.step("overlay", func() { e.overlay.InjectStandard(doc, env) })
	e.step("checklist", func() { e.checklist.Reconcile(doc, doc.FindRoot()) })
	e.step("actions", func() { e.actions.Bind(doc) })
	e.step("back-to-top", func() { e.backToTop.Bind(doc) })
}

func (e *Enhancer) step(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Printf("ENHANCE %s failed: %v", name, r)
		}
	}()
	fn()
}

// PrintPage triggers a plain print.
func (e *Enhancer) PrintPage(env Env) {
	env.print(func() {})
}

// PrintChecklist expands every collapsible in the checklist, marks the
// body for print-only styling, prints and restores. Without a checklist
// it prints the page as is.
func (e *Enhancer) PrintChecklist(doc Document, env Env) *Session {
	root := doc.FindRoot()
	if root == nil {
		e.PrintPage(env)
		return nil
	}
	o := Orchestrator{Clock: env.clock(), Timeout: e.timeout}
	m := &DetailsMutation{Doc: doc, Root: root, MarkerClass: PrintOnlyMarker}
	s := o.Run(m, env.print)
	e.lastPrint = s
	return s
}
