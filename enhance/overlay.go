package enhance

import (
	"io"
	"log"
	"strings"

	"golang.org/x/net/html"

	"pagekit/dom"
)

// Overlay keeps exactly one canonical instance of each fragment in a
// document.
type Overlay struct {
	fragments []Fragment
	css       string
	logger    *log.Logger
}

// NewOverlay prepares an overlay for the given fragments, inserted in
// slice order.
func NewOverlay(fragments []Fragment, logger *log.Logger) *Overlay {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	css, err := compileCSS(backToTopCSS)
	if err != nil {
		logger.Printf("OVERLAY back-to-top stylesheet: %v", err)
	}
	return &Overlay{fragments: fragments, css: css, logger: logger}
}

// Fragments returns the configured fragments.
func (o *Overlay) Fragments() []Fragment { return o.fragments }

// InjectStandard removes every existing instance and look-alike of each
// fragment, then inserts the canonical ones. It is idempotent.
func (o *Overlay) InjectStandard(doc Document, env Env) {
	// Removal must finish before insertion so anchors never point at a
	// node that is about to go.
	for _, f := range o.fragments {
		o.removeExisting(doc, f)
	}
	removeStyles(doc, BackToTopStyle)
	inserted := make(map[string]*html.Node, len(o.fragments))
	for _, f := range o.fragments {
		if f.Skip != nil && f.Skip(doc.Path()) {
			continue
		}
		n := o.insert(doc, f, inserted, env)
		if n != nil {
			inserted[f.Name] = n
		}
	}
	if _, ok := inserted[FragmentBackToTop]; ok {
		replaceStyle(doc, BackToTopStyle, o.css)
	}
}

func (o *Overlay) removeExisting(doc Document, f Fragment) {
	if len(f.Selectors) == 0 {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			o.logger.Printf("OVERLAY %s removal panicked: %v", f.Name, r)
		}
	}()
	nodes, err := doc.QueryAll(strings.Join(f.Selectors, ","))
	if err != nil {
		o.logger.Printf("OVERLAY %s removal skipped: %v", f.Name, err)
		return
	}
	for _, n := range nodes {
		doc.Remove(n)
	}
}

func (o *Overlay) insert(doc Document, f Fragment, inserted map[string]*html.Node, env Env) *html.Node {
	n, err := dom.ParseFragment(f.Markup)
	if err != nil {
		o.logger.Printf("OVERLAY %s markup: %v", f.Name, err)
		return nil
	}
	doc.Append(doc.Body(), n)
	if f.Before != "" {
		anchor := inserted[f.Before]
		if anchor == nil && len(f.Selectors) > 0 {
			anchor = o.anchorFor(doc, f.Before)
		}
		if anchor == nil || !doc.InsertBefore(n, anchor) {
			o.logger.Printf("OVERLAY %s: anchor %s not found, left at end of body", f.Name, f.Before)
		}
	}
	if f.Fill != nil {
		f.Fill(n, env)
	}
	return n
}

func (o *Overlay) anchorFor(doc Document, name string) *html.Node {
	for _, f := range o.fragments {
		if f.Name == name && len(f.Selectors) > 0 {
			return doc.FindAnchor(f.Selectors[0])
		}
	}
	return nil
}
