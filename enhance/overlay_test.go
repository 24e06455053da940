package enhance

import (
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/html"

	"pagekit/dom"
)

var fixedNow = func() time.Time { return time.Date(2031, 3, 4, 10, 0, 0, 0, time.UTC) }

const legacyPage = `<!DOCTYPE html><html><head><title>Guide</title></head><body>
<main><p>content</p>
  <div class="home-link-wrap"><a href="/">old home</a></div>
  <a class="go-home" href="/">home</a>
  <button class="back-to-top">up</button>
  <div id="backToTop"></div>
  <span class="scrollToTop"></span>
  <a class="top-btn" href="#"></a>
  <div class="move-top"><div class="to-top"></div></div>
</main>
<footer class="site-footer">old footer</footer>
<div id="page-footer">another</div>
</body></html>`

func newTestOverlay() *Overlay {
	return NewOverlay(StandardFragments(DefaultSiteInfo()), nil)
}

func bodyElements(doc *dom.Document) []*html.Node {
	var out []*html.Node
	for c := doc.Body().FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

func TestInjectStandardRemovesLookAlikes(t *testing.T) {
	doc := parseDoc(t, legacyPage, "/guide")
	newTestOverlay().InjectStandard(doc, Env{Now: fixedNow})

	for _, sel := range append(append([]string{}, backToTopSelectors...), append(footerSelectors, homeLinkSelectors...)...) {
		if n := count(t, doc, sel); n > 1 {
			t.Fatalf("selector %q matches %d elements", sel, n)
		}
	}
	if strings.Contains(doc.String(), "old footer") || strings.Contains(doc.String(), "old home") {
		t.Fatalf("legacy markup survived:\n%s", doc.String())
	}
	if count(t, doc, "footer.site-footer") != 1 || count(t, doc, ".home-link-wrap") != 1 || count(t, doc, "#back-to-top-fab") != 1 {
		t.Fatalf("expected one canonical instance of each fragment:\n%s", doc.String())
	}
	if count(t, doc, ".back-to-top, #backToTop, .scrollToTop, .top-btn, .move-top, .to-top, .go-home, #page-footer") != 0 {
		t.Fatalf("look-alikes survived:\n%s", doc.String())
	}
	if !strings.Contains(doc.String(), "<p>content</p>") {
		t.Fatalf("page content was lost")
	}
}

func TestInjectStandardIsIdempotent(t *testing.T) {
	once := parseDoc(t, legacyPage, "/guide")
	ov := newTestOverlay()
	ov.InjectStandard(once, Env{Now: fixedNow})

	many := parseDoc(t, legacyPage, "/guide")
	for i := 0; i < 4; i++ {
		ov.InjectStandard(many, Env{Now: fixedNow})
	}
	if once.String() != many.String() {
		t.Fatalf("repeated injection differs:\nonce: %s\nmany: %s", once.String(), many.String())
	}
	if n := count(t, many, "#"+BackToTopStyle); n != 1 {
		t.Fatalf("expected one stylesheet, got %d", n)
	}
}

func TestInjectStandardOrderAndYear(t *testing.T) {
	doc := parseDoc(t, `<html><body><p>x</p></body></html>`, "/docs/page.html")
	newTestOverlay().InjectStandard(doc, Env{Now: fixedNow})
	els := bodyElements(doc)
	if len(els) != 4 {
		t.Fatalf("expected 4 body elements, got %d", len(els))
	}
	if !dom.HasClass(els[1], "home-link-wrap") || !dom.HasClass(els[2], "site-footer") || dom.Attr(els[3], "id") != BackToTopFabID {
		t.Fatalf("unexpected order: %s", doc.String())
	}
	if got := dom.Text(doc.ByID(FooterYearID)); got != "2031" {
		t.Fatalf("footer year = %q", got)
	}
}

func TestLandingPageSuppression(t *testing.T) {
	t.Parallel()
	cases := []struct {
		path string
		home bool
	}{
		{"/", false},
		{"/index.html", false},
		{"/INDEX.HTM", false},
		{"/Index.Html", false},
		{"/index.php", true},
		{"/guide/", true},
		{"/guide/index.html", true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.path, func(t *testing.T) {
			doc := parseDoc(t, `<html><body></body></html>`, tc.path)
			ov := newTestOverlay()
			ov.InjectStandard(doc, Env{Now: fixedNow})
			ov.InjectStandard(doc, Env{Now: fixedNow})
			homes := count(t, doc, ".home-link-wrap")
			if !tc.home {
				if homes != 0 {
					t.Fatalf("home link inserted on landing page %s", tc.path)
				}
				return
			}
			if homes != 1 {
				t.Fatalf("expected one home link, got %d", homes)
			}
			home := doc.Query(".home-link-wrap")
			next := home.NextSibling
			for next != nil && next.Type != html.ElementNode {
				next = next.NextSibling
			}
			if next == nil || !dom.HasClass(next, "site-footer") {
				t.Fatalf("home link not immediately before footer")
			}
		})
	}
}

// failingDoc makes every selector query fail.
type failingDoc struct {
	*dom.Document
}

func (failingDoc) QueryAll(string) ([]*html.Node, error) {
	return nil, errors.New("unsupported selector")
}

func TestInjectStandardSurvivesQueryFailure(t *testing.T) {
	doc := parseDoc(t, legacyPage, "/guide")
	newTestOverlay().InjectStandard(&failingDoc{doc}, Env{Now: fixedNow})
	if count(t, doc, "#"+BackToTopFabID) != 1 {
		t.Fatalf("canonical fragment not inserted after query failure")
	}
	if dom.Text(doc.ByID(FooterYearID)) != "2031" {
		t.Fatalf("year not filled after query failure")
	}
}

func TestMissingAnchorLeavesFragmentInBody(t *testing.T) {
	frags := StandardFragments(DefaultSiteInfo())
	frags[0].Markup = "" // footer cannot be built
	doc := parseDoc(t, `<html><body></body></html>`, "/guide")
	NewOverlay(frags, nil).InjectStandard(doc, Env{Now: fixedNow})
	if count(t, doc, "footer") != 0 {
		t.Fatalf("footer should be missing")
	}
	if count(t, doc, ".home-link-wrap") != 1 {
		t.Fatalf("home link should still be inserted")
	}
}

func TestInjectStandardReplacesStaleStyles(t *testing.T) {
	src := `<html><head><style id="back-to-top-style">old</style></head>` +
		`<body><p>x</p><style id="back-to-top-style">older</style></body></html>`
	doc := parseDoc(t, src, "/guide")
	o := newTestOverlay()
	o.InjectStandard(doc, Env{Now: fixedNow})
	o.InjectStandard(doc, Env{Now: fixedNow})

	styles, err := doc.QueryAll(`style[id="` + BackToTopStyle + `"]`)
	if err != nil {
		t.Fatalf("QueryAll: %v", err)
	}
	if len(styles) != 1 {
		t.Fatalf("expected one stylesheet, got %d:\n%s", len(styles), doc.String())
	}
	if got := dom.Text(styles[0]); got != o.css {
		t.Fatalf("stylesheet content = %q, want compiled sheet", got)
	}
	if styles[0].Parent != doc.Head() {
		t.Fatalf("stylesheet should live in head")
	}
}

func TestInjectStandardRemovesLegacyToTopButton(t *testing.T) {
	src := `<html><body><main><button id="btnToTop" style="display:none">Top</button></main></body></html>`
	doc := parseDoc(t, src, "/guide")
	newTestOverlay().InjectStandard(doc, Env{Now: fixedNow})
	if count(t, doc, "#btnToTop") != 0 {
		t.Fatalf("legacy to-top button survived:\n%s", doc.String())
	}
	if count(t, doc, "#"+BackToTopBtnID) != 1 {
		t.Fatalf("canonical button missing:\n%s", doc.String())
	}
}
