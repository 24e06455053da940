package enhance

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"pagekit/dom"
)

// Fragment names of the standard set.
const (
	FragmentFooter    = "footer"
	FragmentHomeLink  = "home-link"
	FragmentBackToTop = "back-to-top"
)

// Ids and classes of the canonical markup.
const (
	FooterYearID    = "footer-year"
	BackToTopFabID  = "back-to-top-fab"
	BackToTopBtnID  = "btnBackToTop"
	BackToTopStyle  = "back-to-top-style"
	VisibleClass    = "is-visible"
	PrintOnlyMarker = "print-checklist-only"
)

// Fragment describes one injectable UI element.
type Fragment struct {
	Name string

	// Markup is the canonical template. Its first element is inserted.
	Markup string

	// Selectors find the canonical instance and every look-alike that must
	// not survive next to it.
	Selectors []string

	// Before names the fragment this one is placed immediately before.
	// Empty means the end of body.
	Before string

	// Fill populates derived content at insertion time.
	Fill func(n *html.Node, env Env)

	// Skip omits the fragment for the given page path.
	Skip func(path string) bool
}

// SiteInfo is the text the standard fragments render.
type SiteInfo struct {
	Owner     string
	Contact   string
	HomeLabel string
	HomeHref  string
	TopLabel  string

	// LandingPaths are the page paths treated as the landing page.
	LandingPaths []string
}

// DefaultLandingPaths are the root-path aliases of the landing page.
var DefaultLandingPaths = []string{"/", "/index.html", "/index.htm"}

// DefaultSiteInfo returns neutral fragment text.
func DefaultSiteInfo() SiteInfo {
	return SiteInfo{
		Owner:        "All rights reserved.",
		HomeLabel:    "Back to home",
		HomeHref:     "/",
		TopLabel:     "▲ Top",
		LandingPaths: DefaultLandingPaths,
	}
}

// IsLandingPage reports whether path is one of the landing aliases,
// compared case-insensitively.
func IsLandingPage(path string, aliases []string) bool {
	if path == "" {
		path = "/"
	}
	if len(aliases) == 0 {
		aliases = DefaultLandingPaths
	}
	for _, a := range aliases {
		if strings.EqualFold(path, a) {
			return true
		}
	}
	return false
}

// Look-alike denylists. Matching is deliberately broad.
var (
	footerSelectors = []string{
		"footer.site-footer",
		".site-footer",
		"#site-footer",
		".page-footer",
		"#page-footer",
	}
	homeLinkSelectors = []string{
		".home-link-wrap",
		".home-link",
		"#home-link",
		".back-home",
		".go-home",
		".btn-home",
		".home-btn",
		".home-button",
	}
	backToTopSelectors = []string{
		"#" + BackToTopFabID,
		"#back-to-top",
		"#backToTop",
		"#btnToTop",
		".back-to-top",
		".backToTop",
		".scroll-top",
		".scrollToTop",
		".go-top",
		".goTop",
		".to-top",
		".toTop",
		".btn-top",
		".top-btn",
		".top-button",
		".move-top",
	}
)

// StandardFragments returns footer, home-link and back-to-top in insertion
// order: the footer must exist before the home link can anchor to it.
func StandardFragments(info SiteInfo) []Fragment {
	landing := info.LandingPaths
	return []Fragment{
		{
			Name:      FragmentFooter,
			Markup:    footerMarkup(info),
			Selectors: footerSelectors,
			Fill: func(n *html.Node, env Env) {
				year := dom.QueryIn(n, "#"+FooterYearID)
				if year == nil {
					return
				}
				dom.SetText(year, strconv.Itoa(env.now().Year()))
			},
		},
		{
			Name:      FragmentHomeLink,
			Markup:    homeLinkMarkup(info),
			Selectors: homeLinkSelectors,
			Before:    FragmentFooter,
			Skip: func(path string) bool {
				return IsLandingPage(path, landing)
			},
		},
		{
			Name:      FragmentBackToTop,
			Markup:    backToTopMarkup(info),
			Selectors: backToTopSelectors,
		},
	}
}

func footerMarkup(info SiteInfo) string {
	var b strings.Builder
	b.WriteString(`<footer class="site-footer"><div class="shell">© <span id="` + FooterYearID + `"></span>. `)
	b.WriteString(html.EscapeString(info.Owner))
	if info.Contact != "" {
		b.WriteString(" · Contact: ")
		b.WriteString(html.EscapeString(info.Contact))
	}
	b.WriteString(`</div></footer>`)
	return b.String()
}

func homeLinkMarkup(info SiteInfo) string {
	href := info.HomeHref
	if href == "" {
		href = "/"
	}
	return `<div class="home-link-wrap"><a class="btn" href="` + html.EscapeString(href) + `">` +
		html.EscapeString(info.HomeLabel) + `</a></div>`
}

func backToTopMarkup(info SiteInfo) string {
	return `<div id="` + BackToTopFabID + `" class="back-to-top-fab" aria-label="Back to top">` +
		`<button class="btn" type="button" id="` + BackToTopBtnID + `" title="Scroll to top">` +
		html.EscapeString(info.TopLabel) + `</button></div>`
}
