package enhance

import (
	"golang.org/x/net/html"

	"pagekit/dom"
)

// BackToTopThreshold is the scroll offset past which the button shows.
const BackToTopThreshold = 200

// FabVisible reports whether the floating button shows at offset.
func FabVisible(offset int) bool { return offset > BackToTopThreshold }

// ScrollBehavior picks the scroll-to-top behaviour.
func ScrollBehavior(reducedMotion bool) string {
	if reducedMotion {
		return dom.ScrollAuto
	}
	return dom.ScrollSmooth
}

// BackToTop wires the floating button: visibility follows the scroll
// offset and a click returns to the top.
type BackToTop struct {
	watching map[Document]struct{}
	buttons  map[*html.Node]struct{}
}

// NewBackToTop returns an unbound controller.
func NewBackToTop() *BackToTop {
	return &BackToTop{
		watching: make(map[Document]struct{}),
		buttons:  make(map[*html.Node]struct{}),
	}
}

// Bind attaches the click handler to the current button and installs
// the viewport watchers, each once.
func (b *BackToTop) Bind(doc Document) {
	if btn := doc.ByID(BackToTopBtnID); btn != nil {
		if _, ok := b.buttons[btn]; !ok {
			b.buttons[btn] = struct{}{}
			doc.On(btn, "click", func(*dom.Event) {
				v := doc.View()
				v.ScrollTo(0, ScrollBehavior(v.ReducedMotion))
				b.Sync(doc)
			})
		}
	}
	if _, ok := b.watching[doc]; !ok {
		b.watching[doc] = struct{}{}
		for _, typ := range []string{"scroll", "resize", "orientationchange"} {
			doc.On(nil, typ, func(*dom.Event) { b.Sync(doc) })
		}
	}
	b.Sync(doc)
}

// Sync sets the visibility class from the current offset.
func (b *BackToTop) Sync(doc Document) {
	fab := doc.ByID(BackToTopFabID)
	if fab == nil {
		return
	}
	if FabVisible(doc.View().ScrollY) {
		dom.AddClass(fab, VisibleClass)
	} else {
		dom.RemoveClass(fab, VisibleClass)
	}
}
