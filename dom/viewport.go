package dom

// Scroll behaviours accepted by ScrollTo.
const (
	ScrollAuto   = "auto"
	ScrollSmooth = "smooth"
)

// Viewport carries the window state the engine reads: the vertical scroll
// offset and the reduced-motion preference. ScrollTo records the last
// programmatic scroll.
type Viewport struct {
	ScrollY       int
	ReducedMotion bool

	LastScrollTop      int
	LastScrollBehavior string
	Scrolls            int
}

// ScrollTo moves the viewport to top.
func (v *Viewport) ScrollTo(top int, behavior string) {
	if behavior == "" {
		behavior = ScrollAuto
	}
	v.ScrollY = top
	v.LastScrollTop = top
	v.LastScrollBehavior = behavior
	v.Scrolls++
}

// View returns the document's viewport.
func (d *Document) View() *Viewport { return &d.Viewport }
