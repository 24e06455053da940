package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Selectors used to locate the checklist widget.
const (
	ChecklistRootID     = "workflowChecklistSection"
	ChecklistRootMarker = "data-workflow-checklist-root"
)

// Document is a parsed HTML page together with the listeners and viewport
// state the enhancement engine attaches to it.
type Document struct {
	root      *html.Node
	path      string
	listeners map[*html.Node]map[string][]Listener
	docLevel  map[string][]Listener
	Viewport  Viewport
}

// Parse reads an HTML document. path is the page path the document was
// served under.
func Parse(r io.Reader, path string) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return newDocument(root, path), nil
}

// ParseString is Parse over a string.
func ParseString(src, path string) (*Document, error) {
	return Parse(strings.NewReader(src), path)
}

func newDocument(root *html.Node, path string) *Document {
	if path == "" {
		path = "/"
	}
	return &Document{
		root:      root,
		path:      path,
		listeners: make(map[*html.Node]map[string][]Listener),
		docLevel:  make(map[string][]Listener),
	}
}

// Path returns the page path.
func (d *Document) Path() string { return d.path }

// Root returns the document node.
func (d *Document) Root() *html.Node { return d.root }

// ParseFragment parses markup in a body context and returns its first
// element. Leading whitespace is ignored.
func ParseFragment(markup string) (*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(strings.TrimSpace(markup)), ctx)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			return n, nil
		}
	}
	return nil, fmt.Errorf("fragment has no element")
}

// Body returns the body element, creating one when the parser did not.
func (d *Document) Body() *html.Node {
	if n := findElement(d.root, atom.Body); n != nil {
		return n
	}
	htmlEl := findElement(d.root, atom.Html)
	if htmlEl == nil {
		htmlEl = &html.Node{Type: html.ElementNode, Data: "html", DataAtom: atom.Html}
		d.root.AppendChild(htmlEl)
	}
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	htmlEl.AppendChild(body)
	return body
}

// Head returns the head element, falling back to the html element.
func (d *Document) Head() *html.Node {
	if n := findElement(d.root, atom.Head); n != nil {
		return n
	}
	if n := findElement(d.root, atom.Html); n != nil {
		return n
	}
	return d.root
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if f := findElement(c, a); f != nil {
			return f
		}
	}
	return nil
}

// QueryAll returns every element matching the selector group in document
// order. A selector that does not compile is reported as an error.
func (d *Document) QueryAll(sel string) ([]*html.Node, error) {
	return QueryAllIn(d.root, sel)
}

// QueryAllIn is QueryAll scoped to the subtree under n.
func QueryAllIn(n *html.Node, sel string) ([]*html.Node, error) {
	if n == nil {
		return nil, nil
	}
	group, err := cascadia.ParseGroup(sel)
	if err != nil {
		return nil, fmt.Errorf("selector %q: %w", sel, err)
	}
	return cascadia.QueryAll(n, group), nil
}

// Query returns the first match or nil. Invalid selectors match nothing.
func (d *Document) Query(sel string) *html.Node {
	return QueryIn(d.root, sel)
}

// QueryIn is Query scoped to the subtree under n.
func QueryIn(n *html.Node, sel string) *html.Node {
	if n == nil {
		return nil
	}
	group, err := cascadia.ParseGroup(sel)
	if err != nil {
		return nil
	}
	return cascadia.Query(n, group)
}

// ByID returns the first element carrying the id.
func (d *Document) ByID(id string) *html.Node {
	if id == "" {
		return nil
	}
	var found *html.Node
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && Attr(n, "id") == id {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(d.root)
	return found
}

// Closest walks from n up through its ancestors and returns the first
// element matching sel.
func Closest(n *html.Node, sel string) *html.Node {
	m, err := cascadia.Parse(sel)
	if err != nil {
		return nil
	}
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode && m.Match(cur) {
			return cur
		}
	}
	return nil
}

// FindRoot locates the checklist widget root.
func (d *Document) FindRoot() *html.Node {
	if n := d.ByID(ChecklistRootID); n != nil {
		return n
	}
	return d.Query("[" + ChecklistRootMarker + "]")
}

// FindToggles returns the checkbox inputs under root in document order.
func (d *Document) FindToggles(root *html.Node) []*html.Node {
	nodes, _ := QueryAllIn(root, `input[type="checkbox"]`)
	return nodes
}

// FindAnchor returns the first element matching selector, or nil.
func (d *Document) FindAnchor(selector string) *html.Node {
	return d.Query(selector)
}

// Remove detaches n from its parent. Detached nodes are ignored.
func (d *Document) Remove(n *html.Node) {
	if n == nil || n.Parent == nil {
		return
	}
	n.Parent.RemoveChild(n)
}

// Append adds n as the last child of parent.
func (d *Document) Append(parent, n *html.Node) {
	if parent == nil || n == nil {
		return
	}
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
	parent.AppendChild(n)
}

// InsertBefore moves n immediately before ref. It reports false when ref
// is not attached to the tree.
func (d *Document) InsertBefore(n, ref *html.Node) bool {
	if n == nil || ref == nil || ref.Parent == nil || n == ref {
		return false
	}
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
	ref.Parent.InsertBefore(n, ref)
	return true
}

// Render writes the document as HTML.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// String renders the document, returning an empty string on failure.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}
