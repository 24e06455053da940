package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Attr returns the value of the named attribute, or "" when absent.
func Attr(n *html.Node, name string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val
		}
	}
	return ""
}

// HasAttr reports whether the attribute is present, whatever its value.
func HasAttr(n *html.Node, name string) bool {
	if n == nil {
		return false
	}
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return true
		}
	}
	return false
}

// SetAttr sets or replaces an attribute.
func SetAttr(n *html.Node, name, val string) {
	if n == nil {
		return
	}
	for i, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: val})
}

// RemoveAttr drops every attribute with the given name.
func RemoveAttr(n *html.Node, name string) {
	if n == nil {
		return
	}
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if !strings.EqualFold(a.Key, name) {
			kept = append(kept, a)
		}
	}
	n.Attr = kept
}

func setBoolAttr(n *html.Node, name string, on bool) {
	if on {
		if !HasAttr(n, name) {
			SetAttr(n, name, "")
		}
		return
	}
	RemoveAttr(n, name)
}

// Checked reports the boolean checked state of an input.
func Checked(n *html.Node) bool { return HasAttr(n, "checked") }

// SetChecked sets the checked state of an input.
func SetChecked(n *html.Node, on bool) { setBoolAttr(n, "checked", on) }

// Open reports whether a collapsible region is expanded.
func Open(n *html.Node) bool { return HasAttr(n, "open") }

// SetOpen expands or collapses a collapsible region.
func SetOpen(n *html.Node, on bool) { setBoolAttr(n, "open", on) }

// HasClass reports whether n carries the class.
func HasClass(n *html.Node, want string) bool {
	want = strings.TrimSpace(want)
	if want == "" {
		return false
	}
	for _, c := range strings.Fields(Attr(n, "class")) {
		if c == want {
			return true
		}
	}
	return false
}

// AddClass adds cls unless already present.
func AddClass(n *html.Node, cls string) {
	if n == nil || cls == "" || HasClass(n, cls) {
		return
	}
	classes := strings.Fields(Attr(n, "class"))
	SetAttr(n, "class", strings.Join(append(classes, cls), " "))
}

// RemoveClass removes every occurrence of cls.
func RemoveClass(n *html.Node, cls string) {
	if n == nil || !HasClass(n, cls) {
		return
	}
	classes := strings.Fields(Attr(n, "class"))
	kept := classes[:0]
	for _, c := range classes {
		if c != cls {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		RemoveAttr(n, "class")
		return
	}
	SetAttr(n, "class", strings.Join(kept, " "))
}

// SetText replaces the children of n with a single text node.
func SetText(n *html.Node, text string) {
	if n == nil {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// Text returns the concatenated text content of n.
func Text(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		for k := c.FirstChild; k != nil; k = k.NextSibling {
			visit(k)
		}
	}
	visit(n)
	return b.String()
}
