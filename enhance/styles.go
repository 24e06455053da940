package enhance

import (
	"strings"

	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"pagekit/dom"
)

const backToTopCSS = `
@media print {
  #` + BackToTopFabID + ` { display: none !important; }
}
#` + BackToTopFabID + `.back-to-top-fab {
  position: fixed;
  right: 12px;
  right: calc(12px + env(safe-area-inset-right));
  bottom: 12px;
  bottom: calc(12px + env(safe-area-inset-bottom));
  z-index: 2147483646;
  display: none;
  align-items: center;
}
#` + BackToTopFabID + `.back-to-top-fab.` + VisibleClass + ` { display: flex; }
#` + BackToTopFabID + ` .btn {
  border-radius: 999px;
  padding: 10px 14px;
  line-height: 1;
  white-space: nowrap;
}
`

// compileCSS parses src and re-serializes it. Input that does not parse is
// returned trimmed so the page still gets the rules the browser accepts.
func compileCSS(src string) (string, error) {
	trimmed := strings.TrimSpace(src)
	sheet, err := parser.Parse(trimmed)
	if err != nil {
		return trimmed, err
	}
	return sheet.String(), nil
}

// replaceStyle removes every <style> carrying id and appends one fresh
// element with css to head.
func replaceStyle(doc Document, id, css string) *html.Node {
	removeStyles(doc, id)
	style := &html.Node{Type: html.ElementNode, Data: "style", DataAtom: atom.Style}
	dom.SetAttr(style, "id", id)
	style.AppendChild(&html.Node{Type: html.TextNode, Data: css})
	doc.Append(doc.Head(), style)
	return style
}

func removeStyles(doc Document, id string) {
	nodes, err := doc.QueryAll(`style[id="` + id + `"]`)
	if err != nil {
		return
	}
	for _, n := range nodes {
		doc.Remove(n)
	}
}
