// Package dom is a small in-memory document model over golang.org/x/net/html.
// It offers selector queries (cascadia), tree edits, boolean attribute
// helpers, bubbling events and a viewport, which is everything the page
// enhancement engine needs from a browser document.
package dom
