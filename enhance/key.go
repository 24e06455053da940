package enhance

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"pagekit/dom"
)

const (
	keyPrefix      = "workflow_checklist"
	DefaultVersion = "v1"

	ScopeAttr   = "data-checklist-scope"
	VersionAttr = "data-checklist-version"
)

// Scope is the persistence partition for one checklist. Two scopes are
// equal iff both fields match.
type Scope struct {
	ID      string
	Version string
}

// ScopeFor resolves the scope of a checklist root: explicit data
// attributes win, otherwise the page path and DefaultVersion.
func ScopeFor(root *html.Node, pagePath string) Scope {
	sc := Scope{ID: pagePath, Version: DefaultVersion}
	if root != nil {
		if v := dom.Attr(root, ScopeAttr); v != "" {
			sc.ID = v
		}
		if v := dom.Attr(root, VersionAttr); v != "" {
			sc.Version = v
		}
	}
	if sc.ID == "" {
		sc.ID = "/"
	}
	return sc
}

// DeriveKey maps a scope to its storage key. The version is escaped so it
// never contains ':', which keeps distinct scopes on distinct keys.
func DeriveKey(sc Scope) string {
	version := sc.Version
	if version == "" {
		version = DefaultVersion
	}
	var b strings.Builder
	b.WriteString(keyPrefix)
	b.WriteByte(':')
	b.WriteString(url.QueryEscape(version))
	b.WriteByte(':')
	b.WriteString(sc.ID)
	return b.String()
}
