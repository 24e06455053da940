package proxy

import (
	neturl "net/url"
	"path"
	"strings"
)

// cleanPagePath canonicalizes an already decoded path, such as
// r.URL.Path, into the absolute path used for scoping.
func cleanPagePath(p string) string {
	s := strings.TrimSpace(p)
	if s == "" {
		return "/"
	}
	if !strings.HasPrefix(s, "/") {
		s = "/" + s
	}
	trailing := len(s) > 1 && strings.HasSuffix(s, "/")
	s = path.Clean(s)
	if trailing && s != "/" {
		s += "/"
	}
	return s
}

// pagePathParam decodes a page reference sent as a parameter, normally
// the browser's raw location.pathname, and cleans it. Full URLs
// contribute only their path. The result matches cleanPagePath of the
// same page's r.URL.Path.
func pagePathParam(raw string) string {
	s := strings.TrimSpace(raw)
	if u, err := neturl.Parse(s); err == nil && u.Scheme != "" {
		return cleanPagePath(u.Path)
	}
	if i := strings.IndexAny(s, "?#"); i != -1 {
		s = s[:i]
	}
	if dec, err := neturl.PathUnescape(s); err == nil {
		s = dec
	}
	return cleanPagePath(s)
}

// upstreamURL resolves pagePath against the upstream base, keeping any
// base path prefix, and appends rawQuery.
func upstreamURL(base *neturl.URL, pagePath, rawQuery string) string {
	if base == nil {
		return pagePath
	}
	u := *base
	prefix := strings.TrimRight(u.Path, "/")
	u.Path = prefix + pagePath
	u.RawPath = ""
	u.RawQuery = base.RawQuery
	if rawQuery != "" {
		if u.RawQuery != "" {
			u.RawQuery += "&" + rawQuery
		} else {
			u.RawQuery = rawQuery
		}
	}
	u.Fragment = ""
	return u.String()
}
