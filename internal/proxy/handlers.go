package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"pagekit/dom"
	"pagekit/enhance"
	"pagekit/storage"
)

var (
	errNotHTML       = errors.New("not an HTML page")
	errPrintDisabled = errors.New("printing is disabled")
)

// stateResponse is the JSON shape of checklist and action replies.
type stateResponse struct {
	Path    string          `json:"path"`
	Key     string          `json:"key,omitempty"`
	Action  string          `json:"action,omitempty"`
	Message string          `json:"message,omitempty"`
	State   map[string]bool `json:"state"`
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	pagePath := cleanPagePath(r.URL.Path)
	page, err := s.fetchOrigin(r.Context(), pagePath, r.URL.RawQuery)
	if err != nil {
		s.originError(w, pagePath, err)
		return
	}
	if !page.isHTML() {
		s.writeRaw(w, page)
		return
	}
	doc, err := dom.Parse(bytes.NewReader(page.Body), pagePath)
	if err != nil {
		s.logger.Printf("ERR parse %s: %v; serving unmodified", pagePath, err)
		s.writeRaw(w, page)
		return
	}

	key := s.clients.ensureClient(w, r)
	unlock := s.clients.lock(key)
	s.newEnhancer(key).Ready(doc, s.env())
	unlock()
	if err := injectBridge(doc); err != nil {
		s.logger.Printf("ERR bridge %s: %v", pagePath, err)
	}

	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		s.logger.Printf("ERR render %s: %v; serving unmodified", pagePath, err)
		s.writeRaw(w, page)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(page.Status)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	_ = r.ParseForm()
	pagePath := pagePathParam(r.FormValue("path"))
	id := strings.TrimSpace(r.FormValue("id"))
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}
	checked, ok := parseFormBool(r.FormValue("checked"))
	if !ok {
		http.Error(w, "invalid checked value", http.StatusBadRequest)
		return
	}

	key, _ := clientKeyFromRequest(r)
	unlock := s.clients.lock(key)
	defer unlock()

	doc, err := s.loadDocument(r.Context(), pagePath)
	if err != nil {
		s.originError(w, pagePath, err)
		return
	}
	e := s.newEnhancer(key)
	e.Ready(doc, s.env())
	root := doc.FindRoot()
	if root == nil {
		http.Error(w, "no checklist on page", http.StatusNotFound)
		return
	}
	found := false
	for _, cb := range doc.FindToggles(root) {
		if dom.Attr(cb, "id") != id {
			continue
		}
		dom.SetChecked(cb, checked)
		doc.Dispatch(cb, "change")
		found = true
		break
	}
	if !found {
		http.Error(w, "unknown checklist item", http.StatusNotFound)
		return
	}
	s.writeJSON(w, stateResponse{
		Path:  pagePath,
		Key:   e.Checklist().Key(doc, root),
		State: e.Checklist().State(doc, root),
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	pagePath := pagePathParam(r.URL.Query().Get("path"))
	key, _ := clientKeyFromRequest(r)
	unlock := s.clients.lock(key)
	defer unlock()

	doc, err := s.loadDocument(r.Context(), pagePath)
	if err != nil {
		s.originError(w, pagePath, err)
		return
	}
	e := s.newEnhancer(key)
	e.Ready(doc, s.env())
	root := doc.FindRoot()
	if root == nil {
		http.Error(w, "no checklist on page", http.StatusNotFound)
		return
	}
	s.writeJSON(w, stateResponse{
		Path:  pagePath,
		Key:   e.Checklist().Key(doc, root),
		State: e.Checklist().State(doc, root),
	})
}

// handleAction clicks the element marked with the requested action, as
// the browser would, and reports the outcome. Print actions answer with
// the printed PDF.
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	_ = r.ParseForm()
	pagePath := pagePathParam(r.FormValue("path"))
	action := strings.TrimSpace(r.FormValue("action"))
	if action == "" {
		http.Error(w, "missing action", http.StatusBadRequest)
		return
	}

	key, _ := clientKeyFromRequest(r)
	unlock := s.clients.lock(key)
	defer unlock()

	doc, err := s.loadDocument(r.Context(), pagePath)
	if err != nil {
		s.originError(w, pagePath, err)
		return
	}

	var (
		printed  bool
		pdf      []byte
		printErr error
		message  string
	)
	env := s.env()
	env.Notify = func(msg string) { message = msg }
	env.Print = func(done func()) {
		printed = true
		defer done()
		if s.printer == nil {
			printErr = errPrintDisabled
			return
		}
		// Snapshot before printing: the restore fallback may fire while
		// the browser is still working.
		snapshot := doc.String()
		ctx, cancel := context.WithTimeout(r.Context(), s.cfg.PrintTimeout)
		defer cancel()
		pdf, printErr = s.printer.PrintPDF(ctx, snapshot)
	}
	e := s.newEnhancer(key)
	e.Ready(doc, env)

	el := findAction(doc, action)
	if el == nil {
		http.Error(w, "no element for action "+action, http.StatusNotFound)
		return
	}
	doc.Dispatch(el, "click")

	if printed {
		if sess := e.LastPrint(); sess != nil && !sess.Restored() {
			s.logger.Printf("ERR print %s: document not restored", pagePath)
		}
		switch {
		case errors.Is(printErr, errPrintDisabled):
			http.Error(w, printErr.Error(), http.StatusNotImplemented)
		case printErr != nil:
			s.logger.Printf("ERR print %s: %v", pagePath, printErr)
			http.Error(w, "print failed", http.StatusBadGateway)
		default:
			w.Header().Set("Content-Type", "application/pdf")
			w.Header().Set("Content-Disposition", `inline; filename="`+printFilename(pagePath, action)+`"`)
			w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
			_, _ = w.Write(pdf)
		}
		return
	}

	resp := stateResponse{Path: pagePath, Action: action, Message: message}
	if root := doc.FindRoot(); root != nil {
		resp.Key = e.Checklist().Key(doc, root)
		resp.State = e.Checklist().State(doc, root)
	}
	s.writeJSON(w, resp)
}

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Connection", "close")
	io.WriteString(w, "pong\n")
}

func (s *Server) env() enhance.Env {
	return enhance.Env{Now: s.clock}
}

// newEnhancer builds an engine whose checklist state lives in the
// client's partition of the shared backend.
func (s *Server) newEnhancer(clientKey string) *enhance.Enhancer {
	store := enhance.NewStorage(storage.Prefixed(s.backend, clientKey), s.logger)
	return enhance.New(enhance.Options{
		Site:           s.cfg.Site,
		Storage:        store,
		Logger:         s.logger,
		RestoreTimeout: s.cfg.RestoreTimeout,
	})
}

func (s *Server) fetchOrigin(ctx context.Context, pagePath, rawQuery string) (*originPage, error) {
	if page, ok := s.cache.Select(pagePath, rawQuery); ok {
		return page, nil
	}
	page, err := s.origin.Fetch(ctx, pagePath, rawQuery)
	if err != nil {
		return nil, err
	}
	s.cache.Store(pagePath, rawQuery, page)
	return page, nil
}

func (s *Server) loadDocument(ctx context.Context, pagePath string) (*dom.Document, error) {
	page, err := s.fetchOrigin(ctx, pagePath, "")
	if err != nil {
		return nil, err
	}
	if !page.isHTML() {
		return nil, errNotHTML
	}
	return dom.Parse(bytes.NewReader(page.Body), pagePath)
}

func (s *Server) originError(w http.ResponseWriter, pagePath string, err error) {
	switch {
	case errors.Is(err, errOriginNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, errNotHTML):
		http.Error(w, err.Error(), http.StatusUnsupportedMediaType)
	default:
		s.logger.Printf("ERR origin %s: %v", pagePath, err)
		http.Error(w, "origin unavailable", http.StatusBadGateway)
	}
}

func (s *Server) writeRaw(w http.ResponseWriter, page *originPage) {
	w.Header().Set("Content-Type", page.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(page.Body)))
	w.WriteHeader(page.Status)
	_, _ = w.Write(page.Body)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		s.logger.Printf("ERR encode: %v", err)
	}
}

func findAction(doc *dom.Document, action string) *html.Node {
	nodes, err := doc.QueryAll("[" + enhance.ActionAttr + "]")
	if err != nil {
		return nil
	}
	for _, n := range nodes {
		if dom.Attr(n, enhance.ActionAttr) == action {
			return n
		}
	}
	return nil
}

func printFilename(pagePath, action string) string {
	safe := func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_':
			return r
		}
		return '-'
	}
	name := strings.Trim(strings.Map(safe, pagePath), "-.")
	action = strings.Map(safe, action)
	if name == "" {
		name = "index"
	}
	return name + "-" + action + ".pdf"
}

func parseFormBool(v string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true, true
	case "", "0", "false", "off", "no":
		return false, true
	}
	return false, false
}
