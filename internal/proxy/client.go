package proxy

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const clientCookieName = "PAGEKIT_CLIENT"

const clientTTL = 365 * 24 * time.Hour

type clientEntry struct {
	mu       sync.Mutex
	lastSeen time.Time
}

// clientStore serialises requests per client so concurrent toggles from
// one browser cannot interleave their read-modify-write of the state map.
type clientStore struct {
	mu      sync.Mutex
	clients map[string]*clientEntry
	idle    time.Duration
	clock   func() time.Time
}

func newClientStore(clock func() time.Time) *clientStore {
	if clock == nil {
		clock = time.Now
	}
	return &clientStore{clients: make(map[string]*clientEntry), idle: time.Hour, clock: clock}
}

// lock acquires the per-client lock and returns its release.
func (s *clientStore) lock(key string) func() {
	s.mu.Lock()
	now := s.clock()
	e, ok := s.clients[key]
	if !ok {
		e = &clientEntry{}
		s.clients[key] = e
	}
	e.lastSeen = now
	s.sweepLocked(now)
	s.mu.Unlock()

	e.mu.Lock()
	return e.mu.Unlock
}

func (s *clientStore) sweepLocked(now time.Time) {
	for k, e := range s.clients {
		if now.Sub(e.lastSeen) <= s.idle {
			continue
		}
		if e.mu.TryLock() {
			delete(s.clients, k)
			e.mu.Unlock()
		}
	}
}

func (s *clientStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *clientStore) cookieFor(id string) *http.Cookie {
	return &http.Cookie{
		Name:     clientCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  s.clock().Add(clientTTL),
	}
}

// clientKeyFromRequest prefers the identity cookie and falls back to the
// remote host and user agent.
func clientKeyFromRequest(r *http.Request) (string, bool) {
	if c, err := r.Cookie(clientCookieName); err == nil && c != nil {
		if id, err := uuid.Parse(strings.TrimSpace(c.Value)); err == nil {
			return id.String(), true
		}
	}
	return deriveClientKey(r), false
}

// ensureClient returns the client key for r. When the browser carries no
// identity yet a fresh one is issued on w.
func (s *clientStore) ensureClient(w http.ResponseWriter, r *http.Request) string {
	if key, ok := clientKeyFromRequest(r); ok {
		return key
	}
	id := uuid.NewString()
	http.SetCookie(w, s.cookieFor(id))
	return id
}

func deriveClientKey(r *http.Request) string {
	host := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if i := strings.IndexByte(host, ','); i != -1 {
		host = strings.TrimSpace(host[:i])
	}
	if host == "" {
		var err error
		host, _, err = net.SplitHostPort(r.RemoteAddr)
		if err != nil || host == "" {
			host = r.RemoteAddr
		}
	}
	return host + "|" + r.UserAgent()
}
