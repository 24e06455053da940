package proxy

import (
	"sync"
	"time"
)

type cacheEntry struct {
	page    originPage
	created time.Time
}

// originCache keeps raw origin responses for a short time so the page,
// state and action endpoints of one visit do not refetch the origin.
// Enhanced output is never cached: it depends on the client.
type originCache struct {
	mu   sync.RWMutex
	now  func() time.Time
	ttl  time.Duration
	data map[string]cacheEntry
}

func newOriginCache(now func() time.Time, ttl time.Duration) *originCache {
	if now == nil {
		now = time.Now
	}
	return &originCache{
		now:  now,
		ttl:  ttl,
		data: make(map[string]cacheEntry),
	}
}

func cacheKey(pagePath, rawQuery string) string {
	if rawQuery == "" {
		return pagePath
	}
	return pagePath + "?" + rawQuery
}

func (c *originCache) Store(pagePath, rawQuery string, page *originPage) {
	if c == nil || c.ttl <= 0 || page == nil || page.Status != 200 {
		return
	}
	entry := cacheEntry{
		page: originPage{
			Status:      page.Status,
			ContentType: page.ContentType,
			Body:        append([]byte(nil), page.Body...),
		},
		created: c.now(),
	}
	c.mu.Lock()
	c.data[cacheKey(pagePath, rawQuery)] = entry
	c.mu.Unlock()
}

func (c *originCache) Select(pagePath, rawQuery string) (*originPage, bool) {
	if c == nil || c.ttl <= 0 {
		return nil, false
	}
	key := cacheKey(pagePath, rawQuery)
	c.mu.RLock()
	entry, ok := c.data[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.created) >= c.ttl {
		c.mu.Lock()
		if cur, ok := c.data[key]; ok && cur.created.Equal(entry.created) {
			delete(c.data, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	page := entry.page
	page.Body = append([]byte(nil), entry.page.Body...)
	return &page, true
}
