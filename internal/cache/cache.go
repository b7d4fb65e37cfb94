package cache

import (
	"bytes"
	"net/http"
	"sync"
	"time"
)

// Cache is a TTL response cache for read-heavy catalog endpoints. Entries are
// keyed by request path and invalidated exactly by key on catalog writes, so
// the cache never observes domain state.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
}

type entry struct {
	body        []byte
	contentType string
	expiresAt   time.Time
}

func New(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
	}
}

func (c *Cache) Get(key string) ([]byte, string, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(e.expiresAt) {
		return nil, "", false
	}
	return e.body, e.contentType, true
}

func (c *Cache) Set(key, contentType string, body []byte) {
	c.mu.Lock()
	c.entries[key] = entry{
		body:        body,
		contentType: contentType,
		expiresAt:   time.Now().Add(c.ttl),
	}
	c.mu.Unlock()
}

// Invalidate drops the given keys. Prefix matching is deliberately not
// supported; writers name the exact paths they dirty.
func (c *Cache) Invalidate(keys ...string) {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	c.mu.Unlock()
}

// Middleware caches successful GET responses by URL path.
func (c *Cache) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}

		key := r.URL.Path
		if body, contentType, ok := c.Get(key); ok {
			w.Header().Set("Content-Type", contentType)
			w.Header().Set("X-Cache", "HIT")
			w.WriteHeader(http.StatusOK)
			w.Write(body) //nolint:errcheck
			return
		}

		rec := &recorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		if rec.status == http.StatusOK {
			c.Set(key, rec.Header().Get("Content-Type"), rec.buf.Bytes())
		}
	})
}

// recorder tees the response body so it can be cached after writing through.
type recorder struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (r *recorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *recorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}
