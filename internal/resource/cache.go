package resource

import (
	"context"
	"sync"
)

// Cache memoizes a Provider by normalized path. It is meant to live for a
// single parse so that a document instanced several times is fetched once.
type Cache struct {
	src Provider

	mu     sync.Mutex
	texts  map[string]string
	hits   int
	misses int
}

// NewCache wraps src.
func NewCache(src Provider) *Cache {
	return &Cache{src: src, texts: make(map[string]string)}
}

// ReadText returns the cached text or fetches it. Failures are not cached.
func (c *Cache) ReadText(ctx context.Context, p string) (string, error) {
	key := Normalize("", p)
	c.mu.Lock()
	if text, ok := c.texts[key]; ok {
		c.hits++
		c.mu.Unlock()
		return text, nil
	}
	c.misses++
	c.mu.Unlock()

	text, err := c.src.ReadText(ctx, p)
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	c.texts[key] = text
	c.mu.Unlock()
	return text, nil
}

// Stats returns the hit and miss counts.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
