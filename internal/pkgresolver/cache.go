package pkgresolver

import "sync"

// cache 并发安全的字符串缓存
type cache struct {
	mu    sync.RWMutex
	items map[string]string
}

func newCache() *cache {
	return &cache{items: make(map[string]string)}
}

func (c *cache) get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[key]
	return v, ok
}

func (c *cache) set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
}
