package api

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// lookupCache keeps the decoded response for recently requested keys. The
// served kosha is immutable, so entries never go stale.
type lookupCache struct {
	cache *lru.Cache[string, *PadasResponse]
}

// newLookupCache returns nil when size <= 0; a nil cache misses every time.
func newLookupCache(size int) (*lookupCache, error) {
	if size <= 0 {
		return nil, nil
	}
	c, err := lru.New[string, *PadasResponse](size)
	if err != nil {
		return nil, err
	}
	return &lookupCache{cache: c}, nil
}

func (c *lookupCache) get(key string) (*PadasResponse, bool) {
	if c == nil {
		return nil, false
	}
	return c.cache.Get(key)
}

func (c *lookupCache) add(key string, resp *PadasResponse) {
	if c == nil {
		return
	}
	c.cache.Add(key, resp)
}

func (c *lookupCache) len() int {
	if c == nil {
		return 0
	}
	return c.cache.Len()
}
