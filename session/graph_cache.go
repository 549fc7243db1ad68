package session

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultGraphCacheSize = 64

// graphCache keeps the DOT renderings of rules. An entry is invalidated when the diagnostics of its rule
// change, and the whole cache is purged when the grammar is rebuilt.
type graphCache struct {
	graphs *lru.Cache[string, string]
}

func newGraphCache(size int) (*graphCache, error) {
	if size <= 0 {
		size = defaultGraphCacheSize
	}
	graphs, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &graphCache{
		graphs: graphs,
	}, nil
}

func (c *graphCache) get(rule string) (string, bool) {
	return c.graphs.Get(rule)
}

func (c *graphCache) add(rule, graph string) {
	c.graphs.Add(rule, graph)
}

func (c *graphCache) InvalidateRule(name string) {
	c.graphs.Remove(name)
}

func (c *graphCache) purge() {
	c.graphs.Purge()
}

func (c *graphCache) len() int {
	return c.graphs.Len()
}
