package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"churnguard/pipeline"
)

// LRU is a fixed-size in-process cache.
type LRU struct {
	entries *lru.Cache[string, *pipeline.Prediction]
}

func NewLRU(size int) (*LRU, error) {
	entries, err := lru.New[string, *pipeline.Prediction](size)
	if err != nil {
		return nil, err
	}
	return &LRU{entries: entries}, nil
}

func (c *LRU) Get(_ context.Context, key string) (*pipeline.Prediction, bool) {
	return c.entries.Get(key)
}

func (c *LRU) Set(_ context.Context, key string, p *pipeline.Prediction) error {
	c.entries.Add(key, p)
	return nil
}

func (c *LRU) Len() int {
	return c.entries.Len()
}

func (c *LRU) Close() error {
	c.entries.Purge()
	return nil
}
