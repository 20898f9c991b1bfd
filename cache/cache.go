// Package cache holds finished predictions keyed by artifact version and
// record content. The pipeline is deterministic, so a hit is always the
// answer a fresh run would give.
package cache

import (
	"context"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"churnguard/customer"
	"churnguard/pipeline"
)

// Cache is implemented by the in-process LRU and the Redis backend.
// Cached predictions are shared and must not be modified.
type Cache interface {
	Get(ctx context.Context, key string) (*pipeline.Prediction, bool)
	Set(ctx context.Context, key string, p *pipeline.Prediction) error
	Close() error
}

// Key identifies a record under one artifact version. A reload changes the
// version, so stale entries are never read again.
func Key(version string, record customer.Record) string {
	return fmt.Sprintf("%s:%016x", version, xxhash.Sum64(record.Canonical()))
}

// Noop caches nothing.
type Noop struct{}

func (Noop) Get(context.Context, string) (*pipeline.Prediction, bool) { return nil, false }

func (Noop) Set(context.Context, string, *pipeline.Prediction) error { return nil }

func (Noop) Close() error { return nil }
