package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"churnguard/pipeline"
)

const redisPrefix = "churnguard:prediction:"

// Redis shares cached predictions between replicas.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects lazily; the first command dials.
func NewRedis(addr string, ttl time.Duration) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 500 * time.Millisecond,
		MaxRetries:  -1,
	})
	return &Redis{client: rdb, ttl: ttl}
}

// Ping checks the server is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Get treats any error, including an unreachable server, as a miss.
func (r *Redis) Get(ctx context.Context, key string) (*pipeline.Prediction, bool) {
	val, err := r.client.Get(ctx, redisPrefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	return decodePrediction(val)
}

// decodePrediction rejects entries that fail the same checks as a fresh
// inference; another replica may have written them.
func decodePrediction(val []byte) (*pipeline.Prediction, bool) {
	var p pipeline.Prediction
	if err := json.Unmarshal(val, &p); err != nil {
		return nil, false
	}
	if err := p.Result.Check(); err != nil {
		return nil, false
	}
	return &p, true
}

func (r *Redis) Set(ctx context.Context, key string, p *pipeline.Prediction) error {
	val, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, redisPrefix+key, val, r.ttl).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
