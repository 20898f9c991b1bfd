package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"churnguard/customer"
	"churnguard/pipeline"
)

func TestKey(t *testing.T) {
	r := customer.Record{Tenure: 12, Contract: "One year"}

	assert.Equal(t, Key("v1", r), Key("v1", r))
	assert.NotEqual(t, Key("v1", r), Key("v2", r))

	other := r
	other.Tenure = 13
	assert.NotEqual(t, Key("v1", r), Key("v1", other))
}

func TestLRUEvictsOldest(t *testing.T) {
	ctx := context.Background()
	c, err := NewLRU(2)
	require.NoError(t, err)

	for i, key := range []string{"a", "b", "c"} {
		require.NoError(t, c.Set(ctx, key, &pipeline.Prediction{Result: pipeline.Result{Label: i % 2}}))
	}

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get(ctx, "a")
	assert.False(t, ok)
	got, ok := c.Get(ctx, "c")
	require.True(t, ok)
	assert.Equal(t, 0, got.Result.Label)

	require.NoError(t, c.Close())
	assert.Zero(t, c.Len())
}

func TestNewLRURejectsZeroSize(t *testing.T) {
	_, err := NewLRU(0)
	assert.Error(t, err)
}

func TestNoop(t *testing.T) {
	var c Cache = Noop{}
	require.NoError(t, c.Set(context.Background(), "k", &pipeline.Prediction{}))
	_, ok := c.Get(context.Background(), "k")
	assert.False(t, ok)
}

func TestRedisUnreachableIsMiss(t *testing.T) {
	c := NewRedis("127.0.0.1:1", time.Minute)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
	assert.Error(t, c.Set(ctx, "k", &pipeline.Prediction{}))
	assert.Error(t, c.Ping(ctx))
}

func TestDecodePredictionChecksResult(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		ok      bool
	}{
		{"valid", `{"result":{"label":1,"probabilities":[0.25,0.75]},"version":"v1"}`, true},
		{"not json", `{"result":`, false},
		{"label out of range", `{"result":{"label":3,"probabilities":[0.25,0.75]}}`, false},
		{"probability above one", `{"result":{"label":1,"probabilities":[-0.5,1.5]}}`, false},
		{"does not sum to one", `{"result":{"label":0,"probabilities":[0.6,0.6]}}`, false},
		{"missing result", `{"version":"v1"}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := decodePrediction([]byte(tt.payload))
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, 0.75, p.Result.ChurnProbability())
			} else {
				assert.Nil(t, p)
			}
		})
	}
}
