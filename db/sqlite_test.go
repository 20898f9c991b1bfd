package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *PredictionStore {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndListPredictions(t *testing.T) {
	store := openTemp(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		err := store.SavePrediction(PredictionRecord{
			ID:               id,
			RequestID:        "req-" + id,
			Record:           `{"tenure":12}`,
			Label:            i % 2,
			ChurnProbability: 0.25 * float64(i+1),
			Confidence:       0.8,
			ModelVersion:     "abc123",
			CreatedAt:        base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	got, err := store.RecentPredictions(2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
	assert.Equal(t, 1, got[1].Label)
	assert.Equal(t, "req-b", got[1].RequestID)
	assert.InDelta(t, 0.5, got[1].ChurnProbability, 1e-12)
	assert.True(t, got[0].CreatedAt.Equal(base.Add(2*time.Minute)))
}

func TestSavePredictionRequiresID(t *testing.T) {
	store := openTemp(t)
	assert.Error(t, store.SavePrediction(PredictionRecord{Record: "{}"}))
}

func TestDuplicatePredictionIDRejected(t *testing.T) {
	store := openTemp(t)
	p := PredictionRecord{ID: "same", Record: "{}", ModelVersion: "v"}
	require.NoError(t, store.SavePrediction(p))
	assert.Error(t, store.SavePrediction(p))
}

func TestArtifactLoads(t *testing.T) {
	store := openTemp(t)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, store.LogArtifactLoad(ArtifactLoad{Version: "v1", ModelType: "logistic_regression", Columns: 30, LoadedAt: now}))
	require.NoError(t, store.LogArtifactLoad(ArtifactLoad{Version: "v2", ModelType: "decision_tree", Columns: 30, LoadedAt: now.Add(time.Hour)}))

	loads, err := store.ArtifactLoads()
	require.NoError(t, err)
	require.Len(t, loads, 2)
	assert.Equal(t, "v2", loads[0].Version)
	assert.Equal(t, "decision_tree", loads[0].ModelType)
	assert.Equal(t, 30, loads[1].Columns)
}

func TestNilStore(t *testing.T) {
	var store *PredictionStore
	assert.NoError(t, store.Close())
	_, err := store.RecentPredictions(10)
	assert.Error(t, err)
}
