package ml

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeArtifact marshals v as an artifact file at path.
func writeArtifact(t *testing.T, path string, v interface{}) {
	t.Helper()
	payload, err := json.MarshalIndent(v, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, payload, 0o600))
}

func writeLogistic(t *testing.T, path string, m *LogisticRegression) {
	t.Helper()
	writeArtifact(t, path, logisticArtifact{
		Type:         TypeLogisticRegression,
		Features:     m.columns,
		Coefficients: m.coefficients,
		Intercept:    m.intercept,
	})
}
