package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// LoadColumns reads the canonical, ordered feature-column list.
func LoadColumns(path string) ([]string, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeColumns(payload)
}

func DecodeColumns(payload []byte) ([]string, error) {
	var columns []string
	if err := json.Unmarshal(payload, &columns); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, errors.New("column list is empty")
	}
	seen := make(map[string]struct{}, len(columns))
	for i, col := range columns {
		if col == "" {
			return nil, fmt.Errorf("column %d has no name", i)
		}
		if _, dup := seen[col]; dup {
			return nil, fmt.Errorf("duplicate column %q", col)
		}
		seen[col] = struct{}{}
	}
	return columns, nil
}
