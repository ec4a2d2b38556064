package store

import (
	"encoding/json"
	"fmt"
)

// marshalWarnings encodes warnings as a JSON array. Nil becomes "[]" so the
// column is never NULL.
func marshalWarnings(warnings []string) (string, error) {
	if warnings == nil {
		warnings = []string{}
	}
	data, err := json.Marshal(warnings)
	if err != nil {
		return "", fmt.Errorf("marshal warnings: %w", err)
	}
	return string(data), nil
}

func unmarshalWarnings(data string) ([]string, error) {
	warnings := []string{}
	if err := json.Unmarshal([]byte(data), &warnings); err != nil {
		return nil, fmt.Errorf("unmarshal warnings: %w", err)
	}
	return warnings, nil
}
