package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/canco/internal/shape"
)

// marshalOperation serializes an operation to its wire JSON for the data
// column.
func marshalOperation(op shape.Operation) (string, error) {
	b, err := json.Marshal(op)
	if err != nil {
		return "", fmt.Errorf("marshal operation %s: %w", op.ID, err)
	}
	return string(b), nil
}

// unmarshalOperation decodes the data column back into an operation.
func unmarshalOperation(data string) (shape.Operation, error) {
	var op shape.Operation
	if err := json.Unmarshal([]byte(data), &op); err != nil {
		return shape.Operation{}, fmt.Errorf("unmarshal operation: %w", err)
	}
	return op, nil
}
