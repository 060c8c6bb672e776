package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/canco/internal/shape"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestShape creates a selected rectangle with the given id and zIndex.
func createTestShape(id string, z int64) shape.Shape {
	return shape.Shape{
		ID:         id,
		Kind:       shape.KindRectangle,
		X:          10,
		Y:          10,
		Width:      40,
		Height:     30,
		Color:      "white",
		IsSelected: true,
		ZIndex:     z,
	}
}

// createTestOperation wraps a payload in an operation with a fixed timestamp.
func createTestOperation(id string, p shape.Payload) shape.Operation {
	return shape.Operation{ID: id, Timestamp: 1704067200000, Payload: p}
}

func selectPayload(id string) shape.Payload {
	return shape.SelectShape{ID: id}
}
