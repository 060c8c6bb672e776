package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/canco/internal/shape"
	"github.com/roach88/canco/internal/store"
)

const testRoom = "board"

func testShape(id string, kind shape.Kind, z int64) shape.Shape {
	return shape.Shape{
		ID:     id,
		Kind:   kind,
		X:      10,
		Y:      20,
		Width:  40,
		Height: 30,
		Color:  "white",
		ZIndex: z,
	}
}

func testOp(id string, ts int64, p shape.Payload) shape.Operation {
	return shape.Operation{ID: id, Timestamp: ts, Payload: p}
}

// boardOps draws two shapes, selects one and deletes the other.
func boardOps() []shape.Operation {
	return []shape.Operation{
		testOp("op-1", 1704067200000, shape.CreateShape{Shape: testShape("s-1", shape.KindRectangle, 1)}),
		testOp("op-2", 1704067200001, shape.CreateShape{Shape: testShape("s-2", shape.KindCircle, 2)}),
		testOp("op-3", 1704067200002, shape.SelectShape{ID: "s-1"}),
		testOp("op-4", 1704067200003, shape.DeleteShape{ID: "s-2"}),
	}
}

// seedDatabase writes ops into testRoom of a new database and returns its path.
func seedDatabase(t *testing.T, ops ...shape.Operation) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "canco.db")
	ctx := context.Background()

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.CreateRoom(ctx, testRoom, time.UnixMilli(1704067200000)))
	for _, op := range ops {
		_, err := st.WriteOperation(ctx, testRoom, op)
		require.NoError(t, err)
	}
	return dbPath
}

// execute runs a command with args and returns its stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}
