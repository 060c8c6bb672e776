package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/canco/internal/shape"
)

func TestTraceMissingDatabaseFlag(t *testing.T) {
	_, err := execute(t, NewTraceCommand(&RootOptions{Format: "text"}), "--room", testRoom)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestTraceMissingRoomFlag(t *testing.T) {
	dbPath := seedDatabase(t)

	_, err := execute(t, NewTraceCommand(&RootOptions{Format: "text"}), "--db", dbPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestTraceUnknownRoom(t *testing.T) {
	dbPath := seedDatabase(t)

	out, err := execute(t, NewTraceCommand(&RootOptions{Format: "text"}), "--db", dbPath, "--room", "missing")
	require.NoError(t, err)
	assert.Contains(t, out, "No operations found for room: missing")
}

func TestTraceWithRoom(t *testing.T) {
	dbPath := seedDatabase(t, boardOps()...)

	out, err := execute(t, NewTraceCommand(&RootOptions{Format: "text"}), "--db", dbPath, "--room", testRoom)
	require.NoError(t, err)
	assert.Contains(t, out, "Room: board")
	assert.Contains(t, out, "[1] 2024-01-01T00:00:00Z CREATE_SHAPE s-1")
	assert.Contains(t, out, "[3] 2024-01-01T00:00:00.002Z SELECT_SHAPE s-1")
	assert.Contains(t, out, "[4] 2024-01-01T00:00:00.003Z DELETE_SHAPE s-2")
	assert.Contains(t, out, "Operations: 4")
	assert.Contains(t, out, "CREATE_SHAPE: 2")
	assert.Contains(t, out, "Shapes: 1")
}

func TestTraceVerboseShowsData(t *testing.T) {
	dbPath := seedDatabase(t, boardOps()...)

	out, err := execute(t, NewTraceCommand(&RootOptions{Format: "text", Verbose: true}), "--db", dbPath, "--room", testRoom, "--type", "delete_shape")
	require.NoError(t, err)
	assert.Contains(t, out, "id: op-4")
	assert.Contains(t, out, `data: {"id":"s-2"}`)
	assert.NotContains(t, out, "CREATE_SHAPE s-1")
}

func TestTraceWithRoomJSON(t *testing.T) {
	dbPath := seedDatabase(t, boardOps()...)

	out, err := execute(t, NewTraceCommand(&RootOptions{Format: "json"}), "--db", dbPath, "--room", testRoom)
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, testRoom, resp.Data.Room)
	require.Len(t, resp.Data.Timeline, 4)
	assert.Equal(t, "op-2", resp.Data.Timeline[1].ID)
	assert.Equal(t, shape.OpCreateShape, resp.Data.Timeline[1].Type)
	assert.Equal(t, 4, resp.Data.Stats.TotalOperations)
	assert.Equal(t, 2, resp.Data.Stats.ByType[shape.OpCreateShape])
	assert.Equal(t, 1, resp.Data.Stats.Shapes)
}

func TestTraceInvalidTypeFilter(t *testing.T) {
	dbPath := seedDatabase(t, boardOps()...)

	_, err := execute(t, NewTraceCommand(&RootOptions{Format: "text"}), "--db", dbPath, "--room", testRoom, "--type", "ROTATE")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestBuildTimeline_FilterKeepsPosition(t *testing.T) {
	timeline, err := buildTimeline(boardOps(), shape.OpSelectShape)
	require.NoError(t, err)
	require.Len(t, timeline, 1)
	assert.Equal(t, 3, timeline[0].Seq)
	assert.Equal(t, "s-1", timeline[0].Target)
	assert.Equal(t, map[string]any{"id": "s-1"}, timeline[0].Data)
}

func TestBuildTimeline_DeselectAllHasNoTarget(t *testing.T) {
	timeline, err := buildTimeline([]shape.Operation{testOp("op-1", 1, shape.DeselectAll{})}, "")
	require.NoError(t, err)
	require.Len(t, timeline, 1)
	assert.Empty(t, timeline[0].Target)
	assert.Empty(t, timeline[0].Data)
}

func TestTruncateID(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"s-1", "s-1"},
		{"abcdefghijkl", "abcdefghijkl"},
		{"0190e3b2-7c4e-7a1b-9c1d-2e3f4a5b6c7d", "0190e3b2..."},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, truncateID(tt.input))
		})
	}
}

func TestSortedTypes(t *testing.T) {
	types := sortedTypes(map[shape.OpType]int{
		shape.OpUpdateShape: 1,
		shape.OpCreateShape: 2,
		shape.OpDeleteShape: 1,
	})
	assert.Equal(t, []shape.OpType{shape.OpCreateShape, shape.OpDeleteShape, shape.OpUpdateShape}, types)
}
