package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/roach88/canco/internal/shape"
)

func TestReadRoom_Empty(t *testing.T) {
	s := createTestStore(t)

	ops, err := s.ReadRoom(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("ReadRoom() failed: %v", err)
	}
	if ops == nil {
		t.Error("ops is nil, want empty slice")
	}
	if len(ops) != 0 {
		t.Errorf("len(ops) = %d, want 0", len(ops))
	}
}

func TestReadRoom_ArrivalOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	// Ids deliberately sort opposite to arrival order.
	ids := []string{"op-c", "op-b", "op-a"}
	for _, id := range ids {
		if _, err := s.WriteOperation(ctx, "room-1", createTestOperation(id, selectPayload("s"))); err != nil {
			t.Fatalf("WriteOperation(%s) failed: %v", id, err)
		}
	}

	ops, err := s.ReadRoom(ctx, "room-1")
	if err != nil {
		t.Fatalf("ReadRoom() failed: %v", err)
	}
	if len(ops) != len(ids) {
		t.Fatalf("len(ops) = %d, want %d", len(ops), len(ids))
	}
	for i, id := range ids {
		if ops[i].ID != id {
			t.Errorf("ops[%d].ID = %q, want %q", i, ops[i].ID, id)
		}
	}
}

func TestReadRoom_IsolatesRooms(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		room := fmt.Sprintf("room-%d", i%2)
		op := createTestOperation(fmt.Sprintf("op-%d", i), shape.DeselectAll{})
		if _, err := s.WriteOperation(ctx, room, op); err != nil {
			t.Fatalf("WriteOperation() failed: %v", err)
		}
	}

	ops, err := s.ReadRoom(ctx, "room-1")
	if err != nil {
		t.Fatalf("ReadRoom() failed: %v", err)
	}
	if len(ops) != 2 || ops[0].ID != "op-1" || ops[1].ID != "op-3" {
		t.Errorf("room-1 ops = %+v, want op-1 then op-3", ops)
	}
}

func TestRoomExists(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.CreateRoom(ctx, "present", time.UnixMilli(1)); err != nil {
		t.Fatalf("CreateRoom() failed: %v", err)
	}

	tests := []struct {
		id   string
		want bool
	}{
		{"present", true},
		{"absent", false},
	}
	for _, tt := range tests {
		got, err := s.RoomExists(ctx, tt.id)
		if err != nil {
			t.Fatalf("RoomExists(%q) failed: %v", tt.id, err)
		}
		if got != tt.want {
			t.Errorf("RoomExists(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestListRooms(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if rooms, err := s.ListRooms(ctx); err != nil || rooms == nil || len(rooms) != 0 {
		t.Fatalf("ListRooms() on empty store = %v, %v; want empty slice", rooms, err)
	}

	if err := s.CreateRoom(ctx, "b", time.UnixMilli(10)); err != nil {
		t.Fatalf("CreateRoom(b) failed: %v", err)
	}
	if err := s.CreateRoom(ctx, "a", time.UnixMilli(10)); err != nil {
		t.Fatalf("CreateRoom(a) failed: %v", err)
	}
	if err := s.CreateRoom(ctx, "early", time.UnixMilli(5)); err != nil {
		t.Fatalf("CreateRoom(early) failed: %v", err)
	}
	for _, id := range []string{"op-1", "op-2"} {
		if _, err := s.WriteOperation(ctx, "b", createTestOperation(id, shape.DeselectAll{})); err != nil {
			t.Fatalf("WriteOperation() failed: %v", err)
		}
	}

	rooms, err := s.ListRooms(ctx)
	if err != nil {
		t.Fatalf("ListRooms() failed: %v", err)
	}
	want := []Room{
		{ID: "early", CreatedAt: 5, Operations: 0},
		{ID: "a", CreatedAt: 10, Operations: 0},
		{ID: "b", CreatedAt: 10, Operations: 2},
	}
	if len(rooms) != len(want) {
		t.Fatalf("rooms = %+v, want %+v", rooms, want)
	}
	for i := range want {
		if rooms[i] != want[i] {
			t.Errorf("rooms[%d] = %+v, want %+v", i, rooms[i], want[i])
		}
	}
}

func TestStats(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	ops := []shape.Operation{
		createTestOperation("op-1", shape.CreateShape{Shape: createTestShape("s-1", 1)}),
		createTestOperation("op-2", shape.UpdateShape{ID: "s-1", Changes: shape.Patch{X: shape.Float(3)}}),
		createTestOperation("op-3", shape.UpdateShape{ID: "s-1", Changes: shape.Patch{Y: shape.Float(4)}}),
		createTestOperation("op-4", shape.DeselectAll{}),
	}
	for _, op := range ops {
		if _, err := s.WriteOperation(ctx, "room-1", op); err != nil {
			t.Fatalf("WriteOperation() failed: %v", err)
		}
	}

	stats, err := s.Stats(ctx, "room-1")
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	want := map[shape.OpType]int{
		shape.OpCreateShape: 1,
		shape.OpUpdateShape: 2,
		shape.OpDeselectAll: 1,
	}
	if len(stats) != len(want) {
		t.Fatalf("stats = %v, want %v", stats, want)
	}
	for k, v := range want {
		if stats[k] != v {
			t.Errorf("stats[%s] = %d, want %d", k, stats[k], v)
		}
	}
}
