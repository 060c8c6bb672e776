package store

import (
	"context"
	"testing"
	"time"

	"github.com/roach88/canco/internal/shape"
)

func TestWriteOperation_Basic(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	op := createTestOperation("op-1", shape.CreateShape{Shape: createTestShape("s-1", 1)})
	isNew, err := s.WriteOperation(ctx, "room-1", op)
	if err != nil {
		t.Fatalf("WriteOperation() failed: %v", err)
	}
	if !isNew {
		t.Error("first write should report a new operation")
	}

	var roomID, opType, data string
	var ts int64
	err = s.db.QueryRow(`SELECT room_id, type, timestamp, data FROM operations WHERE id = ?`, "op-1").
		Scan(&roomID, &opType, &ts, &data)
	if err != nil {
		t.Fatalf("query operation: %v", err)
	}
	if roomID != "room-1" {
		t.Errorf("room_id = %q, want %q", roomID, "room-1")
	}
	if opType != string(shape.OpCreateShape) {
		t.Errorf("type = %q, want %q", opType, shape.OpCreateShape)
	}
	if ts != op.Timestamp {
		t.Errorf("timestamp = %d, want %d", ts, op.Timestamp)
	}

	got, err := unmarshalOperation(data)
	if err != nil {
		t.Fatalf("unmarshal data column: %v", err)
	}
	if got.ID != op.ID || got.Payload != op.Payload {
		t.Errorf("data column decodes to %+v, want %+v", got, op)
	}
}

func TestWriteOperation_CreatesRoom(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.WriteOperation(ctx, "auto", createTestOperation("op-1", shape.DeselectAll{})); err != nil {
		t.Fatalf("WriteOperation() failed: %v", err)
	}

	exists, err := s.RoomExists(ctx, "auto")
	if err != nil {
		t.Fatalf("RoomExists() failed: %v", err)
	}
	if !exists {
		t.Error("writing an operation should create its room")
	}
}

func TestWriteOperation_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	op := createTestOperation("op-dup", selectPayload("s-1"))

	for i := 0; i < 3; i++ {
		isNew, err := s.WriteOperation(ctx, "room-1", op)
		if err != nil {
			t.Fatalf("WriteOperation() iteration %d failed: %v", i, err)
		}
		if want := i == 0; isNew != want {
			t.Errorf("iteration %d: isNew = %v, want %v", i, isNew, want)
		}
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM operations`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("operations = %d, want 1", count)
	}
}

func TestWriteOperation_RejectsNilPayload(t *testing.T) {
	s := createTestStore(t)

	_, err := s.WriteOperation(context.Background(), "room-1", shape.Operation{ID: "bad"})
	if err == nil {
		t.Fatal("expected error for operation without payload")
	}

	exists, err := s.RoomExists(context.Background(), "room-1")
	if err != nil {
		t.Fatalf("RoomExists() failed: %v", err)
	}
	if exists {
		t.Error("failed write must not create the room")
	}
}

func TestCreateRoom_KeepsOriginalTime(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first := time.UnixMilli(1000)
	if err := s.CreateRoom(ctx, "room-1", first); err != nil {
		t.Fatalf("CreateRoom() failed: %v", err)
	}
	if err := s.CreateRoom(ctx, "room-1", time.UnixMilli(2000)); err != nil {
		t.Fatalf("second CreateRoom() failed: %v", err)
	}

	rooms, err := s.ListRooms(ctx)
	if err != nil {
		t.Fatalf("ListRooms() failed: %v", err)
	}
	if len(rooms) != 1 {
		t.Fatalf("len(rooms) = %d, want 1", len(rooms))
	}
	if rooms[0].CreatedAt != 1000 {
		t.Errorf("CreatedAt = %d, want 1000", rooms[0].CreatedAt)
	}
}
