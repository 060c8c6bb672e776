package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/canco/internal/shape"
)

// Room summarizes a journaled room.
type Room struct {
	ID         string `json:"id"`
	CreatedAt  int64  `json:"createdAt"`
	Operations int    `json:"operations"`
}

// ReadRoom returns the room's operations in arrival order (ORDER BY seq).
//
// Returns an empty slice (not nil) if the room has no operations.
func (s *Store) ReadRoom(ctx context.Context, roomID string) ([]shape.Operation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT data
		FROM operations
		WHERE room_id = ?
		ORDER BY seq ASC
	`, roomID)
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	defer rows.Close()

	ops := []shape.Operation{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		op, err := unmarshalOperation(data)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operations: %w", err)
	}
	return ops, nil
}

// RoomExists reports whether a room has been created.
func (s *Store) RoomExists(ctx context.Context, roomID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM rooms WHERE id = ?`, roomID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("room exists: %w", err)
	}
	return true, nil
}

// ListRooms returns every room ordered by creation time, then id.
//
// Returns an empty slice (not nil) if no rooms exist.
func (s *Store) ListRooms(ctx context.Context) ([]Room, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.created_at, COUNT(o.seq)
		FROM rooms r
		LEFT JOIN operations o ON o.room_id = r.id
		GROUP BY r.id, r.created_at
		ORDER BY r.created_at ASC, r.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query rooms: %w", err)
	}
	defer rows.Close()

	rooms := []Room{}
	for rows.Next() {
		var r Room
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.Operations); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rooms: %w", err)
	}
	return rooms, nil
}

// Stats counts a room's operations by type.
func (s *Store) Stats(ctx context.Context, roomID string) (map[shape.OpType]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT type, COUNT(*)
		FROM operations
		WHERE room_id = ?
		GROUP BY type
	`, roomID)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[shape.OpType]int)
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats[shape.OpType(t)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats: %w", err)
	}
	return stats, nil
}
