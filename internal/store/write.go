package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/canco/internal/shape"
)

// CreateRoom registers a room. Uses ON CONFLICT(id) DO NOTHING, so creating
// an existing room keeps its original creation time.
func (s *Store) CreateRoom(ctx context.Context, id string, createdAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rooms (id, created_at)
		VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, createdAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	return nil
}

// WriteOperation appends op to the room's journal, creating the room if
// needed. Duplicate operation ids are silently ignored.
//
// Returns true when the operation was new.
func (s *Store) WriteOperation(ctx context.Context, roomID string, op shape.Operation) (bool, error) {
	data, err := marshalOperation(op)
	if err != nil {
		return false, fmt.Errorf("write operation: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("write operation: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO rooms (id, created_at)
		VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, roomID, time.Now().UnixMilli()); err != nil {
		return false, fmt.Errorf("write operation: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO operations (room_id, id, type, timestamp, data)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, roomID, op.ID, string(op.Type()), op.Timestamp, data)
	if err != nil {
		return false, fmt.Errorf("write operation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("write operation: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write operation: %w", err)
	}
	return n == 1, nil
}
