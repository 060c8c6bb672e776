package store

import (
	"context"
	"fmt"

	"github.com/roach88/canco/internal/canvas"
)

// ReplayResult is a room state rebuilt from its journal.
type ReplayResult struct {
	RoomID     string
	State      canvas.State
	Operations int
	Hash       string
}

// ReplayRoom folds the room's journal over the empty canvas. Replaying the
// same journal always yields the same state and hash.
func (s *Store) ReplayRoom(ctx context.Context, roomID string) (ReplayResult, error) {
	ops, err := s.ReadRoom(ctx, roomID)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay room %s: %w", roomID, err)
	}

	st := canvas.Replay(canvas.Empty(), ops)
	hash, err := st.Hash()
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay room %s: %w", roomID, err)
	}

	return ReplayResult{
		RoomID:     roomID,
		State:      st,
		Operations: len(ops),
		Hash:       hash,
	}, nil
}
