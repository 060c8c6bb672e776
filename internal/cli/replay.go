package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/canco/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Room     string // optional - specific room only
}

// ReplayRoomResult holds the replay result for a single room.
type ReplayRoomResult struct {
	Room          string `json:"room"`
	Operations    int    `json:"operations"`
	Shapes        int    `json:"shapes"`
	Selected      string `json:"selected,omitempty"`
	Hash          string `json:"hash"`
	Deterministic bool   `json:"deterministic"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Rooms            []ReplayRoomResult `json:"rooms"`
	TotalRooms       int                `json:"total_rooms"`
	AllDeterministic bool               `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay room journals and verify determinism",
		Long: `Replay the operation journal of each room and verify determinism.

Every room is folded over the empty canvas twice and the canonical state
hashes are compared. The report lists operations, shapes and the hash.

Exit codes:
  0 - All rooms are deterministic
  1 - Determinism verification failed (hashes differ)
  2 - Command error (database not found, room not found, etc.)

Examples:
  canco replay --db ./canco.db
  canco replay --db ./canco.db --room 6f1c...
  canco replay --db ./canco.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Room, "room", "", "replay specific room only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()

	st, err := openStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	var rooms []string
	if opts.Room != "" {
		exists, err := st.RoomExists(ctx, opts.Room)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to look up room", err)
		}
		if !exists {
			return NewExitError(ExitCommandError, fmt.Sprintf("room not found: %s", opts.Room))
		}
		rooms = []string{opts.Room}
	} else {
		list, err := st.ListRooms(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list rooms", err)
		}
		for _, r := range list {
			rooms = append(rooms, r.ID)
		}
	}

	result := ReplayResult{
		Rooms:            make([]ReplayRoomResult, 0, len(rooms)),
		TotalRooms:       len(rooms),
		AllDeterministic: true,
	}

	if len(rooms) == 0 {
		if opts.Format == "json" {
			return outputReplayJSON(cmd, result)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No rooms found in database.")
		return nil
	}

	for _, id := range rooms {
		roomResult, err := replayAndVerifyRoom(ctx, st, id)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay room %s", id), err)
		}
		result.Rooms = append(result.Rooms, roomResult)
		if !roomResult.Deterministic {
			result.AllDeterministic = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}
	return outputReplayText(cmd, result, opts.Verbose)
}

// replayAndVerifyRoom replays a room twice and compares the state hashes.
func replayAndVerifyRoom(ctx context.Context, st *store.Store, roomID string) (ReplayRoomResult, error) {
	first, err := st.ReplayRoom(ctx, roomID)
	if err != nil {
		return ReplayRoomResult{}, err
	}
	second, err := st.ReplayRoom(ctx, roomID)
	if err != nil {
		return ReplayRoomResult{}, err
	}

	return ReplayRoomResult{
		Room:          roomID,
		Operations:    first.Operations,
		Shapes:        first.State.Len(),
		Selected:      first.State.SelectedID(),
		Hash:          first.Hash,
		Deterministic: first.Hash == second.Hash && first.Operations == second.Operations,
	}, nil
}

// openStore opens the journal, mapping failures to command errors.
func openStore(path string) (*store.Store, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	response := CLIResponse{Status: "ok", Data: result}

	var failure *ExitError
	if !result.AllDeterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_DETERMINISM",
			Message: "replay produced different states",
		}
		failure = NewExitError(ExitFailure, "determinism verification failed")
	}
	return writeJSON(cmd.OutOrStdout(), response, failure)
}

func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replaying %d room(s)...\n\n", result.TotalRooms)
	for _, r := range result.Rooms {
		status := "✓"
		if !r.Deterministic {
			status = "✗"
		}
		fmt.Fprintf(w, "%s %s: %d operations, %d shapes\n", status, r.Room, r.Operations, r.Shapes)
		if verbose {
			fmt.Fprintf(w, "    hash: %s\n", r.Hash)
			if r.Selected != "" {
				fmt.Fprintf(w, "    selected: %s\n", r.Selected)
			}
		}
	}
	fmt.Fprintln(w)

	if !result.AllDeterministic {
		fmt.Fprintln(w, "✗ Determinism verification FAILED")
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	fmt.Fprintln(w, "✓ All rooms replay deterministically")
	return nil
}
