package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/canco/internal/shape"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Room     string
	Type     string // optional - filter to one operation type
}

// TraceEntry is one journaled operation in the timeline.
type TraceEntry struct {
	Seq       int            `json:"seq"`
	ID        string         `json:"id"`
	Type      shape.OpType   `json:"type"`
	Target    string         `json:"target,omitempty"`
	Timestamp int64          `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Room     string       `json:"room"`
	Timeline []TraceEntry `json:"timeline"`
	Stats    TraceStats   `json:"stats"`
}

// TraceStats holds summary statistics for the room.
type TraceStats struct {
	TotalOperations int                  `json:"total_operations"`
	ByType          map[shape.OpType]int `json:"by_type"`
	Shapes          int                  `json:"shapes"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the operation timeline of a room",
		Long: `Show the journaled operations of a room in arrival order.

The output includes:
- Timeline: every operation with its target shape and timestamp
- Stats: operation counts by type and the replayed shape count

Examples:
  canco trace --db ./canco.db --room 6f1c...
  canco trace --db ./canco.db --room 6f1c... --type UPDATE_SHAPE
  canco trace --db ./canco.db --room 6f1c... --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Room, "room", "", "room to trace (required)")
	_ = cmd.MarkFlagRequired("room")
	cmd.Flags().StringVar(&opts.Type, "type", "", "filter to one operation type (e.g. CREATE_SHAPE)")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()

	var filter shape.OpType
	if opts.Type != "" {
		t, err := shape.ParseOpType(opts.Type)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --type", err)
		}
		filter = t
	}

	st, err := openStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	exists, err := st.RoomExists(ctx, opts.Room)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to look up room", err)
	}
	if !exists {
		if opts.Format == "json" {
			return outputTraceJSON(cmd, TraceResult{
				Room:     opts.Room,
				Timeline: []TraceEntry{},
				Stats:    TraceStats{ByType: map[shape.OpType]int{}},
			})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "No operations found for room: %s\n", opts.Room)
		return nil
	}

	ops, err := st.ReadRoom(ctx, opts.Room)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read room", err)
	}
	stats, err := st.Stats(ctx, opts.Room)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to count operations", err)
	}
	replayed, err := st.ReplayRoom(ctx, opts.Room)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to replay room", err)
	}

	timeline, err := buildTimeline(ops, filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build timeline", err)
	}

	result := TraceResult{
		Room:     opts.Room,
		Timeline: timeline,
		Stats: TraceStats{
			TotalOperations: len(ops),
			ByType:          stats,
			Shapes:          replayed.State.Len(),
		},
	}

	if opts.Format == "json" {
		return outputTraceJSON(cmd, result)
	}
	return outputTraceText(cmd, result, opts.Verbose)
}

// buildTimeline numbers operations in arrival order. Filtered entries keep
// their journal position.
func buildTimeline(ops []shape.Operation, filter shape.OpType) ([]TraceEntry, error) {
	timeline := []TraceEntry{}
	for i, op := range ops {
		if filter != "" && op.Type() != filter {
			continue
		}
		canonical, err := shape.CanonicalOperation(op)
		if err != nil {
			return nil, fmt.Errorf("operation %s: %w", op.ID, err)
		}
		data, _ := canonical["data"].(map[string]any)
		timeline = append(timeline, TraceEntry{
			Seq:       i + 1,
			ID:        op.ID,
			Type:      op.Type(),
			Target:    op.TargetID(),
			Timestamp: op.Timestamp,
			Data:      data,
		})
	}
	return timeline, nil
}

func outputTraceJSON(cmd *cobra.Command, result TraceResult) error {
	return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result}, nil)
}

func outputTraceText(cmd *cobra.Command, result TraceResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Room: %s\n\n", result.Room)
	fmt.Fprintln(w, "Timeline:")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no matching operations)")
	}
	for _, e := range result.Timeline {
		at := time.UnixMilli(e.Timestamp).UTC().Format(time.RFC3339Nano)
		line := fmt.Sprintf("  [%d] %s %s", e.Seq, at, e.Type)
		if e.Target != "" {
			line += " " + truncateID(e.Target)
		}
		fmt.Fprintln(w, line)
		if verbose {
			fmt.Fprintf(w, "      id: %s\n", e.ID)
			if len(e.Data) > 0 {
				fmt.Fprintf(w, "      data: %s\n", formatData(e.Data))
			}
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Stats:")
	fmt.Fprintf(w, "  Operations: %d\n", result.Stats.TotalOperations)
	for _, t := range sortedTypes(result.Stats.ByType) {
		fmt.Fprintf(w, "    %s: %d\n", t, result.Stats.ByType[t])
	}
	fmt.Fprintf(w, "  Shapes: %d\n", result.Stats.Shapes)
	return nil
}

func sortedTypes(counts map[shape.OpType]int) []shape.OpType {
	types := make([]shape.OpType, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// truncateID shortens long ids for display.
func truncateID(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:8] + "..."
}

// formatData renders an operation payload as canonical JSON.
func formatData(data map[string]any) string {
	b, err := shape.MarshalCanonical(data)
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(b)
}
