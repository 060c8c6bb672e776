package cli

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/canco/internal/channel"
	"github.com/roach88/canco/internal/discovery"
	"github.com/roach88/canco/internal/editor"
	"github.com/roach88/canco/internal/shape"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	ConfigPath string
	Server     string
	Output     string
	Count      int
	Timeout    time.Duration
}

// WatchResult summarizes a watch session.
type WatchResult struct {
	Room       string `json:"room"`
	Relay      string `json:"relay"`
	Operations int    `json:"operations"`
	Shapes     int    `json:"shapes"`
	Selected   string `json:"selected,omitempty"`
	Output     string `json:"output,omitempty"`
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch <room>",
		Short: "Mirror a room into a local canvas",
		Long: `Join a room on a relay and apply every operation to a local canvas.

Without --server the relay is found over mDNS. The session ends on
interrupt, when the relay disconnects, or after --count operations.
With --out the mirrored canvas is written as an export document.

Examples:
  canco watch 6f1c... --server localhost:8080
  canco watch 6f1c... --out board.json
  canco watch 6f1c... --server localhost:8080 --count 10 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")
	cmd.Flags().StringVar(&opts.Server, "server", "", "relay address host:port or ws:// URL (default: discover over mDNS)")
	cmd.Flags().StringVarP(&opts.Output, "out", "o", "", "write the mirrored canvas to this export document")
	cmd.Flags().IntVar(&opts.Count, "count", 0, "stop after this many operations (0 = until disconnected)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", discovery.DefaultBrowseTimeout, "relay discovery timeout")

	return cmd
}

// joinURL builds the websocket URL of a room on relay.
func joinURL(relay, room string) string {
	base := strings.TrimSuffix(relay, "/")
	if !strings.HasPrefix(base, "ws://") && !strings.HasPrefix(base, "wss://") {
		base = "ws://" + base
	}
	return base + "/api/join/" + url.PathEscape(room)
}

// findRelay returns the first relay answering on the local network.
func findRelay(ctx context.Context, timeout time.Duration) (string, error) {
	entries, err := discovery.Browse(ctx, timeout)
	if err != nil {
		return "", WrapExitError(ExitCommandError, "relay discovery failed", err)
	}
	if len(entries) == 0 {
		return "", NewExitError(ExitCommandError, "no relay found on the local network (use --server)")
	}
	return entries[0].Addr, nil
}

func runWatch(opts *WatchOptions, room string, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	level, _ := cfg.Level()
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr(), level)
	w := cmd.OutOrStdout()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	relay := opts.Server
	if relay == "" {
		if relay, err = findRelay(ctx, opts.Timeout); err != nil {
			return err
		}
	}
	target := joinURL(relay, room)

	client, err := channel.Dial(ctx, target,
		channel.WithLogger(logger),
		channel.WithWriteTimeout(cfg.WriteTimeout),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to join room", err)
	}
	defer client.Close()
	logger.Debug("joined room", "url", target)

	// seen is only touched by the editor's Run goroutine until it returns.
	seen := 0
	ed, err := editor.New(
		editor.WithLogger(logger),
		editor.WithHistoryLimit(cfg.HistoryLimit),
		editor.OnCommit(func(op shape.Operation, origin editor.Origin) {
			seen++
			if opts.Format != "json" {
				line := fmt.Sprintf("[%d] %s %s", seen, origin, op.Type())
				if id := op.TargetID(); id != "" {
					line += " " + id
				}
				fmt.Fprintln(w, line)
			}
		}),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create editor", err)
	}
	defer ed.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = ed.Run(ctx)
	}()

	// After --count operations the connection is closed so Run returns and
	// the editor drains what was queued.
	received := 0
	runErr := client.Run(ctx, func(op shape.Operation) {
		if opts.Count > 0 && received >= opts.Count {
			return
		}
		received++
		ed.EnqueueRemote(op)
		if received == opts.Count {
			client.Close()
		}
	})
	ed.Stop()
	<-done

	if runErr != nil && ctx.Err() == nil {
		return WrapExitError(ExitFailure, "connection to relay lost", runErr)
	}

	result := WatchResult{
		Room:       room,
		Relay:      relay,
		Operations: seen,
		Shapes:     ed.State().Len(),
		Selected:   ed.State().SelectedID(),
	}

	if opts.Output != "" {
		data, err := ed.Export()
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to export canvas", err)
		}
		if err := os.WriteFile(opts.Output, data, 0644); err != nil {
			return WrapExitError(ExitCommandError, "failed to write export", err)
		}
		result.Output = opts.Output
	}

	formatter := newFormatter(opts.RootOptions, cmd)
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	summary := fmt.Sprintf("✓ %d operation(s), %d shape(s) in room %s", result.Operations, result.Shapes, result.Room)
	if result.Output != "" {
		summary += ", written to " + result.Output
	}
	return formatter.Success(summary)
}
