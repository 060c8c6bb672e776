package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/canco/internal/channel"
	"github.com/roach88/canco/internal/discovery"
	"github.com/roach88/canco/internal/editor"
	"github.com/roach88/canco/internal/export"
	"github.com/roach88/canco/internal/shape"
)

// PushOptions holds flags for the push command.
type PushOptions struct {
	*RootOptions
	ConfigPath string
	Server     string
	Timeout    time.Duration
}

// PushResult summarizes a push session.
type PushResult struct {
	Room       string `json:"room"`
	Relay      string `json:"relay"`
	Document   string `json:"document"`
	Operations int    `json:"operations"`
	Shapes     int    `json:"shapes"`
}

// NewPushCommand creates the push command.
func NewPushCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PushOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "push <room> <document.json>",
		Short: "Draw an export document into a room",
		Long: `Join a room on a relay and commit every shape of an export document as a
local CREATE_SHAPE operation. Peers of the room receive the operations and
the relay journals them. Shapes keep their ids and zIndex; none arrive
selected.

Without --server the relay is found over mDNS.

Exit codes:
  0 - Every operation was sent
  1 - The relay rejected or dropped an operation
  2 - Command error (invalid document, no relay, etc.)

Examples:
  canco push 6f1c... board.json --server localhost:8080
  canco push 6f1c... board.json --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPush(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")
	cmd.Flags().StringVar(&opts.Server, "server", "", "relay address host:port or ws:// URL (default: discover over mDNS)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", discovery.DefaultBrowseTimeout, "relay discovery timeout")

	return cmd
}

// sendCounter counts the operations that reached the relay connection and
// keeps the first failure.
type sendCounter struct {
	b    editor.Broadcaster
	sent int
	err  error
}

func (s *sendCounter) Broadcast(op shape.Operation) error {
	if err := s.b.Broadcast(op); err != nil {
		if s.err == nil {
			s.err = err
		}
		return err
	}
	s.sent++
	return nil
}

func runPush(opts *PushOptions, room, path string, cmd *cobra.Command) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read document", err)
	}
	doc, err := export.Decode(data)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid document", err)
	}

	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	level, _ := cfg.Level()
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr(), level)

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

	counter := &sendCounter{b: client}
	factory := shape.NewFactory()
	ed, err := editor.New(
		editor.WithLogger(logger),
		editor.WithFactory(factory),
		editor.WithBroadcaster(counter),
		editor.WithHistoryLimit(cfg.HistoryLimit),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create editor", err)
	}
	defer ed.Close()

	for _, sh := range doc.State().Shapes() {
		if ctx.Err() != nil {
			break
		}
		sh.IsSelected = false
		ed.Apply(factory.Create(sh))
	}
	if err := client.Close(); err != nil {
		logger.Debug("close relay connection", "error", err)
	}

	if counter.err != nil {
		return WrapExitError(ExitFailure,
			fmt.Sprintf("sent %d of %d operation(s)", counter.sent, len(doc.Shapes)), counter.err)
	}
	if ctx.Err() != nil {
		return WrapExitError(ExitFailure, "push interrupted", ctx.Err())
	}

	result := PushResult{
		Room:       room,
		Relay:      relay,
		Document:   path,
		Operations: counter.sent,
		Shapes:     ed.State().Len(),
	}

	formatter := newFormatter(opts.RootOptions, cmd)
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return formatter.Success(fmt.Sprintf("✓ Pushed %d shape(s) from %s to room %s", result.Shapes, path, room))
}
