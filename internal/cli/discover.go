package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/canco/internal/discovery"
)

// DiscoverOptions holds flags for the discover command.
type DiscoverOptions struct {
	*RootOptions
	Timeout time.Duration
}

// DiscoverResult lists the relays found on the network.
type DiscoverResult struct {
	Relays []discovery.Entry `json:"relays"`
}

// NewDiscoverCommand creates the discover command.
func NewDiscoverCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiscoverOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Find relay servers on the local network",
		Long: `Browse mDNS for relays started with "canco serve --advertise".

Examples:
  canco discover
  canco discover --timeout 5s --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiscover(opts, cmd)
		},
	}

	cmd.Flags().DurationVar(&opts.Timeout, "timeout", discovery.DefaultBrowseTimeout, "how long to listen for answers")

	return cmd
}

func runDiscover(opts *DiscoverOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	formatter.VerboseLog("Browsing %s for %s", discovery.ServiceType, opts.Timeout)

	entries, err := discovery.Browse(cmd.Context(), opts.Timeout)
	if err != nil {
		return WrapExitError(ExitCommandError, "relay discovery failed", err)
	}
	if entries == nil {
		entries = []discovery.Entry{}
	}

	if opts.Format == "json" {
		return formatter.Success(DiscoverResult{Relays: entries})
	}

	w := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(w, "No relays found.")
		return nil
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s  %s", e.Addr, e.Name)
		if len(e.Info) > 0 {
			line += "  (" + strings.Join(e.Info, ", ") + ")"
		}
		fmt.Fprintln(w, line)
	}
	return nil
}
