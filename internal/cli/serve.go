package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/roach88/canco/internal/config"
	"github.com/roach88/canco/internal/discovery"
	"github.com/roach88/canco/internal/server"
	"github.com/roach88/canco/internal/store"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	ConfigPath string
	Addr       string
	Database   string
	Advertise  bool
	Instance   string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return newServeCommand(&ServeOptions{RootOptions: rootOpts})
}

func newServeCommand(opts *ServeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the relay server",
		Long: `Run the relay server.

Peers join a room over a websocket at /api/join/:roomId and every
operation one peer sends is relayed to the others. With --db the
operations are journaled and replayed to peers that join later.

Flags override values from --config.

Examples:
  canco serve
  canco serve --addr :9000 --db ./canco.db
  canco serve --config ./canco.yaml --advertise`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")
	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (empty keeps rooms in memory)")
	cmd.Flags().BoolVar(&opts.Advertise, "advertise", false, "announce the relay over mDNS")
	cmd.Flags().StringVar(&opts.Instance, "instance", "", "mDNS instance name (default hostname)")

	return cmd
}

// loadConfig reads path, or returns the defaults when path is empty.
func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	return cfg, nil
}

// serveConfig merges the config file with explicitly set flags.
func serveConfig(opts *ServeOptions, cmd *cobra.Command) (config.Config, error) {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Addr = opts.Addr
	}
	if flags.Changed("db") {
		cfg.Database = opts.Database
	}
	if flags.Changed("advertise") {
		cfg.Advertise = opts.Advertise
	}
	if flags.Changed("instance") {
		cfg.Instance = opts.Instance
	}

	if err := cfg.Validate(); err != nil {
		return cfg, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	return cfg, nil
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	cfg, err := serveConfig(opts, cmd)
	if err != nil {
		return err
	}

	level, _ := cfg.Level()
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr(), level)
	gin.SetMode(gin.ReleaseMode)

	var st *store.Store
	if cfg.Database != "" {
		st, err = openStore(cfg.Database)
		if err != nil {
			return err
		}
		defer st.Close()
		logger.Info("journal opened", "path", cfg.Database)
	}

	srv := server.New(
		server.WithStore(st),
		server.WithLogger(logger),
		server.WithAllowedOrigins(cfg.AllowedOrigins...),
		server.WithWriteTimeout(cfg.WriteTimeout),
	)

	if cfg.Advertise {
		port, err := cfg.Port()
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid listen address", err)
		}
		ad, err := discovery.Advertise(cfg.Instance, port, "path=/api/join")
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to advertise relay", err)
		}
		defer ad.Shutdown()
		logger.Info("relay advertised", "service", discovery.ServiceType, "port", port)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx, cfg.Addr); err != nil {
		return WrapExitError(ExitFailure, fmt.Sprintf("relay on %s failed", cfg.Addr), err)
	}
	return nil
}
