package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/canco/internal/config"
)

func parseServe(t *testing.T, args ...string) (config.Config, error) {
	t.Helper()
	opts := &ServeOptions{RootOptions: &RootOptions{Format: "text"}}
	cmd := newServeCommand(opts)
	require.NoError(t, cmd.ParseFlags(args))
	return serveConfig(opts, cmd)
}

func TestServeConfig_Defaults(t *testing.T) {
	cfg, err := parseServe(t)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestServeConfig_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canco.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":9000"
database: file.db
write_timeout: 2s
instance: studio
`), 0644))

	cfg, err := parseServe(t, "--config", path, "--db", "flag.db", "--advertise")
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "flag.db", cfg.Database)
	assert.True(t, cfg.Advertise)
	assert.Equal(t, "studio", cfg.Instance)
	assert.Equal(t, 2*time.Second, cfg.WriteTimeout)
}

func TestServeConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing_config", []string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, "failed to load config"},
		{"bad_addr", []string{"--addr", "no-port"}, "invalid configuration"},
		{"empty_addr", []string{"--addr", ""}, "invalid configuration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseServe(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestServeRejectsArgs(t *testing.T) {
	_, err := execute(t, NewServeCommand(&RootOptions{Format: "text"}), "extra")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}
