package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/canco/internal/export"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Database string
	Room     string
	Output   string
}

// ExportResult describes a written export.
type ExportResult struct {
	Room       string `json:"room"`
	Path       string `json:"path"`
	Kind       string `json:"kind"`
	Shapes     int    `json:"shapes"`
	Operations int    `json:"operations"`
	Bytes      int    `json:"bytes"`
}

// exportKinds maps output file extensions to export kinds.
var exportKinds = map[string]string{
	".json": "json",
	".pdf":  "pdf",
	".png":  "png",
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a room's canvas from the journal",
		Long: `Replay a room's journal and write the resulting canvas to a file.

The output kind follows the file extension:
  .json - export document (importable by the editor)
  .pdf  - single-page vector PDF
  .png  - raster image

Exit codes:
  0 - Export written
  1 - Nothing to render (empty canvas for .pdf/.png)
  2 - Command error (database or room not found, unknown extension, etc.)

Examples:
  canco export --db ./canco.db --room 6f1c... --out board.json
  canco export --db ./canco.db --room 6f1c... --out board.pdf`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Room, "room", "", "room to export (required)")
	_ = cmd.MarkFlagRequired("room")
	cmd.Flags().StringVarP(&opts.Output, "out", "o", "", "output file: .json, .pdf or .png (required)")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts.RootOptions, cmd)

	kind, ok := exportKinds[strings.ToLower(filepath.Ext(opts.Output))]
	if !ok {
		return NewExitError(ExitCommandError, fmt.Sprintf("unsupported output extension %q: use .json, .pdf or .png", filepath.Ext(opts.Output)))
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
		return NewExitError(ExitCommandError, fmt.Sprintf("room not found: %s", opts.Room))
	}

	replayed, err := st.ReplayRoom(ctx, opts.Room)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to replay room", err)
	}
	formatter.VerboseLog("Replayed %d operation(s) into %d shape(s)", replayed.Operations, replayed.State.Len())

	data, err := renderExport(kind, export.New(replayed.State, time.Now()))
	if errors.Is(err, export.ErrEmptyCanvas) {
		return WrapExitError(ExitFailure, fmt.Sprintf("room %s has no shapes to render", opts.Room), err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to render export", err)
	}

	if err := os.WriteFile(opts.Output, data, 0644); err != nil {
		return WrapExitError(ExitCommandError, "failed to write export", err)
	}

	result := ExportResult{
		Room:       opts.Room,
		Path:       opts.Output,
		Kind:       kind,
		Shapes:     replayed.State.Len(),
		Operations: replayed.Operations,
		Bytes:      len(data),
	}
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return formatter.Success(fmt.Sprintf("✓ Exported %d shape(s) from %s to %s", result.Shapes, result.Room, result.Path))
}

// renderExport encodes a document as the given kind.
func renderExport(kind string, doc export.Document) ([]byte, error) {
	if kind == "json" {
		return export.Encode(doc)
	}

	var buf bytes.Buffer
	var err error
	switch kind {
	case "pdf":
		err = export.WritePDF(&buf, doc, export.DefaultRenderOptions())
	case "png":
		err = export.WritePNG(&buf, doc, export.DefaultRenderOptions())
	default:
		err = fmt.Errorf("unknown export kind %q", kind)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
