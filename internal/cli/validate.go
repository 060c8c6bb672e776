package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/canco/internal/export"
)

// Validation error codes.
const (
	ErrCodeNotFound        = "E_NOT_FOUND"
	ErrCodeInvalidDocument = "E_INVALID_DOCUMENT"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool   `json:"valid"`
	Path    string `json:"path"`
	Shapes  int    `json:"shapes"`
	Version string `json:"version,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <document.json>",
		Short: "Validate an export document",
		Long: `Validate an export document against the document schema.

The document must be a JSON object with a "shapes" list; every shape needs
an id, a known type and numeric geometry. This is the same check the
editor runs before an import.

Exit codes:
  0 - Document is valid
  1 - Document is invalid
  2 - Command error (file not found, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("document not found: %s", path), nil)
			return NewExitError(ExitCommandError, fmt.Sprintf("document not found: %s", path))
		}
		return WrapExitError(ExitCommandError, "failed to read document", err)
	}
	formatter.VerboseLog("Read %d byte(s) from %s", len(data), path)

	doc, err := export.Decode(data)
	if err != nil {
		message := strings.TrimPrefix(err.Error(), export.ErrInvalidDocument.Error()+": ")
		_ = formatter.Error(ErrCodeInvalidDocument, message, map[string]string{"path": path})
		return WrapExitError(ExitFailure, "invalid document", err)
	}

	result := ValidationResult{
		Valid:   true,
		Path:    path,
		Shapes:  len(doc.Shapes),
		Version: doc.Version,
	}
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return formatter.Success(fmt.Sprintf("✓ %s is valid (%d shapes)", path, result.Shapes))
}
