package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDocument = `{
  "shapes": [
    {"id": "a", "type": "rectangle", "x": 0, "y": 0, "width": 50, "height": 40, "color": "green", "isSelected": false, "zIndex": 4},
    {"id": "b", "type": "line", "x": 10, "y": 10, "width": -20, "height": 5}
  ],
  "timestamp": 1704067200000,
  "version": "1.0"
}`

func writeDocument(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "board.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestValidateValidDocument(t *testing.T) {
	path := writeDocument(t, validDocument)

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), path)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid (2 shapes)")
}

func TestValidateValidDocumentJSON(t *testing.T) {
	path := writeDocument(t, validDocument)

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), path)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 2, resp.Data.Shapes)
	assert.Equal(t, "1.0", resp.Data.Version)
}

func TestValidateNonExistentFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeNotFound)
}

func TestValidateInvalidDocument(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{"not_json", "not json", ""},
		{"missing_shapes", `{"version": "1.0"}`, "missing shapes"},
		{"unknown_kind", `{"shapes": [{"id": "a", "type": "triangle", "x": 0, "y": 0, "width": 1, "height": 1}]}`, ""},
		{"missing_id", `{"shapes": [{"type": "circle", "x": 0, "y": 0, "width": 1, "height": 1}]}`, ""},
		{"string_geometry", `{"shapes": [{"id": "a", "type": "circle", "x": "0", "y": 0, "width": 1, "height": 1}]}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeDocument(t, tt.content)

			out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), path)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))
			assert.Contains(t, out, "Error ["+ErrCodeInvalidDocument+"]")
			assert.Contains(t, out, tt.wantMsg)
		})
	}
}

func TestValidateInvalidDocumentJSON(t *testing.T) {
	path := writeDocument(t, `{"version": "1.0"}`)

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), path)
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidDocument, resp.Error.Code)
	assert.Equal(t, "missing shapes", resp.Error.Message)
}

func TestValidateVerboseOutput(t *testing.T) {
	path := writeDocument(t, validDocument)

	cmd := NewValidateCommand(&RootOptions{Format: "text", Verbose: true})
	errBuf := &bytes.Buffer{}
	cmd.SetErr(errBuf)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{path})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, errBuf.String(), "byte(s) from")
}

func TestValidateRequiresOneArg(t *testing.T) {
	_, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}
