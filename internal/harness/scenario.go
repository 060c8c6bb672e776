package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/canco/internal/editor"
	"github.com/roach88/canco/internal/interaction"
	"github.com/roach88/canco/internal/shape"
	"github.com/roach88/canco/internal/tool"
)

// Scenario is a scripted editor session with assertions on the outcome.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Steps run in order against a fresh editor.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final canvas, history and trace.
	Assertions []Assertion `yaml:"assertions"`
}

// Step performs exactly one action.
type Step struct {
	// Tool arms a drawing tool: line, rectangle, circle or none.
	Tool *string `yaml:"tool,omitempty"`

	// Color sets the color for new shapes.
	Color string `yaml:"color,omitempty"`

	// Down, Move and Up are pointer events.
	Down *shape.Point `yaml:"down,omitempty"`
	Move *shape.Point `yaml:"move,omitempty"`
	Up   *shape.Point `yaml:"up,omitempty"`

	// Key is a key press routed through the interaction machine.
	Key *interaction.Key `yaml:"key,omitempty"`

	// Remote is an operation in wire form received from a peer.
	Remote map[string]any `yaml:"remote,omitempty"`

	// Undo and Redo call the editor directly.
	Undo bool `yaml:"undo,omitempty"`
	Redo bool `yaml:"redo,omitempty"`

	// Import is an export document to load.
	Import string `yaml:"import,omitempty"`

	// Export checks that the current canvas survives an export round trip.
	Export bool `yaml:"export,omitempty"`

	// Clear empties the canvas and the history.
	Clear bool `yaml:"clear,omitempty"`

	// Expect is the boolean outcome of an undo, redo, key or import step.
	// If nil, the outcome is not checked.
	Expect *bool `yaml:"expect,omitempty"`
}

// Assertion validates the final canvas, history or trace.
type Assertion struct {
	// Type selects the check; see the Assert* constants.
	Type string `yaml:"type"`

	// ID is the shape id (used by selected and shape).
	ID string `yaml:"id,omitempty"`

	// Expect holds expected shape fields by wire name (used by shape).
	// Subset match - only specified fields are validated.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Count is the expected number (used by shape_count and trace_count).
	Count *int `yaml:"count,omitempty"`

	// Op is the operation type (used by trace_count).
	Op string `yaml:"op,omitempty"`

	// Origin optionally narrows trace_count to local or remote commits.
	Origin string `yaml:"origin,omitempty"`

	// Ops is the expected relative order (used by trace_order).
	Ops []string `yaml:"ops,omitempty"`

	// Mode is the expected interaction state (used by mode).
	Mode string `yaml:"mode,omitempty"`

	// Value is the expected boolean (used by can_undo, can_redo and
	// journal_replay, where it defaults to true).
	Value *bool `yaml:"value,omitempty"`
}

// Assertion type constants.
const (
	AssertShapeCount    = "shape_count"
	AssertSelected      = "selected"
	AssertShape         = "shape"
	AssertMode          = "mode"
	AssertCanUndo       = "can_undo"
	AssertCanRedo       = "can_redo"
	AssertTraceCount    = "trace_count"
	AssertTraceOrder    = "trace_order"
	AssertJournalReplay = "journal_replay"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i := range s.Steps {
		if err := validateStep(&s.Steps[i]); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertion %d: %w", i+1, err)
		}
	}
	return nil
}

func validateStep(st *Step) error {
	actions := 0
	count := func(set bool) {
		if set {
			actions++
		}
	}
	count(st.Tool != nil)
	count(st.Color != "")
	count(st.Down != nil)
	count(st.Move != nil)
	count(st.Up != nil)
	count(st.Key != nil)
	count(st.Remote != nil)
	count(st.Undo)
	count(st.Redo)
	count(st.Import != "")
	count(st.Export)
	count(st.Clear)

	if actions != 1 {
		return fmt.Errorf("exactly one action is required, got %d", actions)
	}
	if st.Expect != nil && !st.Undo && !st.Redo && st.Key == nil && st.Import == "" {
		return fmt.Errorf("expect applies only to undo, redo, key and import steps")
	}

	if st.Tool != nil {
		if _, err := tool.Parse(*st.Tool); err != nil {
			return err
		}
	}
	if st.Key != nil && st.Key.Name == "" {
		return fmt.Errorf("key name is required")
	}
	if st.Remote != nil {
		if _, err := remoteOperation(st.Remote); err != nil {
			return err
		}
	}
	return nil
}

// remoteOperation decodes a wire-form operation written as YAML.
func remoteOperation(m map[string]any) (shape.Operation, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return shape.Operation{}, fmt.Errorf("remote operation: %w", err)
	}
	var op shape.Operation
	if err := json.Unmarshal(data, &op); err != nil {
		return shape.Operation{}, fmt.Errorf("remote operation: %w", err)
	}
	return op, nil
}

// validateAssertion checks the fields each assertion type requires.
func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertShapeCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("shape_count requires a non-negative count")
		}

	case AssertSelected:
		// An empty id asserts that nothing is selected.

	case AssertShape:
		if a.ID == "" {
			return fmt.Errorf("shape requires id")
		}
		for k := range a.Expect {
			if !shapeFields[k] {
				return fmt.Errorf("shape: unknown field %q", k)
			}
		}

	case AssertMode:
		switch interaction.Mode(a.Mode) {
		case interaction.Idle, interaction.Creating, interaction.Moving, interaction.Resizing:
		default:
			return fmt.Errorf("mode: unknown interaction state %q", a.Mode)
		}

	case AssertCanUndo, AssertCanRedo:
		if a.Value == nil {
			return fmt.Errorf("%s requires value", a.Type)
		}

	case AssertTraceCount:
		if _, err := shape.ParseOpType(a.Op); err != nil {
			return fmt.Errorf("trace_count: %w", err)
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("trace_count requires a non-negative count")
		}
		if err := validateOrigin(a.Origin); err != nil {
			return err
		}

	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("trace_order requires ops")
		}
		for _, op := range a.Ops {
			if _, err := shape.ParseOpType(op); err != nil {
				return fmt.Errorf("trace_order: %w", err)
			}
		}

	case AssertJournalReplay:

	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

func validateOrigin(o string) error {
	switch editor.Origin(o) {
	case "", editor.Local, editor.Remote:
		return nil
	}
	return fmt.Errorf("unknown origin %q", o)
}

var shapeFields = map[string]bool{
	"type": true, "x": true, "y": true, "width": true, "height": true,
	"color": true, "isSelected": true, "zIndex": true,
}
