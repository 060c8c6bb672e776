// Package harness runs editor scenarios as executable tests.
//
// A scenario drives a real editor with pointer, keyboard and peer input,
// records every committed operation into a trace, journals it into an
// in-memory store, then evaluates assertions against the final canvas and
// the trace.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	steps:
//	  - tool: rectangle
//	  - color: red
//	  - down: {x: 10, y: 10}
//	  - move: {x: 100, y: 80}
//	  - up: {x: 100, y: 80}
//	  - key: {name: z, ctrl: true}
//	    expect: true
//	  - undo: true
//	    expect: false
//	  - remote:
//	      id: peer-op-1
//	      type: CREATE_SHAPE
//	      timestamp: 5
//	      data: {shape: {id: p-1, type: circle, x: 0, y: 0, width: 40, height: 40}}
//	  - import: '{"shapes": [...]}'
//	  - export: true
//	  - clear: true
//	assertions:
//	  - type: shape_count
//	    count: 1
//	  - type: shape
//	    id: id-2
//	    expect: {x: 15, isSelected: true}
//
// Each step performs exactly one action. expect checks the boolean outcome
// of undo, redo, key and import steps.
//
// # Assertion Types
//
//   - shape_count: the canvas holds exactly count shapes
//   - selected: id is the selected shape ("" for none)
//   - shape: the shape exists and its fields match expect (subset match)
//   - mode: the interaction state equals mode
//   - can_undo, can_redo: history availability equals value
//   - trace_count: op (and origin, if set) was committed exactly count times
//   - trace_order: ops were committed in this relative order
//   - journal_replay: replaying the journal reproduces the canvas (value)
//
// # Deterministic Testing
//
// Ids come from a sequence generator ("id-1", "id-2", ...), operation
// timestamps from a clock that starts at 2024-01-01T00:00:00Z and advances
// one millisecond per operation, and zIndex from a fresh counter. The same
// scenario always produces a byte-identical trace, which golden files pin.
package harness
