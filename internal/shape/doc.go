// Package shape defines the canvas data model: shapes, partial shape
// changes, and the closed set of operations that mutate a canvas.
//
// This package contains data definitions and pure helpers only. Every other
// internal package imports shape; shape imports nothing internal.
//
// Key design constraints:
//   - Shape kinds form a closed set (line, rectangle, circle)
//   - Operation payloads form a closed set; each kind has its own payload type
//   - id, kind and zIndex are assigned once at creation and never patched
//   - Ids and timestamps come from injected sources, never ambient globals
//
// No validation happens here. The tool manager and the reducer decide what
// is legal.
package shape
