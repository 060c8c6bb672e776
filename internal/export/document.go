// Package export converts canvas snapshots to and from the JSON document
// format, and renders them as PDF or PNG.
package export

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"

	"github.com/roach88/canco/internal/canvas"
	"github.com/roach88/canco/internal/shape"
)

// Version is the document format version written by Encode.
const Version = "1.0"

// ErrInvalidDocument is returned by Decode for input that is not a valid
// export document.
var ErrInvalidDocument = errors.New("invalid export document")

//go:embed schema.cue
var schemaSource []byte

// Document is the export format.
type Document struct {
	Shapes    []shape.Shape `json:"shapes"`
	Timestamp int64         `json:"timestamp"`
	Version   string        `json:"version"`
}

// New snapshots st. Shapes are listed in draw order.
func New(st canvas.State, at time.Time) Document {
	return Document{
		Shapes:    st.Shapes(),
		Timestamp: at.UnixMilli(),
		Version:   Version,
	}
}

// State rebuilds a canvas state from the document.
func (d Document) State() canvas.State {
	return canvas.FromShapes(d.Shapes)
}

// Encode writes the document as JSON indented with two spaces.
func Encode(d Document) ([]byte, error) {
	if d.Shapes == nil {
		d.Shapes = []shape.Shape{}
	}
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

var (
	schemaOnce sync.Once
	schemaCtx  *cue.Context
	schemaDef  cue.Value
	schemaErr  error

	// cue.Context is not safe for concurrent use.
	validateMu sync.Mutex
)

func documentSchema() (*cue.Context, cue.Value, error) {
	schemaOnce.Do(func() {
		schemaCtx = cuecontext.New()
		v := schemaCtx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
		if err := v.Err(); err != nil {
			schemaErr = fmt.Errorf("compile document schema: %w", err)
			return
		}
		schemaDef = v.LookupPath(cue.ParsePath("#Document"))
	})
	return schemaCtx, schemaDef, schemaErr
}

// Validate checks data against the document schema. It requires a
// "shapes" list whose entries carry an id, a known type and numeric
// geometry.
func Validate(data []byte) error {
	validateMu.Lock()
	defer validateMu.Unlock()

	ctx, def, err := documentSchema()
	if err != nil {
		return err
	}

	expr, err := cuejson.Extract("document.json", data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	v := ctx.BuildExpr(expr)
	if err := v.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if v.IncompleteKind() != cue.StructKind {
		return fmt.Errorf("%w: document must be an object", ErrInvalidDocument)
	}
	if !v.LookupPath(cue.ParsePath("shapes")).Exists() {
		return fmt.Errorf("%w: missing shapes", ErrInvalidDocument)
	}
	if err := def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return nil
}

// Decode validates and parses an export document.
func Decode(data []byte) (Document, error) {
	if err := Validate(data); err != nil {
		return Document{}, err
	}
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if d.Shapes == nil {
		d.Shapes = []shape.Shape{}
	}
	return d, nil
}
