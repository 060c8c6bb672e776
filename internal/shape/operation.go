package shape

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// OpType is the wire tag of an operation kind.
type OpType string

const (
	OpCreateShape OpType = "CREATE_SHAPE"
	OpUpdateShape OpType = "UPDATE_SHAPE"
	OpDeleteShape OpType = "DELETE_SHAPE"
	OpSelectShape OpType = "SELECT_SHAPE"
	OpDeselectAll OpType = "DESELECT_ALL"
)

var (
	// ErrUnknownOperation is returned when decoding an operation whose type
	// tag is not one of the five known kinds.
	ErrUnknownOperation = errors.New("unknown operation type")

	// ErrMalformedOperation is returned when an operation's payload does not
	// match its type tag.
	ErrMalformedOperation = errors.New("malformed operation")
)

// ParseOpType converts a wire tag into an OpType. Matching is
// case-insensitive.
func ParseOpType(s string) (OpType, error) {
	t := OpType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case OpCreateShape, OpUpdateShape, OpDeleteShape, OpSelectShape, OpDeselectAll:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOperation, s)
}

// Payload is the kind-specific body of an Operation. The set of
// implementations is closed: CreateShape, UpdateShape, DeleteShape,
// SelectShape and DeselectAll.
type Payload interface {
	Type() OpType
	isPayload()
}

// CreateShape inserts a shape.
type CreateShape struct {
	Shape Shape `json:"shape"`
}

// UpdateShape merges changes into an existing shape.
type UpdateShape struct {
	ID      string `json:"id"`
	Changes Patch  `json:"changes"`
}

// DeleteShape removes a shape.
type DeleteShape struct {
	ID string `json:"id"`
}

// SelectShape makes one shape the sole selection.
type SelectShape struct {
	ID string `json:"id"`
}

// DeselectAll clears the selection.
type DeselectAll struct{}

func (CreateShape) Type() OpType { return OpCreateShape }
func (UpdateShape) Type() OpType { return OpUpdateShape }
func (DeleteShape) Type() OpType { return OpDeleteShape }
func (SelectShape) Type() OpType { return OpSelectShape }
func (DeselectAll) Type() OpType { return OpDeselectAll }

func (CreateShape) isPayload() {}
func (UpdateShape) isPayload() {}
func (DeleteShape) isPayload() {}
func (SelectShape) isPayload() {}
func (DeselectAll) isPayload() {}

// Operation is an immutable, timestamped command. Operations are the only
// sanctioned way to change canvas state and the unit exchanged with peers.
type Operation struct {
	ID        string
	Timestamp int64 // unix milliseconds
	Payload   Payload
}

// Type returns the payload's wire tag, or "" for an operation without payload.
func (o Operation) Type() OpType {
	if o.Payload == nil {
		return ""
	}
	return o.Payload.Type()
}

// TargetID returns the id of the shape the operation addresses, if any.
func (o Operation) TargetID() string {
	switch p := o.Payload.(type) {
	case CreateShape:
		return p.Shape.ID
	case UpdateShape:
		return p.ID
	case DeleteShape:
		return p.ID
	case SelectShape:
		return p.ID
	}
	return ""
}

// wireOperation is the JSON form: {id, type, timestamp, data}.
type wireOperation struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// MarshalJSON encodes the operation in its wire format.
func (o Operation) MarshalJSON() ([]byte, error) {
	if o.Payload == nil {
		return nil, fmt.Errorf("%w: operation %s has no payload", ErrMalformedOperation, o.ID)
	}
	data, err := json.Marshal(o.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", o.Payload.Type(), err)
	}
	return json.Marshal(wireOperation{
		ID:        o.ID,
		Type:      string(o.Payload.Type()),
		Timestamp: o.Timestamp,
		Data:      data,
	})
}

// UnmarshalJSON decodes the wire format. Unknown type tags fail with
// ErrUnknownOperation; payloads that do not fit their tag fail with
// ErrMalformedOperation.
func (o *Operation) UnmarshalJSON(b []byte) error {
	var w wireOperation
	if err := json.Unmarshal(b, &w); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedOperation, err)
	}
	t, err := ParseOpType(w.Type)
	if err != nil {
		return err
	}
	payload, err := decodePayload(t, w.Data)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrMalformedOperation, t, w.ID, err)
	}
	*o = Operation{ID: w.ID, Timestamp: w.Timestamp, Payload: payload}
	return nil
}

func decodePayload(t OpType, data json.RawMessage) (Payload, error) {
	if len(data) == 0 || string(data) == "null" {
		if t == OpDeselectAll {
			return DeselectAll{}, nil
		}
		return nil, errors.New("missing data")
	}

	switch t {
	case OpCreateShape:
		var p CreateShape
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		if p.Shape.ID == "" || !p.Shape.Kind.Valid() {
			return nil, errors.New("shape requires id and type")
		}
		return p, nil
	case OpUpdateShape:
		var p UpdateShape
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		if p.ID == "" {
			return nil, errors.New("missing id")
		}
		return p, nil
	case OpDeleteShape:
		var p DeleteShape
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		if p.ID == "" {
			return nil, errors.New("missing id")
		}
		return p, nil
	case OpSelectShape:
		var p SelectShape
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		if p.ID == "" {
			return nil, errors.New("missing id")
		}
		return p, nil
	case OpDeselectAll:
		return DeselectAll{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, t)
}
