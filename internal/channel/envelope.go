// Package channel carries operations between editors and the relay server.
//
// Every frame is one JSON envelope {type, data}. The only envelope type is
// "operation", whose data is an operation in its wire form.
package channel

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/canco/internal/shape"
)

// TypeOperation tags an envelope carrying one operation.
const TypeOperation = "operation"

// ErrUnsupportedEnvelope is returned for envelopes whose type tag is not
// TypeOperation.
var ErrUnsupportedEnvelope = errors.New("unsupported envelope type")

// Envelope is a framed channel message.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Encode wraps op in an operation envelope.
func Encode(op shape.Operation) ([]byte, error) {
	data, err := json.Marshal(op)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	out, err := json.Marshal(Envelope{Type: TypeOperation, Data: data})
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return out, nil
}

// Decode parses a frame into the operation it carries. Operation decoding
// errors wrap shape.ErrUnknownOperation or shape.ErrMalformedOperation.
func Decode(frame []byte) (shape.Operation, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return shape.Operation{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type != TypeOperation {
		return shape.Operation{}, fmt.Errorf("%w: %q", ErrUnsupportedEnvelope, env.Type)
	}
	var op shape.Operation
	if err := json.Unmarshal(env.Data, &op); err != nil {
		return shape.Operation{}, fmt.Errorf("decode envelope: %w", err)
	}
	return op, nil
}
