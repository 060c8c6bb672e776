package canvas

import (
	"errors"
	"fmt"

	"github.com/roach88/canco/internal/shape"
)

// ContractViolation is the panic value raised when Apply receives an
// operation it cannot interpret. It marks a programming error: operation logs
// only ever hold decoded, well-formed operations.
type ContractViolation struct {
	OpID    string
	Message string
}

func (e *ContractViolation) Error() string {
	return fmt.Sprintf("contract violation: %s (op=%s)", e.Message, e.OpID)
}

// IsContractViolation reports whether err is a *ContractViolation.
func IsContractViolation(err error) bool {
	var cv *ContractViolation
	return errors.As(err, &cv)
}

// Apply returns the state produced by applying op to s. s is not modified.
//
// Operations that address a missing shape are no-ops. Apply panics with a
// *ContractViolation when op carries no payload or a payload type outside
// the closed operation set.
func Apply(s State, op shape.Operation) State {
	switch p := op.Payload.(type) {
	case shape.CreateShape:
		return applyCreate(s, p)
	case shape.UpdateShape:
		return applyUpdate(s, p)
	case shape.DeleteShape:
		return applyDelete(s, p)
	case shape.SelectShape:
		return applySelect(s, p)
	case shape.DeselectAll:
		return applyDeselectAll(s)
	default:
		panic(&ContractViolation{
			OpID:    op.ID,
			Message: fmt.Sprintf("unknown operation payload %T", op.Payload),
		})
	}
}

// Replay folds ops over base with Apply.
func Replay(base State, ops []shape.Operation) State {
	st := base
	if st.shapes == nil {
		st = Empty()
	}
	for _, op := range ops {
		st = Apply(st, op)
	}
	return st
}

func applyCreate(s State, p shape.CreateShape) State {
	next := s.clone()
	sh := p.Shape
	if sh.IsSelected {
		next.clearSelection()
		next.selected = sh.ID
	} else if next.selected == sh.ID {
		next.selected = ""
	}
	next.shapes[sh.ID] = sh
	return next
}

func applyUpdate(s State, p shape.UpdateShape) State {
	current, ok := s.shapes[p.ID]
	if !ok {
		return s
	}
	next := s.clone()
	merged := p.Changes.ApplyTo(current)

	switch {
	case merged.IsSelected && next.selected != p.ID:
		next.clearSelection()
		next.selected = p.ID
	case !merged.IsSelected && next.selected == p.ID:
		next.selected = ""
	}
	next.shapes[p.ID] = merged
	return next
}

func applyDelete(s State, p shape.DeleteShape) State {
	if _, ok := s.shapes[p.ID]; !ok {
		return s
	}
	next := s.clone()
	delete(next.shapes, p.ID)
	if next.selected == p.ID {
		next.selected = ""
	}
	return next
}

func applySelect(s State, p shape.SelectShape) State {
	next := s.clone()
	next.clearSelection()
	if sh, ok := next.shapes[p.ID]; ok {
		sh.IsSelected = true
		next.shapes[p.ID] = sh
		next.selected = p.ID
	}
	return next
}

func applyDeselectAll(s State) State {
	next := s.clone()
	next.clearSelection()
	return next
}

// clearSelection unsets the flag on every shape. Only call on a clone.
func (s *State) clearSelection() {
	for id, sh := range s.shapes {
		if sh.IsSelected {
			sh.IsSelected = false
			s.shapes[id] = sh
		}
	}
	s.selected = ""
}
