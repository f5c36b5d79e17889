// Copyright 2019 the fault authors
// Licensed under the MIT license. See license text in the LICENSE file.

package fault

import (
	"github.com/pkg/errors"
)

// A Log is the ordered, append-only sequence of recorded test actions for
// one circuit interface model. Ordering is significant and preserved
// exactly: all backends observe actions in append order, since later pokes
// may override earlier ones before the next evaluation boundary.
type Log struct {
	model   *Model
	actions []Action
}

// NewLog returns an empty action log bound to m.
func NewLog(m *Model) *Log {
	return &Log{model: m}
}

// Model returns the circuit interface model the log records against.
func (l *Log) Model() *Model { return l.model }

// Len returns the number of recorded actions.
func (l *Log) Len() int { return len(l.actions) }

// Append validates a and appends it to the log. Structural problems
// (ErrUnknownPath, ErrWidthMismatch, ErrDirection) are detected here, at
// append time, and leave the log unchanged.
func (l *Log) Append(a Action) (ActionID, error) {
	if err := l.validate(a); err != nil {
		return 0, err
	}
	l.actions = append(l.actions, a)
	return ActionID(len(l.actions) - 1), nil
}

// Snapshot returns an immutable copy of the recorded actions for handoff to
// lowering. Snapshotting does not clear the log, so the same recording can
// be lowered against multiple backends.
func (l *Log) Snapshot() []Action {
	return append([]Action(nil), l.actions...)
}

func (l *Log) validate(a Action) error {
	switch a := a.(type) {
	case Poke:
		p, err := l.model.Resolve(a.Path)
		if err != nil {
			return err
		}
		if !p.Dir.Drivable() {
			return errors.Wrapf(ErrDirection, "cannot poke %s port %s", p.Dir, a.Path)
		}
		if a.Value.Width() != p.Width {
			return errors.Wrapf(ErrWidthMismatch, "poke %s: value is %d bits, port is %d",
				a.Path, a.Value.Width(), p.Width)
		}
	case Eval:
		// no operands
	case Step:
		p, err := l.model.Resolve(a.Clock)
		if err != nil {
			return err
		}
		if !p.Dir.Drivable() {
			return errors.Wrapf(ErrDirection, "cannot step %s port %s", p.Dir, a.Clock)
		}
		if p.Width != 1 {
			return errors.Wrapf(ErrWidthMismatch, "step %s: clock must be 1 bit wide, got %d",
				a.Clock, p.Width)
		}
		if a.Steps < 1 {
			return errors.Errorf("step %s: step count %d < 1", a.Clock, a.Steps)
		}
	case Expect:
		p, err := l.model.Resolve(a.Path)
		if err != nil {
			return err
		}
		if a.Value.Width() != p.Width {
			return errors.Wrapf(ErrWidthMismatch, "expect %s: value is %d bits, port is %d",
				a.Path, a.Value.Width(), p.Width)
		}
	case Assume:
		if a.Pred == nil {
			return errors.New("assume with nil predicate")
		}
		if len(a.Paths) == 0 {
			return errors.New("assume with no involved paths")
		}
		for _, path := range a.Paths {
			p, err := l.model.Resolve(path)
			if err != nil {
				return err
			}
			if !p.Dir.Drivable() {
				return errors.Wrapf(ErrDirection, "cannot assume over %s port %s", p.Dir, path)
			}
		}
	case Guarantee:
		if a.Pred == nil {
			return errors.New("guarantee with nil predicate")
		}
		if len(a.Paths) == 0 {
			return errors.New("guarantee with no involved paths")
		}
		for _, path := range a.Paths {
			if _, err := l.model.Resolve(path); err != nil {
				return err
			}
		}
	default:
		return errors.Errorf("unknown action type %T", a)
	}
	return nil
}
