// Copyright 2019 the fault authors
// Licensed under the MIT license. See license text in the LICENSE file.

package fault

import (
	"github.com/pkg/errors"

	"github.com/makaimann/fault/expr"
)

// A Tester records test actions against a fixed circuit interface model.
// The model is immutable and may be shared; the tester and its log are not
// safe for concurrent use. Clear starts a fresh log so one tester can drive
// multiple independent lowering and run cycles.
type Tester struct {
	model *Model
	log   *Log
	clock Path
}

// New returns a tester over m. clock names the clock-like port used by
// Step; it may be nil for purely combinational tests.
func New(m *Model, clock Path) (*Tester, error) {
	if m == nil {
		return nil, errors.New("nil model")
	}
	if clock != nil {
		p, err := m.Resolve(clock)
		if err != nil {
			return nil, err
		}
		if !p.Dir.Drivable() {
			return nil, errors.Wrapf(ErrDirection, "clock %s is an %s port", clock, p.Dir)
		}
		if p.Width != 1 {
			return nil, errors.Wrapf(ErrWidthMismatch, "clock %s must be 1 bit wide, got %d", clock, p.Width)
		}
	}
	return &Tester{model: m, log: NewLog(m), clock: clock}, nil
}

// Model returns the circuit interface model.
func (t *Tester) Model() *Model { return t.model }

// Log returns the current action log.
func (t *Tester) Log() *Log { return t.log }

// Snapshot returns an immutable copy of the recorded actions.
func (t *Tester) Snapshot() []Action { return t.log.Snapshot() }

// Clear discards the recorded actions and starts a new log. The model and
// clock binding are kept.
func (t *Tester) Clear() { t.log = NewLog(t.model) }

// Poke records setting the port at path to bits. The value width is taken
// from the port.
func (t *Tester) Poke(path string, bits uint64) error {
	p := ParsePath(path)
	port, err := t.model.Resolve(p)
	if err != nil {
		return err
	}
	v, err := NewValue(bits, port.Width)
	if err != nil {
		return errors.Wrapf(err, "poke %s", path)
	}
	_, err = t.log.Append(Poke{Path: p, Value: v})
	return err
}

// Eval records an evaluation boundary committing pending pokes.
func (t *Tester) Eval() error {
	_, err := t.log.Append(Eval{})
	return err
}

// Step records advancing the configured clock through n half-periods. It
// fails if the tester was constructed without a clock.
func (t *Tester) Step(n int) error {
	if t.clock == nil {
		return errors.New("stepping a tester without a clock (was one given to New?)")
	}
	_, err := t.log.Append(Step{Clock: t.clock, Steps: n})
	return err
}

// StepClock records advancing the named clock-like port through n
// half-periods.
func (t *Tester) StepClock(path string, n int) error {
	_, err := t.log.Append(Step{Clock: ParsePath(path), Steps: n})
	return err
}

// Expect records an equality check of the port at path against bits.
func (t *Tester) Expect(path string, bits uint64) error {
	p := ParsePath(path)
	port, err := t.model.Resolve(p)
	if err != nil {
		return err
	}
	v, err := NewValue(bits, port.Width)
	if err != nil {
		return errors.Wrapf(err, "expect %s", path)
	}
	_, err = t.log.Append(Expect{Path: p, Value: v})
	return err
}

// Assume records a constraint over the named input paths. Predicate
// variables must be named by path string.
func (t *Tester) Assume(pred expr.Expr, paths ...string) error {
	_, err := t.log.Append(Assume{Pred: pred, Paths: parsePaths(paths)})
	return err
}

// Guarantee records a property over the named paths that must hold whenever
// the assumptions in scope hold.
func (t *Tester) Guarantee(pred expr.Expr, paths ...string) error {
	_, err := t.log.Append(Guarantee{Pred: pred, Paths: parsePaths(paths)})
	return err
}

func parsePaths(ss []string) []Path {
	ps := make([]Path, len(ss))
	for i, s := range ss {
		ps[i] = ParsePath(s)
	}
	return ps
}

// A Sequence is a reusable block of recording calls: a reset sequence, a
// configuration sequence, and so on. Sequences compose by explicit
// delegation instead of inheritance.
type Sequence func(*Tester) error

// Apply runs the sequences in order, stopping at the first error.
func (t *Tester) Apply(seqs ...Sequence) error {
	for _, s := range seqs {
		if err := s(t); err != nil {
			return err
		}
	}
	return nil
}
