// Copyright 2019 the fault authors
// Licensed under the MIT license. See license text in the LICENSE file.

package engine

import (
	"context"

	"github.com/pkg/errors"

	"github.com/makaimann/fault"
	"github.com/makaimann/fault/expr"
	"github.com/makaimann/fault/lower"
)

// An Evaluator is a functional model of a device under test, used by the
// in-process engines in place of compiled HDL. Implementations live in the
// bench package or in test code.
type Evaluator interface {
	// Reset returns the model to its power-on state.
	Reset()
	// Eval computes output values, keyed by path, from the current input
	// values and internal state.
	Eval(in map[string]uint64) map[string]uint64
	// Edge notifies the model of a rising edge on the named 1-bit path.
	Edge(clock string, in map[string]uint64)
}

// Interp executes a lowered simulation program in-process against an
// Evaluator. For event-simulation artifacts evaluation is implicit after
// every set; for compiled-simulation artifacts sets batch up until an
// explicit evaluation boundary, exactly as in the generated drivers.
type Interp struct {
	DUT Evaluator
}

// NewInterp returns an in-process engine over the given device model.
func NewInterp(dut Evaluator) *Interp { return &Interp{DUT: dut} }

// Name implements Engine.
func (*Interp) Name() string { return "interp" }

// Run implements Engine. The directory is unused: the interpreter has no
// side effects outside its own state.
func (it *Interp) Run(ctx context.Context, art *lower.Artifact, dir string) (*Result, error) {
	if it.DUT == nil {
		return nil, errors.New("interp: no device model")
	}
	if art.Program == nil {
		return nil, errors.Errorf("interp: artifact for target %s carries no program", art.Target)
	}
	it.DUT.Reset()

	implicit := art.Target == lower.TargetEvent
	in := make(map[string]uint64)
	outs := make(map[string]uint64)
	var guards []lower.GuardOp
	var fails []fault.Failure

	evalNow := func() error {
		outs = it.DUT.Eval(in)
		for _, g := range guards {
			b := bindingOf(in, outs)
			ok, err := expr.Holds(g.Pred, b)
			if err != nil {
				return errors.Wrapf(err, "action %d", g.Action)
			}
			if !ok {
				fails = append(fails, fault.Failure{
					Action:         g.Action,
					Message:        "guarantee violated",
					Counterexample: witness(g.Pred, b),
				})
			}
		}
		return nil
	}

	for _, op := range art.Program {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		switch op := op.(type) {
		case lower.SetOp:
			prev := in[op.Path]
			in[op.Path] = op.Value.Bits()
			if op.Value.Width() == 1 && prev == 0 && op.Value.Bits() == 1 {
				it.DUT.Edge(op.Path, in)
			}
			if implicit {
				if err := evalNow(); err != nil {
					return nil, err
				}
			}
		case lower.EvalOp:
			if err := evalNow(); err != nil {
				return nil, err
			}
		case lower.CheckOp:
			got, ok := outs[op.Path]
			if !ok {
				// never-driven outputs and input peeks read the
				// last-known value, zero before any poke
				got = in[op.Path]
			}
			if got != op.Want.Bits() {
				fails = append(fails, fault.Failure{
					Action:   op.Action,
					Path:     op.Path,
					Expected: op.Want,
					Actual:   fault.MustValue(got&fault.Mask(op.Want.Width()), op.Want.Width()),
				})
			}
		case lower.GuardOp:
			guards = append(guards, op)
		}
		if art.StopOnFail && len(fails) > 0 {
			break
		}
	}
	return &Result{Failures: fails}, nil
}

func bindingOf(in, outs map[string]uint64) expr.Binding {
	b := make(expr.Binding, len(in)+len(outs))
	for k, v := range in {
		b[k] = v
	}
	for k, v := range outs {
		b[k] = v
	}
	return b
}

// witness captures the predicate's variables from the binding as a
// counterexample assignment.
func witness(pred expr.Expr, b expr.Binding) map[string]fault.Value {
	out := make(map[string]fault.Value)
	for name, w := range expr.VarWidths(pred) {
		out[name] = fault.MustValue(b[name]&fault.Mask(w), w)
	}
	return out
}
