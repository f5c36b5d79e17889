// Copyright 2019 the fault authors
// Licensed under the MIT license. See license text in the LICENSE file.

package engine

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/makaimann/fault"
	"github.com/makaimann/fault/expr"
	"github.com/makaimann/fault/lower"
)

// Exhaust is an in-process formal engine: it enumerates every assignment of
// the problem's free input variables and checks each obligation, producing
// a concrete counterexample on violation. Sound and complete for the small
// combinational state spaces it accepts; anything larger belongs on an
// external solver.
type Exhaust struct {
	// DUT computes output values from inputs. When nil, free outputs are
	// enumerated as unconstrained variables, matching the semantics of
	// the rendered SMT problem without a device model.
	DUT Evaluator
	// MaxBits bounds the total free-variable width. Default 20.
	MaxBits int
}

// DefaultMaxBits bounds enumeration when Exhaust.MaxBits is zero.
const DefaultMaxBits = 20

// NewExhaust returns an in-process formal engine over the given device
// model.
func NewExhaust(dut Evaluator) *Exhaust { return &Exhaust{DUT: dut} }

// Name implements Engine.
func (*Exhaust) Name() string { return "exhaust" }

// Run implements Engine. The directory is unused.
func (e *Exhaust) Run(ctx context.Context, art *lower.Artifact, dir string) (*Result, error) {
	spec := art.Formal
	if spec == nil {
		return nil, errors.Errorf("exhaust: artifact for target %s carries no formal problem", art.Target)
	}

	var vars []freeVar
	for name, w := range spec.FreeIn {
		vars = append(vars, freeVar{name, w})
	}
	if e.DUT == nil {
		for name, w := range spec.FreeOut {
			vars = append(vars, freeVar{name, w})
		}
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].name < vars[j].name })

	total := 0
	for _, v := range vars {
		total += v.width
	}
	maxBits := e.MaxBits
	if maxBits == 0 {
		maxBits = DefaultMaxBits
	}
	// the enumeration count 1<<total must fit in a uint64
	if maxBits > 63 {
		maxBits = 63
	}
	if total > maxBits {
		return nil, errors.Errorf("exhaust: %d free bits exceed the %d bit enumeration bound", total, maxBits)
	}

	var fails []fault.Failure
	for _, check := range spec.Checks {
		cex, err := e.search(ctx, spec, vars, check)
		if err != nil {
			return nil, err
		}
		if cex != nil {
			fails = append(fails, fault.Failure{
				Action:         check.Action,
				Message:        "counterexample found",
				Counterexample: cex,
			})
			if art.StopOnFail {
				break
			}
		}
	}
	return &Result{Failures: fails}, nil
}

type freeVar struct {
	name  string
	width int
}

// search looks for an assignment satisfying the check's assumptions but
// violating its predicate.
func (e *Exhaust) search(ctx context.Context, spec *lower.FormalSpec, vars []freeVar, check lower.FormalCheck) (map[string]fault.Value, error) {
	total := 0
	for _, v := range vars {
		total += v.width
	}
	count := uint64(1) << uint(total)

	base := make(expr.Binding, len(spec.Consts))
	for name, v := range spec.Consts {
		base[name] = v.Bits()
	}

	for idx := uint64(0); idx < count; idx++ {
		if idx&0x3ff == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		b := make(expr.Binding, len(base)+len(vars))
		for k, v := range base {
			b[k] = v
		}
		rest := idx
		for _, v := range vars {
			b[v.name] = rest & fault.Mask(v.width)
			rest >>= uint(v.width)
		}
		if e.DUT != nil {
			in := inputsOf(spec, b)
			e.DUT.Reset()
			for name, v := range e.DUT.Eval(in) {
				b[name] = v
			}
		}
		ok, err := holdsAll(check.Assumes, b)
		if err != nil {
			return nil, errors.Wrapf(err, "action %d", check.Action)
		}
		if !ok {
			continue
		}
		holds, err := expr.Holds(check.Pred, b)
		if err != nil {
			return nil, errors.Wrapf(err, "action %d", check.Action)
		}
		if !holds {
			return counterexample(spec, vars, b), nil
		}
	}
	return nil, nil
}

func holdsAll(preds []expr.Expr, b expr.Binding) (bool, error) {
	for _, p := range preds {
		ok, err := expr.Holds(p, b)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func inputsOf(spec *lower.FormalSpec, b expr.Binding) map[string]uint64 {
	in := make(map[string]uint64, len(spec.Consts)+len(spec.FreeIn))
	for name := range spec.Consts {
		in[name] = b[name]
	}
	for name := range spec.FreeIn {
		in[name] = b[name]
	}
	return in
}

func counterexample(spec *lower.FormalSpec, vars []freeVar, b expr.Binding) map[string]fault.Value {
	out := make(map[string]fault.Value, len(vars))
	for _, v := range vars {
		out[v.name] = fault.MustValue(b[v.name]&fault.Mask(v.width), v.width)
	}
	for name, w := range spec.FreeOut {
		if bits, ok := b[name]; ok {
			out[name] = fault.MustValue(bits&fault.Mask(w), w)
		}
	}
	return out
}
