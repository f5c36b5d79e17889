// Copyright 2019 the fault authors
// Licensed under the MIT license. See license text in the LICENSE file.

package lower

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/makaimann/fault"
	"github.com/makaimann/fault/expr"
)

// lowerSim builds the shared simulation program and renders it into the
// target's driver source.
func lowerSim(m *fault.Model, actions []fault.Action, target string, opts Options) (*Artifact, error) {
	prog, err := buildProgram(m, actions, target, opts)
	if err != nil {
		return nil, err
	}
	art := &Artifact{
		Target:     target,
		DUT:        m.Name(),
		Files:      make(map[string][]byte),
		Program:    prog,
		StopOnFail: opts.StopOnFail,
	}
	switch target {
	case TargetCompiled:
		src, err := renderDriverCPP(m, prog, opts)
		if err != nil {
			return nil, err
		}
		art.Main = "driver.cpp"
		art.Files[art.Main] = src
	case TargetEvent:
		src, err := renderTestbenchSV(m, prog, opts)
		if err != nil {
			return nil, err
		}
		art.Main = m.Name() + "_tb.sv"
		art.Files[art.Main] = src
	}
	return art, nil
}

// buildProgram lowers actions into the instruction sequence. Step expands
// into clock pokes and evaluation boundaries; Assume performs seeded
// rejection sampling and emits the sampled pokes; Guarantee installs a
// monitor. For the event-driven target no EvalOps are emitted: evaluation
// is implicit after every set, which preserves append order exactly.
func buildProgram(m *fault.Model, actions []fault.Action, target string, opts Options) ([]Op, error) {
	var prog []Op
	rng := rand.New(rand.NewSource(opts.Seed))
	explicit := target == TargetCompiled
	// last-known value per path; paths never poked read as zero
	last := make(map[string]uint64)

	for i, a := range actions {
		switch a := a.(type) {
		case fault.Poke:
			prog = append(prog, SetOp{Path: a.Path.String(), Value: a.Value, Action: i})
			last[a.Path.String()] = a.Value.Bits()
		case fault.Eval:
			if explicit {
				prog = append(prog, EvalOp{Action: i})
			}
		case fault.Step:
			clk := a.Clock.String()
			cur := last[clk]
			for s := 0; s < a.Steps; s++ {
				cur ^= 1
				prog = append(prog, SetOp{Path: clk, Value: fault.MustValue(cur, 1), Action: i})
				if explicit {
					prog = append(prog, EvalOp{Action: i})
				}
			}
			last[clk] = cur
		case fault.Expect:
			prog = append(prog, CheckOp{Path: a.Path.String(), Want: a.Value, Action: i})
		case fault.Assume:
			widths, err := pathWidths(m, a.Paths)
			if err != nil {
				return nil, errors.Wrapf(err, "action %d", i)
			}
			if err := expr.Validate(a.Pred, widths); err != nil {
				return nil, errors.Wrapf(err, "action %d", i)
			}
			sampled, err := sample(a, widths, rng, opts.maxResamples(), i)
			if err != nil {
				return nil, err
			}
			for _, p := range a.Paths {
				name := p.String()
				v := fault.MustValue(sampled[name], widths[name])
				prog = append(prog, SetOp{Path: name, Value: v, Action: i})
				last[name] = v.Bits()
			}
		case fault.Guarantee:
			widths, err := pathWidths(m, a.Paths)
			if err != nil {
				return nil, errors.Wrapf(err, "action %d", i)
			}
			if err := expr.Validate(a.Pred, widths); err != nil {
				return nil, errors.Wrapf(err, "action %d", i)
			}
			prog = append(prog, GuardOp{Pred: a.Pred, Action: i})
		default:
			return nil, errors.Errorf("action %d: unknown action type %T", i, a)
		}
	}
	return prog, nil
}

// sample draws candidate values for the assumed paths until the predicate
// holds, up to the resample bound.
func sample(a fault.Assume, widths map[string]int, rng *rand.Rand, bound, action int) (expr.Binding, error) {
	b := make(expr.Binding, len(a.Paths))
	for try := 0; try < bound; try++ {
		for _, p := range a.Paths {
			name := p.String()
			b[name] = rng.Uint64() & fault.Mask(widths[name])
		}
		ok, err := expr.Holds(a.Pred, b)
		if err != nil {
			return nil, errors.Wrapf(err, "action %d", action)
		}
		if ok {
			return b, nil
		}
	}
	return nil, &UnsatError{Action: action, Paths: pathNames(a.Paths), Bound: bound}
}

func pathWidths(m *fault.Model, paths []fault.Path) (map[string]int, error) {
	widths := make(map[string]int, len(paths))
	for _, p := range paths {
		port, err := m.Resolve(p)
		if err != nil {
			return nil, err
		}
		widths[p.String()] = port.Width
	}
	return widths, nil
}

func pathNames(ps []fault.Path) string {
	s := ""
	for i, p := range ps {
		if i > 0 {
			s += ", "
		}
		s += p.String()
	}
	return s
}
