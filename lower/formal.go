// Copyright 2019 the fault authors
// Licensed under the MIT license. See license text in the LICENSE file.

package lower

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/makaimann/fault"
	"github.com/makaimann/fault/expr"
)

// A FormalCheck is one proof obligation: the predicate must hold whenever
// the assumptions recorded before it hold.
type FormalCheck struct {
	Action  int
	Pred    expr.Expr
	Assumes []expr.Expr
}

// A FormalSpec is the structured form of the formal artifact. Inputs poked
// but never assumed are fixed constants; assumed inputs and paths never
// poked remain genuinely free variables. That asymmetry with the
// simulation targets (which fall back to last-known values) is intentional:
// it mirrors the difference between concrete execution state and symbolic
// proof state.
type FormalSpec struct {
	DUT     string
	Consts  map[string]fault.Value
	FreeIn  map[string]int
	FreeOut map[string]int
	Checks  []FormalCheck
}

// lowerFormal builds a FormalSpec and its SMT-LIB 2 rendering. Step is
// rejected: only combinational properties over a single evaluation are
// supported.
func lowerFormal(m *fault.Model, actions []fault.Action, opts Options) (*Artifact, error) {
	// paths that are the subject of any assumption stay free variables
	// even when poked
	assumed := make(map[string]bool)
	for _, a := range actions {
		if as, ok := a.(fault.Assume); ok {
			for _, p := range as.Paths {
				assumed[p.String()] = true
			}
		}
	}

	spec := &FormalSpec{
		DUT:     m.Name(),
		Consts:  make(map[string]fault.Value),
		FreeIn:  make(map[string]int),
		FreeOut: make(map[string]int),
	}
	free := func(path string) error {
		p, err := m.Resolve(fault.ParsePath(path))
		if err != nil {
			return err
		}
		if _, ok := spec.Consts[path]; ok {
			return nil
		}
		if p.Dir.Drivable() {
			spec.FreeIn[path] = p.Width
		} else {
			spec.FreeOut[path] = p.Width
		}
		return nil
	}
	var assumes []expr.Expr

	for i, a := range actions {
		switch a := a.(type) {
		case fault.Poke:
			name := a.Path.String()
			if assumed[name] {
				continue // the assumption owns this path
			}
			spec.Consts[name] = a.Value
			delete(spec.FreeIn, name)
		case fault.Eval:
			// single combinational frame; nothing to commit
		case fault.Step:
			return nil, errors.Wrapf(ErrUnsupportedTemporalAction,
				"action %d: step %s under formal target", i, a.Clock)
		case fault.Expect:
			// a top-level expect is an implicit guarantee holding
			// unconditionally at this point in the sequence
			name := a.Path.String()
			if err := free(name); err != nil {
				return nil, errors.Wrapf(err, "action %d", i)
			}
			pred := expr.Eq(expr.V(name, a.Value.Width()), expr.C(a.Value.Bits(), a.Value.Width()))
			spec.Checks = append(spec.Checks, FormalCheck{
				Action:  i,
				Pred:    pred,
				Assumes: append([]expr.Expr(nil), assumes...),
			})
		case fault.Assume:
			widths, err := pathWidths(m, a.Paths)
			if err != nil {
				return nil, errors.Wrapf(err, "action %d", i)
			}
			if err := expr.Validate(a.Pred, widths); err != nil {
				return nil, errors.Wrapf(err, "action %d", i)
			}
			for _, p := range a.Paths {
				if err := free(p.String()); err != nil {
					return nil, errors.Wrapf(err, "action %d", i)
				}
			}
			assumes = append(assumes, a.Pred)
		case fault.Guarantee:
			widths, err := pathWidths(m, a.Paths)
			if err != nil {
				return nil, errors.Wrapf(err, "action %d", i)
			}
			if err := expr.Validate(a.Pred, widths); err != nil {
				return nil, errors.Wrapf(err, "action %d", i)
			}
			for _, p := range a.Paths {
				if err := free(p.String()); err != nil {
					return nil, errors.Wrapf(err, "action %d", i)
				}
			}
			spec.Checks = append(spec.Checks, FormalCheck{
				Action:  i,
				Pred:    a.Pred,
				Assumes: append([]expr.Expr(nil), assumes...),
			})
		default:
			return nil, errors.Errorf("action %d: unknown action type %T", i, a)
		}
	}

	src, err := renderSMT(spec)
	if err != nil {
		return nil, err
	}
	return &Artifact{
		Target:     TargetFormal,
		DUT:        m.Name(),
		Main:       "problem.smt2",
		Files:      map[string][]byte{"problem.smt2": src},
		Formal:     spec,
		StopOnFail: opts.StopOnFail,
	}, nil
}

// renderSMT renders the spec as an SMT-LIB 2 problem with one push/pop
// scope per obligation. Each check asserts its assumptions and the negated
// obligation: sat means a counterexample, unsat means the property holds.
// Free output variables are unconstrained here; the solver runner conjoins
// the device model.
func renderSMT(spec *FormalSpec) ([]byte, error) {
	var b strings.Builder
	b.WriteString("(set-logic QF_BV)\n")
	b.WriteString("(set-option :produce-models true)\n")
	fmt.Fprintf(&b, "; circuit: %s (device model conjoined by the runner)\n", spec.DUT)

	for _, name := range sortedDecls(spec) {
		fmt.Fprintf(&b, "(declare-const %s (_ BitVec %d))\n", name.name, name.width)
	}
	for _, name := range sortedConsts(spec) {
		v := spec.Consts[name]
		fmt.Fprintf(&b, "(assert (= %s %s))\n", name, smtLitBytes(v))
	}
	for k, c := range spec.Checks {
		fmt.Fprintf(&b, "(echo \"%s %d action=%d\")\n", MarkCheck, k, c.Action)
		b.WriteString("(push 1)\n")
		for _, a := range c.Assumes {
			s, err := expr.Render(a, expr.DialectSMT2)
			if err != nil {
				return nil, errors.Wrapf(err, "action %d", c.Action)
			}
			fmt.Fprintf(&b, "(assert %s)\n", s)
		}
		s, err := expr.Render(c.Pred, expr.DialectSMT2)
		if err != nil {
			return nil, errors.Wrapf(err, "action %d", c.Action)
		}
		fmt.Fprintf(&b, "(assert (not %s))\n", s)
		b.WriteString("(check-sat)\n")
		b.WriteString("(get-model)\n")
		b.WriteString("(pop 1)\n")
	}
	b.WriteString("(exit)\n")
	return []byte(b.String()), nil
}

type decl struct {
	name  string
	width int
}

func sortedDecls(spec *FormalSpec) []decl {
	var out []decl
	for name, v := range spec.Consts {
		out = append(out, decl{name, v.Width()})
	}
	for name, w := range spec.FreeIn {
		out = append(out, decl{name, w})
	}
	for name, w := range spec.FreeOut {
		out = append(out, decl{name, w})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

func sortedConsts(spec *FormalSpec) []string {
	out := make([]string, 0, len(spec.Consts))
	for name := range spec.Consts {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func smtLitBytes(v fault.Value) string {
	var b strings.Builder
	b.WriteString("#b")
	for i := v.Width() - 1; i >= 0; i-- {
		if v.Bits()&(1<<uint(i)) != 0 {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}
