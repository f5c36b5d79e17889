// Copyright 2019 the fault authors
// Licensed under the MIT license. See license text in the LICENSE file.

package lower_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makaimann/fault"
	"github.com/makaimann/fault/expr"
	"github.com/makaimann/fault/lower"
)

func adderModel(t *testing.T) *fault.Model {
	t.Helper()
	m, err := fault.NewModel("adder", fault.Ports(
		fault.In("CLK, a[4], b[4]"),
		fault.Out("o[5]"),
	))
	require.NoError(t, err)
	return m
}

func record(t *testing.T, m *fault.Model, f func(*fault.Tester) error) []fault.Action {
	t.Helper()
	tt, err := fault.New(m, fault.ParsePath("CLK"))
	require.NoError(t, err)
	require.NoError(t, f(tt))
	return tt.Snapshot()
}

func TestLowerUnknownTarget(t *testing.T) {
	m := adderModel(t)
	_, err := lower.Lower(m, nil, "spice", lower.Options{})
	assert.ErrorIs(t, err, lower.ErrUnknownTarget)
}

func TestProgramCompiled(t *testing.T) {
	m := adderModel(t)
	actions := record(t, m, func(tt *fault.Tester) error {
		if err := tt.Poke("a", 3); err != nil {
			return err
		}
		if err := tt.Poke("b", 4); err != nil {
			return err
		}
		if err := tt.Eval(); err != nil {
			return err
		}
		return tt.Expect("o", 7)
	})

	art, err := lower.Lower(m, actions, lower.TargetCompiled, lower.Options{})
	require.NoError(t, err)
	assert.Equal(t, "adder", art.DUT)
	assert.Equal(t, "driver.cpp", art.Main)
	require.Len(t, art.Program, 4)
	assert.Equal(t, lower.SetOp{Path: "a", Value: fault.MustValue(3, 4), Action: 0}, art.Program[0])
	assert.Equal(t, lower.SetOp{Path: "b", Value: fault.MustValue(4, 4), Action: 1}, art.Program[1])
	assert.Equal(t, lower.EvalOp{Action: 2}, art.Program[2])
	assert.Equal(t, lower.CheckOp{Path: "o", Want: fault.MustValue(7, 5), Action: 3}, art.Program[3])

	src := string(art.Files[art.Main])
	assert.Contains(t, src, `#include "Vadder.h"`)
	assert.Contains(t, src, "top->a = 3ULL;")
	assert.Contains(t, src, "top->eval();")
	assert.Contains(t, src, "FAULT-FAIL action=3 path=o expect=7")
	assert.Contains(t, src, "FAULT-DONE checks=")
}

func TestProgramEventHasNoEvalOps(t *testing.T) {
	m := adderModel(t)
	actions := record(t, m, func(tt *fault.Tester) error {
		if err := tt.Poke("a", 1); err != nil {
			return err
		}
		if err := tt.Eval(); err != nil {
			return err
		}
		return tt.Expect("o", 1)
	})

	art, err := lower.Lower(m, actions, lower.TargetEvent, lower.Options{})
	require.NoError(t, err)
	assert.Equal(t, "adder_tb.sv", art.Main)
	for _, op := range art.Program {
		_, isEval := op.(lower.EvalOp)
		assert.False(t, isEval, "event program must not carry explicit evaluation boundaries")
	}
	src := string(art.Files[art.Main])
	assert.Contains(t, src, "module adder_tb;")
	assert.Contains(t, src, "adder dut (")
	assert.Contains(t, src, "a = 4'd1;")
	assert.Contains(t, src, "if (o !== 5'd1) begin")
}

func TestEventInOutPortIsDriven(t *testing.T) {
	m, err := fault.NewModel("pad", fault.Ports(
		fault.In("en"),
		fault.InOut("io[4]"),
		fault.Out("q[4]"),
	))
	require.NoError(t, err)
	tt, err := fault.New(m, nil)
	require.NoError(t, err)
	require.NoError(t, tt.Poke("io", 5))
	require.NoError(t, tt.Expect("q", 5))

	art, err := lower.Lower(m, tt.Snapshot(), lower.TargetEvent, lower.Options{})
	require.NoError(t, err)
	src := string(art.Files[art.Main])
	assert.Contains(t, src, "reg [3:0] io;", "a poked inout must be a reg, not a wire")
	assert.Contains(t, src, "wire [3:0] q;")
	assert.Contains(t, src, "io = 4'd5;")
}

func TestProgramStepExpansion(t *testing.T) {
	m := adderModel(t)
	actions := record(t, m, func(tt *fault.Tester) error {
		return tt.Step(3)
	})

	art, err := lower.Lower(m, actions, lower.TargetCompiled, lower.Options{})
	require.NoError(t, err)
	// each half-period is one toggle plus one evaluation boundary
	require.Len(t, art.Program, 6)
	want := []uint64{1, 0, 1}
	for i, bits := range want {
		set, ok := art.Program[2*i].(lower.SetOp)
		require.True(t, ok)
		assert.Equal(t, "CLK", set.Path)
		assert.Equal(t, bits, set.Value.Bits())
		_, ok = art.Program[2*i+1].(lower.EvalOp)
		require.True(t, ok)
	}
}

func TestProgramStepResumesFromLastValue(t *testing.T) {
	m := adderModel(t)
	actions := record(t, m, func(tt *fault.Tester) error {
		if err := tt.Poke("CLK", 1); err != nil {
			return err
		}
		return tt.Step(1)
	})
	art, err := lower.Lower(m, actions, lower.TargetCompiled, lower.Options{})
	require.NoError(t, err)
	set := art.Program[1].(lower.SetOp)
	assert.Equal(t, uint64(0), set.Value.Bits(), "step after poking the clock high must toggle low")
}

func TestLowerAssumeSamplesSatisfying(t *testing.T) {
	m := adderModel(t)
	pred := expr.LAnd(
		expr.Lt(expr.V("a", 4), expr.C(8, 4)),
		expr.Lt(expr.V("b", 4), expr.C(8, 4)),
	)
	actions := record(t, m, func(tt *fault.Tester) error {
		return tt.Assume(pred, "a", "b")
	})

	art, err := lower.Lower(m, actions, lower.TargetCompiled, lower.Options{Seed: 7})
	require.NoError(t, err)
	require.Len(t, art.Program, 2)
	got := expr.Binding{}
	for _, op := range art.Program {
		set := op.(lower.SetOp)
		got[set.Path] = set.Value.Bits()
	}
	ok, err := expr.Holds(pred, got)
	require.NoError(t, err)
	assert.True(t, ok, "sampled values %v must satisfy the assumption", got)
}

func TestLowerAssumeUnsatisfiable(t *testing.T) {
	m := adderModel(t)
	actions := record(t, m, func(tt *fault.Tester) error {
		// a < a never holds
		return tt.Assume(expr.Lt(expr.V("a", 4), expr.V("a", 4)), "a")
	})

	_, err := lower.Lower(m, actions, lower.TargetCompiled, lower.Options{MaxResamples: 50})
	require.Error(t, err)
	assert.ErrorIs(t, err, lower.ErrAssumptionUnsatisfiable)
	var unsat *lower.UnsatError
	require.ErrorAs(t, err, &unsat)
	assert.Equal(t, 0, unsat.Action)
	assert.Equal(t, 50, unsat.Bound)
}

func TestLowerRejectsBadPredicates(t *testing.T) {
	m := adderModel(t)

	// undeclared variable
	actions := record(t, m, func(tt *fault.Tester) error {
		return tt.Guarantee(expr.Lt(expr.V("a", 4), expr.V("b", 4)), "a")
	})
	_, err := lower.Lower(m, actions, lower.TargetCompiled, lower.Options{})
	assert.ErrorIs(t, err, expr.ErrUnsupportedShape)

	// declared width disagrees with the port
	actions = record(t, m, func(tt *fault.Tester) error {
		return tt.Guarantee(expr.Lt(expr.V("a", 8), expr.C(8, 8)), "a")
	})
	_, err = lower.Lower(m, actions, lower.TargetCompiled, lower.Options{})
	assert.ErrorIs(t, err, expr.ErrUnsupportedShape)
}

func TestLowerIdempotent(t *testing.T) {
	m := adderModel(t)
	actions := record(t, m, func(tt *fault.Tester) error {
		if err := tt.Assume(expr.Lt(expr.V("a", 4), expr.C(8, 4)), "a"); err != nil {
			return err
		}
		if err := tt.Eval(); err != nil {
			return err
		}
		return tt.Expect("o", 0)
	})

	for _, target := range []string{lower.TargetCompiled, lower.TargetEvent, lower.TargetFormal} {
		opts := lower.Options{Seed: 42}
		a1, err := lower.Lower(m, actions, target, opts)
		require.NoError(t, err, target)
		a2, err := lower.Lower(m, actions, target, opts)
		require.NoError(t, err, target)
		require.Equal(t, len(a1.Files), len(a2.Files), target)
		for name := range a1.Files {
			assert.True(t, bytes.Equal(a1.Files[name], a2.Files[name]),
				"%s: %s differs between identical lowerings", target, name)
		}
	}
}

func TestLowerStopOnFail(t *testing.T) {
	m := adderModel(t)
	actions := record(t, m, func(tt *fault.Tester) error {
		if err := tt.Eval(); err != nil {
			return err
		}
		return tt.Expect("o", 0)
	})
	art, err := lower.Lower(m, actions, lower.TargetCompiled, lower.Options{StopOnFail: true})
	require.NoError(t, err)
	assert.True(t, art.StopOnFail)
	assert.Contains(t, string(art.Files[art.Main]), "goto done;")
}
