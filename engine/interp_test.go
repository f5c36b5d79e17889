// Copyright 2019 the fault authors
// Licensed under the MIT license. See license text in the LICENSE file.

package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makaimann/fault"
	"github.com/makaimann/fault/bench"
	"github.com/makaimann/fault/engine"
	"github.com/makaimann/fault/expr"
	"github.com/makaimann/fault/lower"
)

func lowerFor(t *testing.T, m *fault.Model, target string, f func(*fault.Tester) error) *lower.Artifact {
	t.Helper()
	clock := fault.Path(nil)
	if _, err := m.Resolve(fault.ParsePath("CLK")); err == nil {
		clock = fault.ParsePath("CLK")
	}
	tt, err := fault.New(m, clock)
	require.NoError(t, err)
	require.NoError(t, f(tt))
	art, err := lower.Lower(m, tt.Snapshot(), target, lower.Options{})
	require.NoError(t, err)
	return art
}

func TestInterpPassthrough(t *testing.T) {
	dut := &bench.Passthrough{}
	m := dut.Model()

	for _, target := range []string{lower.TargetCompiled, lower.TargetEvent} {
		t.Run(target, func(t *testing.T) {
			art := lowerFor(t, m, target, func(tt *fault.Tester) error {
				if err := tt.Poke("I", 1); err != nil {
					return err
				}
				if err := tt.Eval(); err != nil {
					return err
				}
				return tt.Expect("O", 1)
			})
			res, err := engine.NewInterp(dut).Run(context.Background(), art, "")
			require.NoError(t, err)
			assert.Empty(t, res.Failures)
		})
	}
}

func TestInterpPassthroughFailure(t *testing.T) {
	dut := &bench.Passthrough{}
	m := dut.Model()
	art := lowerFor(t, m, lower.TargetCompiled, func(tt *fault.Tester) error {
		if err := tt.Poke("I", 1); err != nil {
			return err
		}
		if err := tt.Eval(); err != nil {
			return err
		}
		return tt.Expect("O", 0)
	})
	res, err := engine.NewInterp(dut).Run(context.Background(), art, "")
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	f := res.Failures[0]
	assert.Equal(t, 2, f.Action)
	assert.Equal(t, "O", f.Path)
	assert.Equal(t, fault.MustValue(0, 1), f.Expected)
	assert.Equal(t, fault.MustValue(1, 1), f.Actual)
}

func TestInterpEventEvaluatesImplicitly(t *testing.T) {
	dut := &bench.Passthrough{}
	m := dut.Model()
	// no explicit eval: under the event target the poke alone settles O
	art := lowerFor(t, m, lower.TargetEvent, func(tt *fault.Tester) error {
		if err := tt.Poke("I", 1); err != nil {
			return err
		}
		return tt.Expect("O", 1)
	})
	res, err := engine.NewInterp(dut).Run(context.Background(), art, "")
	require.NoError(t, err)
	assert.Empty(t, res.Failures)
}

func TestInterpToggleFF(t *testing.T) {
	dut := &bench.ToggleFF{}
	m := dut.Model()
	art := lowerFor(t, m, lower.TargetCompiled, func(tt *fault.Tester) error {
		if err := tt.Eval(); err != nil {
			return err
		}
		if err := tt.Expect("O", 0); err != nil {
			return err
		}
		if err := tt.Step(2); err != nil {
			return err
		}
		if err := tt.Expect("O", 1); err != nil {
			return err
		}
		if err := tt.Step(2); err != nil {
			return err
		}
		return tt.Expect("O", 0)
	})
	res, err := engine.NewInterp(dut).Run(context.Background(), art, "")
	require.NoError(t, err)
	assert.Empty(t, res.Failures, "the output must invert once per two half-steps")
}

func TestInterpGuarantee(t *testing.T) {
	dut := &bench.Adder{Width: 4}
	m := dut.Model()
	art := lowerFor(t, m, lower.TargetCompiled, func(tt *fault.Tester) error {
		if err := tt.Guarantee(expr.Lt(expr.V("o", 5), expr.C(10, 5)), "o"); err != nil {
			return err
		}
		if err := tt.Poke("a", 3); err != nil {
			return err
		}
		if err := tt.Poke("b", 4); err != nil {
			return err
		}
		if err := tt.Eval(); err != nil {
			return err
		}
		if err := tt.Poke("a", 7); err != nil {
			return err
		}
		if err := tt.Poke("b", 7); err != nil {
			return err
		}
		return tt.Eval()
	})
	res, err := engine.NewInterp(dut).Run(context.Background(), art, "")
	require.NoError(t, err)
	require.Len(t, res.Failures, 1, "the monitor fires only for the violating frame")
	f := res.Failures[0]
	assert.Equal(t, 0, f.Action)
	assert.Equal(t, fault.MustValue(14, 5), f.Counterexample["o"])
}

func TestInterpConstrainedRandom(t *testing.T) {
	dut := &bench.Adder{Width: 4}
	m := dut.Model()
	art := lowerFor(t, m, lower.TargetCompiled, func(tt *fault.Tester) error {
		if err := tt.Assume(expr.LAnd(
			expr.Lt(expr.V("a", 4), expr.C(8, 4)),
			expr.Lt(expr.V("b", 4), expr.C(8, 4)),
		), "a", "b"); err != nil {
			return err
		}
		if err := tt.Guarantee(expr.Lt(expr.V("o", 5), expr.C(16, 5)), "o"); err != nil {
			return err
		}
		return tt.Eval()
	})
	// the assumption lowered into concrete sampled pokes
	sets := 0
	for _, op := range art.Program {
		if _, ok := op.(lower.SetOp); ok {
			sets++
		}
	}
	assert.Equal(t, 2, sets)

	res, err := engine.NewInterp(dut).Run(context.Background(), art, "")
	require.NoError(t, err)
	assert.Empty(t, res.Failures, "bounded addends never overflow the 5 bit sum")
}

func TestInterpStopOnFail(t *testing.T) {
	dut := &bench.Passthrough{}
	m := dut.Model()
	tt, err := fault.New(m, nil)
	require.NoError(t, err)
	require.NoError(t, tt.Poke("I", 1))
	require.NoError(t, tt.Eval())
	require.NoError(t, tt.Expect("O", 0))
	require.NoError(t, tt.Expect("O", 0))
	art, err := lower.Lower(m, tt.Snapshot(), lower.TargetCompiled, lower.Options{StopOnFail: true})
	require.NoError(t, err)

	res, err := engine.NewInterp(dut).Run(context.Background(), art, "")
	require.NoError(t, err)
	assert.Len(t, res.Failures, 1)
}
