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

func adderBounds(t *testing.T, tt *fault.Tester) {
	t.Helper()
	require.NoError(t, tt.Assume(expr.LAnd(
		expr.Lt(expr.V("a", 4), expr.C(8, 4)),
		expr.Lt(expr.V("b", 4), expr.C(8, 4)),
	), "a", "b"))
}

func TestExhaustAdderFits(t *testing.T) {
	dut := &bench.Adder{Width: 4}
	m := dut.Model()
	tt, err := fault.New(m, nil)
	require.NoError(t, err)
	adderBounds(t, tt)
	require.NoError(t, tt.Guarantee(expr.Lt(expr.V("o", 5), expr.C(16, 5)), "a", "b", "o"))
	art, err := lower.Lower(m, tt.Snapshot(), lower.TargetFormal, lower.Options{})
	require.NoError(t, err)

	res, err := engine.NewExhaust(dut).Run(context.Background(), art, "")
	require.NoError(t, err)
	assert.Empty(t, res.Failures, "a + b fits in 5 bits whenever both addends are below 8")
}

func TestExhaustAdderCounterexample(t *testing.T) {
	dut := &bench.Adder{Width: 4}
	m := dut.Model()
	tt, err := fault.New(m, nil)
	require.NoError(t, err)
	adderBounds(t, tt)
	require.NoError(t, tt.Guarantee(expr.Lt(expr.V("o", 5), expr.C(14, 5)), "a", "b", "o"))
	art, err := lower.Lower(m, tt.Snapshot(), lower.TargetFormal, lower.Options{})
	require.NoError(t, err)

	res, err := engine.NewExhaust(dut).Run(context.Background(), art, "")
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	f := res.Failures[0]
	assert.Equal(t, 1, f.Action)

	// the reported assignment must actually violate the property
	a := f.Counterexample["a"]
	b := f.Counterexample["b"]
	o := f.Counterexample["o"]
	require.False(t, a.IsZero() || b.IsZero() || o.IsZero())
	assert.Less(t, a.Bits(), uint64(8))
	assert.Less(t, b.Bits(), uint64(8))
	assert.Equal(t, a.Bits()+b.Bits(), o.Bits())
	assert.GreaterOrEqual(t, o.Bits(), uint64(14))
}

func TestExhaustWithoutDeviceModel(t *testing.T) {
	// with no device model the free output is unconstrained, so even the
	// generous bound has a counterexample
	dut := &bench.Adder{Width: 4}
	m := dut.Model()
	tt, err := fault.New(m, nil)
	require.NoError(t, err)
	adderBounds(t, tt)
	require.NoError(t, tt.Guarantee(expr.Lt(expr.V("o", 5), expr.C(16, 5)), "a", "b", "o"))
	art, err := lower.Lower(m, tt.Snapshot(), lower.TargetFormal, lower.Options{})
	require.NoError(t, err)

	res, err := (&engine.Exhaust{}).Run(context.Background(), art, "")
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	assert.GreaterOrEqual(t, res.Failures[0].Counterexample["o"].Bits(), uint64(16))
}

func TestExhaustEnumerationBound(t *testing.T) {
	m, err := fault.NewModel("wide", fault.Ports(fault.In("a[16], b[16]"), fault.Out("o[17]")))
	require.NoError(t, err)
	tt, err := fault.New(m, nil)
	require.NoError(t, err)
	require.NoError(t, tt.Assume(expr.Lt(expr.V("a", 16), expr.C(8, 16)), "a"))
	require.NoError(t, tt.Assume(expr.Lt(expr.V("b", 16), expr.C(8, 16)), "b"))
	require.NoError(t, tt.Guarantee(expr.Lt(expr.V("a", 16), expr.C(16, 16)), "a"))
	art, err := lower.Lower(m, tt.Snapshot(), lower.TargetFormal, lower.Options{})
	require.NoError(t, err)

	_, err = engine.NewExhaust(&bench.Adder{Width: 16}).Run(context.Background(), art, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enumeration bound")
}

func TestExhaustBoundCapsAtShiftWidth(t *testing.T) {
	// a raised bound must never let the enumeration count overflow uint64
	// and silently pass without checking anything
	m, err := fault.NewModel("wide", fault.Ports(fault.In("a[32], b[32]"), fault.Out("o[33]")))
	require.NoError(t, err)
	tt, err := fault.New(m, nil)
	require.NoError(t, err)
	require.NoError(t, tt.Assume(expr.Lt(expr.V("a", 32), expr.C(8, 32)), "a"))
	require.NoError(t, tt.Assume(expr.Lt(expr.V("b", 32), expr.C(8, 32)), "b"))
	require.NoError(t, tt.Guarantee(expr.Lt(expr.V("a", 32), expr.C(16, 32)), "a"))
	art, err := lower.Lower(m, tt.Snapshot(), lower.TargetFormal, lower.Options{})
	require.NoError(t, err)

	eng := &engine.Exhaust{DUT: &bench.Adder{Width: 32}, MaxBits: 64}
	_, err = eng.Run(context.Background(), art, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enumeration bound")
}

func TestExhaustRequiresFormalArtifact(t *testing.T) {
	dut := &bench.Passthrough{}
	m := dut.Model()
	art := lowerFor(t, m, lower.TargetCompiled, func(tt *fault.Tester) error {
		return tt.Poke("I", 1)
	})
	_, err := engine.NewExhaust(dut).Run(context.Background(), art, "")
	require.Error(t, err)
}
