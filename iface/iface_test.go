// Copyright 2019 the fault authors
// Licensed under the MIT license. See license text in the LICENSE file.

package iface_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makaimann/fault"
	"github.com/makaimann/fault/iface"
)

const adderYAML = `
name: adder
ports:
  - {name: CLK, dir: in}
  - {name: a, dir: in, width: 4}
  - {name: b, dir: in, width: 4}
  - {name: o, dir: out, width: 5}
subs:
  - name: alu
    ports:
      - {name: carry, dir: out}
`

func TestDecodeModel(t *testing.T) {
	m, err := iface.DecodeModel([]byte(adderYAML))
	require.NoError(t, err)
	assert.Equal(t, "adder", m.Name())

	p, err := m.Resolve(fault.ParsePath("a"))
	require.NoError(t, err)
	assert.Equal(t, fault.DirIn, p.Dir)
	assert.Equal(t, 4, p.Width)

	p, err = m.Resolve(fault.ParsePath("CLK"))
	require.NoError(t, err)
	assert.Equal(t, 1, p.Width, "omitted width defaults to 1")

	p, err = m.Resolve(fault.ParsePath("alu.carry"))
	require.NoError(t, err)
	assert.Equal(t, fault.DirOut, p.Dir)
}

func TestDecodeModelErrors(t *testing.T) {
	_, err := iface.DecodeModel([]byte("name: m\nports:\n  - {name: x, dir: sideways}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sideways")

	_, err = iface.DecodeModel([]byte("ports: {not: a list}\n"))
	require.Error(t, err)
}

const scriptYAML = `
- poke: {path: a, value: 3}
- poke: {path: b, value: 4}
- eval: {}
- expect: {path: o, value: 7}
- step: {n: 2}
- assume: {pred: "a < 8 && b < 8", paths: [a, b]}
- guarantee: {pred: "o < 16", paths: [o]}
`

func TestScriptApply(t *testing.T) {
	m, err := iface.DecodeModel([]byte(adderYAML))
	require.NoError(t, err)
	tt, err := fault.New(m, fault.ParsePath("CLK"))
	require.NoError(t, err)

	script, err := iface.DecodeScript([]byte(scriptYAML))
	require.NoError(t, err)
	require.NoError(t, script.Apply(tt))

	snap := tt.Snapshot()
	require.Len(t, snap, 7)
	if p, ok := snap[0].(fault.Poke); assert.True(t, ok) {
		assert.Equal(t, "a", p.Path.String())
		assert.Equal(t, uint64(3), p.Value.Bits())
	}
	if s, ok := snap[4].(fault.Step); assert.True(t, ok) {
		assert.Equal(t, "CLK", s.Clock.String())
		assert.Equal(t, 2, s.Steps)
	}
	if a, ok := snap[5].(fault.Assume); assert.True(t, ok) {
		assert.Len(t, a.Paths, 2)
	}
}

func TestScriptApplyErrors(t *testing.T) {
	m, err := iface.DecodeModel([]byte(adderYAML))
	require.NoError(t, err)
	tt, err := fault.New(m, nil)
	require.NoError(t, err)

	script, err := iface.DecodeScript([]byte("- poke: {path: nope, value: 1}\n"))
	require.NoError(t, err)
	err = script.Apply(tt)
	assert.ErrorIs(t, err, fault.ErrUnknownPath)

	script, err = iface.DecodeScript([]byte("- guarantee: {pred: \"x < 2\", paths: [o]}\n"))
	require.NoError(t, err)
	err = script.Apply(tt)
	require.Error(t, err, "predicate over an undeclared path must fail")

	script, err = iface.DecodeScript([]byte("- {}\n"))
	require.NoError(t, err)
	err = script.Apply(tt)
	require.Error(t, err)
}
