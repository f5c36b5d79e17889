// Copyright 2019 the fault authors
// Licensed under the MIT license. See license text in the LICENSE file.

package iface

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/makaimann/fault"
	"github.com/makaimann/fault/expr"
)

// A Script is a YAML-encoded action sequence:
//
//	- poke: {path: I, value: 1}
//	- eval: {}
//	- expect: {path: O, value: 1}
//	- step: {n: 2}
//	- assume: {pred: "a < 8", paths: [a]}
//	- guarantee: {pred: "o < 16", paths: [o]}
//
// Each entry carries exactly one of the action keys. Predicates use the
// textual form accepted by expr.Parse, with port paths as variables.
type Script []ScriptStep

// A ScriptStep is one entry of a script. Exactly one field is set.
type ScriptStep struct {
	Poke      *PokeStep `yaml:"poke"`
	Eval      *struct{} `yaml:"eval"`
	Step      *StepStep `yaml:"step"`
	Expect    *PokeStep `yaml:"expect"`
	Assume    *PredStep `yaml:"assume"`
	Guarantee *PredStep `yaml:"guarantee"`
}

// A PokeStep sets or checks one port.
type PokeStep struct {
	Path  string `yaml:"path"`
	Value uint64 `yaml:"value"`
}

// A StepStep advances a clock. An empty path uses the tester's clock.
type StepStep struct {
	Path string `yaml:"path"`
	N    int    `yaml:"n"`
}

// A PredStep constrains or checks the named ports with a predicate.
type PredStep struct {
	Pred  string   `yaml:"pred"`
	Paths []string `yaml:"paths"`
}

// LoadScript reads an action script from a YAML file.
func LoadScript(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read action script")
	}
	return DecodeScript(data)
}

// DecodeScript decodes a YAML-encoded action script.
func DecodeScript(data []byte) (Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "decode action script")
	}
	return s, nil
}

// Apply records the script's actions on the tester, in order. Recording
// stops at the first invalid step, leaving the earlier ones in the log.
func (s Script) Apply(t *fault.Tester) error {
	for i, step := range s {
		if err := step.apply(t); err != nil {
			return errors.Wrapf(err, "script step %d", i)
		}
	}
	return nil
}

func (st ScriptStep) apply(t *fault.Tester) error {
	switch {
	case st.Poke != nil:
		return t.Poke(st.Poke.Path, st.Poke.Value)
	case st.Eval != nil:
		return t.Eval()
	case st.Step != nil:
		n := st.Step.N
		if n == 0 {
			n = 1
		}
		if st.Step.Path == "" {
			return t.Step(n)
		}
		return t.StepClock(st.Step.Path, n)
	case st.Expect != nil:
		return t.Expect(st.Expect.Path, st.Expect.Value)
	case st.Assume != nil:
		pred, err := parsePred(t.Model(), st.Assume)
		if err != nil {
			return err
		}
		return t.Assume(pred, st.Assume.Paths...)
	case st.Guarantee != nil:
		pred, err := parsePred(t.Model(), st.Guarantee)
		if err != nil {
			return err
		}
		return t.Guarantee(pred, st.Guarantee.Paths...)
	}
	return errors.New("empty script step")
}

func parsePred(m *fault.Model, ps *PredStep) (expr.Expr, error) {
	declared := make(map[string]int, len(ps.Paths))
	for _, s := range ps.Paths {
		port, err := m.Resolve(fault.ParsePath(s))
		if err != nil {
			return nil, err
		}
		declared[s] = port.Width
	}
	return expr.Parse(ps.Pred, declared)
}
