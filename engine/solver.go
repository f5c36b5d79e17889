// Copyright 2019 the fault authors
// Licensed under the MIT license. See license text in the LICENSE file.

package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/makaimann/fault/lower"
)

// Solver is the external engine for the formal target: it feeds the
// rendered SMT-LIB 2 problem to an SMT solver and reads counterexamples
// back from sat verdicts.
type Solver struct {
	// Bin is the solver binary; default "z3".
	Bin string
	// Flags precede the problem file; default "-smt2" for z3.
	Flags []string
	// Model names an SMT file of device-model constraints, relative to
	// the run directory, conjoined with the problem before solving. The
	// artifact alone leaves output ports unconstrained.
	Model string
}

// Name implements Engine.
func (*Solver) Name() string { return "solver" }

// Run implements Engine.
func (s *Solver) Run(ctx context.Context, art *lower.Artifact, dir string) (*Result, error) {
	if art.Formal == nil {
		return nil, errors.Errorf("solver: artifact for target %s carries no formal problem", art.Target)
	}
	bin := s.Bin
	if bin == "" {
		bin = "z3"
	}
	flags := s.Flags
	if len(flags) == 0 {
		flags = []string{"-smt2"}
	}

	problem := art.Main
	if s.Model != "" {
		merged, err := s.conjoin(art, dir)
		if err != nil {
			return nil, err
		}
		problem = merged
	}

	out, err := runCmd(ctx, dir, bin, append(flags, problem)...)
	if err != nil {
		return nil, errors.Wrapf(err, "solver failed:\n%s", out)
	}
	fails, err := parseSolver(art.Formal, out)
	if err != nil {
		return nil, err
	}
	return &Result{Failures: fails, Output: out}, nil
}

// conjoin splices the device-model constraints into the problem, after the
// declarations and before the first obligation scope.
func (s *Solver) conjoin(art *lower.Artifact, dir string) (string, error) {
	model, err := os.ReadFile(filepath.Join(dir, s.Model))
	if err != nil {
		return "", errors.Wrap(err, "read device model")
	}
	problem := string(art.Files[art.Main])
	i := strings.Index(problem, "(echo")
	if i < 0 {
		i = len(problem)
	}
	merged := problem[:i] + string(model) + "\n" + problem[i:]
	name := "problem_with_model.smt2"
	if err := os.WriteFile(filepath.Join(dir, name), []byte(merged), 0o644); err != nil {
		return "", errors.Wrap(err, "write conjoined problem")
	}
	return name, nil
}
