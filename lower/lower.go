// Copyright 2019 the fault authors
// Licensed under the MIT license. See license text in the LICENSE file.

/*
Package lower translates a recorded action log plus its circuit interface
model into backend-specific artifacts: a C++ driver for compiled
cycle-accurate simulation, a SystemVerilog testbench for event-driven
simulation, or an SMT-LIB 2 problem for formal property checking.

Lowering is a pure data transformation. Structural problems such as unknown
targets, unsupported predicate shapes or temporal actions under the formal
target abort artifact generation; they indicate a description error,
not a test failure. Lowering the same snapshot twice with the same options
produces byte-identical artifacts: constrained-random sampling is seeded.
*/
package lower

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/makaimann/fault"
	"github.com/makaimann/fault/expr"
)

// Recognized target names.
const (
	TargetCompiled = "compiled-simulation"
	TargetEvent    = "event-simulation"
	TargetFormal   = "formal"
)

var (
	// ErrUnknownTarget is returned for an unrecognized target name.
	ErrUnknownTarget = errors.New("unknown target")

	// ErrUnsupportedTemporalAction is returned when a Step is lowered for
	// the formal target: only combinational properties over a single
	// evaluation are supported.
	ErrUnsupportedTemporalAction = errors.New("unsupported temporal action")

	// ErrAssumptionUnsatisfiable is the cause of an UnsatError.
	ErrAssumptionUnsatisfiable = errors.New("assumption unsatisfiable")
)

// An UnsatError reports that rejection sampling for an assumption exceeded
// the resample bound.
type UnsatError struct {
	Action int
	Paths  string
	Bound  int
}

func (e *UnsatError) Error() string {
	return "action " + strconv.Itoa(e.Action) + ": assumption over " + e.Paths +
		" unsatisfiable after " + strconv.Itoa(e.Bound) + " samples"
}

// Unwrap makes the error match ErrAssumptionUnsatisfiable under errors.Is.
func (e *UnsatError) Unwrap() error { return ErrAssumptionUnsatisfiable }

// Options configure lowering.
type Options struct {
	// MaxResamples bounds rejection sampling per assumption. Defaults to
	// DefaultMaxResamples.
	MaxResamples int
	// Seed seeds the constrained-random sampler. The default of 0 is a
	// valid, fixed seed: identical snapshots lower to identical artifacts.
	Seed int64
	// StopOnFail generates drivers that abort at the first failed check
	// instead of aggregating every outcome.
	StopOnFail bool
}

// DefaultMaxResamples bounds rejection sampling when Options.MaxResamples
// is zero.
const DefaultMaxResamples = 1000

func (o Options) maxResamples() int {
	if o.MaxResamples > 0 {
		return o.MaxResamples
	}
	return DefaultMaxResamples
}

// An Op is one instruction of the lowered simulation program. The program
// is the structured counterpart of the generated driver source and is what
// the in-process engines execute.
type Op interface{ op() }

// A SetOp sets the value at a path.
type SetOp struct {
	Path   string
	Value  fault.Value
	Action int
}

// An EvalOp commits pending sets to an evaluation step. Present only in
// compiled-simulation programs; the event-driven execution model evaluates
// implicitly after every set.
type EvalOp struct {
	Action int
}

// A CheckOp compares the current value at a path against Want.
type CheckOp struct {
	Path   string
	Want   fault.Value
	Action int
}

// A GuardOp installs a guarantee monitor: from this point on the predicate
// is evaluated after every evaluation boundary.
type GuardOp struct {
	Pred   expr.Expr
	Action int
}

func (SetOp) op()   {}
func (EvalOp) op()  {}
func (CheckOp) op() {}
func (GuardOp) op() {}

// An Artifact is the backend-specific product of lowering: generated source
// files plus, for simulation targets, the structured program and, for the
// formal target, the structured problem.
type Artifact struct {
	Target string
	DUT    string
	// Main names the primary generated file in Files.
	Main  string
	Files map[string][]byte

	// Program is the lowered instruction sequence (simulation targets).
	Program []Op
	// Formal is the lowered proof problem (formal target).
	Formal *FormalSpec

	// StopOnFail records the lowering option for engines that execute the
	// structured program directly.
	StopOnFail bool
}

// Lower translates the action snapshot into an artifact for the named
// target. Structural errors abort lowering; an unsatisfiable assumption is
// reported as an *UnsatError.
func Lower(m *fault.Model, actions []fault.Action, target string, opts Options) (*Artifact, error) {
	switch target {
	case TargetCompiled, TargetEvent:
		return lowerSim(m, actions, target, opts)
	case TargetFormal:
		return lowerFormal(m, actions, opts)
	}
	return nil, errors.Wrap(ErrUnknownTarget, target)
}
