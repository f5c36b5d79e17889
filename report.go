// Copyright 2019 the fault authors
// Licensed under the MIT license. See license text in the LICENSE file.

package fault

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// An Outcome classifies the result of one lowering and run cycle.
type Outcome int

const (
	// Pass: every check held.
	Pass Outcome = iota
	// Fail: at least one expect or guarantee was violated, a formal
	// counterexample was found, or an assumption was unsatisfiable.
	Fail
	// Timeout: the external engine exceeded the caller-supplied deadline.
	// Never conflated with Pass or Fail.
	Timeout
	// EngineError: the engine could not be invoked or did not produce a
	// usable result (missing binary, compile failure, unparsable output).
	EngineError
)

func (o Outcome) String() string {
	switch o {
	case Pass:
		return "pass"
	case Fail:
		return "fail"
	case Timeout:
		return "timeout"
	case EngineError:
		return "engine error"
	}
	return "outcome(" + strconv.Itoa(int(o)) + ")"
}

// A Failure describes one violated check with enough context to diagnose
// without re-running: the failing action's index, the port path, and either
// concrete expected/actual values (simulation) or a counterexample
// assignment (formal).
type Failure struct {
	Action         int
	Path           string
	Expected       Value // zero Value when not applicable
	Actual         Value
	Counterexample map[string]Value
	Message        string
}

func (f Failure) String() string {
	var b strings.Builder
	b.WriteString("action ")
	b.WriteString(strconv.Itoa(f.Action))
	if f.Path != "" {
		b.WriteString(" " + f.Path)
	}
	if !f.Expected.IsZero() || !f.Actual.IsZero() {
		b.WriteString(": expected " + f.Expected.String() + ", got " + f.Actual.String())
	}
	if len(f.Counterexample) > 0 {
		names := make([]string, 0, len(f.Counterexample))
		for n := range f.Counterexample {
			names = append(names, n)
		}
		sort.Strings(names)
		b.WriteString(": counterexample")
		for _, n := range names {
			b.WriteString(" " + n + "=" + f.Counterexample[n].String())
		}
	}
	if f.Message != "" {
		b.WriteString(": " + f.Message)
	}
	return b.String()
}

// A Report is the normalized outcome of one lowering and run cycle,
// identical in shape across backends.
type Report struct {
	Outcome Outcome
	Target  string
	Elapsed time.Duration

	// Failures aggregates every violated check of the run, in action
	// order, unless the cycle was configured to stop on the first failure.
	Failures []Failure

	// Diagnostics carries raw engine output for Timeout and EngineError
	// outcomes.
	Diagnostics string
}

// Failed reports whether the outcome is anything but Pass.
func (r *Report) Failed() bool { return r.Outcome != Pass }

func (r *Report) String() string {
	var b strings.Builder
	b.WriteString(r.Target + ": " + r.Outcome.String())
	for _, f := range r.Failures {
		b.WriteString("\n  " + f.String())
	}
	return b.String()
}
