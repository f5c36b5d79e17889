// Copyright 2019 the fault authors
// Licensed under the MIT license. See license text in the LICENSE file.

package engine

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/makaimann/fault"
	"github.com/makaimann/fault/lower"
)

var (
	failRe  = regexp.MustCompile(lower.MarkFail + ` action=(\d+) path=(\S+) expect=(\d+) actual=(\d+)`)
	guardRe = regexp.MustCompile(lower.MarkGuard + ` action=(\d+)`)
	doneRe  = regexp.MustCompile(lower.MarkDone + ` checks=(\d+) failures=(\d+)`)
	checkRe = regexp.MustCompile(lower.MarkCheck + ` (\d+) action=(\d+)`)
	modelRe = regexp.MustCompile(`\(define-fun\s+(\S+)\s+\(\)\s+\(_\s+BitVec\s+(\d+)\)\s+(#b[01]+|#x[0-9a-fA-F]+|\d+)\s*\)`)
)

// parseMarkers turns a simulation driver's console output back into
// failures. The trailing FAULT-DONE line is the proof the run completed;
// without it the output is unusable and the run is an engine error.
func parseMarkers(art *lower.Artifact, out string) ([]fault.Failure, error) {
	if !doneRe.MatchString(out) {
		return nil, errors.Errorf("simulation did not complete:\n%s", out)
	}
	checks := make(map[int]lower.CheckOp)
	for _, op := range art.Program {
		if c, ok := op.(lower.CheckOp); ok {
			checks[c.Action] = c
		}
	}
	var fails []fault.Failure
	for _, line := range strings.Split(out, "\n") {
		if m := failRe.FindStringSubmatch(line); m != nil {
			action, _ := strconv.Atoi(m[1])
			actual, err := strconv.ParseUint(m[4], 10, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "bad actual value in %q", line)
			}
			f := fault.Failure{Action: action, Path: m[2]}
			if c, ok := checks[action]; ok {
				f.Expected = c.Want
				f.Actual = fault.MustValue(actual&fault.Mask(c.Want.Width()), c.Want.Width())
			} else {
				f.Message = line
			}
			fails = append(fails, f)
			continue
		}
		if m := guardRe.FindStringSubmatch(line); m != nil {
			action, _ := strconv.Atoi(m[1])
			fails = append(fails, fault.Failure{Action: action, Message: "guarantee violated"})
		}
	}
	return fails, nil
}

// parseSolver turns solver output for a rendered formal problem back into
// failures: every sat check contributes a counterexample.
func parseSolver(spec *lower.FormalSpec, out string) ([]fault.Failure, error) {
	var fails []fault.Failure
	segments := checkRe.Split(out, -1)
	labels := checkRe.FindAllStringSubmatch(out, -1)
	if len(labels) != len(spec.Checks) {
		return nil, errors.Errorf("solver reported %d checks, problem has %d:\n%s",
			len(labels), len(spec.Checks), out)
	}
	// segments[0] precedes the first check label
	for i, m := range labels {
		action, _ := strconv.Atoi(m[2])
		seg := segments[i+1]
		switch {
		case strings.Contains(seg, "unsat"):
			// property holds
		case strings.Contains(seg, "sat"):
			fails = append(fails, fault.Failure{
				Action:         action,
				Message:        "counterexample found",
				Counterexample: parseModel(seg),
			})
		default:
			return nil, errors.Errorf("solver returned no verdict for check %s:\n%s", m[1], seg)
		}
	}
	return fails, nil
}

func parseModel(seg string) map[string]fault.Value {
	out := make(map[string]fault.Value)
	for _, m := range modelRe.FindAllStringSubmatch(seg, -1) {
		width, _ := strconv.Atoi(m[2])
		var bits uint64
		switch {
		case strings.HasPrefix(m[3], "#b"):
			bits, _ = strconv.ParseUint(m[3][2:], 2, 64)
		case strings.HasPrefix(m[3], "#x"):
			bits, _ = strconv.ParseUint(m[3][2:], 16, 64)
		default:
			bits, _ = strconv.ParseUint(m[3], 10, 64)
		}
		if width >= 1 && width <= fault.MaxWidth {
			out[m[1]] = fault.MustValue(bits&fault.Mask(width), width)
		}
	}
	return out
}
