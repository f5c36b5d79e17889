// Copyright 2019 the fault authors
// Licensed under the MIT license. See license text in the LICENSE file.

package fault

import (
	"fmt"
	"strconv"

	"github.com/makaimann/fault/expr"
)

// An ActionID identifies a recorded action by its position in the log.
type ActionID int

// An Action is one recorded test operation. The concrete types Poke, Eval,
// Step, Expect, Assume and Guarantee are the only implementations.
type Action interface {
	fmt.Stringer
	action()
}

// A Poke sets an input-addressable path to a concrete bit-vector value.
type Poke struct {
	Path  Path
	Value Value
}

// An Eval commits pending pokes to an evaluation step. It is meaningful for
// compiled cycle-accurate backends; event-driven backends evaluate
// implicitly after every poke and lower it to nothing.
type Eval struct{}

// A Step advances a clock-like port through Steps half-periods.
type Step struct {
	Clock Path
	Steps int
}

// An Expect asserts equality between the current value at Path and Value.
// It is a concrete runtime check; a mismatch is reported, not fatal.
type Expect struct {
	Path  Path
	Value Value
}

// An Assume declares a constraint restricting legal values of the involved
// input paths. Predicate variables are named by path string.
type Assume struct {
	Pred  expr.Expr
	Paths []Path
}

// A Guarantee declares a property that must hold whenever the assumptions in
// scope hold. Predicate variables are named by path string.
type Guarantee struct {
	Pred  expr.Expr
	Paths []Path
}

func (Poke) action()      {}
func (Eval) action()      {}
func (Step) action()      {}
func (Expect) action()    {}
func (Assume) action()    {}
func (Guarantee) action() {}

func (a Poke) String() string   { return "poke " + a.Path.String() + " " + a.Value.String() }
func (a Eval) String() string   { return "eval" }
func (a Step) String() string   { return "step " + a.Clock.String() + " " + strconv.Itoa(a.Steps) }
func (a Expect) String() string { return "expect " + a.Path.String() + " " + a.Value.String() }

func (a Assume) String() string    { return "assume over " + pathList(a.Paths) }
func (a Guarantee) String() string { return "guarantee over " + pathList(a.Paths) }

func pathList(ps []Path) string {
	s := ""
	for i, p := range ps {
		if i > 0 {
			s += ", "
		}
		s += p.String()
	}
	return s
}
