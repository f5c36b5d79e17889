// Copyright 2019 the fault authors
// Licensed under the MIT license. See license text in the LICENSE file.

/*
Package expr implements the symbolic predicate representation used by assume
and guarantee actions. A predicate is a structured expression over a fixed
set of named port values. It supports two interpretations: concrete
evaluation against bound values (Eval) and translation to a target dialect's
expression syntax (Render), so the same predicate drives constrained-random
filtering, runtime guarantee checks and formal proof obligations without
re-parsing user code.
*/
package expr

import (
	"strconv"

	"github.com/pkg/errors"
)

// ErrUnsupportedShape is returned when a predicate cannot be mechanically
// interpreted or translated: it closes over values outside the declared port
// set, widths disagree, or an operation has no equivalent in the target
// dialect.
var ErrUnsupportedShape = errors.New("unsupported predicate shape")

// An Op identifies an expression operation.
type Op int

// Operations. Arithmetic and bitwise operations work on bit vectors;
// comparisons and logical operations yield a 1-bit result.
const (
	OpAdd Op = iota
	OpSub
	OpAnd
	OpOr
	OpXor
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpLAnd
	OpLOr
	OpImplies
	OpNot  // bitwise complement, unary
	OpLNot // logical not, unary
)

var opNames = map[Op]string{
	OpAdd: "+", OpSub: "-", OpAnd: "&", OpOr: "|", OpXor: "^",
	OpEq: "==", OpNe: "!=", OpLt: "<", OpLe: "<=", OpGt: ">", OpGe: ">=",
	OpLAnd: "&&", OpLOr: "||", OpImplies: "->", OpNot: "~", OpLNot: "!",
}

func (o Op) String() string { return opNames[o] }

// An Expr is a node of a predicate expression tree.
type Expr interface {
	// Width is the bit-width of the node's value. Additions and
	// subtractions carry one extra bit so that overflow is observable;
	// comparisons and logical operations are 1 bit wide.
	Width() int
	node()
}

// A Var references a named port value.
type Var struct {
	Name string
	W    int
}

// A Const is a fixed bit-vector value.
type Const struct {
	Bits uint64
	W    int
}

// A Bin applies a binary operation.
type Bin struct {
	Op   Op
	X, Y Expr
}

// A Un applies a unary operation.
type Un struct {
	Op Op
	X  Expr
}

func (Var) node()   {}
func (Const) node() {}
func (Bin) node()   {}
func (Un) node()    {}

// Width implements Expr.
func (v Var) Width() int { return v.W }

// Width implements Expr.
func (c Const) Width() int { return c.W }

// Width implements Expr.
func (b Bin) Width() int {
	switch b.Op {
	case OpAdd, OpSub:
		w := max(b.X.Width(), b.Y.Width()) + 1
		if w > 64 {
			w = 64
		}
		return w
	case OpAnd, OpOr, OpXor:
		return max(b.X.Width(), b.Y.Width())
	default:
		return 1
	}
}

// Width implements Expr.
func (u Un) Width() int {
	if u.Op == OpNot {
		return u.X.Width()
	}
	return 1
}

// V returns a variable reference of the given width.
func V(name string, width int) Expr { return Var{Name: name, W: width} }

// C returns a constant of the given width.
func C(bits uint64, width int) Expr { return Const{Bits: bits, W: width} }

// Constructor helpers.

// Add returns x + y (one extra result bit, so overflow is observable).
func Add(x, y Expr) Expr { return Bin{Op: OpAdd, X: x, Y: y} }

// Sub returns x - y (wrapping, one extra result bit).
func Sub(x, y Expr) Expr { return Bin{Op: OpSub, X: x, Y: y} }

// And returns the bitwise conjunction x & y.
func And(x, y Expr) Expr { return Bin{Op: OpAnd, X: x, Y: y} }

// Or returns the bitwise disjunction x | y.
func Or(x, y Expr) Expr { return Bin{Op: OpOr, X: x, Y: y} }

// Xor returns x ^ y.
func Xor(x, y Expr) Expr { return Bin{Op: OpXor, X: x, Y: y} }

// Eq returns the comparison x == y.
func Eq(x, y Expr) Expr { return Bin{Op: OpEq, X: x, Y: y} }

// Ne returns the comparison x != y.
func Ne(x, y Expr) Expr { return Bin{Op: OpNe, X: x, Y: y} }

// Lt returns the unsigned comparison x < y.
func Lt(x, y Expr) Expr { return Bin{Op: OpLt, X: x, Y: y} }

// Le returns the unsigned comparison x <= y.
func Le(x, y Expr) Expr { return Bin{Op: OpLe, X: x, Y: y} }

// Gt returns the unsigned comparison x > y.
func Gt(x, y Expr) Expr { return Bin{Op: OpGt, X: x, Y: y} }

// Ge returns the unsigned comparison x >= y.
func Ge(x, y Expr) Expr { return Bin{Op: OpGe, X: x, Y: y} }

// LAnd returns the logical conjunction of the truth of x and y.
func LAnd(x, y Expr) Expr { return Bin{Op: OpLAnd, X: x, Y: y} }

// LOr returns the logical disjunction of the truth of x and y.
func LOr(x, y Expr) Expr { return Bin{Op: OpLOr, X: x, Y: y} }

// Implies returns the logical implication x -> y.
func Implies(x, y Expr) Expr { return Bin{Op: OpImplies, X: x, Y: y} }

// Not returns the bitwise complement of x.
func Not(x Expr) Expr { return Un{Op: OpNot, X: x} }

// LNot returns the logical negation of the truth of x.
func LNot(x Expr) Expr { return Un{Op: OpLNot, X: x} }

// Vars returns the distinct variable names referenced by e, in first-use
// order.
func Vars(e Expr) []string {
	var out []string
	seen := make(map[string]bool)
	walk(e, func(n Expr) {
		if v, ok := n.(Var); ok && !seen[v.Name] {
			seen[v.Name] = true
			out = append(out, v.Name)
		}
	})
	return out
}

// VarWidths returns the declared width of every variable referenced by e.
func VarWidths(e Expr) map[string]int {
	out := make(map[string]int)
	walk(e, func(n Expr) {
		if v, ok := n.(Var); ok {
			out[v.Name] = v.W
		}
	})
	return out
}

// Validate checks that every variable of e is in the declared name set and
// has the declared width. It fails with ErrUnsupportedShape otherwise; the
// failure surfaces at lowering time, before any backend runs.
func Validate(e Expr, declared map[string]int) error {
	var err error
	walk(e, func(n Expr) {
		if err != nil {
			return
		}
		v, ok := n.(Var)
		if !ok {
			return
		}
		w, ok := declared[v.Name]
		if !ok {
			err = errors.Wrapf(ErrUnsupportedShape, "predicate closes over undeclared value %s", v.Name)
			return
		}
		if w != v.W {
			err = errors.Wrapf(ErrUnsupportedShape,
				"predicate variable %s declared %d bits wide, port is %d", v.Name, v.W, w)
		}
	})
	return err
}

// Rename returns a copy of e with every variable name passed through f.
// Widths are preserved. Used by lowerings that map paths to target
// identifiers.
func Rename(e Expr, f func(string) string) Expr {
	switch e := e.(type) {
	case Var:
		return Var{Name: f(e.Name), W: e.W}
	case Const:
		return e
	case Bin:
		return Bin{Op: e.Op, X: Rename(e.X, f), Y: Rename(e.Y, f)}
	case Un:
		return Un{Op: e.Op, X: Rename(e.X, f)}
	}
	panic("expr: unknown node " + strconv.Itoa(int(e.Width())))
}

func walk(e Expr, f func(Expr)) {
	f(e)
	switch e := e.(type) {
	case Bin:
		walk(e.X, f)
		walk(e.Y, f)
	case Un:
		walk(e.X, f)
	}
}
