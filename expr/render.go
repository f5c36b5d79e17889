package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// A Dialect selects the target syntax of Render.
type Dialect int

// Supported dialects. Verilog and C are used when lowering runtime checks
// into simulation drivers; SMT2 when lowering assumptions and proof
// obligations for a formal solver.
const (
	DialectVerilog Dialect = iota
	DialectC
	DialectSMT2
)

func (d Dialect) String() string {
	switch d {
	case DialectVerilog:
		return "verilog"
	case DialectC:
		return "c"
	case DialectSMT2:
		return "smt2"
	}
	return "dialect(" + strconv.Itoa(int(d)) + ")"
}

// Render translates e into an expression of the target dialect. The result
// denotes the truth of the predicate. Render fails with ErrUnsupportedShape
// if e cannot be mechanically translated to the dialect; the failure
// surfaces at lowering time, not at run time.
func Render(e Expr, d Dialect) (string, error) {
	switch d {
	case DialectVerilog, DialectC:
		return renderInfix(e, d)
	case DialectSMT2:
		return renderSMTBool(e)
	}
	return "", errors.Wrapf(ErrUnsupportedShape, "unknown dialect %v", d)
}

func renderInfix(e Expr, d Dialect) (string, error) {
	switch e := e.(type) {
	case Var:
		return e.Name, nil
	case Const:
		if d == DialectVerilog {
			return fmt.Sprintf("%d'd%d", e.W, e.Bits), nil
		}
		return fmt.Sprintf("%dULL", e.Bits), nil
	case Un:
		x, err := renderInfix(e.X, d)
		if err != nil {
			return "", err
		}
		if e.Op == OpLNot {
			return "(!" + x + ")", nil
		}
		if d == DialectC {
			// keep the complement inside the operand's width
			return fmt.Sprintf("((~%s) & 0x%xULL)", x, mask(e.X.Width())), nil
		}
		return "(~" + x + ")", nil
	case Bin:
		x, err := renderInfix(e.X, d)
		if err != nil {
			return "", err
		}
		y, err := renderInfix(e.Y, d)
		if err != nil {
			return "", err
		}
		if e.Op == OpImplies {
			return "((!" + x + ") || " + y + ")", nil
		}
		op := opNames[e.Op]
		s := "(" + x + " " + op + " " + y + ")"
		if e.Op == OpAdd || e.Op == OpSub {
			// keep the extra result bit: the mask widens the expression
			// context in Verilog and wraps the int promotion in C
			if d == DialectVerilog {
				return fmt.Sprintf("(%s & %d'd%d)", s, e.Width(), mask(e.Width())), nil
			}
			return fmt.Sprintf("(%s & 0x%xULL)", s, mask(e.Width())), nil
		}
		return s, nil
	}
	return "", errors.Wrap(ErrUnsupportedShape, "unknown expression node")
}

// SMT-LIB 2 rendering. Comparisons and logical connectives produce
// Bool-sorted terms; everything else is a bit vector, zero-extended as
// needed so operand widths agree.

func renderSMTBool(e Expr) (string, error) {
	switch e := e.(type) {
	case Bin:
		switch e.Op {
		case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
			w := max(e.X.Width(), e.Y.Width())
			x, err := renderSMTBV(e.X, w)
			if err != nil {
				return "", err
			}
			y, err := renderSMTBV(e.Y, w)
			if err != nil {
				return "", err
			}
			switch e.Op {
			case OpEq:
				return "(= " + x + " " + y + ")", nil
			case OpNe:
				return "(not (= " + x + " " + y + "))", nil
			case OpLt:
				return "(bvult " + x + " " + y + ")", nil
			case OpLe:
				return "(bvule " + x + " " + y + ")", nil
			case OpGt:
				return "(bvugt " + x + " " + y + ")", nil
			default:
				return "(bvuge " + x + " " + y + ")", nil
			}
		case OpLAnd, OpLOr, OpImplies:
			x, err := renderSMTBool(e.X)
			if err != nil {
				return "", err
			}
			y, err := renderSMTBool(e.Y)
			if err != nil {
				return "", err
			}
			switch e.Op {
			case OpLAnd:
				return "(and " + x + " " + y + ")", nil
			case OpLOr:
				return "(or " + x + " " + y + ")", nil
			default:
				return "(=> " + x + " " + y + ")", nil
			}
		}
	case Un:
		if e.Op == OpLNot {
			x, err := renderSMTBool(e.X)
			if err != nil {
				return "", err
			}
			return "(not " + x + ")", nil
		}
	}
	// bit-vector valued node: true iff nonzero
	bv, err := renderSMTBV(e, e.Width())
	if err != nil {
		return "", err
	}
	return "(not (= " + bv + " " + smtZero(e.Width()) + "))", nil
}

func renderSMTBV(e Expr, width int) (string, error) {
	var s string
	var err error
	switch e := e.(type) {
	case Var:
		s = e.Name
	case Const:
		s = smtLit(e.Bits, e.W)
	case Un:
		if e.Op == OpNot {
			var x string
			x, err = renderSMTBV(e.X, e.X.Width())
			s = "(bvnot " + x + ")"
		} else {
			var b string
			b, err = renderSMTBool(e)
			s = "(ite " + b + " #b1 #b0)"
		}
	case Bin:
		switch e.Op {
		case OpAdd, OpSub, OpAnd, OpOr, OpXor:
			w := e.Width()
			var x, y string
			x, err = renderSMTBV(e.X, w)
			if err != nil {
				return "", err
			}
			y, err = renderSMTBV(e.Y, w)
			ops := map[Op]string{OpAdd: "bvadd", OpSub: "bvsub", OpAnd: "bvand", OpOr: "bvor", OpXor: "bvxor"}
			s = "(" + ops[e.Op] + " " + x + " " + y + ")"
		default:
			var b string
			b, err = renderSMTBool(e)
			s = "(ite " + b + " #b1 #b0)"
		}
	default:
		return "", errors.Wrap(ErrUnsupportedShape, "unknown expression node")
	}
	if err != nil {
		return "", err
	}
	return smtExtend(s, e.Width(), width), nil
}

func smtExtend(s string, from, to int) string {
	if to <= from {
		return s
	}
	return fmt.Sprintf("((_ zero_extend %d) %s)", to-from, s)
}

func smtLit(bits uint64, width int) string {
	var b strings.Builder
	b.WriteString("#b")
	for i := width - 1; i >= 0; i-- {
		if bits&(1<<uint(i)) != 0 {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

func smtZero(width int) string { return smtLit(0, width) }
