package expr

import "github.com/pkg/errors"

// A Binding maps variable names to concrete values. Values wider than the
// variable's declared width are masked.
type Binding map[string]uint64

// Eval evaluates e concretely against the binding. It fails with
// ErrUnsupportedShape if e references an unbound variable. Results are
// masked to the node's width.
func Eval(e Expr, b Binding) (uint64, error) {
	switch e := e.(type) {
	case Var:
		v, ok := b[e.Name]
		if !ok {
			return 0, errors.Wrapf(ErrUnsupportedShape, "unbound value %s", e.Name)
		}
		return v & mask(e.W), nil
	case Const:
		return e.Bits & mask(e.W), nil
	case Un:
		x, err := Eval(e.X, b)
		if err != nil {
			return 0, err
		}
		if e.Op == OpNot {
			return ^x & mask(e.X.Width()), nil
		}
		return boolBit(x == 0), nil
	case Bin:
		x, err := Eval(e.X, b)
		if err != nil {
			return 0, err
		}
		y, err := Eval(e.Y, b)
		if err != nil {
			return 0, err
		}
		switch e.Op {
		case OpAdd:
			return (x + y) & mask(e.Width()), nil
		case OpSub:
			return (x - y) & mask(e.Width()), nil
		case OpAnd:
			return x & y, nil
		case OpOr:
			return x | y, nil
		case OpXor:
			return x ^ y, nil
		case OpEq:
			return boolBit(x == y), nil
		case OpNe:
			return boolBit(x != y), nil
		case OpLt:
			return boolBit(x < y), nil
		case OpLe:
			return boolBit(x <= y), nil
		case OpGt:
			return boolBit(x > y), nil
		case OpGe:
			return boolBit(x >= y), nil
		case OpLAnd:
			return boolBit(x != 0 && y != 0), nil
		case OpLOr:
			return boolBit(x != 0 || y != 0), nil
		case OpImplies:
			return boolBit(x == 0 || y != 0), nil
		}
	}
	return 0, errors.Wrap(ErrUnsupportedShape, "unknown expression node")
}

// Holds evaluates e and reports its truth: any nonzero result is true.
func Holds(e Expr, b Binding) (bool, error) {
	v, err := Eval(e, b)
	return v != 0, err
}

func mask(w int) uint64 {
	if w >= 64 {
		return ^uint64(0)
	}
	return 1<<uint(w) - 1
}

func boolBit(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
