// Copyright 2019 the fault authors
// Licensed under the MIT license. See license text in the LICENSE file.

package expr

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// Parse parses a predicate from its textual form, e.g.
//
//	a < 8 && b < 8 -> (a + b) < 16
//
// Identifiers may be dotted paths; their widths come from the declared map
// and an undeclared identifier is an error. Integer literals take the
// smallest width that holds them. Unary ! ~ bind tightest, then + -, the
// bitwise operators & ^ |, comparisons, &&, ||, and -> loosest (right
// associative). Note that bitwise operators bind tighter than comparisons
// here, so "a & b == 0" tests the conjunction.
func Parse(src string, declared map[string]int) (Expr, error) {
	toks, err := scan(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, declared: declared}
	e, err := p.parse(0)
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.toks) {
		return nil, errors.Wrapf(ErrUnsupportedShape, "trailing input %q", p.toks[p.pos])
	}
	return e, nil
}

type parser struct {
	toks     []string
	pos      int
	declared map[string]int
}

// binding powers, loosest first
var binOps = map[string]struct {
	op   Op
	prec int
}{
	"->": {OpImplies, 1},
	"||": {OpLOr, 2},
	"&&": {OpLAnd, 3},
	"==": {OpEq, 4}, "!=": {OpNe, 4},
	"<": {OpLt, 4}, "<=": {OpLe, 4}, ">": {OpGt, 4}, ">=": {OpGe, 4},
	"|": {OpOr, 5},
	"^": {OpXor, 6},
	"&": {OpAnd, 7},
	"+": {OpAdd, 8}, "-": {OpSub, 8},
}

func (p *parser) parse(minPrec int) (Expr, error) {
	lhs, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.pos < len(p.toks) {
		b, ok := binOps[p.toks[p.pos]]
		if !ok || b.prec < minPrec {
			break
		}
		p.pos++
		next := b.prec + 1
		if b.op == OpImplies {
			next = b.prec
		}
		rhs, err := p.parse(next)
		if err != nil {
			return nil, err
		}
		lhs = Bin{Op: b.op, X: lhs, Y: rhs}
	}
	return lhs, nil
}

func (p *parser) unary() (Expr, error) {
	if p.pos >= len(p.toks) {
		return nil, errors.Wrap(ErrUnsupportedShape, "unexpected end of predicate")
	}
	switch tok := p.toks[p.pos]; tok {
	case "!", "~":
		p.pos++
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		if tok == "!" {
			return Un{Op: OpLNot, X: x}, nil
		}
		return Un{Op: OpNot, X: x}, nil
	case "(":
		p.pos++
		e, err := p.parse(0)
		if err != nil {
			return nil, err
		}
		if p.pos >= len(p.toks) || p.toks[p.pos] != ")" {
			return nil, errors.Wrap(ErrUnsupportedShape, "missing )")
		}
		p.pos++
		return e, nil
	default:
		p.pos++
		if tok[0] >= '0' && tok[0] <= '9' {
			bits, err := strconv.ParseUint(tok, 0, 64)
			if err != nil {
				return nil, errors.Wrapf(ErrUnsupportedShape, "bad literal %q", tok)
			}
			w := 1
			for bits>>uint(w) != 0 && w < 64 {
				w++
			}
			return Const{Bits: bits, W: w}, nil
		}
		w, ok := p.declared[tok]
		if !ok {
			return nil, errors.Wrapf(ErrUnsupportedShape, "predicate closes over undeclared value %s", tok)
		}
		return Var{Name: tok, W: w}, nil
	}
}

func scan(src string) ([]string, error) {
	var toks []string
	s := src
	for {
		s = strings.TrimLeft(s, " \t\n")
		if s == "" {
			return toks, nil
		}
		switch {
		case strings.HasPrefix(s, "->"), strings.HasPrefix(s, "||"),
			strings.HasPrefix(s, "&&"), strings.HasPrefix(s, "=="),
			strings.HasPrefix(s, "!="), strings.HasPrefix(s, "<="),
			strings.HasPrefix(s, ">="):
			toks = append(toks, s[:2])
			s = s[2:]
		case strings.ContainsRune("()!~<>|^&+-", rune(s[0])):
			toks = append(toks, s[:1])
			s = s[1:]
		default:
			i := 0
			for i < len(s) && (s[i] == '.' || s[i] == '_' ||
				unicode.IsLetter(rune(s[i])) || unicode.IsDigit(rune(s[i]))) {
				i++
			}
			if i == 0 {
				return nil, errors.Wrapf(ErrUnsupportedShape, "bad character %q in predicate", s[0])
			}
			toks = append(toks, s[:i])
			s = s[i:]
		}
	}
}
