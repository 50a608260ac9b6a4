package gortl

import (
	"math/big"
	"strconv"
	"strings"
	"unicode"

	"tlog.app/go/errors"
)

// Parse reads an expression in the s-expression syntax:
//
//	a:8                     wire a, 8 bits
//	0x2a:8 42:8 -1:8 0b1:1  constants
//	(and|or|xor|add|mul e...)
//	(shl e n) (concat e...)
//	(extract LOW WIDTH e) (zext WIDTH e) (sext WIDTH e)
func (eb *ExprBuilder) Parse(s string) (*BVExprPtr, error) {
	p := &parser{eb: eb, toks: tokenize(s)}

	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.toks) {
		return nil, errors.New("unexpected %q after expression", p.toks[p.pos])
	}
	return e, nil
}

// ParseConst parses a decimal, 0x, 0b or 0o number into a width bit
// constant. It returns nil if s is not a number or does not fit: a
// non-negative value needs at most width bits, a negative one must be
// representable in two's complement.
func ParseConst(s string, width uint) *BVConst {
	v, ok := new(big.Int).SetString(s, 0)
	if !ok || width == 0 {
		return nil
	}

	if v.Sign() >= 0 {
		if uint(v.BitLen()) > width {
			return nil
		}
	} else {
		lowest := new(big.Int).Lsh(one, width-1)
		if v.Cmp(lowest.Neg(lowest)) < 0 {
			return nil
		}
	}

	return MakeBVConstFromBigint(v, width)
}

type parser struct {
	eb   *ExprBuilder
	toks []string
	pos  int
}

func tokenize(s string) []string {
	var toks []string
	cur := strings.Builder{}

	flush := func() {
		if cur.Len() != 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}

	for _, r := range s {
		switch {
		case r == '(' || r == ')':
			flush()
			toks = append(toks, string(r))
		case unicode.IsSpace(r):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()

	return toks
}

func (p *parser) next() (string, error) {
	if p.pos >= len(p.toks) {
		return "", errors.New("unexpected end of expression")
	}
	t := p.toks[p.pos]
	p.pos++
	return t, nil
}

func (p *parser) expr() (*BVExprPtr, error) {
	t, err := p.next()
	if err != nil {
		return nil, err
	}

	switch t {
	case "(":
		return p.list()
	case ")":
		return nil, errors.New("unexpected )")
	}

	return p.atom(t)
}

func (p *parser) number() (uint, error) {
	t, err := p.next()
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(t, 10, 32)
	if err != nil {
		return 0, errors.Wrap(err, "parse number")
	}
	return uint(n), nil
}

func (p *parser) list() (*BVExprPtr, error) {
	op, err := p.next()
	if err != nil {
		return nil, err
	}

	var params []uint
	switch op {
	case "extract":
		params = make([]uint, 2)
	case "zext", "sext":
		params = make([]uint, 1)
	}
	for i := range params {
		params[i], err = p.number()
		if err != nil {
			return nil, errors.Wrap(err, "%v", op)
		}
	}

	var args []*BVExprPtr
	for {
		if p.pos >= len(p.toks) {
			return nil, errors.New("%v: missing )", op)
		}
		if p.toks[p.pos] == ")" {
			p.pos++
			break
		}

		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
	}

	if params != nil && len(args) != 1 {
		return nil, errors.New("%v: want 1 operand, got %d", op, len(args))
	}

	var res *BVExprPtr
	switch op {
	case "and":
		res, err = p.eb.And(args...)
	case "or":
		res, err = p.eb.Or(args...)
	case "xor":
		res, err = p.eb.Xor(args...)
	case "add":
		res, err = p.eb.Add(args...)
	case "mul":
		res, err = p.eb.Mul(args...)
	case "concat":
		res, err = p.eb.Concat(args...)
	case "shl":
		if len(args) != 2 {
			return nil, errors.New("shl: want 2 operands, got %d", len(args))
		}
		res, err = p.eb.Shl(args[0], args[1])
	case "extract":
		res, err = p.eb.Extract(args[0], params[0], params[1])
	case "zext":
		res, err = p.eb.ZExt(args[0], params[0])
	case "sext":
		res, err = p.eb.SExt(args[0], params[0])
	default:
		return nil, errors.New("unknown operator %q", op)
	}
	if err != nil {
		return nil, errors.Wrap(err, "%v", op)
	}

	return res, nil
}

func (p *parser) atom(t string) (*BVExprPtr, error) {
	i := strings.LastIndexByte(t, ':')
	if i <= 0 || i == len(t)-1 {
		return nil, errors.New("%q: want NAME:WIDTH or VALUE:WIDTH", t)
	}

	w, err := strconv.ParseUint(t[i+1:], 10, 32)
	if err != nil {
		return nil, errors.Wrap(err, "%q: width", t)
	}
	if err = VerifyZeroWidth(uint(w)); err != nil {
		return nil, errors.Wrap(err, "%q", t)
	}

	val := t[:i]
	if isIdent(val) {
		return p.eb.Wire(val, uint(w))
	}

	c := ParseConst(val, uint(w))
	if c == nil {
		return nil, errors.New("%q: not a wire name or a %d bit number", t, w)
	}
	return p.eb.Const(c), nil
}

func isIdent(s string) bool {
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && (unicode.IsDigit(r) || r == '.') {
			continue
		}
		return false
	}
	return s != ""
}
