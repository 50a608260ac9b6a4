package gortl

import (
	"tlog.app/go/errors"
)

// Factory creates the nodes a rewrite needs. *ExprBuilder implements it.
type Factory interface {
	Const(c *BVConst) *BVExprPtr
	Build(kind int, children []*BVExprPtr) (*BVExprPtr, error)
}

// UseCounter tells whether a node has exactly one user.
type UseCounter interface {
	HasOneUse(e *BVExprPtr) bool
}

// UseCounts maps node Ids to the number of operand slots referring to
// them. Roots count as one use each.
type UseCounts map[uintptr]int

func (u UseCounts) HasOneUse(e *BVExprPtr) bool {
	return u[e.Id()] == 1
}

// CountUses counts uses over the DAG reachable from roots.
func CountUses(roots ...*BVExprPtr) UseCounts {
	uses := make(UseCounts)
	visited := make(map[uintptr]bool)
	queue := make([]*BVExprPtr, 0, len(roots))

	for _, r := range roots {
		uses[r.Id()]++
		queue = append(queue, r)
	}

	for len(queue) > 0 {
		el := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if visited[el.Id()] {
			continue
		}
		visited[el.Id()] = true

		for _, c := range el.e.subexprs() {
			uses[c.Id()]++
			queue = append(queue, c)
		}
	}
	return uses
}

type Outcome int

const (
	Unchanged Outcome = iota
	FoldedTo
	RewrittenTo
)

func (o Outcome) String() string {
	switch o {
	case Unchanged:
		return "unchanged"
	case FoldedTo:
		return "folded"
	case RewrittenTo:
		return "rewritten"
	}
	return "unknown"
}

// Result of a single simplification step. Value is set for FoldedTo,
// Operands for RewrittenTo: the node must be rebuilt with the same kind
// and the new operand list.
type Result struct {
	Outcome  Outcome
	Value    *BVExprPtr
	Operands []*BVExprPtr
}

// Simplify applies at most one fold or one rewrite to e.
func Simplify(e *BVExprPtr, f Factory, uses UseCounter) (Result, error) {
	if v, ok := Fold(e, f); ok {
		return Result{Outcome: FoldedTo, Value: v}, nil
	}

	ops, err := Canonicalize(e, f, uses)
	if err != nil {
		return Result{}, err
	}
	if ops != nil {
		return Result{Outcome: RewrittenTo, Operands: ops}, nil
	}

	return Result{Outcome: Unchanged}, nil
}

// Canonicalize returns the operand list of the rewritten node, or nil if
// no rule applies. Only variadic nodes with two or more operands are
// rewritten.
func Canonicalize(e *BVExprPtr, f Factory, uses UseCounter) ([]*BVExprPtr, error) {
	inputs := e.e.subexprs()
	if !IsVariadic(e.Kind()) || len(inputs) < 2 {
		return nil, nil
	}

	switch e.Kind() {
	case TY_AND:
		return canonicalizeAnd(inputs, f, uses)
	case TY_OR:
		return canonicalizeOr(inputs, f, uses)
	case TY_XOR:
		return canonicalizeXor(inputs, f, uses)
	case TY_ADD:
		return canonicalizeAdd(inputs, f, uses)
	case TY_MUL:
		return canonicalizeMul(inputs, f, uses)
	}
	return nil, nil
}

func without(inputs []*BVExprPtr, n int) []*BVExprPtr {
	res := make([]*BVExprPtr, len(inputs)-n)
	copy(res, inputs[:len(inputs)-n])
	return res
}

// replaceTail drops the last n operands and appends repl.
func replaceTail(inputs []*BVExprPtr, n int, repl *BVExprPtr) []*BVExprPtr {
	return append(without(inputs, n), repl)
}

func sameNode(a, b *BVExprPtr) bool {
	return a.Id() == b.Id()
}

// foldConstPair folds the last two operands when both are constants.
func foldConstPair(inputs []*BVExprPtr, f Factory, op func(c, o *BVConst) error) ([]*BVExprPtr, error) {
	size := len(inputs)
	if !inputs[size-1].IsConst() || !inputs[size-2].IsConst() {
		return nil, nil
	}

	c, _ := inputs[size-2].GetConst()
	o, _ := inputs[size-1].GetConst()
	if err := op(c, o); err != nil {
		return nil, errors.Wrap(err, "fold constants")
	}
	return replaceTail(inputs, 2, f.Const(c)), nil
}

// flatten splices the operands of the first single use operand of the
// same kind into the operand list.
func flatten(kind int, inputs []*BVExprPtr, uses UseCounter) []*BVExprPtr {
	for i, in := range inputs {
		if in.Kind() != kind || !uses.HasOneUse(in) {
			continue
		}

		inner := in.e.subexprs()
		res := make([]*BVExprPtr, 0, len(inputs)-1+len(inner))
		res = append(res, inputs[:i]...)
		res = append(res, inner...)
		res = append(res, inputs[i+1:]...)
		return res
	}
	return nil
}

func canonicalizeAnd(inputs []*BVExprPtr, f Factory, uses UseCounter) ([]*BVExprPtr, error) {
	size := len(inputs)

	// and(..., ~0) -> and(...)
	if inputs[size-1].HasAllBitsSet() {
		return without(inputs, 1), nil
	}

	// and(..., x, x) -> and(..., x)
	if sameNode(inputs[size-1], inputs[size-2]) {
		return without(inputs, 1), nil
	}

	// and(..., c1, c2) -> and(..., c3)
	if res, err := foldConstPair(inputs, f, (*BVConst).And); res != nil || err != nil {
		return res, err
	}

	return flatten(TY_AND, inputs, uses), nil
}

func canonicalizeOr(inputs []*BVExprPtr, f Factory, uses UseCounter) ([]*BVExprPtr, error) {
	size := len(inputs)

	// or(..., 0) -> or(...)
	if inputs[size-1].IsZero() {
		return without(inputs, 1), nil
	}

	// or(..., x, x) -> or(..., x)
	if sameNode(inputs[size-1], inputs[size-2]) {
		return without(inputs, 1), nil
	}

	// or(..., c1, c2) -> or(..., c3)
	if res, err := foldConstPair(inputs, f, (*BVConst).Or); res != nil || err != nil {
		return res, err
	}

	return flatten(TY_OR, inputs, uses), nil
}

func canonicalizeXor(inputs []*BVExprPtr, f Factory, uses UseCounter) ([]*BVExprPtr, error) {
	size := len(inputs)

	// xor(..., 0) -> xor(...)
	if inputs[size-1].IsZero() {
		return without(inputs, 1), nil
	}

	// xor(..., x, x) -> xor(...)
	// with two operands left this is a fold to 0
	if size > 2 && sameNode(inputs[size-1], inputs[size-2]) {
		return without(inputs, 2), nil
	}

	// xor(..., c1, c2) -> xor(..., c3)
	if res, err := foldConstPair(inputs, f, (*BVConst).Xor); res != nil || err != nil {
		return res, err
	}

	return flatten(TY_XOR, inputs, uses), nil
}

func canonicalizeAdd(inputs []*BVExprPtr, f Factory, uses UseCounter) ([]*BVExprPtr, error) {
	size := len(inputs)
	width := inputs[0].Size()
	last, prev := inputs[size-1], inputs[size-2]

	// add(..., 0) -> add(...)
	if last.IsZero() {
		return without(inputs, 1), nil
	}

	// add(..., c1, c2) -> add(..., c3)
	if res, err := foldConstPair(inputs, f, (*BVConst).Add); res != nil || err != nil {
		return res, err
	}

	// add(..., x, x) -> add(..., shl(x, 1))
	if sameNode(last, prev) {
		shl, err := f.Build(TY_SHL, []*BVExprPtr{prev, f.Const(MakeBVConst(1, width))})
		if err != nil {
			return nil, errors.Wrap(err, "build shl")
		}
		return replaceTail(inputs, 2, shl), nil
	}

	// add(..., x, shl(x, c)) -> add(..., mul(x, (1 << c) + 1))
	if last.Kind() == TY_SHL {
		sh := last.e.subexprs()
		if sameNode(sh[0], prev) && sh[1].IsConst() {
			amount, _ := sh[1].GetConst()

			c := MakeBVConst(1, width)
			if amount.FitInLong() && amount.AsULong() < uint64(width) {
				c.Shl(uint(amount.AsULong()))
			} else {
				c = MakeBVConst(0, width)
			}
			_ = c.Add(MakeBVConst(1, width))

			mul, err := f.Build(TY_MUL, []*BVExprPtr{prev, f.Const(c)})
			if err != nil {
				return nil, errors.Wrap(err, "build mul")
			}
			return replaceTail(inputs, 2, mul), nil
		}
	}

	// add(..., x, mul(x, c)) -> add(..., mul(x, c + 1))
	if last.Kind() == TY_MUL {
		m := last.e.subexprs()
		if len(m) == 2 && sameNode(m[0], prev) && m[1].IsConst() {
			c, _ := m[1].GetConst()
			_ = c.Add(MakeBVConst(1, width))

			mul, err := f.Build(TY_MUL, []*BVExprPtr{prev, f.Const(c)})
			if err != nil {
				return nil, errors.Wrap(err, "build mul")
			}
			return replaceTail(inputs, 2, mul), nil
		}
	}

	return flatten(TY_ADD, inputs, uses), nil
}

func canonicalizeMul(inputs []*BVExprPtr, f Factory, uses UseCounter) ([]*BVExprPtr, error) {
	size := len(inputs)
	width := inputs[0].Size()
	last := inputs[size-1]

	// mul(x, 2^k) -> mul(shl(x, k))
	if size == 2 && last.IsConst() {
		c, _ := last.GetConst()
		if c.IsPowerOf2() {
			shl, err := f.Build(TY_SHL, []*BVExprPtr{inputs[0], f.Const(MakeBVConst(int64(c.ExactLog2()), width))})
			if err != nil {
				return nil, errors.Wrap(err, "build shl")
			}
			return []*BVExprPtr{shl}, nil
		}
	}

	// mul(..., 1) -> mul(...)
	if last.IsOne() {
		return without(inputs, 1), nil
	}

	// mul(..., c1, c2) -> mul(..., c3)
	if res, err := foldConstPair(inputs, f, (*BVConst).Mul); res != nil || err != nil {
		return res, err
	}

	return flatten(TY_MUL, inputs, uses), nil
}
