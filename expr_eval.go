package gortl

import (
	"tlog.app/go/errors"
)

var ErrUnboundWire = errors.New("wire has no value")

var constOps = map[int]func(*BVConst, *BVConst) error{
	TY_AND: (*BVConst).And,
	TY_OR:  (*BVConst).Or,
	TY_XOR: (*BVConst).Xor,
	TY_ADD: (*BVConst).Add,
	TY_MUL: (*BVConst).Mul,
}

// Evaluate computes the value of e under the wire assignment interpr.
func Evaluate(e *BVExprPtr, interpr map[string]*BVConst) (*BVConst, error) {
	cache := make(map[uintptr]*BVConst)
	r, err := evalInternal(e, cache, interpr)
	if err != nil {
		return nil, err
	}
	return r.Copy(), nil
}

// evalInternal results are shared through cache and must not be modified.
func evalInternal(e *BVExprPtr, cache map[uintptr]*BVConst, interpr map[string]*BVConst) (*BVConst, error) {
	if r, ok := cache[e.Id()]; ok {
		return r, nil
	}

	children := e.e.subexprs()
	vals := make([]*BVConst, len(children))
	for i, c := range children {
		v, err := evalInternal(c, cache, interpr)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}

	var result *BVConst
	var err error
	switch e.Kind() {
	case TY_WIRE:
		bv := e.e.(*internalBVS)
		c, ok := interpr[bv.name]
		if !ok {
			return nil, errors.Wrap(ErrUnboundWire, "%v", bv.name)
		}
		if c.Size != bv.sz {
			return nil, errors.Wrap(ErrWidthMismatch, "wire %v is %d bits, value is %d", bv.name, bv.sz, c.Size)
		}
		result = c.Copy()
	case TY_CONST:
		result, _ = e.GetConst()
	case TY_EXTRACT:
		ex := e.e.(*internalBVExprExtract)
		result = vals[0].Slice(ex.high, ex.low)
	case TY_CONCAT:
		result = vals[0].Copy()
		for i := 1; i < len(vals); i++ {
			result.Concat(vals[i])
		}
	case TY_ZEXT:
		ex := e.e.(*internalBVExprExtend)
		result = vals[0].Copy()
		result.ZExt(ex.n)
	case TY_SEXT:
		ex := e.e.(*internalBVExprExtend)
		result = vals[0].Copy()
		result.SExt(ex.n)
	case TY_SHL:
		result = vals[0].Copy()
		if !vals[1].FitInLong() || vals[1].AsULong() >= uint64(result.Size) {
			result = MakeBVConst(0, result.Size)
		} else {
			result.Shl(uint(vals[1].AsULong()))
		}
	case TY_AND, TY_OR, TY_XOR, TY_ADD, TY_MUL:
		op := constOps[e.Kind()]
		result = vals[0].Copy()
		for i := 1; i < len(vals) && err == nil; i++ {
			err = op(result, vals[i])
		}
	default:
		return nil, errors.New("invalid expression type %v", e.Kind())
	}
	if err != nil {
		return nil, errors.Wrap(err, "evaluate %v", KindName(e.Kind()))
	}

	cache[e.Id()] = result
	return result, nil
}

// Substitute replaces the wires bound in interpr by constants. Nothing is
// simplified; run Simplify on the result to propagate the constants.
func (eb *ExprBuilder) Substitute(e *BVExprPtr, interpr map[string]*BVConst) (*BVExprPtr, error) {
	cache := make(map[uintptr]*BVExprPtr)
	return eb.substituteInternal(e, cache, interpr)
}

func (eb *ExprBuilder) substituteInternal(e *BVExprPtr, cache map[uintptr]*BVExprPtr, interpr map[string]*BVConst) (*BVExprPtr, error) {
	if r, ok := cache[e.Id()]; ok {
		return r, nil
	}

	if e.Kind() == TY_WIRE {
		bv := e.e.(*internalBVS)
		c, ok := interpr[bv.name]
		if !ok {
			return e, nil
		}
		if c.Size != bv.sz {
			return nil, errors.Wrap(ErrWidthMismatch, "wire %v is %d bits, value is %d", bv.name, bv.sz, c.Size)
		}
		return eb.Const(c), nil
	}

	children := e.e.subexprs()
	newChildren := make([]*BVExprPtr, len(children))
	changed := false
	for i, c := range children {
		nc, err := eb.substituteInternal(c, cache, interpr)
		if err != nil {
			return nil, err
		}
		newChildren[i] = nc
		changed = changed || nc.Id() != c.Id()
	}

	result := e
	if changed {
		var err error
		result, err = eb.withChildren(e, newChildren)
		if err != nil {
			return nil, err
		}
	}

	cache[e.Id()] = result
	return result, nil
}
