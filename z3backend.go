//go:build z3

package gortl

import (
	"sync"

	"github.com/aclements/go-z3/z3"
	"tlog.app/go/errors"
)

// Z3Prover checks equivalence by asking Z3 for an input on which the two
// expressions differ.
type Z3Prover struct {
	mu sync.Mutex

	ctx    *z3.Context
	cfg    *z3.Config
	solver *z3.Solver

	lastSymbols map[uintptr]z3.BV
}

func NewZ3Prover() (Prover, error) {
	cfg := z3.NewContextConfig()
	ctx := z3.NewContext(cfg)
	return &Z3Prover{
		ctx:    ctx,
		cfg:    cfg,
		solver: z3.NewSolver(ctx),
	}, nil
}

func (s *Z3Prover) Equivalent(a, b *BVExprPtr) (int, error) {
	if a.Size() != b.Size() {
		return RESULT_ERROR, errors.Wrap(ErrWidthMismatch, "%d and %d bits", a.Size(), b.Size())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.solver.Reset()
	s.lastSymbols = make(map[uintptr]z3.BV)

	cache := make(map[uintptr]z3.BV)
	za := s.convert(a, cache)
	zb := s.convert(b, cache)
	s.solver.Assert(za.NE(zb))

	r, err := s.solver.Check()
	if err != nil {
		return RESULT_ERROR, errors.Wrap(err, "z3 check")
	}
	if r {
		return RESULT_SAT, nil
	}
	return RESULT_UNSAT, nil
}

// Model returns the distinguishing input found by the last Equivalent
// call that returned RESULT_SAT.
func (s *Z3Prover) Model() (map[string]*BVConst, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.solver.Model()
	if m == nil {
		return nil, errors.New("no model")
	}

	res := make(map[string]*BVConst)
	for _, sym := range s.lastSymbols {
		v := m.Eval(sym, true).(z3.BV)
		c, err := convertZ3Const(v)
		if err != nil {
			return nil, errors.Wrap(err, "model of %v", sym)
		}
		res[sym.String()] = c
	}
	return res, nil
}

func convertZ3Const(c z3.BV) (*BVConst, error) {
	v := MakeBVConstFromString(c.String()[2:], 16, uint(c.Sort().BVSize()))
	if v == nil {
		return nil, errors.New("not a constant: %v", c)
	}
	return v, nil
}

func (s *Z3Prover) convert(e *BVExprPtr, cache map[uintptr]z3.BV) z3.BV {
	if v, ok := cache[e.Id()]; ok {
		return v
	}

	children := e.e.subexprs()
	args := make([]z3.BV, len(children))
	for i, c := range children {
		args[i] = s.convert(c, cache)
	}

	var result z3.BV
	switch e.Kind() {
	case TY_WIRE:
		bv := e.e.(*internalBVS)
		result = s.ctx.BVConst(bv.name, int(bv.size()))
		s.lastSymbols[e.Id()] = result
	case TY_CONST:
		bv := e.e.(*internalBVV)
		result = s.ctx.FromBigInt(bv.Value.value, s.ctx.BVSort(int(bv.size()))).(z3.BV)
	case TY_EXTRACT:
		ex := e.e.(*internalBVExprExtract)
		result = args[0].Extract(int(ex.high), int(ex.low))
	case TY_CONCAT:
		result = args[0]
		for i := 1; i < len(args); i++ {
			result = result.Concat(args[i])
		}
	case TY_ZEXT:
		ex := e.e.(*internalBVExprExtend)
		result = args[0].ZeroExtend(int(ex.n))
	case TY_SEXT:
		ex := e.e.(*internalBVExprExtend)
		result = args[0].SignExtend(int(ex.n))
	case TY_SHL:
		result = args[0].Lsh(args[1])
	case TY_AND, TY_OR, TY_XOR, TY_ADD, TY_MUL:
		result = args[0]
		for i := 1; i < len(args); i++ {
			switch e.Kind() {
			case TY_AND:
				result = result.And(args[i])
			case TY_OR:
				result = result.Or(args[i])
			case TY_XOR:
				result = result.Xor(args[i])
			case TY_ADD:
				result = result.Add(args[i])
			case TY_MUL:
				result = result.Mul(args[i])
			}
		}
	default:
		panic("invalid expression type")
	}

	cache[e.Id()] = result
	return result
}
