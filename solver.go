package gortl

import (
	"sort"

	"tlog.app/go/errors"
)

const (
	RESULT_ERROR   = 0
	RESULT_SAT     = 1
	RESULT_UNSAT   = 2
	RESULT_UNKNOWN = 3
)

// Prover decides whether two expressions of the same width can differ.
// RESULT_SAT means a distinguishing input exists, RESULT_UNSAT means they
// are equivalent.
type Prover interface {
	Equivalent(a, b *BVExprPtr) (int, error)
}

// ErrNoZ3 is returned by NewZ3Prover in builds without the z3 tag.
var ErrNoZ3 = errors.New("built without z3 support, rebuild with -tags z3")

const (
	DefaultMaxInputBits = 16
	maxInputBits        = 32
)

// ExhaustiveProver evaluates both expressions on every input. It gives up
// with RESULT_UNKNOWN when the inputs are wider than MaxInputBits.
type ExhaustiveProver struct {
	MaxInputBits uint
}

func (p *ExhaustiveProver) Equivalent(a, b *BVExprPtr) (int, error) {
	r, _, err := p.Counterexample(a, b)
	return r, err
}

// Counterexample is like Equivalent and also returns the distinguishing
// assignment when the result is RESULT_SAT.
func (p *ExhaustiveProver) Counterexample(a, b *BVExprPtr) (int, map[string]*BVConst, error) {
	if a.Size() != b.Size() {
		return RESULT_ERROR, nil, errors.Wrap(ErrWidthMismatch, "%d and %d bits", a.Size(), b.Size())
	}

	if a.DeepEq(b) {
		return RESULT_UNSAT, nil, nil
	}

	wires, err := collectWires(a, b)
	if err != nil {
		return RESULT_ERROR, nil, err
	}

	limit := p.MaxInputBits
	if limit == 0 {
		limit = DefaultMaxInputBits
	}
	if limit > maxInputBits {
		limit = maxInputBits
	}

	total := uint(0)
	for _, w := range wires {
		total += w.sz
	}
	if total > limit {
		return RESULT_UNKNOWN, nil, nil
	}

	interpr := make(map[string]*BVConst, len(wires))
	for n := uint64(0); n < uint64(1)<<total; n++ {
		off := uint(0)
		for _, w := range wires {
			v := (n >> off) & (uint64(1)<<w.sz - 1)
			interpr[w.name] = MakeBVConst(int64(v), w.sz)
			off += w.sz
		}

		va, err := Evaluate(a, interpr)
		if err != nil {
			return RESULT_ERROR, nil, err
		}
		vb, err := Evaluate(b, interpr)
		if err != nil {
			return RESULT_ERROR, nil, err
		}

		if eq, _ := va.Eq(vb); !eq {
			return RESULT_SAT, interpr, nil
		}
	}

	return RESULT_UNSAT, nil, nil
}

// collectWires returns the wires of all exprs sorted by name. A name used
// with two widths is an error.
func collectWires(exprs ...*BVExprPtr) ([]*internalBVS, error) {
	byName := make(map[string]*internalBVS)

	for _, e := range exprs {
		for _, w := range involvedInputs(e) {
			bv := w.e.(*internalBVS)
			if prev, ok := byName[bv.name]; ok && prev.sz != bv.sz {
				return nil, errors.Wrap(ErrWidthMismatch, "wire %v used with %d and %d bits", bv.name, prev.sz, bv.sz)
			}
			byName[bv.name] = bv
		}
	}

	res := make([]*internalBVS, 0, len(byName))
	for _, w := range byName {
		res = append(res, w)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].name < res[j].name })
	return res, nil
}
