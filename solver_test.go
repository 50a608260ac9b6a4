package gortl

import (
	"errors"
	"testing"
)

func TestProverUnsat1(t *testing.T) {
	eb := NewExprBuilder()
	p := &ExhaustiveProver{}

	a := eb.BVS("a", 8)
	e1, _ := eb.Add(a, a)
	e2, _ := eb.Shl(a, eb.BVV(1, 8))

	r, err := p.Equivalent(e1, e2)
	if isErr(t, err) {
		return
	}
	if r != RESULT_UNSAT {
		t.Error("should be unsat")
	}
}

func TestProverSat1(t *testing.T) {
	eb := NewExprBuilder()
	p := &ExhaustiveProver{}

	a := eb.BVS("a", 4)
	b := eb.BVS("b", 4)
	e1, _ := eb.Or(a, b)
	e2, _ := eb.Xor(a, b)

	r, m, err := p.Counterexample(e1, e2)
	if isErr(t, err) {
		return
	}
	if r != RESULT_SAT {
		t.Error("should be sat")
		return
	}

	v1, err := Evaluate(e1, m)
	if isErr(t, err) {
		return
	}
	v2, err := Evaluate(e2, m)
	if isErr(t, err) {
		return
	}
	if eq, _ := v1.Eq(v2); eq {
		t.Errorf("model %v does not distinguish the expressions", m)
	}
}

func TestProverUnknown(t *testing.T) {
	eb := NewExprBuilder()

	a := eb.BVS("a", 32)
	e1, _ := eb.Add(a, eb.BVV(1, 32))
	e2, _ := eb.Add(eb.BVV(1, 32), a)

	r, err := (&ExhaustiveProver{}).Equivalent(e1, e2)
	if isErr(t, err) {
		return
	}
	if r != RESULT_UNKNOWN {
		t.Error("should be unknown")
	}

	a = eb.BVS("a", 12)
	e1, _ = eb.Mul(a, eb.BVV(3, 12))
	e2, _ = eb.Mul(eb.BVV(3, 12), a)
	r, err = (&ExhaustiveProver{MaxInputBits: 8}).Equivalent(e1, e2)
	if isErr(t, err) {
		return
	}
	if r != RESULT_UNKNOWN {
		t.Error("should be unknown")
	}
}

func TestProverConstants(t *testing.T) {
	eb := NewExprBuilder()
	p := &ExhaustiveProver{}

	e, _ := eb.Add(eb.BVV(200, 8), eb.BVV(100, 8))
	r, err := p.Equivalent(e, eb.BVV(44, 8))
	if isErr(t, err) {
		return
	}
	if r != RESULT_UNSAT {
		t.Error("should be unsat")
	}

	r, err = p.Equivalent(e, eb.BVV(45, 8))
	if isErr(t, err) {
		return
	}
	if r != RESULT_SAT {
		t.Error("should be sat")
	}
}

func TestProverErrors(t *testing.T) {
	eb := NewExprBuilder()
	p := &ExhaustiveProver{}

	if _, err := p.Equivalent(eb.BVS("a", 8), eb.BVS("b", 4)); !errors.Is(err, ErrWidthMismatch) {
		t.Errorf("expected width mismatch, got %v", err)
	}

	a8 := eb.BVS("a", 8)
	a4, _ := eb.ZExt(eb.BVS("a", 4), 8)
	if _, err := p.Equivalent(a8, a4); !errors.Is(err, ErrWidthMismatch) {
		t.Errorf("expected width mismatch, got %v", err)
	}
}

func TestProverStructurallyEqual(t *testing.T) {
	eb1 := NewExprBuilder()
	eb2 := NewExprBuilder()

	e1, _ := eb1.Add(eb1.BVS("a", 64), eb1.BVV(1, 64))
	e2, _ := eb2.Add(eb2.BVS("a", 64), eb2.BVV(1, 64))

	r, err := (&ExhaustiveProver{}).Equivalent(e1, e2)
	if isErr(t, err) {
		return
	}
	if r != RESULT_UNSAT {
		t.Error("identical expressions should be unsat")
	}
}

func TestNewZ3Prover(t *testing.T) {
	p, err := NewZ3Prover()
	if errors.Is(err, ErrNoZ3) {
		if p != nil {
			t.Error("no prover expected without z3")
		}
		return
	}
	if isErr(t, err) {
		return
	}

	eb := NewExprBuilder()
	a := eb.BVS("a", 8)
	e, _ := eb.Xor(a, a)

	r, err := p.Equivalent(e, eb.BVV(0, 8))
	if isErr(t, err) {
		return
	}
	if r != RESULT_UNSAT {
		t.Error("should be unsat")
	}
}
