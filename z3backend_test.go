//go:build z3

package gortl

import (
	"context"
	"testing"
)

func TestZ3Unsat1(t *testing.T) {
	eb := NewExprBuilder()
	p, err := NewZ3Prover()
	if isErr(t, err) {
		return
	}

	a := eb.BVS("a", 32)
	e1, _ := eb.Add(a, a, a)
	e2, _ := eb.Mul(a, eb.BVV(3, 32))

	r, err := p.Equivalent(e1, e2)
	if isErr(t, err) {
		return
	}
	if r != RESULT_UNSAT {
		t.Error("should be unsat")
	}
}

func TestZ3Sat1(t *testing.T) {
	eb := NewExprBuilder()
	p, err := NewZ3Prover()
	if isErr(t, err) {
		return
	}

	a := eb.BVS("a", 32)
	b := eb.BVS("b", 32)
	e1, _ := eb.Or(a, b)
	e2, _ := eb.Xor(a, b)

	r, err := p.Equivalent(e1, e2)
	if isErr(t, err) {
		return
	}
	if r != RESULT_SAT {
		t.Error("should be sat")
		return
	}

	m, err := p.(*Z3Prover).Model()
	if isErr(t, err) {
		return
	}
	if _, ok := m["a"]; !ok {
		t.Error("unable to find the assignment")
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

func TestZ3WidthChanges(t *testing.T) {
	eb := NewExprBuilder()
	p, err := NewZ3Prover()
	if isErr(t, err) {
		return
	}

	e1, err := eb.Parse("(concat (extract 16 16 (sext 32 a:16)) a:16)")
	if isErr(t, err) {
		return
	}
	e2, err := eb.Parse("(sext 32 a:16)")
	if isErr(t, err) {
		return
	}

	r, err := p.Equivalent(e1, e2)
	if isErr(t, err) {
		return
	}
	if r != RESULT_UNSAT {
		t.Error("should be unsat")
	}
}

func TestZ3Driver(t *testing.T) {
	eb := NewExprBuilder()
	p, err := NewZ3Prover()
	if isErr(t, err) {
		return
	}

	e, err := eb.Parse("(add (mul a:32 8:32) (shl a:32 2:32) a:32 (xor b:32 b:32 c:32) 0:32)")
	if isErr(t, err) {
		return
	}

	if _, err = eb.SimplifyWithOptions(context.Background(), DriverOptions{Prover: p}, e); isErr(t, err) {
		return
	}
}
