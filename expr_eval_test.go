package gortl

import (
	"errors"
	"testing"
)

func TestSubstitute1(t *testing.T) {
	eb := NewExprBuilder()
	a := eb.BVS("a", 32)
	b := eb.BVS("b", 32)

	interpr := make(map[string]*BVConst)
	interpr["a"] = MakeBVConst(42, 32)

	e, _ := eb.Add(a, b)
	substituted, err := eb.Substitute(e, interpr)
	if isErr(t, err) {
		return
	}
	if substituted.String() != "0x2a + b" {
		t.Errorf("invalid substitution %v", substituted)
	}

	same, err := eb.Substitute(e, nil)
	if isErr(t, err) {
		return
	}
	if same.Id() != e.Id() {
		t.Error("nothing bound, should be the same object")
	}
}

func TestSubstituteWidth(t *testing.T) {
	eb := NewExprBuilder()
	a := eb.BVS("a", 32)

	_, err := eb.Substitute(a, map[string]*BVConst{"a": MakeBVConst(1, 8)})
	if !errors.Is(err, ErrWidthMismatch) {
		t.Errorf("expected width mismatch, got %v", err)
	}
}

func TestEval1(t *testing.T) {
	eb := NewExprBuilder()
	a := eb.BVS("a", 8)
	b := eb.BVS("b", 8)

	e, _ := eb.Mul(a, b)
	e, _ = eb.Add(e, eb.BVV(1, 8), a)

	v, err := Evaluate(e, map[string]*BVConst{
		"a": MakeBVConst(10, 8),
		"b": MakeBVConst(30, 8),
	})
	if isErr(t, err) {
		return
	}
	// 10 * 30 + 1 + 10 = 311 = 0x137
	if v.Size != 8 || v.AsULong() != 0x37 {
		t.Errorf("invalid eval %v", v)
	}
}

func TestEvalWidthChanges(t *testing.T) {
	eb := NewExprBuilder()
	a := eb.BVS("a", 8)
	interpr := map[string]*BVConst{"a": MakeBVConst(0xb4, 8)}

	for _, tc := range []struct {
		mk   func() (*BVExprPtr, error)
		size uint
		want uint64
	}{
		{func() (*BVExprPtr, error) { return eb.Extract(a, 2, 4) }, 4, 0xd},
		{func() (*BVExprPtr, error) { return eb.ZExt(a, 16) }, 16, 0x00b4},
		{func() (*BVExprPtr, error) { return eb.SExt(a, 16) }, 16, 0xffb4},
		{func() (*BVExprPtr, error) { return eb.Concat(a, eb.BVV(1, 4)) }, 12, 0xb41},
		{func() (*BVExprPtr, error) { return eb.Shl(a, eb.BVV(4, 8)) }, 8, 0x40},
		{func() (*BVExprPtr, error) { return eb.Shl(a, eb.BVV(9, 8)) }, 8, 0},
		{func() (*BVExprPtr, error) { return eb.Xor(a, eb.BVV(0xff, 8)) }, 8, 0x4b},
	} {
		e, err := tc.mk()
		if isErr(t, err) {
			return
		}

		v, err := Evaluate(e, interpr)
		if isErr(t, err) {
			return
		}
		if v.Size != tc.size || v.AsULong() != tc.want {
			t.Errorf("%v: got %v, want 0x%x", e, v, tc.want)
		}
	}
}

func TestEvalUnbound(t *testing.T) {
	eb := NewExprBuilder()
	a := eb.BVS("a", 8)
	b := eb.BVS("b", 8)
	e, _ := eb.Or(a, b)

	_, err := Evaluate(e, map[string]*BVConst{"a": MakeBVConst(1, 8)})
	if !errors.Is(err, ErrUnboundWire) {
		t.Errorf("expected unbound wire, got %v", err)
	}
}

func TestEvalDoesNotAlias(t *testing.T) {
	eb := NewExprBuilder()
	a := eb.BVS("a", 8)

	val := MakeBVConst(5, 8)
	v, err := Evaluate(a, map[string]*BVConst{"a": val})
	if isErr(t, err) {
		return
	}

	v.Add(MakeBVConst(1, 8))
	if val.AsULong() != 5 {
		t.Error("the assignment was modified")
	}
}
