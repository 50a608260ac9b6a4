package gortl_test

import (
	"testing"

	"github.com/borzacchiello/gortl"
)

func TestBV(t *testing.T) {
	bv := gortl.MakeBVConst(-1294871, 32)
	if bv.String() != "<BV32 0xffec3de9>" {
		t.Errorf("incorrect BV")
	}
}

func TestBVZeroWidth(t *testing.T) {
	if gortl.MakeBVConst(1, 0) != nil {
		t.Errorf("zero width constant should not exist")
	}
}

func TestBVAdd(t *testing.T) {
	bv1 := gortl.MakeBVConst(-10, 32)
	bv2 := gortl.MakeBVConst(128, 32)
	bv1.Add(bv2)

	if bv1.AsULong() != 118 {
		t.Errorf("incorrect BV")
	}
}

func TestBVSub(t *testing.T) {
	bv1 := gortl.MakeBVConst(-10, 32)
	bv2 := gortl.MakeBVConst(128, 32)
	bv1.Sub(bv2)

	if bv1.AsLong() != -138 {
		t.Errorf("incorrect BV")
	}
}

func TestBVMulWraps(t *testing.T) {
	bv := gortl.MakeBVConst(0x80, 8)
	bv.Mul(gortl.MakeBVConst(2, 8))

	if !bv.IsZero() {
		t.Errorf("incorrect BV %s", bv)
	}
}

func TestBVBitwise(t *testing.T) {
	bv := gortl.MakeBVConst(0xf0, 8)
	bv.Xor(gortl.MakeBVConst(0xff, 8))
	if bv.AsULong() != 0x0f {
		t.Errorf("incorrect xor %s", bv)
	}

	bv.Or(gortl.MakeBVConst(0x30, 8))
	if bv.AsULong() != 0x3f {
		t.Errorf("incorrect or %s", bv)
	}

	bv.And(gortl.MakeBVConst(0x35, 8))
	if bv.AsULong() != 0x35 {
		t.Errorf("incorrect and %s", bv)
	}

	bv.Not()
	if bv.AsULong() != 0xca {
		t.Errorf("incorrect not %s", bv)
	}
}

func TestSExt(t *testing.T) {
	bv := gortl.MakeBVConst(-10, 32)
	bv.SExt(32)

	if bv.Size != 64 || bv.AsLong() != -10 {
		t.Errorf("incorrect BV")
	}
}

func TestZExt(t *testing.T) {
	bv := gortl.MakeBVConst(-1, 8)
	bv.ZExt(8)

	if bv.Size != 16 || bv.AsULong() != 0xff {
		t.Errorf("incorrect BV")
	}
}

func TestNonstandardSizes(t *testing.T) {
	bv := gortl.MakeBVConst(1, 3)
	bv.Add(gortl.MakeBVConst(7, 3))
	if bv.AsULong() != 0 {
		t.Errorf("incorrect BV")
	}
}

func TestWrongSizes(t *testing.T) {
	err := gortl.MakeBVConst(1, 3).Add(gortl.MakeBVConst(1, 4))
	if err == nil {
		t.Errorf("should return an error")
	}

	_, err = gortl.MakeBVConst(1, 3).Eq(gortl.MakeBVConst(1, 4))
	if err == nil {
		t.Errorf("should return an error")
	}
}

func TestTruncateConcat(t *testing.T) {
	bv := gortl.MakeBVConst(42, 8)
	bv.Concat(gortl.MakeBVConst(43, 8))
	bv.Concat(gortl.MakeBVConst(44, 8))
	bv.Concat(gortl.MakeBVConst(45, 8))

	if bv.Size != 32 || bv.AsULong() != 0x2a2b2c2d {
		t.Errorf("incorrect concat %s", bv)
	}

	b := bv.Copy()
	b.Truncate(7, 0)
	if b.AsULong() != 45 {
		t.Errorf("incorrect BV")
	}

	b = bv.Copy()
	b.Truncate(15, 8)
	if b.AsULong() != 44 {
		t.Errorf("incorrect BV")
	}
}

func TestSlice(t *testing.T) {
	bv := gortl.MakeBVConst(0xdeadbeef, 32)

	if bv.Slice(7, 0).AsULong() != 0xef {
		t.Errorf("incorrect BV")
	}
	if bv.Slice(15, 8).AsULong() != 0xbe {
		t.Errorf("incorrect BV")
	}
	if bv.Slice(23, 16).AsULong() != 0xad {
		t.Errorf("incorrect BV")
	}
	if bv.Slice(31, 24).AsULong() != 0xde {
		t.Errorf("incorrect BV")
	}
	if bv.Slice(32, 24) != nil {
		t.Errorf("out of range slice")
	}
}

func TestShifts(t *testing.T) {
	bv := gortl.MakeBVConst(0x81, 8)
	bv.Shl(1)
	if bv.AsULong() != 0x02 {
		t.Errorf("incorrect shl %s", bv)
	}

	bv = gortl.MakeBVConst(0x81, 8)
	bv.LShr(7)
	if bv.AsULong() != 0x01 {
		t.Errorf("incorrect lshr %s", bv)
	}

	bv = gortl.MakeBVConst(0x81, 8)
	bv.Shl(8)
	if !bv.IsZero() {
		t.Errorf("incorrect shl %s", bv)
	}
}

func TestNeg(t *testing.T) {
	bv := gortl.MakeBVConst(-42, 18)

	bv.Neg()
	if bv.AsLong() != 42 {
		t.Errorf("incorrect BV")
	}
	bv.Neg()
	if bv.AsLong() != -42 {
		t.Errorf("incorrect BV")
	}
}

func TestPowerOf2(t *testing.T) {
	for _, tc := range []struct {
		v    int64
		pow2 bool
		log2 uint
	}{
		{0, false, 0},
		{1, true, 0},
		{2, true, 1},
		{3, false, 0},
		{64, true, 6},
		{-128, true, 7},
		{-1, false, 0},
	} {
		bv := gortl.MakeBVConst(tc.v, 8)
		if bv.IsPowerOf2() != tc.pow2 {
			t.Errorf("%s: IsPowerOf2 = %v", bv, !tc.pow2)
			continue
		}
		if tc.pow2 && bv.ExactLog2() != tc.log2 {
			t.Errorf("%s: ExactLog2 = %v, want %v", bv, bv.ExactLog2(), tc.log2)
		}
	}
}

func TestPredicates(t *testing.T) {
	if !gortl.MakeBVConst(-1, 13).HasAllBitsSet() {
		t.Errorf("all bits should be set")
	}
	if gortl.MakeBVConst(1, 13).HasAllBitsSet() {
		t.Errorf("all bits should not be set")
	}
	if !gortl.MakeBVConst(1, 1).IsOne() || !gortl.MakeBVConst(1, 1).HasAllBitsSet() {
		t.Errorf("1 bit one is also all ones")
	}
	if !gortl.MakeBVConst(256, 8).IsZero() {
		t.Errorf("256 truncated to 8 bits is zero")
	}
}

func TestFromString(t *testing.T) {
	bv := gortl.MakeBVConstFromString("deadbeef", 16, 32)
	if bv == nil || bv.AsULong() != 0xdeadbeef {
		t.Errorf("incorrect BV %s", bv)
	}

	bv = gortl.MakeBVConstFromString("-1", 10, 12)
	if bv == nil || !bv.HasAllBitsSet() {
		t.Errorf("incorrect BV %s", bv)
	}

	if gortl.MakeBVConstFromString("zz", 10, 8) != nil {
		t.Errorf("should not parse")
	}
}

func TestEq(t *testing.T) {
	eq, err := gortl.MakeBVConst(-1, 8).Eq(gortl.MakeBVConst(255, 8))
	if err != nil || !eq {
		t.Errorf("should be equal")
	}

	eq, err = gortl.MakeBVConst(1, 8).Eq(gortl.MakeBVConst(2, 8))
	if err != nil || eq {
		t.Errorf("should not be equal")
	}
}

func TestText(t *testing.T) {
	bv := gortl.MakeBVConst(-2, 8)

	if bv.Text(16) != "fe" || bv.Text(10) != "254" || bv.Text(2) != "11111110" {
		t.Errorf("incorrect text %s", bv)
	}
	if gortl.MakeBVConst(0, 3).Text(16) != "0" {
		t.Errorf("incorrect text")
	}
}
