package gortl

import (
	"fmt"
	"math/big"

	"tlog.app/go/errors"
)

var zero = big.NewInt(0)
var one = big.NewInt(1)

// BVConst is a fixed width bit-vector value. Arithmetic wraps around
// modulo 2^Size.
type BVConst struct {
	Size  uint
	mask  *big.Int
	value *big.Int
}

func makeMask(size uint) *big.Int {
	bytes := make([]byte, size/8)
	for i := uint(0); i < size/8; i++ {
		bytes[i] = 0xff
	}
	v := big.NewInt(0)
	v.SetBytes(bytes)
	for i := size / 8 * 8; i < size/8*8+size%8; i++ {
		v.SetBit(v, int(i), 1)
	}
	return v
}

func MakeBVConst(value int64, size uint) *BVConst {
	return MakeBVConstFromBigint(big.NewInt(value), size)
}

func MakeBVConstFromBigint(value *big.Int, size uint) *BVConst {
	if size == 0 {
		return nil
	}

	mask := makeMask(size)
	v := new(big.Int).Set(value)
	if v.Cmp(zero) < 0 {
		v = v.Neg(v)
		v = v.Sub(v, one)
		v = v.Sub(mask, v)
	}
	v = v.And(v, mask)
	return &BVConst{Size: size, mask: mask, value: v}
}

// MakeBVConstFromString parses s in the given base. It returns nil if s
// is not a number or size is 0.
func MakeBVConstFromString(s string, base int, size uint) *BVConst {
	v, ok := new(big.Int).SetString(s, base)
	if !ok {
		return nil
	}
	return MakeBVConstFromBigint(v, size)
}

func (bv *BVConst) IsNegative() bool {
	return bv.value.Bit(int(bv.Size)-1) == 1
}

func (bv *BVConst) IsZero() bool {
	return bv.value.Cmp(zero) == 0
}

func (bv *BVConst) IsOne() bool {
	return bv.value.Cmp(one) == 0
}

func (bv *BVConst) HasAllBitsSet() bool {
	return bv.value.Cmp(bv.mask) == 0
}

func (bv *BVConst) IsPowerOf2() bool {
	if bv.IsZero() {
		return false
	}
	tmp := new(big.Int).Sub(bv.value, one)
	return tmp.And(tmp, bv.value).Cmp(zero) == 0
}

// ExactLog2 returns log2 of the value. Only meaningful when IsPowerOf2.
func (bv *BVConst) ExactLog2() uint {
	return uint(bv.value.BitLen() - 1)
}

func (bv *BVConst) Copy() *BVConst {
	newVal := new(big.Int).Set(bv.value)
	newMask := new(big.Int).Set(bv.mask)
	return &BVConst{Size: bv.Size, mask: newMask, value: newVal}
}

func (bv *BVConst) String() string {
	return fmt.Sprintf("<BV%d 0x%x>", bv.Size, bv.value)
}

// Text formats the value in the given base, without the width.
func (bv *BVConst) Text(base int) string {
	return bv.value.Text(base)
}

func (bv *BVConst) FitInLong() bool {
	return bv.value.BitLen() <= 64
}

func (bv *BVConst) AsULong() uint64 {
	// if it does not `FitInLong`, result is undefined
	return bv.value.Uint64()
}

func (bv *BVConst) AsLong() int64 {
	// if it does not `FitInLong`, result is undefined
	if !bv.IsNegative() {
		return bv.value.Int64()
	}
	bvCpy := bv.Copy()
	bvCpy.Neg()
	return -int64(bvCpy.AsULong())
}

func (bv *BVConst) Not() {
	bv.value.Not(bv.value)
	bv.value.And(bv.value, bv.mask)
}

func (bv *BVConst) Neg() {
	bv.value.Sub(bv.value, one)
	bv.value.Sub(bv.mask, bv.value)
	bv.value.And(bv.value, bv.mask)
}

func (bv *BVConst) checkSize(o *BVConst) error {
	if bv.Size != o.Size {
		return errors.Wrap(ErrWidthMismatch, "%d and %d", bv.Size, o.Size)
	}
	return nil
}

func (bv *BVConst) Add(o *BVConst) error {
	if err := bv.checkSize(o); err != nil {
		return err
	}

	bv.value = bv.value.Add(bv.value, o.value)
	bv.value.And(bv.value, bv.mask)
	return nil
}

func (bv *BVConst) Sub(o *BVConst) error {
	if err := bv.checkSize(o); err != nil {
		return err
	}

	bv.value = bv.value.Sub(bv.value, o.value)
	bv.value.And(bv.value, bv.mask)
	return nil
}

func (bv *BVConst) Mul(o *BVConst) error {
	if err := bv.checkSize(o); err != nil {
		return err
	}

	bv.value = bv.value.Mul(bv.value, o.value)
	bv.value.And(bv.value, bv.mask)
	return nil
}

func (bv *BVConst) And(o *BVConst) error {
	if err := bv.checkSize(o); err != nil {
		return err
	}

	bv.value = bv.value.And(bv.value, o.value)
	return nil
}

func (bv *BVConst) Or(o *BVConst) error {
	if err := bv.checkSize(o); err != nil {
		return err
	}

	bv.value = bv.value.Or(bv.value, o.value)
	return nil
}

func (bv *BVConst) Xor(o *BVConst) error {
	if err := bv.checkSize(o); err != nil {
		return err
	}

	bv.value = bv.value.Xor(bv.value, o.value)
	return nil
}

func (bv *BVConst) LShr(n uint) {
	if n >= bv.Size {
		bv.value = big.NewInt(0)
		return
	}
	if n == 0 {
		return
	}

	bv.value = bv.value.Rsh(bv.value, n)
}

func (bv *BVConst) Shl(n uint) {
	if n >= bv.Size {
		bv.value = big.NewInt(0)
		return
	}
	if n == 0 {
		return
	}

	bv.value = bv.value.Lsh(bv.value, n)
	bv.value.And(bv.value, bv.mask)
}

// Concat appends o as the low bits: the result is bv # o.
func (bv *BVConst) Concat(o *BVConst) {
	oCpy := o.Copy()
	oCpy.ZExt(bv.Size)

	bv.ZExt(o.Size)
	bv.Shl(o.Size)
	bv.Or(oCpy)
}

func (bv *BVConst) Truncate(high uint, low uint) error {
	if high < low {
		return errors.Wrap(ErrExtractOutOfRange, "high %d is lower than low %d", high, low)
	}
	if high >= bv.Size {
		return errors.Wrap(ErrExtractOutOfRange, "high %d exceeds width %d", high, bv.Size)
	}

	bv.LShr(low)
	bv.Size = high - low + 1
	bv.mask = makeMask(bv.Size)

	bv.value = bv.value.And(bv.value, bv.mask)
	return nil
}

// Slice returns bits [high:low] as a new value, or nil if the range is
// invalid.
func (bv *BVConst) Slice(high uint, low uint) *BVConst {
	if high < low {
		return nil
	}
	if high >= bv.Size {
		return nil
	}

	res := MakeBVConst(0, high-low+1)
	res.value.Rsh(bv.value, low)
	res.value.And(res.value, res.mask)
	return res
}

func (bv *BVConst) ZExt(bits uint) {
	bv.Size += bits
	bv.mask = makeMask(bv.Size)
}

func (bv *BVConst) SExt(bits uint) {
	if !bv.IsNegative() {
		bv.ZExt(bits)
		return
	}

	newBits := makeMask(bits)
	newBits.Lsh(newBits, bv.Size)
	bv.value = bv.value.Or(newBits, bv.value)

	bv.Size += bits
	bv.mask = makeMask(bv.Size)
}

func (bv *BVConst) Eq(o *BVConst) (bool, error) {
	if err := bv.checkSize(o); err != nil {
		return false, err
	}
	return bv.value.Cmp(o.value) == 0, nil
}
