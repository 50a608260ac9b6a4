package gortl

import (
	"encoding/binary"
	"fmt"
	"strings"
	"unsafe"

	"github.com/cespare/xxhash/v2"
	"tlog.app/go/errors"
)

const (
	TY_WIRE    = 1
	TY_CONST   = 2
	TY_EXTRACT = 3
	TY_CONCAT  = 4
	TY_ZEXT    = 5
	TY_SEXT    = 6

	TY_SHL = 7
	TY_AND = 8
	TY_OR  = 9
	TY_XOR = 10
	TY_ADD = 11
	TY_MUL = 12
)

var kindNames = map[int]string{
	TY_WIRE:    "wire",
	TY_CONST:   "const",
	TY_EXTRACT: "extract",
	TY_CONCAT:  "concat",
	TY_ZEXT:    "zext",
	TY_SEXT:    "sext",
	TY_SHL:     "shl",
	TY_AND:     "and",
	TY_OR:      "or",
	TY_XOR:     "xor",
	TY_ADD:     "add",
	TY_MUL:     "mul",
}

func KindName(kind int) string {
	if n, ok := kindNames[kind]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", kind)
}

// IsVariadic reports whether kind is one of the associative operators
// taking one or more operands.
func IsVariadic(kind int) bool {
	switch kind {
	case TY_AND, TY_OR, TY_XOR, TY_ADD, TY_MUL:
		return true
	}
	return false
}

/*
 *   Public Interface
 */

type BVExprPtr struct {
	e internalBVExpr
}

func (bv *BVExprPtr) IsConst() bool {
	return bv.e.kind() == TY_CONST
}

func (bv *BVExprPtr) GetConst() (*BVConst, error) {
	if bv.e.kind() != TY_CONST {
		return nil, errors.New("not a constant: %v", bv)
	}
	c := bv.e.(*internalBVV)
	return c.Value.Copy(), nil
}

func (bv *BVExprPtr) IsZero() bool {
	if !bv.IsConst() {
		return false
	}
	c, _ := bv.GetConst()
	return c.IsZero()
}

func (bv *BVExprPtr) IsOne() bool {
	if !bv.IsConst() {
		return false
	}
	c, _ := bv.GetConst()
	return c.IsOne()
}

func (bv *BVExprPtr) HasAllBitsSet() bool {
	if !bv.IsConst() {
		return false
	}
	c, _ := bv.GetConst()
	return c.HasAllBitsSet()
}

func (bv *BVExprPtr) Size() uint {
	return bv.e.size()
}

func (bv *BVExprPtr) String() string {
	return bv.e.String()
}

func (bv *BVExprPtr) Id() uintptr {
	return bv.e.rawPtr()
}

// DeepEq compares two expressions structurally. Unlike Id equality it
// holds across builders.
func (bv *BVExprPtr) DeepEq(o *BVExprPtr) bool {
	return bv.e.deepEq(o.e)
}

func (bv *BVExprPtr) Kind() int {
	return bv.e.kind()
}

// Children returns a fresh copy of the operand list.
func (bv *BVExprPtr) Children() []*BVExprPtr {
	sub := bv.e.subexprs()
	res := make([]*BVExprPtr, len(sub))
	copy(res, sub)
	return res
}

// ExtractLow returns the low bit of an extract node.
func (bv *BVExprPtr) ExtractLow() (uint, error) {
	if bv.e.kind() != TY_EXTRACT {
		return 0, errors.New("not an extract: %v", bv)
	}
	return bv.e.(*internalBVExprExtract).low, nil
}

// WireName returns the name of a wire reference.
func (bv *BVExprPtr) WireName() (string, error) {
	if bv.e.kind() != TY_WIRE {
		return "", errors.New("not a wire: %v", bv)
	}
	return bv.e.(*internalBVS).name, nil
}

/*
 *   Private Interface
 */

type internalBVExpr interface {
	String() string

	kind() int
	hash() uint64
	isLeaf() bool
	rawPtr() uintptr
	size() uint
	subexprs() []*BVExprPtr

	deepEq(internalBVExpr) bool
	shallowEq(internalBVExpr) bool
}

func hashChild(h *xxhash.Digest, e *BVExprPtr) {
	raw := make([]byte, 8)
	binary.BigEndian.PutUint64(raw, uint64(e.e.rawPtr()))
	h.Write(raw)
}

func writeOperand(b *strings.Builder, e *BVExprPtr) {
	if e.e.isLeaf() {
		b.WriteString(e.String())
	} else {
		b.WriteString(fmt.Sprintf("(%s)", e.String()))
	}
}

func sameChildren(a, b []*BVExprPtr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if a[i].e.rawPtr() != b[i].e.rawPtr() {
			return false
		}
	}
	return true
}

func deepEqChildren(a, b []*BVExprPtr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if !a[i].e.deepEq(b[i].e) {
			return false
		}
	}
	return true
}

/*
 *  TY_CONST
 */

type internalBVV struct {
	Value BVConst
}

func mkinternalBVV(value int64, size uint) *internalBVV {
	return &internalBVV{Value: *MakeBVConst(value, size)}
}

func mkinternalBVVFromConst(c BVConst) *internalBVV {
	return &internalBVV{Value: c}
}

func (bvv *internalBVV) String() string {
	return fmt.Sprintf("0x%x", bvv.Value.value)
}

func (bvv *internalBVV) size() uint {
	return bvv.Value.Size
}

func (bvv *internalBVV) subexprs() []*BVExprPtr {
	return nil
}

func (bvv *internalBVV) kind() int {
	return TY_CONST
}

func (bvv *internalBVV) hash() uint64 {
	if bvv.Value.Size > 64 {
		cpy := bvv.Value.Copy()
		cpy.Truncate(63, 0)
		return cpy.AsULong()
	}
	return bvv.Value.AsULong()
}

func (bvv *internalBVV) deepEq(other internalBVExpr) bool {
	if other.kind() != TY_CONST {
		return false
	}
	obvv := other.(*internalBVV)
	res, err := bvv.Value.Eq(&obvv.Value)
	return err == nil && res
}

func (bvv *internalBVV) shallowEq(other internalBVExpr) bool {
	return bvv.deepEq(other)
}

func (bvv *internalBVV) isLeaf() bool {
	return true
}

func (bvv *internalBVV) rawPtr() uintptr {
	return uintptr(unsafe.Pointer(bvv))
}

/*
 *  TY_WIRE
 */

type internalBVS struct {
	name string
	sz   uint
}

func mkinternalBVS(name string, size uint) *internalBVS {
	return &internalBVS{name: name, sz: size}
}

func (bvs *internalBVS) String() string {
	return bvs.name
}

func (bvs *internalBVS) size() uint {
	return bvs.sz
}

func (bvs *internalBVS) subexprs() []*BVExprPtr {
	return nil
}

func (bvs *internalBVS) kind() int {
	return TY_WIRE
}

func (bvs *internalBVS) hash() uint64 {
	h := xxhash.New()
	n, err := h.Write([]byte(bvs.name))
	if err != nil || n != len(bvs.name) {
		panic(err)
	}
	return h.Sum64()
}

func (bvs *internalBVS) deepEq(other internalBVExpr) bool {
	if other.kind() != TY_WIRE {
		return false
	}
	obvs := other.(*internalBVS)
	return obvs.sz == bvs.sz && obvs.name == bvs.name
}

func (bvs *internalBVS) shallowEq(other internalBVExpr) bool {
	return bvs.deepEq(other)
}

func (bvs *internalBVS) isLeaf() bool {
	return true
}

func (bvs *internalBVS) rawPtr() uintptr {
	return uintptr(unsafe.Pointer(bvs))
}

/*
 * TY_AND, TY_OR, TY_XOR, TY_ADD, TY_MUL, TY_SHL
 */

type internalBVExprArithmetic struct {
	knd      uint8
	symbol   string
	children []*BVExprPtr
}

var arithmeticSymbols = map[int]string{
	TY_AND: "&",
	TY_OR:  "|",
	TY_XOR: "^",
	TY_ADD: "+",
	TY_MUL: "*",
	TY_SHL: "<<",
}

func mkBVArithmeticExpr(children []*BVExprPtr, kind int) (*internalBVExprArithmetic, error) {
	symbol, ok := arithmeticSymbols[kind]
	if !ok {
		return nil, errors.New("mkBVArithmeticExpr(): unsupported kind %v", KindName(kind))
	}
	if err := VerifyVariadic(kind, len(children)); err != nil {
		return nil, err
	}
	if kind == TY_SHL && len(children) != 2 {
		return nil, errors.New("mkBVArithmeticExpr(): shl takes 2 operands, got %d", len(children))
	}
	for i := 1; i < len(children); i++ {
		if children[i].Size() != children[0].Size() {
			return nil, errors.Wrap(ErrWidthMismatch, "mkBVArithmeticExpr(): operand %d is %d bits, want %d",
				i, children[i].Size(), children[0].Size())
		}
	}
	cpy := make([]*BVExprPtr, len(children))
	copy(cpy, children)
	return &internalBVExprArithmetic{knd: uint8(kind), symbol: symbol, children: cpy}, nil
}

func (e *internalBVExprArithmetic) String() string {
	b := strings.Builder{}
	if len(e.children) == 1 {
		// a single operand has no infix form
		b.WriteString(fmt.Sprintf("%s(", KindName(e.kind())))
		writeOperand(&b, e.children[0])
		b.WriteString(")")
		return b.String()
	}
	writeOperand(&b, e.children[0])
	for i := 1; i < len(e.children); i++ {
		b.WriteString(fmt.Sprintf(" %s ", e.symbol))
		writeOperand(&b, e.children[i])
	}
	return b.String()
}

func (e *internalBVExprArithmetic) size() uint {
	return e.children[0].Size()
}

func (e *internalBVExprArithmetic) subexprs() []*BVExprPtr {
	return e.children
}

func (e *internalBVExprArithmetic) kind() int {
	return int(e.knd)
}

func (e *internalBVExprArithmetic) hash() uint64 {
	h := xxhash.New()
	h.Write([]byte(e.symbol))
	for i := 0; i < len(e.children); i++ {
		hashChild(h, e.children[i])
	}
	return h.Sum64()
}

func (e *internalBVExprArithmetic) deepEq(other internalBVExpr) bool {
	if other.kind() != e.kind() {
		return false
	}
	oe := other.(*internalBVExprArithmetic)
	return deepEqChildren(e.children, oe.children)
}

func (e *internalBVExprArithmetic) shallowEq(other internalBVExpr) bool {
	if other.kind() != e.kind() {
		return false
	}
	oe := other.(*internalBVExprArithmetic)
	return sameChildren(e.children, oe.children)
}

func (e *internalBVExprArithmetic) isLeaf() bool {
	return false
}

func (e *internalBVExprArithmetic) rawPtr() uintptr {
	return uintptr(unsafe.Pointer(e))
}

/*
 *  TY_EXTRACT
 */

type internalBVExprExtract struct {
	child     *BVExprPtr
	high, low uint
}

func mkinternalBVExprExtract(child *BVExprPtr, low, width uint) (*internalBVExprExtract, error) {
	if err := VerifyExtract(child.Size(), low, width); err != nil {
		return nil, err
	}
	return &internalBVExprExtract{child: child, high: low + width - 1, low: low}, nil
}

func (e *internalBVExprExtract) String() string {
	b := strings.Builder{}
	writeOperand(&b, e.child)
	b.WriteString(fmt.Sprintf("[%d:%d]", e.high, e.low))
	return b.String()
}

func (e *internalBVExprExtract) size() uint {
	return e.high - e.low + 1
}

func (e *internalBVExprExtract) subexprs() []*BVExprPtr {
	return []*BVExprPtr{e.child}
}

func (e *internalBVExprExtract) kind() int {
	return TY_EXTRACT
}

func (e *internalBVExprExtract) hash() uint64 {
	h := xxhash.New()
	h.Write([]byte("TY_EXTRACT"))
	hashChild(h, e.child)
	raw := make([]byte, 8)
	binary.BigEndian.PutUint64(raw, uint64(e.low))
	h.Write(raw)
	binary.BigEndian.PutUint64(raw, uint64(e.high))
	h.Write(raw)
	return h.Sum64()
}

func (e *internalBVExprExtract) deepEq(other internalBVExpr) bool {
	if other.kind() != TY_EXTRACT {
		return false
	}
	oe := other.(*internalBVExprExtract)
	return e.child.e.deepEq(oe.child.e) &&
		e.low == oe.low &&
		e.high == oe.high
}

func (e *internalBVExprExtract) shallowEq(other internalBVExpr) bool {
	if other.kind() != TY_EXTRACT {
		return false
	}
	oe := other.(*internalBVExprExtract)
	return e.child.e.rawPtr() == oe.child.e.rawPtr() &&
		e.low == oe.low &&
		e.high == oe.high
}

func (e *internalBVExprExtract) isLeaf() bool {
	return false
}

func (e *internalBVExprExtract) rawPtr() uintptr {
	return uintptr(unsafe.Pointer(e))
}

/*
 *  TY_CONCAT
 */

// The first child holds the most significant bits.
type internalBVExprConcat struct {
	children []*BVExprPtr
}

func mkinternalBVExprConcat(children []*BVExprPtr) (*internalBVExprConcat, error) {
	if err := VerifyVariadic(TY_CONCAT, len(children)); err != nil {
		return nil, err
	}
	cpy := make([]*BVExprPtr, len(children))
	copy(cpy, children)
	return &internalBVExprConcat{children: cpy}, nil
}

func (e *internalBVExprConcat) String() string {
	b := strings.Builder{}
	writeOperand(&b, e.children[0])
	for i := 1; i < len(e.children); i++ {
		b.WriteString(" .. ")
		writeOperand(&b, e.children[i])
	}
	return b.String()
}

func (e *internalBVExprConcat) size() uint {
	size := uint(0)
	for i := 0; i < len(e.children); i++ {
		size += e.children[i].Size()
	}
	return size
}

func (e *internalBVExprConcat) subexprs() []*BVExprPtr {
	return e.children
}

func (e *internalBVExprConcat) kind() int {
	return TY_CONCAT
}

func (e *internalBVExprConcat) hash() uint64 {
	h := xxhash.New()
	h.Write([]byte("TY_CONCAT"))
	for i := 0; i < len(e.children); i++ {
		hashChild(h, e.children[i])
	}
	return h.Sum64()
}

func (e *internalBVExprConcat) deepEq(other internalBVExpr) bool {
	if other.kind() != TY_CONCAT {
		return false
	}
	oe := other.(*internalBVExprConcat)
	return deepEqChildren(e.children, oe.children)
}

func (e *internalBVExprConcat) shallowEq(other internalBVExpr) bool {
	if other.kind() != TY_CONCAT {
		return false
	}
	oe := other.(*internalBVExprConcat)
	return sameChildren(e.children, oe.children)
}

func (e *internalBVExprConcat) isLeaf() bool {
	return false
}

func (e *internalBVExprConcat) rawPtr() uintptr {
	return uintptr(unsafe.Pointer(e))
}

/*
 *   TY_ZEXT, TY_SEXT
 */

type internalBVExprExtend struct {
	signed bool
	n      uint
	child  *BVExprPtr
}

func mkinternalBVExprExtend(child *BVExprPtr, signed bool, width uint) (*internalBVExprExtend, error) {
	if err := VerifyExtend(child.Size(), width); err != nil {
		return nil, err
	}
	return &internalBVExprExtend{child: child, n: width - child.Size(), signed: signed}, nil
}

func (e *internalBVExprExtend) String() string {
	b := strings.Builder{}
	if e.signed {
		b.WriteString("SExt(")
	} else {
		b.WriteString("ZExt(")
	}
	writeOperand(&b, e.child)
	b.WriteString(fmt.Sprintf(", %d)", e.size()))
	return b.String()
}

func (e *internalBVExprExtend) size() uint {
	return e.child.Size() + e.n
}

func (e *internalBVExprExtend) subexprs() []*BVExprPtr {
	return []*BVExprPtr{e.child}
}

func (e *internalBVExprExtend) kind() int {
	if e.signed {
		return TY_SEXT
	}
	return TY_ZEXT
}

func (e *internalBVExprExtend) hash() uint64 {
	h := xxhash.New()
	if e.signed {
		h.Write([]byte("TY_SEXT"))
	} else {
		h.Write([]byte("TY_ZEXT"))
	}
	hashChild(h, e.child)
	raw := make([]byte, 8)
	binary.BigEndian.PutUint64(raw, uint64(e.n))
	h.Write(raw)
	return h.Sum64()
}

func (e *internalBVExprExtend) deepEq(other internalBVExpr) bool {
	if other.kind() != e.kind() {
		return false
	}
	oe := other.(*internalBVExprExtend)
	return e.n == oe.n && e.child.e.deepEq(oe.child.e)
}

func (e *internalBVExprExtend) shallowEq(other internalBVExpr) bool {
	if other.kind() != e.kind() {
		return false
	}
	oe := other.(*internalBVExprExtend)
	return e.n == oe.n && e.child.e.rawPtr() == oe.child.e.rawPtr()
}

func (e *internalBVExprExtend) isLeaf() bool {
	return false
}

func (e *internalBVExprExtend) rawPtr() uintptr {
	return uintptr(unsafe.Pointer(e))
}
