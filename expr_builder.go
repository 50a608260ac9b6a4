package gortl

import (
	"fmt"
	"io"
	"sync"

	"tlog.app/go/errors"
)

type ExprBuilderStats struct {
	CacheHits    uint
	CacheLookups uint
	CachedBVs    uint
}

// ExprBuilder is the value numbering arena. Structurally identical nodes
// are created once, so two handles denote the same node iff their Ids
// are equal. Constructors validate their operands but never simplify.
type ExprBuilder struct {
	lock    sync.RWMutex
	bvcache map[uint64][]internalBVExpr

	Stats ExprBuilderStats
}

func NewExprBuilder() *ExprBuilder {
	return &ExprBuilder{
		lock:    sync.RWMutex{},
		bvcache: map[uint64][]internalBVExpr{},
		Stats:   ExprBuilderStats{},
	}
}

func (eb *ExprBuilder) GetStats() ExprBuilderStats {
	eb.lock.RLock()
	defer eb.lock.RUnlock()

	return eb.Stats
}

func (eb *ExprBuilder) PrintStats(w io.Writer) {
	s := eb.GetStats()

	fmt.Fprintln(w, "=====================")
	fmt.Fprintln(w, "  ExprBuilder Stats")
	fmt.Fprintln(w, "=====================")
	fmt.Fprintf(w, "hits:       %d\n", s.CacheHits)
	if s.CacheLookups > 0 {
		fmt.Fprintf(w, "hit ratio:  %.03f %%\n", float64(s.CacheHits)/float64(s.CacheLookups)*100)
	}
	fmt.Fprintf(w, "num cached: %d\n", s.CachedBVs)
	fmt.Fprintln(w, "=====================")
}

func (eb *ExprBuilder) getOrCreateBV(e internalBVExpr) *BVExprPtr {
	eb.lock.Lock()
	defer eb.lock.Unlock()
	eb.Stats.CacheLookups += 1

	h := e.hash()
	bucket := eb.bvcache[h]
	for i := 0; i < len(bucket); i++ {
		if bucket[i].shallowEq(e) {
			eb.Stats.CacheHits += 1
			return &BVExprPtr{bucket[i]}
		}
	}
	eb.Stats.CachedBVs += 1

	eb.bvcache[h] = append(bucket, e)
	return &BVExprPtr{e}
}

// InvolvedInputs returns the distinct wires e reads.
func (eb *ExprBuilder) InvolvedInputs(e *BVExprPtr) []*BVExprPtr {
	return involvedInputs(e)
}

func involvedInputs(e *BVExprPtr) []*BVExprPtr {
	queue := make([]*BVExprPtr, 0)
	visited := make(map[uintptr]bool)
	symbols := make([]*BVExprPtr, 0)

	queue = append(queue, e)
	for len(queue) > 0 {
		el := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if _, ok := visited[el.Id()]; ok {
			continue
		}
		visited[el.Id()] = true

		if el.Kind() == TY_WIRE {
			symbols = append(symbols, el)
			continue
		}

		queue = append(queue, el.e.subexprs()...)
	}
	return symbols
}

// *** Constructors ***

// Const interns a constant. The node keeps its own copy of c.
func (eb *ExprBuilder) Const(c *BVConst) *BVExprPtr {
	return eb.getOrCreateBV(mkinternalBVVFromConst(*c.Copy()))
}

// BVV interns the constant val truncated to size bits. It panics if size
// is 0.
func (eb *ExprBuilder) BVV(val int64, size uint) *BVExprPtr {
	if size == 0 {
		panic(ErrZeroWidth)
	}
	return eb.getOrCreateBV(mkinternalBVV(val, size))
}

func (eb *ExprBuilder) Wire(name string, size uint) (*BVExprPtr, error) {
	if err := VerifyZeroWidth(size); err != nil {
		return nil, errors.Wrap(err, "wire %v", name)
	}
	if name == "" {
		return nil, errors.New("wire with empty name")
	}
	return eb.getOrCreateBV(mkinternalBVS(name, size)), nil
}

// BVS is like Wire but panics on error.
func (eb *ExprBuilder) BVS(name string, size uint) *BVExprPtr {
	r, err := eb.Wire(name, size)
	if err != nil {
		panic(err)
	}
	return r
}

func (eb *ExprBuilder) arithmetic(kind int, children []*BVExprPtr) (*BVExprPtr, error) {
	ex, err := mkBVArithmeticExpr(children, kind)
	if err != nil {
		return nil, err
	}
	return eb.getOrCreateBV(ex), nil
}

func (eb *ExprBuilder) And(children ...*BVExprPtr) (*BVExprPtr, error) {
	return eb.arithmetic(TY_AND, children)
}

func (eb *ExprBuilder) Or(children ...*BVExprPtr) (*BVExprPtr, error) {
	return eb.arithmetic(TY_OR, children)
}

func (eb *ExprBuilder) Xor(children ...*BVExprPtr) (*BVExprPtr, error) {
	return eb.arithmetic(TY_XOR, children)
}

func (eb *ExprBuilder) Add(children ...*BVExprPtr) (*BVExprPtr, error) {
	return eb.arithmetic(TY_ADD, children)
}

func (eb *ExprBuilder) Mul(children ...*BVExprPtr) (*BVExprPtr, error) {
	return eb.arithmetic(TY_MUL, children)
}

// Shl builds lhs << rhs. Both operands have the same width.
func (eb *ExprBuilder) Shl(lhs, rhs *BVExprPtr) (*BVExprPtr, error) {
	return eb.arithmetic(TY_SHL, []*BVExprPtr{lhs, rhs})
}

// Extract selects width bits of e starting at bit low.
func (eb *ExprBuilder) Extract(e *BVExprPtr, low, width uint) (*BVExprPtr, error) {
	ex, err := mkinternalBVExprExtract(e, low, width)
	if err != nil {
		return nil, err
	}
	return eb.getOrCreateBV(ex), nil
}

// Concat joins its operands, the first one being the most significant.
func (eb *ExprBuilder) Concat(children ...*BVExprPtr) (*BVExprPtr, error) {
	ex, err := mkinternalBVExprConcat(children)
	if err != nil {
		return nil, err
	}
	return eb.getOrCreateBV(ex), nil
}

// ZExt zero extends e to width bits.
func (eb *ExprBuilder) ZExt(e *BVExprPtr, width uint) (*BVExprPtr, error) {
	ex, err := mkinternalBVExprExtend(e, false, width)
	if err != nil {
		return nil, err
	}
	return eb.getOrCreateBV(ex), nil
}

// SExt sign extends e to width bits.
func (eb *ExprBuilder) SExt(e *BVExprPtr, width uint) (*BVExprPtr, error) {
	ex, err := mkinternalBVExprExtend(e, true, width)
	if err != nil {
		return nil, err
	}
	return eb.getOrCreateBV(ex), nil
}

// Build creates a node of a kind whose shape is fully described by its
// operands: the variadic operators, shl and concat.
func (eb *ExprBuilder) Build(kind int, children []*BVExprPtr) (*BVExprPtr, error) {
	switch {
	case IsVariadic(kind), kind == TY_SHL:
		return eb.arithmetic(kind, children)
	case kind == TY_CONCAT:
		return eb.Concat(children...)
	}
	return nil, errors.New("build: %v needs more than operands", KindName(kind))
}

// withChildren rebuilds e with new operands of the same widths, keeping
// every other attribute.
func (eb *ExprBuilder) withChildren(e *BVExprPtr, children []*BVExprPtr) (*BVExprPtr, error) {
	switch e.Kind() {
	case TY_WIRE, TY_CONST:
		return e, nil
	case TY_EXTRACT:
		ex := e.e.(*internalBVExprExtract)
		return eb.Extract(children[0], ex.low, ex.size())
	case TY_ZEXT:
		return eb.ZExt(children[0], e.Size())
	case TY_SEXT:
		return eb.SExt(children[0], e.Size())
	}
	return eb.Build(e.Kind(), children)
}
