package gortl

// Fold tries to replace e by an existing node or a fresh constant. It
// never builds non-constant nodes and never fails: when no fold applies
// it returns (nil, false).
func Fold(e *BVExprPtr, f Factory) (*BVExprPtr, bool) {
	children := e.e.subexprs()

	switch e.Kind() {
	case TY_AND, TY_OR, TY_XOR, TY_ADD, TY_MUL:
		if len(children) == 1 {
			return children[0], true
		}
		last := children[len(children)-1]

		switch e.Kind() {
		case TY_AND, TY_MUL:
			// x & 0, x * 0
			if last.IsZero() {
				return last, true
			}
		case TY_OR:
			// x | ~0
			if last.HasAllBitsSet() {
				return last, true
			}
		case TY_XOR:
			// x ^ x
			if len(children) == 2 && children[0].Id() == children[1].Id() {
				return f.Const(MakeBVConst(0, e.Size())), true
			}
		}
	case TY_EXTRACT:
		child := children[0]

		// Redundant extract
		if child.Size() == e.Size() {
			return child, true
		}

		// Constant propagation
		if child.IsConst() {
			low, _ := e.ExtractLow()
			c, _ := child.GetConst()
			return f.Const(c.Slice(low+e.Size()-1, low)), true
		}
	case TY_SHL:
		lhs, rhs := children[0], children[1]
		if !rhs.IsConst() {
			break
		}
		n, _ := rhs.GetConst()

		if n.IsZero() {
			return lhs, true
		}
		if !n.FitInLong() || n.AsULong() >= uint64(e.Size()) {
			return f.Const(MakeBVConst(0, e.Size())), true
		}

		// Constant propagation
		if lhs.IsConst() {
			c, _ := lhs.GetConst()
			c.Shl(uint(n.AsULong()))
			return f.Const(c), true
		}
	}

	return nil, false
}
