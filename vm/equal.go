package vm

// Eq implements eq?: identity for heap-allocated objects (same address),
// value equality for immediates (booleans, characters), and for numbers
// held directly in a cell: two such numbers are eq? when they have the same
// kind, exactness and value. Numbers reached through a Ptr compare by
// address; Heap's fixnumCache interning gives equal small Fixnums put on
// the heap the same address (component C10).
func (v *VM) Eq(a, b VCell) bool {
	ra, rb := a, b
	switch a.Kind() {
	case KPtr, KSymbol:
		// addresses compare directly without resolving, since eq? on
		// heap-allocated objects means "same address", not "same value".
		if b.Kind() == KPtr || b.Kind() == KSymbol {
			return a.Addr() == b.Addr()
		}
		return false
	}
	if ra.Kind() != rb.Kind() {
		return false
	}
	switch ra.Kind() {
	case KNil, KVoid, KUndefined:
		return true
	case KBool:
		return ra.Bool() == rb.Bool()
	case KChar:
		return ra.CharVal() == rb.CharVal()
	case KNumber:
		na, nb := ra.NumberVal(), rb.NumberVal()
		return na.kind == nb.kind && na.Cmp(nb) == 0 && na.IsExact() == nb.IsExact()
	case KVector:
		return ra.VectorVal() == rb.VectorVal()
	case KString:
		return ra.StringVal() == rb.StringVal()
	case KLambda:
		return ra.LambdaVal() == rb.LambdaVal()
	case KClosure:
		return ra.ClosureVal() == rb.ClosureVal()
	case KBuiltIn:
		return ra.BuiltinID() == rb.BuiltinID()
	default:
		return false
	}
}

// Eqv implements eqv?: like Eq, but numbers and characters always compare
// by value (never merely by cached identity) and exactness must match.
func (v *VM) Eqv(a, b VCell) bool {
	ra, rb := v.Heap.Get(a), v.Heap.Get(b)
	if ra.Kind() != rb.Kind() {
		return false
	}
	switch ra.Kind() {
	case KNumber:
		na, nb := ra.NumberVal(), rb.NumberVal()
		return na.IsExact() == nb.IsExact() && na.Cmp(nb) == 0
	case KChar:
		return ra.CharVal() == rb.CharVal()
	default:
		return v.Eq(a, b)
	}
}

// Equal implements equal?: structural equality over pairs, vectors, and
// strings, falling back to Eqv for everything else. Cyclic structures
// (spec §9, reachable via set-car!/set-cdr!/vector-set!) are handled by
// bounding recursion depth rather than a full cycle detector, matching
// the pragmatic stance builtin.rs takes for the same procedure.
func (v *VM) Equal(a, b VCell) bool {
	return v.equalDepth(a, b, 0)
}

const maxEqualDepth = 1 << 20

func (v *VM) equalDepth(a, b VCell, depth int) bool {
	if depth > maxEqualDepth {
		return true
	}
	ra, rb := v.Heap.Get(a), v.Heap.Get(b)
	if ra.Kind() != rb.Kind() {
		return false
	}
	switch ra.Kind() {
	case KPair:
		return v.equalDepth(v.Car(ra), v.Car(rb), depth+1) &&
			v.equalDepth(v.Cdr(ra), v.Cdr(rb), depth+1)
	case KVector:
		va, vb := ra.VectorVal(), rb.VectorVal()
		if va.Len() != vb.Len() {
			return false
		}
		for i := 0; i < va.Len(); i++ {
			ea, _ := va.Get(i)
			eb, _ := vb.Get(i)
			if !v.equalDepth(ea, eb, depth+1) {
				return false
			}
		}
		return true
	case KString:
		sa, sb := ra.StringVal(), rb.StringVal()
		if sa.Len() != sb.Len() {
			return false
		}
		ra2, rb2 := sa.Runes(), sb.Runes()
		for i := range ra2 {
			if ra2[i] != rb2[i] {
				return false
			}
		}
		return true
	default:
		return v.Eqv(a, b)
	}
}

func (v *VM) registerEqualityBuiltins() {
	v.DefineBuiltin(Builtin{Name: "eq?", MinArgs: 2, MaxArgs: 2, Fn: func(v *VM, argc int) (VCell, error) {
		b, _ := v.Stack.Pop()
		a, _ := v.Stack.Pop()
		return BoolCell(v.Eq(a, b)), nil
	}})
	v.DefineBuiltin(Builtin{Name: "eqv?", MinArgs: 2, MaxArgs: 2, Fn: func(v *VM, argc int) (VCell, error) {
		b, _ := v.Stack.Pop()
		a, _ := v.Stack.Pop()
		return BoolCell(v.Eqv(a, b)), nil
	}})
	v.DefineBuiltin(Builtin{Name: "equal?", MinArgs: 2, MaxArgs: 2, Fn: func(v *VM, argc int) (VCell, error) {
		b, _ := v.Stack.Pop()
		a, _ := v.Stack.Pop()
		return BoolCell(v.Equal(a, b)), nil
	}})
	v.DefineBuiltin(Builtin{Name: "not", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		a, _ := v.Stack.Pop()
		return BoolCell(a.IsFalse()), nil
	}})
}
