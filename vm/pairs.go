package vm

// Car returns the car of a pair cell. pair must satisfy IsPair(); callers
// that are not sure use the type-checked builtins below instead.
func (v *VM) Car(pair VCell) VCell {
	car, _ := pair.Pair()
	return car
}

// Cdr returns the cdr of a pair cell.
func (v *VM) Cdr(pair VCell) VCell {
	_, cdr := pair.Pair()
	return cdr
}

// Cons allocates a new pair (car . cdr) and returns a Ptr to it. Unlike a
// Vector, which is already heap-indirected through its own handle, a pair
// needs the Heap.Put wrapper so set-car!/set-cdr! have a stable address to
// mutate in place.
func (v *VM) Cons(car, cdr VCell) VCell {
	return v.Heap.Put(PairCell(car, cdr))
}

// SetCar mutates the car field of pair in place. pair must be the Ptr
// returned by Cons, not an already-resolved pair cell.
func (v *VM) SetCar(pair, val VCell) {
	_, cdr := v.resolvePair(pair)
	v.Heap.SetAt(pair.Addr(), PairCell(val, cdr))
}

// SetCdr mutates the cdr field of pair in place.
func (v *VM) SetCdr(pair, val VCell) {
	car, _ := v.resolvePair(pair)
	v.Heap.SetAt(pair.Addr(), PairCell(car, val))
}

func (v *VM) resolvePair(pair VCell) (car, cdr VCell) {
	return v.Heap.At(pair.Addr()).Pair()
}

// ListToSlice converts a proper list to a Go slice of its elements,
// exposed for package compile's special-form destructuring.
func (v *VM) ListToSlice(lst VCell) ([]VCell, bool) { return v.listToSlice(lst) }

// SliceToList builds a proper list from a Go slice, tail last, exposed
// for package compile's desugaring of let/let* into lambda application.
func (v *VM) SliceToList(elems []VCell) VCell { return v.sliceToList(elems) }

// listLen walks a proper list and returns its length, or ok=false if the
// list is improper (dotted or circular past a sane bound).
func (v *VM) listLen(lst VCell) (int, bool) {
	n := 0
	for {
		if lst.IsNil() {
			return n, true
		}
		resolved := v.Heap.Get(lst)
		if !resolved.IsPair() {
			return n, false
		}
		n++
		lst = v.Cdr(resolved)
		if n > 1<<24 {
			return n, false
		}
	}
}

// listToSlice converts a proper list to a Go slice of its elements.
func (v *VM) listToSlice(lst VCell) ([]VCell, bool) {
	var out []VCell
	for {
		if lst.IsNil() {
			return out, true
		}
		resolved := v.Heap.Get(lst)
		if !resolved.IsPair() {
			return out, false
		}
		out = append(out, v.Car(resolved))
		lst = v.Cdr(resolved)
	}
}

// sliceToList builds a proper list from a Go slice, tail last.
func (v *VM) sliceToList(elems []VCell) VCell {
	result := Nil
	for i := len(elems) - 1; i >= 0; i-- {
		result = v.Cons(elems[i], result)
	}
	return result
}

func (v *VM) registerPairBuiltins() {
	v.DefineBuiltin(Builtin{Name: "cons", MinArgs: 2, MaxArgs: 2, Fn: func(v *VM, argc int) (VCell, error) {
		b, _ := v.Stack.Pop()
		a, _ := v.Stack.Pop()
		return v.Cons(a, b), nil
	}})
	v.DefineBuiltin(Builtin{Name: "car", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		p, _ := v.Stack.Pop()
		r := v.Heap.Get(p)
		if !r.IsPair() {
			return VCell{}, errExpectedPair(v.typeName(r))
		}
		return v.Car(r), nil
	}})
	v.DefineBuiltin(Builtin{Name: "cdr", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		p, _ := v.Stack.Pop()
		r := v.Heap.Get(p)
		if !r.IsPair() {
			return VCell{}, errExpectedPair(v.typeName(r))
		}
		return v.Cdr(r), nil
	}})
	v.DefineBuiltin(Builtin{Name: "set-car!", MinArgs: 2, MaxArgs: 2, Fn: func(v *VM, argc int) (VCell, error) {
		val, _ := v.Stack.Pop()
		p, _ := v.Stack.Pop()
		r := v.Heap.Get(p)
		if !r.IsPair() {
			return VCell{}, errExpectedPair(v.typeName(r))
		}
		v.SetCar(p, val)
		return Void, nil
	}})
	v.DefineBuiltin(Builtin{Name: "set-cdr!", MinArgs: 2, MaxArgs: 2, Fn: func(v *VM, argc int) (VCell, error) {
		val, _ := v.Stack.Pop()
		p, _ := v.Stack.Pop()
		r := v.Heap.Get(p)
		if !r.IsPair() {
			return VCell{}, errExpectedPair(v.typeName(r))
		}
		v.SetCdr(p, val)
		return Void, nil
	}})
	v.DefineBuiltin(Builtin{Name: "pair?", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		p, _ := v.Stack.Pop()
		return BoolCell(v.Heap.Get(p).IsPair()), nil
	}})
	v.DefineBuiltin(Builtin{Name: "null?", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		p, _ := v.Stack.Pop()
		return BoolCell(v.Heap.Get(p).IsNil()), nil
	}})
	v.DefineBuiltin(Builtin{Name: "list?", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		p, _ := v.Stack.Pop()
		_, ok := v.listLen(p)
		return BoolCell(ok), nil
	}})
	v.DefineBuiltin(Builtin{Name: "list", MinArgs: 0, MaxArgs: -1, Fn: func(v *VM, argc int) (VCell, error) {
		elems := make([]VCell, argc)
		for i := argc - 1; i >= 0; i-- {
			elems[i], _ = v.Stack.Pop()
		}
		return v.sliceToList(elems), nil
	}})
	v.DefineBuiltin(Builtin{Name: "length", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		p, _ := v.Stack.Pop()
		n, ok := v.listLen(p)
		if !ok {
			return VCell{}, errInvalidArgs("length", "a proper list", v.typeName(p))
		}
		return NumberCell(NumberFromInt64(int64(n))), nil
	}})
	v.DefineBuiltin(Builtin{Name: "append", MinArgs: 0, MaxArgs: -1, Fn: func(v *VM, argc int) (VCell, error) {
		lists := make([]VCell, argc)
		for i := argc - 1; i >= 0; i-- {
			lists[i], _ = v.Stack.Pop()
		}
		if len(lists) == 0 {
			return Nil, nil
		}
		var out []VCell
		for i := 0; i < len(lists)-1; i++ {
			elems, ok := v.listToSlice(lists[i])
			if !ok {
				return VCell{}, errInvalidArgs("append", "a proper list", v.typeName(lists[i]))
			}
			out = append(out, elems...)
		}
		result := lists[len(lists)-1]
		for i := len(out) - 1; i >= 0; i-- {
			result = v.Cons(out[i], result)
		}
		return result, nil
	}})
	v.DefineBuiltin(Builtin{Name: "reverse", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		lst, _ := v.Stack.Pop()
		elems, ok := v.listToSlice(lst)
		if !ok {
			return VCell{}, errInvalidArgs("reverse", "a proper list", v.typeName(lst))
		}
		result := Nil
		for _, e := range elems {
			result = v.Cons(e, result)
		}
		return result, nil
	}})
	v.DefineBuiltin(Builtin{Name: "list-ref", MinArgs: 2, MaxArgs: 2, Fn: func(v *VM, argc int) (VCell, error) {
		kCell, _ := v.Stack.Pop()
		lst, _ := v.Stack.Pop()
		k, ok := kCell.NumberVal().ToUint()
		if !ok {
			return VCell{}, errInvalidArgs("list-ref", "a non-negative exact integer", v.typeName(kCell))
		}
		for i := 0; i < k; i++ {
			r := v.Heap.Get(lst)
			if !r.IsPair() {
				return VCell{}, errExpectedPair(v.typeName(r))
			}
			lst = v.Cdr(r)
		}
		r := v.Heap.Get(lst)
		if !r.IsPair() {
			return VCell{}, errExpectedPair(v.typeName(r))
		}
		return v.Car(r), nil
	}})
	v.DefineBuiltin(Builtin{Name: "list-tail", MinArgs: 2, MaxArgs: 2, Fn: func(v *VM, argc int) (VCell, error) {
		kCell, _ := v.Stack.Pop()
		lst, _ := v.Stack.Pop()
		k, ok := kCell.NumberVal().ToUint()
		if !ok {
			return VCell{}, errInvalidArgs("list-tail", "a non-negative exact integer", v.typeName(kCell))
		}
		for i := 0; i < k; i++ {
			r := v.Heap.Get(lst)
			if !r.IsPair() {
				return VCell{}, errExpectedPair(v.typeName(r))
			}
			lst = v.Cdr(r)
		}
		return lst, nil
	}})
}
