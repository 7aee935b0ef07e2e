package vm

func (v *VM) vectorArg(proc string) (*Vector, VCell, error) {
	c, err := v.Stack.Pop()
	if err != nil {
		return nil, VCell{}, err
	}
	r := v.Heap.Get(c)
	if !r.IsVector() {
		return nil, VCell{}, errInvalidArgs(proc, "a vector", v.typeName(r))
	}
	return r.VectorVal(), c, nil
}

func (v *VM) registerVectorBuiltins() {
	v.DefineBuiltin(Builtin{Name: "vector", MinArgs: 0, MaxArgs: -1, Fn: func(v *VM, argc int) (VCell, error) {
		cells := make([]VCell, argc)
		for i := argc - 1; i >= 0; i-- {
			cells[i], _ = v.Stack.Pop()
		}
		return v.Heap.Put(vectorCell(NewVector(cells))), nil
	}})
	v.DefineBuiltin(Builtin{Name: "make-vector", MinArgs: 1, MaxArgs: 2, Fn: func(v *VM, argc int) (VCell, error) {
		fill := NumberCell(NumberFromInt64(0))
		if argc == 2 {
			fill, _ = v.Stack.Pop()
		}
		kCell, _ := v.Stack.Pop()
		k, ok := kCell.NumberVal().ToUint()
		if !ok {
			return VCell{}, errInvalidArgs("make-vector", "a non-negative exact integer", v.typeName(kCell))
		}
		return v.Heap.Put(vectorCell(MakeVector(k, fill))), nil
	}})
	v.DefineBuiltin(Builtin{Name: "vector-length", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		vec, _, err := v.vectorArg("vector-length")
		if err != nil {
			return VCell{}, err
		}
		return NumberCell(NumberFromInt64(int64(vec.Len()))), nil
	}})
	v.DefineBuiltin(Builtin{Name: "vector-ref", MinArgs: 2, MaxArgs: 2, Fn: func(v *VM, argc int) (VCell, error) {
		kCell, err := v.Stack.Pop()
		if err != nil {
			return VCell{}, err
		}
		vec, _, err := v.vectorArg("vector-ref")
		if err != nil {
			return VCell{}, err
		}
		k, ok := kCell.NumberVal().ToUint()
		if !ok {
			return VCell{}, errInvalidArgs("vector-ref", "a non-negative exact integer", v.typeName(kCell))
		}
		val, ok := vec.Get(k)
		if !ok {
			return VCell{}, errInvalidVectorIndex(k, vec.Len())
		}
		return val, nil
	}})
	v.DefineBuiltin(Builtin{Name: "vector-set!", MinArgs: 3, MaxArgs: 3, Fn: func(v *VM, argc int) (VCell, error) {
		val, err := v.Stack.Pop()
		if err != nil {
			return VCell{}, err
		}
		kCell, err := v.Stack.Pop()
		if err != nil {
			return VCell{}, err
		}
		vec, _, err := v.vectorArg("vector-set!")
		if err != nil {
			return VCell{}, err
		}
		k, ok := kCell.NumberVal().ToUint()
		if !ok || k >= vec.Len() {
			return VCell{}, errInvalidVectorIndex(k, vec.Len())
		}
		vec.Set(k, val)
		return Void, nil
	}})
	v.DefineBuiltin(Builtin{Name: "vector-fill!", MinArgs: 2, MaxArgs: 2, Fn: func(v *VM, argc int) (VCell, error) {
		val, err := v.Stack.Pop()
		if err != nil {
			return VCell{}, err
		}
		vec, _, err := v.vectorArg("vector-fill!")
		if err != nil {
			return VCell{}, err
		}
		vec.Fill(val)
		return Void, nil
	}})
	v.DefineBuiltin(Builtin{Name: "vector->list", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		vec, _, err := v.vectorArg("vector->list")
		if err != nil {
			return VCell{}, err
		}
		return v.sliceToList(vec.Cells()), nil
	}})
	v.DefineBuiltin(Builtin{Name: "list->vector", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		lst, err := v.Stack.Pop()
		if err != nil {
			return VCell{}, err
		}
		elems, ok := v.listToSlice(lst)
		if !ok {
			return VCell{}, errInvalidArgs("list->vector", "a proper list", v.typeName(lst))
		}
		return v.Heap.Put(vectorCell(NewVector(elems))), nil
	}})
	v.DefineBuiltin(Builtin{Name: "vector?", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		c, _ := v.Stack.Pop()
		return BoolCell(v.Heap.Get(c).IsVector()), nil
	}})
}
