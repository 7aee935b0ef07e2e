package vm

// registerHigherOrderBuiltins installs the procedures that call back into
// user code (map, for-each), which is why they route through VM.invoke
// rather than Go-level recursion: the callee may be a compiled closure,
// and invoking one requires pumping the bytecode dispatch loop, not a
// native Go call.
func (v *VM) registerHigherOrderBuiltins() {
	v.DefineBuiltin(Builtin{Name: "map", MinArgs: 2, MaxArgs: -1, Fn: func(v *VM, argc int) (VCell, error) {
		lists := make([]VCell, argc-1)
		for i := argc - 2; i >= 0; i-- {
			lists[i], _ = v.Stack.Pop()
		}
		proc, _ := v.Stack.Pop()
		slices := make([][]VCell, len(lists))
		minLen := -1
		for i, lst := range lists {
			elems, ok := v.listToSlice(lst)
			if !ok {
				return VCell{}, errInvalidArgs("map", "a proper list", v.typeName(lst))
			}
			slices[i] = elems
			if minLen < 0 || len(elems) < minLen {
				minLen = len(elems)
			}
		}
		out := make([]VCell, minLen)
		for i := 0; i < minLen; i++ {
			callArgs := make([]VCell, len(slices))
			for j, s := range slices {
				callArgs[j] = s[i]
			}
			res, err := v.invoke(proc, callArgs)
			if err != nil {
				return VCell{}, err
			}
			out[i] = res
		}
		return v.sliceToList(out), nil
	}})

	v.DefineBuiltin(Builtin{Name: "for-each", MinArgs: 2, MaxArgs: -1, Fn: func(v *VM, argc int) (VCell, error) {
		lists := make([]VCell, argc-1)
		for i := argc - 2; i >= 0; i-- {
			lists[i], _ = v.Stack.Pop()
		}
		proc, _ := v.Stack.Pop()
		slices := make([][]VCell, len(lists))
		minLen := -1
		for i, lst := range lists {
			elems, ok := v.listToSlice(lst)
			if !ok {
				return VCell{}, errInvalidArgs("for-each", "a proper list", v.typeName(lst))
			}
			slices[i] = elems
			if minLen < 0 || len(elems) < minLen {
				minLen = len(elems)
			}
		}
		for i := 0; i < minLen; i++ {
			callArgs := make([]VCell, len(slices))
			for j, s := range slices {
				callArgs[j] = s[i]
			}
			if _, err := v.invoke(proc, callArgs); err != nil {
				return VCell{}, err
			}
		}
		return Void, nil
	}})
}
