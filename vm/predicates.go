package vm

// registerPredicateBuiltins installs the type-predicate and control-flow
// support procedures that don't naturally belong with one data type's
// file: boolean?, symbol?, procedure?, port? (always #f: this port has no
// I/O ports, spec.md's non-goal), symbol=?, and apply.
func (v *VM) registerPredicateBuiltins() {
	v.DefineBuiltin(Builtin{Name: "boolean?", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		c, _ := v.Stack.Pop()
		return BoolCell(v.Heap.Get(c).IsBool()), nil
	}})
	v.DefineBuiltin(Builtin{Name: "symbol?", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		c, _ := v.Stack.Pop()
		return BoolCell(v.Heap.Get(c).IsSymbol()), nil
	}})
	v.DefineBuiltin(Builtin{Name: "procedure?", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		c, _ := v.Stack.Pop()
		return BoolCell(v.Heap.Get(c).IsProcedure()), nil
	}})
	v.DefineBuiltin(Builtin{Name: "port?", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		_, _ = v.Stack.Pop()
		return BoolCell(false), nil
	}})
	v.DefineBuiltin(Builtin{Name: "symbol=?", MinArgs: 2, MaxArgs: -1, Fn: func(v *VM, argc int) (VCell, error) {
		args := make([]VCell, argc)
		for i := argc - 1; i >= 0; i-- {
			args[i], _ = v.Stack.Pop()
		}
		for _, a := range args {
			if !v.Heap.Get(a).IsSymbol() {
				return VCell{}, errInvalidArgs("symbol=?", "a symbol", v.typeName(a))
			}
		}
		for i := 1; i < len(args); i++ {
			if !v.Eq(args[0], args[i]) {
				return BoolCell(false), nil
			}
		}
		return BoolCell(true), nil
	}})

	v.DefineBuiltin(Builtin{Name: "apply", MinArgs: 2, MaxArgs: -1, Fn: func(v *VM, argc int) (VCell, error) {
		// apply proc arg1 ... argn lst: the last argument is spread, the
		// rest passed positionally, matching R7RS's apply contract.
		args := make([]VCell, argc)
		for i := argc - 1; i >= 0; i-- {
			args[i], _ = v.Stack.Pop()
		}
		proc := args[0]
		spread, ok := v.listToSlice(args[len(args)-1])
		if !ok {
			return VCell{}, errInvalidArgs("apply", "a proper list", v.typeName(args[len(args)-1]))
		}
		final := append(append([]VCell{}, args[1:len(args)-1]...), spread...)
		return v.invoke(proc, final)
	}})
}
