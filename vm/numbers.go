package vm

// numArg pops one argument and validates it is a number, filling in the
// InvalidArgs error shape spec §7 requires otherwise.
func (v *VM) numArg(proc string) (Number, error) {
	c, err := v.Stack.Pop()
	if err != nil {
		return Number{}, err
	}
	r := v.Heap.Get(c)
	if !r.IsNumber() {
		return Number{}, errInvalidArgs(proc, "a number", v.typeName(r))
	}
	return r.NumberVal(), nil
}

// popNumbersLenient pops argc values off the stack (in source order),
// always consuming exactly argc cells even when one isn't a number. Used
// by the comparison and unary numeric predicates, which per spec.md
// §4.3 lines 107-108 and builtin.rs's num_comp/num_unary_predicate
// return #f for a non-Number argument rather than raising InvalidArgs.
func (v *VM) popNumbersLenient(argc int) ([]Number, bool) {
	cells := make([]VCell, argc)
	for i := argc - 1; i >= 0; i-- {
		cells[i], _ = v.Stack.Pop()
	}
	out := make([]Number, argc)
	ok := true
	for i, c := range cells {
		r := v.Heap.Get(c)
		if !r.IsNumber() {
			ok = false
			continue
		}
		out[i] = r.NumberVal()
	}
	return out, ok
}

func (v *VM) registerNumberBuiltins() {
	v.DefineBuiltin(Builtin{Name: "+", MinArgs: 0, MaxArgs: -1, Fn: func(v *VM, argc int) (VCell, error) {
		acc := NumberFromInt64(0)
		nums, err := v.popNumbers("+", argc)
		if err != nil {
			return VCell{}, err
		}
		for _, n := range nums {
			acc = acc.Add(n)
		}
		return NumberCell(acc), nil
	}})
	v.DefineBuiltin(Builtin{Name: "*", MinArgs: 0, MaxArgs: -1, Fn: func(v *VM, argc int) (VCell, error) {
		acc := NumberFromInt64(1)
		nums, err := v.popNumbers("*", argc)
		if err != nil {
			return VCell{}, err
		}
		for _, n := range nums {
			acc = acc.Mul(n)
		}
		return NumberCell(acc), nil
	}})
	v.DefineBuiltin(Builtin{Name: "-", MinArgs: 1, MaxArgs: -1, Fn: func(v *VM, argc int) (VCell, error) {
		nums, err := v.popNumbers("-", argc)
		if err != nil {
			return VCell{}, err
		}
		if len(nums) == 1 {
			return NumberCell(nums[0].Neg()), nil
		}
		acc := nums[0]
		for _, n := range nums[1:] {
			acc = acc.Sub(n)
		}
		return NumberCell(acc), nil
	}})
	v.DefineBuiltin(Builtin{Name: "/", MinArgs: 1, MaxArgs: -1, Fn: func(v *VM, argc int) (VCell, error) {
		nums, err := v.popNumbers("/", argc)
		if err != nil {
			return VCell{}, err
		}
		if len(nums) == 1 {
			if nums[0].IsZero() {
				return VCell{}, errInvalidSyntax("/ is undefined for 0")
			}
			return NumberCell(NumberFromInt64(1).Div(nums[0])), nil
		}
		acc := nums[0]
		for _, n := range nums[1:] {
			if n.IsZero() {
				return VCell{}, errInvalidSyntax("/ is undefined for 0")
			}
			acc = acc.Div(n)
		}
		return NumberCell(acc), nil
	}})

	cmp := func(name string, ok func(c int) bool) {
		v.DefineBuiltin(Builtin{Name: name, MinArgs: 1, MaxArgs: -1, Fn: func(v *VM, argc int) (VCell, error) {
			nums, allNumbers := v.popNumbersLenient(argc)
			if !allNumbers {
				return BoolCell(false), nil
			}
			for i := 1; i < len(nums); i++ {
				if !ok(nums[i-1].Cmp(nums[i])) {
					return BoolCell(false), nil
				}
			}
			return BoolCell(true), nil
		}})
	}
	cmp("=", func(c int) bool { return c == 0 })
	cmp("<", func(c int) bool { return c < 0 })
	cmp(">", func(c int) bool { return c > 0 })
	cmp("<=", func(c int) bool { return c <= 0 })
	cmp(">=", func(c int) bool { return c >= 0 })

	v.DefineBuiltin(Builtin{Name: "quotient", MinArgs: 2, MaxArgs: 2, Fn: func(v *VM, argc int) (VCell, error) {
		b, err := v.numArg("quotient")
		if err != nil {
			return VCell{}, err
		}
		a, err := v.numArg("quotient")
		if err != nil {
			return VCell{}, err
		}
		if !a.IsInteger() || !b.IsInteger() {
			return VCell{}, errInvalidArgs("quotient", "an integer", "a non-integer number")
		}
		if b.IsZero() {
			return VCell{}, errInvalidSyntax("quotient: division by zero")
		}
		q, _ := quotientRemainder(a, b)
		return NumberCell(q), nil
	}})
	remainderFn := func(v *VM, argc int) (VCell, error) {
		b, err := v.numArg("remainder")
		if err != nil {
			return VCell{}, err
		}
		a, err := v.numArg("remainder")
		if err != nil {
			return VCell{}, err
		}
		if !a.IsInteger() || !b.IsInteger() {
			return VCell{}, errInvalidArgs("remainder", "an integer", "a non-integer number")
		}
		if b.IsZero() {
			return VCell{}, errInvalidSyntax("remainder: division by zero")
		}
		_, r := quotientRemainder(a, b)
		return NumberCell(r), nil
	}
	v.DefineBuiltin(Builtin{Name: "remainder", MinArgs: 2, MaxArgs: 2, Fn: remainderFn})
	// % is builtin.rs's alias for remainder (spec.md §4.3 line 106): both
	// names resolve to the same operation.
	v.DefineBuiltin(Builtin{Name: "%", MinArgs: 2, MaxArgs: 2, Fn: remainderFn})
	v.DefineBuiltin(Builtin{Name: "modulo", MinArgs: 2, MaxArgs: 2, Fn: func(v *VM, argc int) (VCell, error) {
		b, err := v.numArg("modulo")
		if err != nil {
			return VCell{}, err
		}
		a, err := v.numArg("modulo")
		if err != nil {
			return VCell{}, err
		}
		if !a.IsInteger() || !b.IsInteger() {
			return VCell{}, errInvalidArgs("modulo", "an integer", "a non-integer number")
		}
		if b.IsZero() {
			return VCell{}, errInvalidSyntax("modulo: division by zero")
		}
		_, r := quotientRemainder(a, b)
		if !r.IsZero() && (r.Cmp(NumberFromInt64(0)) < 0) != (b.Cmp(NumberFromInt64(0)) < 0) {
			r = r.Add(b)
		}
		return NumberCell(r), nil
	}})
	v.DefineBuiltin(Builtin{Name: "abs", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		n, err := v.numArg("abs")
		if err != nil {
			return VCell{}, err
		}
		return NumberCell(n.Abs()), nil
	}})
	v.DefineBuiltin(Builtin{Name: "min", MinArgs: 1, MaxArgs: -1, Fn: func(v *VM, argc int) (VCell, error) {
		nums, err := v.popNumbers("min", argc)
		if err != nil {
			return VCell{}, err
		}
		m := nums[0]
		inexact := !m.IsExact()
		for _, n := range nums[1:] {
			if !n.IsExact() {
				inexact = true
			}
			if n.Cmp(m) < 0 {
				m = n
			}
		}
		if inexact {
			m = m.ToInexact()
		}
		return NumberCell(m), nil
	}})
	v.DefineBuiltin(Builtin{Name: "max", MinArgs: 1, MaxArgs: -1, Fn: func(v *VM, argc int) (VCell, error) {
		nums, err := v.popNumbers("max", argc)
		if err != nil {
			return VCell{}, err
		}
		m := nums[0]
		inexact := !m.IsExact()
		for _, n := range nums[1:] {
			if !n.IsExact() {
				inexact = true
			}
			if n.Cmp(m) > 0 {
				m = n
			}
		}
		if inexact {
			m = m.ToInexact()
		}
		return NumberCell(m), nil
	}})
	v.DefineBuiltin(Builtin{Name: "zero?", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		nums, ok := v.popNumbersLenient(1)
		if !ok {
			return BoolCell(false), nil
		}
		return BoolCell(nums[0].IsZero()), nil
	}})
	v.DefineBuiltin(Builtin{Name: "positive?", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		nums, ok := v.popNumbersLenient(1)
		if !ok {
			return BoolCell(false), nil
		}
		return BoolCell(nums[0].Cmp(NumberFromInt64(0)) > 0), nil
	}})
	v.DefineBuiltin(Builtin{Name: "negative?", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		nums, ok := v.popNumbersLenient(1)
		if !ok {
			return BoolCell(false), nil
		}
		return BoolCell(nums[0].Cmp(NumberFromInt64(0)) < 0), nil
	}})
	v.DefineBuiltin(Builtin{Name: "odd?", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		nums, ok := v.popNumbersLenient(1)
		if !ok {
			return BoolCell(false), nil
		}
		_, r := quotientRemainder(nums[0], NumberFromInt64(2))
		return BoolCell(!r.IsZero()), nil
	}})
	v.DefineBuiltin(Builtin{Name: "even?", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		nums, ok := v.popNumbersLenient(1)
		if !ok {
			return BoolCell(false), nil
		}
		_, r := quotientRemainder(nums[0], NumberFromInt64(2))
		return BoolCell(r.IsZero()), nil
	}})
	v.DefineBuiltin(Builtin{Name: "exact->inexact", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		n, err := v.numArg("exact->inexact")
		if err != nil {
			return VCell{}, err
		}
		return NumberCell(n.ToInexact()), nil
	}})
	v.DefineBuiltin(Builtin{Name: "inexact->exact", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		n, err := v.numArg("inexact->exact")
		if err != nil {
			return VCell{}, err
		}
		e, _ := n.ToExact()
		return NumberCell(e), nil
	}})
	v.DefineBuiltin(Builtin{Name: "number?", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		c, _ := v.Stack.Pop()
		return BoolCell(v.Heap.Get(c).IsNumber()), nil
	}})
	v.DefineBuiltin(Builtin{Name: "integer?", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		c, _ := v.Stack.Pop()
		r := v.Heap.Get(c)
		return BoolCell(r.IsNumber() && r.NumberVal().IsInteger()), nil
	}})
	v.DefineBuiltin(Builtin{Name: "exact?", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		n, err := v.numArg("exact?")
		if err != nil {
			return VCell{}, err
		}
		return BoolCell(n.IsExact()), nil
	}})
	v.DefineBuiltin(Builtin{Name: "inexact?", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		n, err := v.numArg("inexact?")
		if err != nil {
			return VCell{}, err
		}
		return BoolCell(!n.IsExact()), nil
	}})
}

// popNumbers pops argc values off the stack (in source order) and
// validates each is a number.
func (v *VM) popNumbers(proc string, argc int) ([]Number, error) {
	out := make([]Number, argc)
	for i := argc - 1; i >= 0; i-- {
		n, err := v.numArg(proc)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}
