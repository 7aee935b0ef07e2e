package vm

import "unicode"

func (v *VM) stringArg(proc string) (*Str, error) {
	c, err := v.Stack.Pop()
	if err != nil {
		return nil, err
	}
	r := v.Heap.Get(c)
	if !r.IsString() {
		return nil, errInvalidArgs(proc, "a string", v.typeName(r))
	}
	return r.StringVal(), nil
}

func (v *VM) popStrings(proc string, argc int) ([]*Str, error) {
	out := make([]*Str, argc)
	for i := argc - 1; i >= 0; i-- {
		s, err := v.stringArg(proc)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// popOptionalRange pops a string and its optional start/end bounds for the
// 1/2/3-arg forms of string-copy and string->list (string.rs exercises all
// three): argc==1 means (proc s), argc==2 means (proc s start), argc==3
// means (proc s start end). Bounds default to the whole string when
// omitted.
func (v *VM) popOptionalRange(proc string, argc int) (start, end int, s *Str, err error) {
	var endCell, startCell VCell
	haveEnd, haveStart := argc >= 3, argc >= 2
	if haveEnd {
		endCell, err = v.Stack.Pop()
		if err != nil {
			return 0, 0, nil, err
		}
	}
	if haveStart {
		startCell, err = v.Stack.Pop()
		if err != nil {
			return 0, 0, nil, err
		}
	}
	s, err = v.stringArg(proc)
	if err != nil {
		return 0, 0, nil, err
	}
	start, end = 0, s.Len()
	if haveStart {
		k, ok := startCell.NumberVal().ToUint()
		if !ok {
			return 0, 0, nil, errInvalidArgs(proc, "a non-negative exact integer", v.typeName(startCell))
		}
		start = k
	}
	if haveEnd {
		k, ok := endCell.NumberVal().ToUint()
		if !ok {
			return 0, 0, nil, errInvalidArgs(proc, "a non-negative exact integer", v.typeName(endCell))
		}
		end = k
	}
	if end < start || end > s.Len() {
		return 0, 0, nil, errInvalidStringIndex(end, s.Len())
	}
	return start, end, s, nil
}

func compareRunes(a, b []rune) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

func foldRunes(rs []rune) []rune {
	out := make([]rune, len(rs))
	for i, r := range rs {
		out[i] = unicode.ToLower(r)
	}
	return out
}

func (v *VM) registerStringBuiltins() {
	v.DefineBuiltin(Builtin{Name: "string-length", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		s, err := v.stringArg("string-length")
		if err != nil {
			return VCell{}, err
		}
		return NumberCell(NumberFromInt64(int64(s.Len()))), nil
	}})
	v.DefineBuiltin(Builtin{Name: "string-ref", MinArgs: 2, MaxArgs: 2, Fn: func(v *VM, argc int) (VCell, error) {
		kCell, err := v.Stack.Pop()
		if err != nil {
			return VCell{}, err
		}
		s, err := v.stringArg("string-ref")
		if err != nil {
			return VCell{}, err
		}
		k, ok := kCell.NumberVal().ToUint()
		if !ok {
			return VCell{}, errInvalidArgs("string-ref", "a non-negative exact integer", v.typeName(kCell))
		}
		r, ok := s.Get(k)
		if !ok {
			return VCell{}, errInvalidStringIndex(k, s.Len())
		}
		return CharCell(r), nil
	}})
	v.DefineBuiltin(Builtin{Name: "string-set!", MinArgs: 3, MaxArgs: 3, Fn: func(v *VM, argc int) (VCell, error) {
		chCell, err := v.Stack.Pop()
		if err != nil {
			return VCell{}, err
		}
		kCell, err := v.Stack.Pop()
		if err != nil {
			return VCell{}, err
		}
		s, err := v.stringArg("string-set!")
		if err != nil {
			return VCell{}, err
		}
		k, ok := kCell.NumberVal().ToUint()
		if !ok || k >= s.Len() {
			return VCell{}, errInvalidStringIndex(k, s.Len())
		}
		if !chCell.IsChar() {
			return VCell{}, errInvalidArgs("string-set!", "a character", v.typeName(chCell))
		}
		s.Set(k, chCell.CharVal())
		return Void, nil
	}})
	v.DefineBuiltin(Builtin{Name: "make-string", MinArgs: 1, MaxArgs: 2, Fn: func(v *VM, argc int) (VCell, error) {
		fill := ' '
		if argc == 2 {
			chCell, _ := v.Stack.Pop()
			if !chCell.IsChar() {
				return VCell{}, errInvalidArgs("make-string", "a character", v.typeName(chCell))
			}
			fill = chCell.CharVal()
		}
		kCell, _ := v.Stack.Pop()
		k, ok := kCell.NumberVal().ToUint()
		if !ok {
			return VCell{}, errInvalidArgs("make-string", "a non-negative exact integer", v.typeName(kCell))
		}
		return v.Heap.Put(stringCell(MakeString(k, fill))), nil
	}})
	v.DefineBuiltin(Builtin{Name: "string-append", MinArgs: 0, MaxArgs: -1, Fn: func(v *VM, argc int) (VCell, error) {
		strs, err := v.popStrings("string-append", argc)
		if err != nil {
			return VCell{}, err
		}
		var out []rune
		for _, s := range strs {
			out = append(out, s.Runes()...)
		}
		return v.Heap.Put(stringCell(NewStringFromRunes(out))), nil
	}})
	v.DefineBuiltin(Builtin{Name: "substring", MinArgs: 3, MaxArgs: 3, Fn: func(v *VM, argc int) (VCell, error) {
		endCell, err := v.Stack.Pop()
		if err != nil {
			return VCell{}, err
		}
		startCell, err := v.Stack.Pop()
		if err != nil {
			return VCell{}, err
		}
		s, err := v.stringArg("substring")
		if err != nil {
			return VCell{}, err
		}
		start, ok1 := startCell.NumberVal().ToUint()
		end, ok2 := endCell.NumberVal().ToUint()
		if !ok1 || !ok2 {
			return VCell{}, errInvalidStringIndex(end, s.Len())
		}
		if end < start {
			return VCell{}, errInvalidSyntax("invalid substring indices: end < start")
		}
		if end > s.Len() {
			return VCell{}, errInvalidStringIndex(end, s.Len())
		}
		return v.Heap.Put(stringCell(s.Slice(start, end))), nil
	}})
	v.DefineBuiltin(Builtin{Name: "string->list", MinArgs: 1, MaxArgs: 3, Fn: func(v *VM, argc int) (VCell, error) {
		start, end, s, err := v.popOptionalRange("string->list", argc)
		if err != nil {
			return VCell{}, err
		}
		runes := s.Runes()[start:end]
		elems := make([]VCell, len(runes))
		for i, r := range runes {
			elems[i] = CharCell(r)
		}
		return v.sliceToList(elems), nil
	}})
	v.DefineBuiltin(Builtin{Name: "list->string", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		lst, err := v.Stack.Pop()
		if err != nil {
			return VCell{}, err
		}
		elems, ok := v.listToSlice(lst)
		if !ok {
			return VCell{}, errInvalidArgs("list->string", "a proper list", v.typeName(lst))
		}
		runes := make([]rune, len(elems))
		for i, e := range elems {
			r := v.Heap.Get(e)
			if !r.IsChar() {
				return VCell{}, errInvalidArgs("list->string", "a list of characters", v.typeName(r))
			}
			runes[i] = r.CharVal()
		}
		return v.Heap.Put(stringCell(NewStringFromRunes(runes))), nil
	}})
	v.DefineBuiltin(Builtin{Name: "string-copy", MinArgs: 1, MaxArgs: 3, Fn: func(v *VM, argc int) (VCell, error) {
		start, end, s, err := v.popOptionalRange("string-copy", argc)
		if err != nil {
			return VCell{}, err
		}
		return v.Heap.Put(stringCell(s.Slice(start, end))), nil
	}})
	v.DefineBuiltin(Builtin{Name: "string-fill!", MinArgs: 2, MaxArgs: 4, Fn: func(v *VM, argc int) (VCell, error) {
		var endCell, startCell VCell
		haveEnd, haveStart := argc >= 4, argc >= 3
		if haveEnd {
			endCell, _ = v.Stack.Pop()
		}
		if haveStart {
			startCell, _ = v.Stack.Pop()
		}
		chCell, err := v.Stack.Pop()
		if err != nil {
			return VCell{}, err
		}
		s, err := v.stringArg("string-fill!")
		if err != nil {
			return VCell{}, err
		}
		if !chCell.IsChar() {
			return VCell{}, errInvalidArgs("string-fill!", "a character", v.typeName(chCell))
		}
		start, end := 0, s.Len()
		if haveStart {
			k, ok := startCell.NumberVal().ToUint()
			if !ok {
				return VCell{}, errInvalidArgs("string-fill!", "a non-negative exact integer", v.typeName(startCell))
			}
			start = k
		}
		if haveEnd {
			k, ok := endCell.NumberVal().ToUint()
			if !ok {
				return VCell{}, errInvalidArgs("string-fill!", "a non-negative exact integer", v.typeName(endCell))
			}
			end = k
		}
		if end < start || end > s.Len() {
			return VCell{}, errInvalidStringIndex(end, s.Len())
		}
		for i := start; i < end; i++ {
			s.Set(i, chCell.CharVal())
		}
		return Void, nil
	}})
	v.DefineBuiltin(Builtin{Name: "string", MinArgs: 0, MaxArgs: -1, Fn: func(v *VM, argc int) (VCell, error) {
		cells := make([]VCell, argc)
		for i := argc - 1; i >= 0; i-- {
			cells[i], _ = v.Stack.Pop()
		}
		runes := make([]rune, argc)
		for i, c := range cells {
			if !c.IsChar() {
				return VCell{}, errInvalidArgs("string", "a character", v.typeName(c))
			}
			runes[i] = c.CharVal()
		}
		return v.Heap.Put(stringCell(NewStringFromRunes(runes))), nil
	}})
	v.DefineBuiltin(Builtin{Name: "string->vector", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		s, err := v.stringArg("string->vector")
		if err != nil {
			return VCell{}, err
		}
		runes := s.Runes()
		cells := make([]VCell, len(runes))
		for i, r := range runes {
			cells[i] = CharCell(r)
		}
		return v.Heap.Put(vectorCell(NewVector(cells))), nil
	}})
	v.DefineBuiltin(Builtin{Name: "vector->string", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		vec, _, err := v.vectorArg("vector->string")
		if err != nil {
			return VCell{}, err
		}
		runes := make([]rune, vec.Len())
		for i := range runes {
			e, _ := vec.Get(i)
			r := v.Heap.Get(e)
			if !r.IsChar() {
				return VCell{}, errInvalidArgs("vector->string", "a vector of characters", v.typeName(r))
			}
			runes[i] = r.CharVal()
		}
		return v.Heap.Put(stringCell(NewStringFromRunes(runes))), nil
	}})
	v.DefineBuiltin(Builtin{Name: "string-upcase", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		s, err := v.stringArg("string-upcase")
		if err != nil {
			return VCell{}, err
		}
		out := make([]rune, s.Len())
		for i, r := range s.Runes() {
			out[i] = unicode.ToUpper(r)
		}
		return v.Heap.Put(stringCell(NewStringFromRunes(out))), nil
	}})
	v.DefineBuiltin(Builtin{Name: "string-downcase", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		s, err := v.stringArg("string-downcase")
		if err != nil {
			return VCell{}, err
		}
		return v.Heap.Put(stringCell(NewStringFromRunes(foldRunes(s.Runes())))), nil
	}})
	v.DefineBuiltin(Builtin{Name: "string-foldcase", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		s, err := v.stringArg("string-foldcase")
		if err != nil {
			return VCell{}, err
		}
		return v.Heap.Put(stringCell(NewStringFromRunes(foldRunes(s.Runes())))), nil
	}})
	v.DefineBuiltin(Builtin{Name: "string?", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		c, _ := v.Stack.Pop()
		return BoolCell(v.Heap.Get(c).IsString()), nil
	}})

	strCmp := func(name string, ci bool, ok func(c int) bool) {
		v.DefineBuiltin(Builtin{Name: name, MinArgs: 1, MaxArgs: -1, Fn: func(v *VM, argc int) (VCell, error) {
			strs, err := v.popStrings(name, argc)
			if err != nil {
				return VCell{}, err
			}
			for i := 1; i < len(strs); i++ {
				a, b := strs[i-1].Runes(), strs[i].Runes()
				if ci {
					a, b = foldRunes(a), foldRunes(b)
				}
				if !ok(compareRunes(a, b)) {
					return BoolCell(false), nil
				}
			}
			return BoolCell(true), nil
		}})
	}
	strCmp("string=?", false, func(c int) bool { return c == 0 })
	strCmp("string<?", false, func(c int) bool { return c < 0 })
	strCmp("string>?", false, func(c int) bool { return c > 0 })
	strCmp("string<=?", false, func(c int) bool { return c <= 0 })
	strCmp("string>=?", false, func(c int) bool { return c >= 0 })
	strCmp("string-ci=?", true, func(c int) bool { return c == 0 })
	strCmp("string-ci<?", true, func(c int) bool { return c < 0 })
	strCmp("string-ci>?", true, func(c int) bool { return c > 0 })
	strCmp("string-ci<=?", true, func(c int) bool { return c <= 0 })
	strCmp("string-ci>=?", true, func(c int) bool { return c >= 0 })

	v.DefineBuiltin(Builtin{Name: "symbol->string", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		c, err := v.Stack.Pop()
		if err != nil {
			return VCell{}, err
		}
		r := v.Heap.Get(c)
		if !r.IsSymbol() {
			return VCell{}, errInvalidArgs("symbol->string", "a symbol", v.typeName(r))
		}
		return v.Heap.Put(stringCell(NewString(v.Heap.SymbolName(r.Addr())))), nil
	}})
	v.DefineBuiltin(Builtin{Name: "string->symbol", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		s, err := v.stringArg("string->symbol")
		if err != nil {
			return VCell{}, err
		}
		return v.Intern(s.String()), nil
	}})
	v.DefineBuiltin(Builtin{Name: "string->number", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		s, err := v.stringArg("string->number")
		if err != nil {
			return VCell{}, err
		}
		n, ok := parseNumber(s.String())
		if !ok {
			return BoolCell(false), nil
		}
		return NumberCell(n), nil
	}})
	v.DefineBuiltin(Builtin{Name: "number->string", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		n, err := v.numArg("number->string")
		if err != nil {
			return VCell{}, err
		}
		return v.Heap.Put(stringCell(NewString(n.String()))), nil
	}})
}
