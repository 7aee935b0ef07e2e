package vm

import "unicode"

func (v *VM) charArg(proc string) (rune, error) {
	c, err := v.Stack.Pop()
	if err != nil {
		return 0, err
	}
	r := v.Heap.Get(c)
	if !r.IsChar() {
		return 0, errInvalidArgs(proc, "a character", v.typeName(r))
	}
	return r.CharVal(), nil
}

func (v *VM) registerCharBuiltins() {
	v.DefineBuiltin(Builtin{Name: "char?", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		c, _ := v.Stack.Pop()
		return BoolCell(v.Heap.Get(c).IsChar()), nil
	}})
	v.DefineBuiltin(Builtin{Name: "char->integer", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		r, err := v.charArg("char->integer")
		if err != nil {
			return VCell{}, err
		}
		return NumberCell(NumberFromInt64(int64(r))), nil
	}})
	v.DefineBuiltin(Builtin{Name: "integer->char", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		n, err := v.numArg("integer->char")
		if err != nil {
			return VCell{}, err
		}
		k, ok := n.ToUint()
		if !ok {
			return VCell{}, errInvalidArgs("integer->char", "a non-negative exact integer", "a negative or inexact number")
		}
		if k > 0x10FFFF || (k >= 0xD800 && k <= 0xDFFF) {
			return VCell{}, errInvalidSyntax("%d is not valid unicode", k)
		}
		return CharCell(rune(k)), nil
	}})
	v.DefineBuiltin(Builtin{Name: "char-upcase", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		r, err := v.charArg("char-upcase")
		if err != nil {
			return VCell{}, err
		}
		return CharCell(unicode.ToUpper(r)), nil
	}})
	v.DefineBuiltin(Builtin{Name: "char-downcase", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		r, err := v.charArg("char-downcase")
		if err != nil {
			return VCell{}, err
		}
		return CharCell(unicode.ToLower(r)), nil
	}})
	v.DefineBuiltin(Builtin{Name: "char-foldcase", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		r, err := v.charArg("char-foldcase")
		if err != nil {
			return VCell{}, err
		}
		return CharCell(unicode.ToLower(r)), nil
	}})
	v.DefineBuiltin(Builtin{Name: "digit-value", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		r, err := v.charArg("digit-value")
		if err != nil {
			return VCell{}, err
		}
		if r < '0' || r > '9' {
			return BoolCell(false), nil
		}
		return NumberCell(NumberFromInt64(int64(r - '0'))), nil
	}})
	v.DefineBuiltin(Builtin{Name: "char-alphabetic?", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		r, err := v.charArg("char-alphabetic?")
		if err != nil {
			return VCell{}, err
		}
		return BoolCell(unicode.IsLetter(r)), nil
	}})
	v.DefineBuiltin(Builtin{Name: "char-numeric?", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		r, err := v.charArg("char-numeric?")
		if err != nil {
			return VCell{}, err
		}
		return BoolCell(unicode.IsDigit(r)), nil
	}})
	v.DefineBuiltin(Builtin{Name: "char-whitespace?", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		r, err := v.charArg("char-whitespace?")
		if err != nil {
			return VCell{}, err
		}
		return BoolCell(unicode.IsSpace(r)), nil
	}})
	v.DefineBuiltin(Builtin{Name: "char-upper-case?", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		r, err := v.charArg("char-upper-case?")
		if err != nil {
			return VCell{}, err
		}
		return BoolCell(unicode.IsUpper(r)), nil
	}})
	v.DefineBuiltin(Builtin{Name: "char-lower-case?", MinArgs: 1, MaxArgs: 1, Fn: func(v *VM, argc int) (VCell, error) {
		r, err := v.charArg("char-lower-case?")
		if err != nil {
			return VCell{}, err
		}
		return BoolCell(unicode.IsLower(r)), nil
	}})

	charCmp := func(name string, ci bool, ok func(c int) bool) {
		v.DefineBuiltin(Builtin{Name: name, MinArgs: 1, MaxArgs: -1, Fn: func(v *VM, argc int) (VCell, error) {
			runes := make([]rune, argc)
			for i := argc - 1; i >= 0; i-- {
				r, err := v.charArg(name)
				if err != nil {
					return VCell{}, err
				}
				runes[i] = r
			}
			for i := 1; i < len(runes); i++ {
				a, b := runes[i-1], runes[i]
				if ci {
					a, b = unicode.ToLower(a), unicode.ToLower(b)
				}
				c := 0
				switch {
				case a < b:
					c = -1
				case a > b:
					c = 1
				}
				if !ok(c) {
					return BoolCell(false), nil
				}
			}
			return BoolCell(true), nil
		}})
	}
	charCmp("char=?", false, func(c int) bool { return c == 0 })
	charCmp("char<?", false, func(c int) bool { return c < 0 })
	charCmp("char>?", false, func(c int) bool { return c > 0 })
	charCmp("char<=?", false, func(c int) bool { return c <= 0 })
	charCmp("char>=?", false, func(c int) bool { return c >= 0 })
	charCmp("char-ci=?", true, func(c int) bool { return c == 0 })
	charCmp("char-ci<?", true, func(c int) bool { return c < 0 })
	charCmp("char-ci>?", true, func(c int) bool { return c > 0 })
	charCmp("char-ci<=?", true, func(c int) bool { return c <= 0 })
	charCmp("char-ci>=?", true, func(c int) bool { return c >= 0 })
}
