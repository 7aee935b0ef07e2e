package vm

import (
	"fmt"
	"strings"
)

// typeName renders a short, human-readable type name for v, used to fill
// in the Expected/Got fields of InvalidArgs errors (spec §7).
func (v *VM) typeName(c VCell) string {
	switch v.Heap.Get(c).Kind() {
	case KNil:
		return "the empty list"
	case KVoid:
		return "void"
	case KUndefined:
		return "undefined"
	case KBool:
		return "a boolean"
	case KNumber:
		return "a number"
	case KChar:
		return "a character"
	case KSymbol:
		return "a symbol"
	case KPair:
		return "a pair"
	case KVector:
		return "a vector"
	case KString:
		return "a string"
	case KLambda, KClosure, KBuiltIn:
		return "a procedure"
	default:
		return "a value"
	}
}

// Write renders v using Scheme's machine-readable external representation
// (strings quoted and escaped, characters as #\x, symbols bare), the
// behavior R7RS's `write` procedure and spec §6's examples describe.
func (v *VM) Write(c VCell) string {
	var sb strings.Builder
	v.writeTo(&sb, c, true)
	return sb.String()
}

// Display renders v the way R7RS's `display` procedure does: strings and
// characters print their raw content rather than a re-readable literal.
func (v *VM) Display(c VCell) string {
	var sb strings.Builder
	v.writeTo(&sb, c, false)
	return sb.String()
}

func (v *VM) writeTo(sb *strings.Builder, c VCell, quoted bool) {
	r := v.Heap.Get(c)
	switch r.Kind() {
	case KNil:
		sb.WriteString("()")
	case KVoid:
		// unspecified values print nothing in most REPLs; callers that need
		// an explicit marker check IsVoid before calling Write/Display.
	case KBool:
		if r.Bool() {
			sb.WriteString("#t")
		} else {
			sb.WriteString("#f")
		}
	case KNumber:
		sb.WriteString(r.NumberVal().String())
	case KChar:
		if quoted {
			sb.WriteString(writeChar(r.CharVal()))
		} else {
			sb.WriteRune(r.CharVal())
		}
	case KSymbol:
		sb.WriteString(v.Heap.SymbolName(r.Addr()))
	case KString:
		if quoted {
			sb.WriteString(writeString(r.StringVal()))
		} else {
			sb.WriteString(r.StringVal().String())
		}
	case KPair:
		v.writePair(sb, r, quoted)
	case KVector:
		sb.WriteString("#(")
		for i, e := range r.VectorVal().Cells() {
			if i > 0 {
				sb.WriteByte(' ')
			}
			v.writeTo(sb, e, quoted)
		}
		sb.WriteByte(')')
	case KLambda:
		sb.WriteString(r.LambdaVal().displayName())
	case KClosure:
		sb.WriteString(r.ClosureVal().displayName())
	case KBuiltIn:
		sb.WriteString("#<procedure " + v.builtins[r.BuiltinID()].Name + ">")
	default:
		sb.WriteString("#<undefined>")
	}
}

func (v *VM) writePair(sb *strings.Builder, pair VCell, quoted bool) {
	sb.WriteByte('(')
	first := true
	for {
		if !first {
			sb.WriteByte(' ')
		}
		first = false
		v.writeTo(sb, v.Car(pair), quoted)
		rest := v.Cdr(pair)
		resolved := v.Heap.Get(rest)
		switch {
		case resolved.IsNil():
			sb.WriteByte(')')
			return
		case resolved.IsPair():
			pair = resolved
			continue
		default:
			sb.WriteString(" . ")
			v.writeTo(sb, rest, quoted)
			sb.WriteByte(')')
			return
		}
	}
}

// writeChar renders the #\... literal for r, using the named forms R7RS
// reserves for the common control characters and a hex escape otherwise.
func writeChar(r rune) string {
	switch r {
	case ' ':
		return "#\\space"
	case '\n':
		return "#\\newline"
	case '\t':
		return "#\\tab"
	case '\r':
		return "#\\return"
	case 0:
		return "#\\null"
	case 0x7f:
		return "#\\delete"
	case 0x1b:
		return "#\\escape"
	case 0x08:
		return "#\\backspace"
	case 0x07:
		return "#\\alarm"
	}
	if r < 0x20 || r == 0x7f {
		return fmt.Sprintf("#\\x%x", r)
	}
	return "#\\" + string(r)
}

// writeString renders s as a double-quoted, backslash-escaped literal.
func writeString(s *Str) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s.Runes() {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&sb, `\x%x;`, r)
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
