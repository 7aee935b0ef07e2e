// Package compile turns Scheme source text into vm.Code: a reader that
// parses characters into vm.VCell data (R7RS's "code is data" by
// construction, since the reader builds the very same pairs, symbols,
// and vectors the running program manipulates), and a compiler that
// lowers that data into a flat instruction stream.
package compile

import (
	"fmt"
	"strconv"
	"strings"
	"text/scanner"

	"github.com/chayleaf/marwood/vm"
)

// isIdentRune accepts the R7RS identifier character set used by
// lisp/src/lexer.rs's is_initial_identifier/is_subsequent_identifier,
// generalized to scanner's per-rune callback. Grounded on the teacher's
// own custom IsIdentRune in db47h/ngaro/asm/parser.go, which likewise
// widens text/scanner's default identifier set to the target language's
// symbol syntax (there: Forth words; here: Scheme identifiers).
func isIdentRune(ch rune, i int) bool {
	switch {
	case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z':
		return true
	case ch >= '0' && ch <= '9' && i > 0:
		return true
	case ch == '.' && i > 0:
		// a bare "." is the dotted-pair separator, not an identifier; "." is
		// only legal as a later character of a longer token (e.g. "-1.5").
		return true
	}
	switch ch {
	case '!', '$', '%', '&', '*', '/', ':', '<', '=', '>', '?', '^', '_', '~',
		'+', '-', '@':
		return true
	}
	return false
}

// reader wraps a text/scanner.Scanner configured for Scheme syntax, the
// same shape as the teacher's parser struct in db47h/ngaro/asm/parser.go
// (a scanner whose position is attached to each error it reports).
type reader struct {
	vm *vm.VM
	s  scanner.Scanner
}

// ReadError reports a malformed program with the source position attached.
type ReadError struct {
	Pos scanner.Position
	Msg string
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

func newReader(v *vm.VM, src string) *reader {
	r := &reader{vm: v}
	r.s.Init(strings.NewReader(src))
	r.s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats | scanner.ScanStrings | scanner.ScanComments | scanner.SkipComments
	r.s.IsIdentRune = isIdentRune
	r.s.Filename = "<input>"
	return r
}

// ReadAll parses every top-level form in src.
func ReadAll(v *vm.VM, src string) ([]vm.VCell, error) {
	r := newReader(v, src)
	var forms []vm.VCell
	for {
		tok := r.s.Scan()
		if tok == scanner.EOF {
			return forms, nil
		}
		form, err := r.readForm(tok)
		if err != nil {
			return nil, err
		}
		forms = append(forms, form)
	}
}

func (r *reader) errorf(format string, args ...interface{}) error {
	return &ReadError{Pos: r.s.Position, Msg: fmt.Sprintf(format, args...)}
}

func (r *reader) readForm(tok rune) (vm.VCell, error) {
	switch tok {
	case scanner.EOF:
		return vm.VCell{}, r.errorf("unexpected end of input")
	case '(':
		return r.readList()
	case ')':
		return vm.VCell{}, r.errorf("unexpected )")
	case '\'':
		return r.readWrapped("quote")
	case '`':
		return r.readWrapped("quasiquote")
	case ',':
		if r.s.Peek() == '@' {
			r.s.Next()
			return r.readWrapped("unquote-splicing")
		}
		return r.readWrapped("unquote")
	case '#':
		return r.readHash()
	case scanner.String:
		return r.vm.Heap.Put(stringCellFromLiteral(r.s.TokenText())), nil
	case scanner.Ident:
		return r.readIdentOrNumber(r.s.TokenText())
	case scanner.Int, scanner.Float:
		n, ok := parseNumberToken(r.s.TokenText())
		if !ok {
			return vm.VCell{}, r.errorf("malformed number %q", r.s.TokenText())
		}
		return vm.NumberCell(n), nil
	default:
		return r.readIdentOrNumber(string(tok))
	}
}

func (r *reader) readWrapped(sym string) (vm.VCell, error) {
	tok := r.s.Scan()
	inner, err := r.readForm(tok)
	if err != nil {
		return vm.VCell{}, err
	}
	return r.vm.Cons(r.vm.Intern(sym), r.vm.Cons(inner, vm.Nil)), nil
}

func (r *reader) readHash() (vm.VCell, error) {
	next := r.s.Next()
	switch next {
	case 't':
		return vm.BoolCell(true), nil
	case 'f':
		return vm.BoolCell(false), nil
	case '(':
		return r.readVector()
	case '\\':
		return r.readChar()
	default:
		return vm.VCell{}, r.errorf("unsupported # syntax: #%c", next)
	}
}

func (r *reader) readChar() (vm.VCell, error) {
	// The first rune after #\ always belongs to the literal; only if it is
	// itself an identifier rune (isIdentRune) do we keep consuming
	// identifier runes, since #\a and #\space are both legal but #\( must
	// read as a single paren char.
	first := r.s.Next()
	if !isIdentRune(first, 0) {
		return vm.CharCell(first), nil
	}
	var sb strings.Builder
	sb.WriteRune(first)
	for isIdentRune(r.s.Peek(), 1) {
		sb.WriteRune(r.s.Next())
	}
	name := sb.String()
	if len([]rune(name)) == 1 {
		return vm.CharCell([]rune(name)[0]), nil
	}
	if ch, ok := namedChars[name]; ok {
		return vm.CharCell(ch), nil
	}
	if strings.HasPrefix(name, "x") || strings.HasPrefix(name, "X") {
		if n, err := strconv.ParseInt(name[1:], 16, 32); err == nil {
			return vm.CharCell(rune(n)), nil
		}
	}
	return vm.VCell{}, r.errorf("unknown character name #\\%s", name)
}

var namedChars = map[string]rune{
	"space": ' ', "newline": '\n', "tab": '\t', "return": '\r',
	"null": 0, "nul": 0, "delete": 0x7f, "escape": 0x1b,
	"backspace": 0x08, "alarm": 0x07,
}

func (r *reader) readVector() (vm.VCell, error) {
	var elems []vm.VCell
	for {
		tok := r.s.Scan()
		if tok == ')' {
			return r.vm.Heap.Put(vectorCellOf(elems)), nil
		}
		if tok == scanner.EOF {
			return vm.VCell{}, r.errorf("unexpected end of input in vector literal")
		}
		form, err := r.readForm(tok)
		if err != nil {
			return vm.VCell{}, err
		}
		elems = append(elems, form)
	}
}

func (r *reader) readList() (vm.VCell, error) {
	var elems []vm.VCell
	tail := vm.Nil
	for {
		tok := r.s.Scan()
		switch tok {
		case ')':
			result := tail
			for i := len(elems) - 1; i >= 0; i-- {
				result = r.vm.Cons(elems[i], result)
			}
			return result, nil
		case scanner.EOF:
			return vm.VCell{}, r.errorf("unexpected end of input in list")
		case '.':
			form, err := r.readForm(r.s.Scan())
			if err != nil {
				return vm.VCell{}, err
			}
			tail = form
			if end := r.s.Scan(); end != ')' {
				return vm.VCell{}, r.errorf("malformed dotted list")
			}
			result := tail
			for i := len(elems) - 1; i >= 0; i-- {
				result = r.vm.Cons(elems[i], result)
			}
			return result, nil
		default:
			form, err := r.readForm(tok)
			if err != nil {
				return vm.VCell{}, err
			}
			elems = append(elems, form)
		}
	}
}

func (r *reader) readIdentOrNumber(text string) (vm.VCell, error) {
	if n, ok := parseNumberToken(text); ok {
		return vm.NumberCell(n), nil
	}
	return r.vm.Intern(text), nil
}
