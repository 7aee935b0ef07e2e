package vm

// Kind discriminates the VCell variants of spec §3. VCell is the single
// tagged value that flows through the stack, heap slots, and registers
// (component C3). A plain struct with one field per payload shape is the
// natural Go rendering of the sum type the original Rust enum describes;
// spec §9 calls the more compact packed-immediate representation an
// optimization, not a contract.
type Kind uint8

const (
	KNil Kind = iota
	KVoid
	KUndefined
	KBool
	KNumber
	KChar
	KSymbol
	KPair
	KVector
	KString
	KLambda
	KClosure
	KBuiltIn
	KPtr
	// KArgc and the three register kinds below are sentinels: they are
	// legal only on the operand stack and must never be observable to
	// user code (spec §3 invariant).
	KArgc
	KInstructionPointer
	KBasePointer
)

// VCell is the C3 component.
type VCell struct {
	kind Kind

	b    bool    // KBool
	num  Number  // KNumber
	ch   rune    // KChar
	addr int     // KSymbol, KPtr: heap address. KArgc, KInstructionPointer, KBasePointer: register/count value.
	car  *VCell  // KPair
	cdr  *VCell  // KPair
	vec  *Vector // KVector
	str  *Str    // KString

	lam     *Lambda  // KLambda
	closure *Closure // KClosure
	builtin int      // KBuiltIn: index into the builtin table
}

// Nil is the empty list. It is pair-disjoint: IsPair(Nil) is false and
// IsList(Nil) is true.
var Nil = VCell{kind: KNil}

// Void is the unspecified value returned by side-effecting forms.
var Void = VCell{kind: KVoid}

// Undefined is the placeholder stored in freshly allocated heap cells. It
// must never be observable to user code.
var Undefined = VCell{kind: KUndefined}

// BoolCell wraps a bool.
func BoolCell(b bool) VCell { return VCell{kind: KBool, b: b} }

// NumberCell wraps a Number.
func NumberCell(n Number) VCell { return VCell{kind: KNumber, num: n} }

// CharCell wraps a Unicode scalar value.
func CharCell(r rune) VCell { return VCell{kind: KChar, ch: r} }

// PtrCell builds an indirection into the heap.
func PtrCell(addr int) VCell { return VCell{kind: KPtr, addr: addr} }

// PairCell builds a pair cell holding car and cdr directly, the same way
// a Vector holds its elements directly rather than through a further
// layer of heap addresses.
func PairCell(car, cdr VCell) VCell { return VCell{kind: KPair, car: &car, cdr: &cdr} }

// ArgcCell builds the argument-count sentinel. Never stored anywhere but
// the operand stack.
func ArgcCell(n int) VCell { return VCell{kind: KArgc, addr: n} }

func ipCell(ip int) VCell { return VCell{kind: KInstructionPointer, addr: ip} }
func bpCell(bp int) VCell { return VCell{kind: KBasePointer, addr: bp} }

// BuiltInCell references a native procedure by its table index.
func BuiltInCell(id int) VCell { return VCell{kind: KBuiltIn, builtin: id} }

// LambdaCell wraps a compiled procedure template with no captures.
func LambdaCell(l *Lambda) VCell { return VCell{kind: KLambda, lam: l} }

// ClosureCell wraps a compiled procedure together with its captured
// environment.
func ClosureCell(c *Closure) VCell { return VCell{kind: KClosure, closure: c} }

func symbolCell(addr int) VCell { return VCell{kind: KSymbol, addr: addr} }

func vectorCell(v *Vector) VCell { return VCell{kind: KVector, vec: v} }

func stringCell(s *Str) VCell { return VCell{kind: KString, str: s} }

// VectorCell wraps an existing *Vector, for use by package compile's
// reader when it builds a #(...) literal.
func VectorCell(v *Vector) VCell { return vectorCell(v) }

// StringCell wraps an existing *Str, for use by package compile's reader
// when it builds a string literal.
func StringCell(s *Str) VCell { return stringCell(s) }

// Kind reports which variant v holds.
func (v VCell) Kind() Kind { return v.kind }

func (v VCell) IsNil() bool   { return v.kind == KNil }
func (v VCell) IsVoid() bool  { return v.kind == KVoid }
func (v VCell) IsPair() bool  { return v.kind == KPair }
func (v VCell) IsBool() bool  { return v.kind == KBool }
func (v VCell) IsNumber() bool { return v.kind == KNumber }
func (v VCell) IsChar() bool  { return v.kind == KChar }
func (v VCell) IsSymbol() bool { return v.kind == KSymbol }
func (v VCell) IsVector() bool { return v.kind == KVector }
func (v VCell) IsString() bool { return v.kind == KString }
func (v VCell) IsProcedure() bool {
	switch v.kind {
	case KLambda, KClosure, KBuiltIn:
		return true
	default:
		return false
	}
}

// IsFalse reports whether v is the Scheme false value. Every value other
// than #f is truthy, per R7RS.
func (v VCell) IsFalse() bool { return v.kind == KBool && !v.b }

// Bool extracts the boolean payload; only valid when Kind() == KBool.
func (v VCell) Bool() bool { return v.b }

// NumberVal extracts the Number payload; only valid when Kind() == KNumber.
func (v VCell) NumberVal() Number { return v.num }

// CharVal extracts the rune payload; only valid when Kind() == KChar.
func (v VCell) CharVal() rune { return v.ch }

// Addr extracts the address/register payload; valid for KSymbol, KPtr,
// KArgc, and the two saved-register kinds.
func (v VCell) Addr() int { return v.addr }

// Pair extracts the car and cdr of a pair cell.
func (v VCell) Pair() (car, cdr VCell) { return *v.car, *v.cdr }

// VectorVal extracts the shared vector handle.
func (v VCell) VectorVal() *Vector { return v.vec }

// StringVal extracts the shared string handle.
func (v VCell) StringVal() *Str { return v.str }

// LambdaVal extracts the compiled-procedure template.
func (v VCell) LambdaVal() *Lambda { return v.lam }

// ClosureVal extracts the closure payload.
func (v VCell) ClosureVal() *Closure { return v.closure }

// BuiltinID extracts the native-procedure table index.
func (v VCell) BuiltinID() int { return v.builtin }

// needsHeap reports whether v must be allocated on the heap per the
// invariant that Pair, Vector, String, Lambda/Closure, and Symbol values
// are reachable only through heap addresses.
func (v VCell) needsHeap() bool {
	switch v.kind {
	case KPair, KVector, KString, KLambda, KClosure, KSymbol, KNumber, KNil:
		return true
	default:
		return false
	}
}
