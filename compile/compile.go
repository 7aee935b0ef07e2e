package compile

import (
	"github.com/pkg/errors"

	"github.com/chayleaf/marwood/vm"
)

// frame tracks one lambda's own parameter slots and the free variables it
// has had to capture from an enclosing lambda, built up lazily as
// compileExpr resolves variable references. nil parent means the
// top-level frame, where every unresolved name is a global.
type frame struct {
	parent   *frame
	params   []string
	captures []string
	capIndex map[string]int
}

func newFrame(parent *frame, params []string) *frame {
	return &frame{parent: parent, params: params, capIndex: make(map[string]int)}
}

func (f *frame) localIndex(name string) (int, bool) {
	for i, p := range f.params {
		if p == name {
			return i, true
		}
	}
	return 0, false
}

// refKind is the outcome of resolving a variable reference against the
// compile-time lexical environment.
type refKind int

const (
	refGlobal refKind = iota
	refLocal
	refCapture
)

// resolve determines how a reference to name inside frame f must be
// compiled, registering f (and every frame between f and the binding
// site) as capturing name along the way. This is the classic flat-closure
// construction: a variable captured three lambdas deep is threaded
// through each intermediate closure's own capture list, so each level
// only ever needs to know about its immediate parent.
func (f *frame) resolve(name string) (refKind, int) {
	if f == nil {
		return refGlobal, 0
	}
	if idx, ok := f.localIndex(name); ok {
		return refLocal, idx
	}
	if idx, ok := f.capIndex[name]; ok {
		return refCapture, idx
	}
	kind, _ := f.parent.resolve(name)
	if kind == refGlobal {
		return refGlobal, 0
	}
	idx := len(f.captures)
	f.captures = append(f.captures, name)
	f.capIndex[name] = idx
	return refCapture, idx
}

// shadows reports whether name is bound as a local or capture somewhere
// in the lexical scope, meaning a use of name as a form's head must be
// treated as an ordinary call rather than a special form.
func (f *frame) shadows(name string) bool {
	kind, _ := f.resolve(name)
	return kind != refGlobal
}

// compiler accumulates one flat instruction stream shared by the
// top-level program and every lambda body nested within it: a lambda
// literal compiles to a forward JMP over its own body so that straight-
// line execution never falls into code compiled for a closure that
// hasn't been called yet, matching the teacher's write-ahead,
// patch-the-jump-later style in db47h/ngaro/asm/parser.go's label
// handling.
type compiler struct {
	vm     *vm.VM
	consts []vm.VCell
	instrs []vm.Instr
}

// Compile reads every top-level form in src and lowers it into one
// vm.Code object whose final HALT leaves the last form's value on the
// stack, the embedding contract spec §6 describes.
func Compile(src string, v *vm.VM) (*vm.Code, error) {
	forms, err := ReadAll(v, src)
	if err != nil {
		return nil, errors.Wrap(err, "read")
	}
	c := &compiler{vm: v}
	if len(forms) == 0 {
		c.emit(vm.OpPushConst, c.constant(vm.Void))
	}
	for i, form := range forms {
		if i > 0 {
			c.emit(vm.OpPop, 0)
		}
		if err := c.compileExpr(form, nil, false); err != nil {
			return nil, err
		}
	}
	c.emit(vm.OpHalt, 0)
	return &vm.Code{Consts: c.consts, Instrs: c.instrs}, nil
}

func (c *compiler) constant(v vm.VCell) int {
	c.consts = append(c.consts, v)
	return len(c.consts) - 1
}

func (c *compiler) emit(op vm.Opcode, a int) int {
	c.instrs = append(c.instrs, vm.Instr{Op: op, A: a})
	return len(c.instrs) - 1
}

func (c *compiler) here() int { return len(c.instrs) }

func (c *compiler) patch(at int, target int) { c.instrs[at].A = target }

// compileExpr lowers one datum. tail reports whether expr's value is
// returned directly from the innermost lambda being compiled, which
// governs whether a trailing procedure call becomes a TCALL.
func (c *compiler) compileExpr(expr vm.VCell, f *frame, tail bool) error {
	r := c.vm.Heap.Get(expr)
	switch r.Kind() {
	case vm.KPair:
		return c.compileForm(r, f, tail)
	case vm.KSymbol:
		return c.compileRef(r, f)
	case vm.KNil:
		return errors.New("cannot evaluate (): use (quote ()) for the empty list")
	default:
		c.emit(vm.OpPushConst, c.constant(expr))
		return nil
	}
}

func (c *compiler) compileRef(sym vm.VCell, f *frame) error {
	name := c.vm.Heap.SymbolName(sym.Addr())
	kind, idx := f.resolve(name)
	switch kind {
	case refLocal:
		c.emit(vm.OpPushLocal, idx)
	case refCapture:
		c.emit(vm.OpPushCapture, idx)
	default:
		c.emit(vm.OpPushGlobal, sym.Addr())
	}
	return nil
}

func symbolName(v *vm.VM, cell vm.VCell) (string, bool) {
	r := v.Heap.Get(cell)
	if !r.IsSymbol() {
		return "", false
	}
	return v.Heap.SymbolName(r.Addr()), true
}

// keyword form names. A reference to one of these is only treated as a
// special form when the lexical environment has not shadowed it with a
// local binding of the same name (e.g. (lambda (if) (if 1 2)) calls its
// own parameter, not the conditional).
func (c *compiler) compileForm(pair vm.VCell, f *frame, tail bool) error {
	head := c.vm.Car(pair)
	if name, ok := symbolName(c.vm, head); ok && !f.shadows(name) {
		switch name {
		case "quote":
			return c.compileQuote(pair)
		case "if":
			return c.compileIf(pair, f, tail)
		case "define":
			return c.compileDefine(pair, f)
		case "set!":
			return c.compileSet(pair, f)
		case "lambda":
			return c.compileLambda(pair, f)
		case "begin":
			return c.compileBegin(c.vm.Cdr(pair), f, tail)
		case "and":
			return c.compileAnd(pair, f, tail)
		case "or":
			return c.compileOr(pair, f, tail)
		case "let":
			return c.compileLet(pair, f, tail)
		case "let*":
			return c.compileLetStar(pair, f, tail)
		case "cond":
			return c.compileCond(pair, f, tail)
		case "when":
			return c.compileWhen(pair, f, tail, false)
		case "unless":
			return c.compileWhen(pair, f, tail, true)
		}
	}
	return c.compileCall(pair, f, tail)
}

func (c *compiler) compileQuote(pair vm.VCell) error {
	args, ok := c.vm.ListToSlice(c.vm.Cdr(pair))
	if !ok || len(args) != 1 {
		return errors.New("quote: expected exactly one argument")
	}
	c.emit(vm.OpPushConst, c.constant(args[0]))
	return nil
}

func (c *compiler) compileIf(pair vm.VCell, f *frame, tail bool) error {
	args, ok := c.vm.ListToSlice(c.vm.Cdr(pair))
	if !ok || (len(args) != 2 && len(args) != 3) {
		return errors.New("if: expected (if test then [else])")
	}
	if err := c.compileExpr(args[0], f, false); err != nil {
		return err
	}
	jmpFalse := c.emit(vm.OpJmpIfFalse, 0)
	if err := c.compileExpr(args[1], f, tail); err != nil {
		return err
	}
	jmpEnd := c.emit(vm.OpJmp, 0)
	c.patch(jmpFalse, c.here())
	if len(args) == 3 {
		if err := c.compileExpr(args[2], f, tail); err != nil {
			return err
		}
	} else {
		c.emit(vm.OpPushConst, c.constant(vm.Void))
	}
	c.patch(jmpEnd, c.here())
	return nil
}

func (c *compiler) compileDefine(pair vm.VCell, f *frame) error {
	args, ok := c.vm.ListToSlice(c.vm.Cdr(pair))
	if !ok || len(args) < 1 {
		return errors.New("define: malformed")
	}
	target := c.vm.Heap.Get(args[0])
	if target.IsPair() {
		// (define (name . params) body...) sugar for
		// (define name (lambda params body...)).
		name := c.vm.Car(target)
		params := c.vm.Cdr(target)
		lambdaForm := c.vm.Cons(c.vm.Intern("lambda"), c.vm.Cons(params, c.vm.SliceToList(args[1:])))
		return c.compileNamedDefine(name, lambdaForm, f)
	}
	if len(args) != 2 {
		return errors.New("define: expected (define name value)")
	}
	return c.compileNamedDefine(args[0], args[1], f)
}

func (c *compiler) compileNamedDefine(nameCell, valueExpr vm.VCell, f *frame) error {
	name, ok := symbolName(c.vm, nameCell)
	if !ok {
		return errors.New("define: expected a symbol name")
	}
	if err := c.compileExpr(valueExpr, f, false); err != nil {
		return err
	}
	sym := c.vm.Intern(name)
	c.emit(vm.OpDefineGlobal, sym.Addr())
	c.emit(vm.OpPushConst, c.constant(vm.Void))
	return nil
}

func (c *compiler) compileSet(pair vm.VCell, f *frame) error {
	args, ok := c.vm.ListToSlice(c.vm.Cdr(pair))
	if !ok || len(args) != 2 {
		return errors.New("set!: expected (set! name value)")
	}
	name, ok := symbolName(c.vm, args[0])
	if !ok {
		return errors.New("set!: expected a symbol name")
	}
	if err := c.compileExpr(args[1], f, false); err != nil {
		return err
	}
	kind, idx := f.resolve(name)
	switch kind {
	case refLocal:
		c.emit(vm.OpPopLocal, idx)
	case refCapture:
		return errors.Errorf("set!: mutating a captured variable (%s) is not supported", name)
	default:
		sym := c.vm.Intern(name)
		c.emit(vm.OpPopGlobal, sym.Addr())
	}
	c.emit(vm.OpPushConst, c.constant(vm.Void))
	return nil
}

// compileLambda compiles a fixed-arity (lambda (p1 p2 ...) body...) form.
// Variadic/rest-argument lambdas are an explicit scope trim recorded in
// DESIGN.md: the bp-relative addressing scheme this compiler uses assumes
// a lambda's frame has exactly as many local slots as it declared
// parameters, which a variable-length argument list would violate without
// a runtime arg-collecting prologue this iteration does not implement.
func (c *compiler) compileLambda(pair vm.VCell, f *frame) error {
	rest, ok := c.vm.ListToSlice(c.vm.Cdr(pair))
	if !ok || len(rest) < 1 {
		return errors.New("lambda: expected (lambda params body...)")
	}
	paramCells, ok := c.vm.ListToSlice(rest[0])
	if !ok {
		return errors.New("lambda: variadic parameter lists are not supported")
	}
	params := make([]string, len(paramCells))
	for i, p := range paramCells {
		name, ok := symbolName(c.vm, p)
		if !ok {
			return errors.New("lambda: parameter names must be symbols")
		}
		params[i] = name
	}
	child := newFrame(f, params)

	skip := c.emit(vm.OpJmp, 0)
	entry := c.here()
	body := rest[1:]
	for i, expr := range body {
		if err := c.compileExpr(expr, child, i == len(body)-1); err != nil {
			return err
		}
		if i != len(body)-1 {
			c.emit(vm.OpPop, 0)
		}
	}
	if len(body) == 0 {
		c.emit(vm.OpPushConst, c.constant(vm.Void))
	}
	c.emit(vm.OpRet, 0)
	c.patch(skip, c.here())

	tmpl := &vm.Lambda{
		Entry:       entry,
		MinArgs:     len(params),
		MaxArgs:     len(params),
		NumCaptures: len(child.captures),
	}
	tmplIdx := c.constant(vm.LambdaCell(tmpl))
	// Captured values are pushed here, against the enclosing frame f, in
	// the same order as child.captures so MAKE_CLOSURE's pops line up with
	// Closure.Captures indices. Each reference is compiled against f
	// exactly the way any other variable reference in the enclosing scope
	// would be, which is what lets a variable captured several lambdas
	// deep thread itself outward one frame at a time.
	for _, name := range child.captures {
		sym := c.vm.Intern(name)
		if err := c.compileRef(sym, f); err != nil {
			return err
		}
	}
	c.emit(vm.OpMakeClosure, tmplIdx)
	return nil
}

func (c *compiler) compileBegin(bodyList vm.VCell, f *frame, tail bool) error {
	exprs, ok := c.vm.ListToSlice(bodyList)
	if !ok {
		return errors.New("begin: malformed body")
	}
	if len(exprs) == 0 {
		c.emit(vm.OpPushConst, c.constant(vm.Void))
		return nil
	}
	for i, e := range exprs {
		if err := c.compileExpr(e, f, tail && i == len(exprs)-1); err != nil {
			return err
		}
		if i != len(exprs)-1 {
			c.emit(vm.OpPop, 0)
		}
	}
	return nil
}

// compileAnd evaluates each operand in turn, short-circuiting to #f (via
// a chain of JMP_IF_FALSE targets that all land on the same "push #f and
// stop" tail) the moment one is falsy, and otherwise leaving the value of
// the last operand on the stack.
func (c *compiler) compileAnd(pair vm.VCell, f *frame, tail bool) error {
	exprs, ok := c.vm.ListToSlice(c.vm.Cdr(pair))
	if !ok {
		return errors.New("and: malformed")
	}
	if len(exprs) == 0 {
		c.emit(vm.OpPushConst, c.constant(vm.BoolCell(true)))
		return nil
	}
	var shortCircuits []int
	for i, e := range exprs {
		isLast := i == len(exprs)-1
		if err := c.compileExpr(e, f, tail && isLast); err != nil {
			return err
		}
		if !isLast {
			shortCircuits = append(shortCircuits, c.emit(vm.OpJmpIfFalse, 0))
		}
	}
	end := c.emit(vm.OpJmp, 0)
	falseTarget := c.here()
	c.emit(vm.OpPushConst, c.constant(vm.BoolCell(false)))
	for _, at := range shortCircuits {
		c.patch(at, falseTarget)
	}
	c.patch(end, c.here())
	return nil
}

// compileOr mirrors compileAnd: the first truthy operand short-circuits
// the rest and becomes the result.
func (c *compiler) compileOr(pair vm.VCell, f *frame, tail bool) error {
	exprs, ok := c.vm.ListToSlice(c.vm.Cdr(pair))
	if !ok {
		return errors.New("or: malformed")
	}
	if len(exprs) == 0 {
		c.emit(vm.OpPushConst, c.constant(vm.BoolCell(false)))
		return nil
	}
	var jumpsToEnd []int
	for i, e := range exprs {
		isLast := i == len(exprs)-1
		if err := c.compileExpr(e, f, tail && isLast); err != nil {
			return err
		}
		if isLast {
			break
		}
		// or must return the actual truthy value, not just #t, so the
		// truthiness test duplicates it first: JMP_IF_FALSE consumes the
		// duplicate, leaving the original on the stack in the truthy case.
		c.emit(vm.OpDup, 0)
		jmpFalse := c.emit(vm.OpJmpIfFalse, 0)
		jumpsToEnd = append(jumpsToEnd, c.emit(vm.OpJmp, 0))
		c.patch(jmpFalse, c.here())
		c.emit(vm.OpPop, 0)
	}
	for _, at := range jumpsToEnd {
		c.patch(at, c.here())
	}
	return nil
}

func (c *compiler) compileLet(pair vm.VCell, f *frame, tail bool) error {
	rest, ok := c.vm.ListToSlice(c.vm.Cdr(pair))
	if !ok || len(rest) < 1 {
		return errors.New("let: malformed")
	}
	bindings, ok := c.vm.ListToSlice(rest[0])
	if !ok {
		return errors.New("let: malformed bindings")
	}
	names := make([]vm.VCell, len(bindings))
	values := make([]vm.VCell, len(bindings))
	for i, b := range bindings {
		parts, ok := c.vm.ListToSlice(b)
		if !ok || len(parts) != 2 {
			return errors.New("let: each binding must be (name value)")
		}
		names[i] = parts[0]
		values[i] = parts[1]
	}
	// (let ((n v) ...) body...) => ((lambda (n ...) body...) v ...), the
	// standard let-as-immediate-application desugaring.
	lambdaForm := c.vm.Cons(c.vm.Intern("lambda"), c.vm.Cons(c.vm.SliceToList(names), c.vm.SliceToList(rest[1:])))
	call := c.vm.Cons(lambdaForm, c.vm.SliceToList(values))
	return c.compileExpr(call, f, tail)
}

func (c *compiler) compileLetStar(pair vm.VCell, f *frame, tail bool) error {
	rest, ok := c.vm.ListToSlice(c.vm.Cdr(pair))
	if !ok || len(rest) < 1 {
		return errors.New("let*: malformed")
	}
	bindings, ok := c.vm.ListToSlice(rest[0])
	if !ok {
		return errors.New("let*: malformed bindings")
	}
	if len(bindings) == 0 {
		return c.compileLet(pair, f, tail)
	}
	// (let* ((a v) rest...) body...) => (let ((a v)) (let* (rest...) body...))
	first := bindings[0]
	innerBindings := c.vm.SliceToList(bindings[1:])
	innerLetStar := c.vm.Cons(c.vm.Intern("let*"), c.vm.Cons(innerBindings, c.vm.SliceToList(rest[1:])))
	outerLet := c.vm.Cons(c.vm.Intern("let"),
		c.vm.Cons(c.vm.Cons(first, vm.Nil), c.vm.Cons(innerLetStar, vm.Nil)))
	return c.compileExpr(outerLet, f, tail)
}

func (c *compiler) compileCond(pair vm.VCell, f *frame, tail bool) error {
	clauses, ok := c.vm.ListToSlice(c.vm.Cdr(pair))
	if !ok {
		return errors.New("cond: malformed")
	}
	return c.compileCondClauses(clauses, f, tail)
}

func (c *compiler) compileCondClauses(clauses []vm.VCell, f *frame, tail bool) error {
	if len(clauses) == 0 {
		c.emit(vm.OpPushConst, c.constant(vm.Void))
		return nil
	}
	clause, ok := c.vm.ListToSlice(clauses[0])
	if !ok || len(clause) == 0 {
		return errors.New("cond: malformed clause")
	}
	if sym, ok := symbolName(c.vm, clause[0]); ok && sym == "else" && !f.shadows("else") {
		return c.compileBegin(c.vm.SliceToList(clause[1:]), f, tail)
	}
	if len(clause) == 1 {
		// (test) alone evaluates to test's own value when truthy, so the
		// truthiness check runs against a duplicate, same as or's
		// short-circuit.
		if err := c.compileExpr(clause[0], f, false); err != nil {
			return err
		}
		c.emit(vm.OpDup, 0)
		jmpFalse := c.emit(vm.OpJmpIfFalse, 0)
		jmpEnd := c.emit(vm.OpJmp, 0)
		c.patch(jmpFalse, c.here())
		c.emit(vm.OpPop, 0)
		if err := c.compileCondClauses(clauses[1:], f, tail); err != nil {
			return err
		}
		c.patch(jmpEnd, c.here())
		return nil
	}
	if err := c.compileExpr(clause[0], f, false); err != nil {
		return err
	}
	jmpFalse := c.emit(vm.OpJmpIfFalse, 0)
	if err := c.compileBegin(c.vm.SliceToList(clause[1:]), f, tail); err != nil {
		return err
	}
	jmpEnd := c.emit(vm.OpJmp, 0)
	c.patch(jmpFalse, c.here())
	if err := c.compileCondClauses(clauses[1:], f, tail); err != nil {
		return err
	}
	c.patch(jmpEnd, c.here())
	return nil
}

func (c *compiler) compileWhen(pair vm.VCell, f *frame, tail, negate bool) error {
	rest, ok := c.vm.ListToSlice(c.vm.Cdr(pair))
	if !ok || len(rest) < 1 {
		return errors.New("when/unless: malformed")
	}
	if err := c.compileExpr(rest[0], f, false); err != nil {
		return err
	}
	var bodyTarget, skipTarget int
	if negate {
		// unless: run the body only when the test is false.
		bodyTarget = c.emit(vm.OpJmpIfFalse, 0)
		skipTarget = c.emit(vm.OpJmp, 0)
	} else {
		skipTarget = c.emit(vm.OpJmpIfFalse, 0)
	}
	if negate {
		c.patch(bodyTarget, c.here())
	}
	if err := c.compileBegin(c.vm.SliceToList(rest[1:]), f, tail); err != nil {
		return err
	}
	end := c.emit(vm.OpJmp, 0)
	c.patch(skipTarget, c.here())
	c.emit(vm.OpPushConst, c.constant(vm.Void))
	c.patch(end, c.here())
	return nil
}

func (c *compiler) compileCall(pair vm.VCell, f *frame, tail bool) error {
	proc := c.vm.Car(pair)
	args, ok := c.vm.ListToSlice(c.vm.Cdr(pair))
	if !ok {
		return errors.New("malformed procedure call")
	}
	if err := c.compileExpr(proc, f, false); err != nil {
		return err
	}
	for _, a := range args {
		if err := c.compileExpr(a, f, false); err != nil {
			return err
		}
	}
	c.emit(vm.OpPushArgc, len(args))
	if tail {
		c.emit(vm.OpTCall, len(args))
	} else {
		c.emit(vm.OpCall, len(args))
	}
	return nil
}
