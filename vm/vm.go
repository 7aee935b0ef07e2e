package vm

import "github.com/pkg/errors"

// Builtin is the signature every native procedure in the C9 table
// implements: given the VM and its own argument count (already validated
// against MinArgs/MaxArgs by the dispatcher), pop exactly argc values off
// the stack and return one result, which the dispatcher pushes. Grounded on marwood/src/vm/
// builtin.rs, where every built-in is a plain fn(&mut Vm, usize) ->
// Result<Cell, Error> closure installed into a table at startup.
type Builtin struct {
	Name    string
	MinArgs int
	MaxArgs int // < 0 means unbounded
	Fn      func(v *VM, argc int) (VCell, error)
}

// VM is the C8 component: the fetch-decode-execute engine tying together
// the heap, stack, global environment, and a loaded Code object.
// Grounded on the teacher's Instance in db47h/ngaro/vm/vm.go, which
// likewise bundles memory, both stacks, and I/O plumbing behind one
// struct with a Run method.
type VM struct {
	Heap       *Heap
	Stack      *Stack
	Globals    *GlobalEnv
	builtins   []Builtin
	builtinIdx map[string]int

	code          *Code
	ip            int
	bp            int
	activeClosure *Closure
}

// New creates a VM with every built-in procedure from spec §4.3 and
// SPEC_FULL.md §12.2 installed into the global environment under its
// Scheme name.
func New() *VM {
	v := &VM{
		Heap:       NewHeap(),
		Stack:      NewStack(),
		Globals:    NewGlobalEnv(),
		builtinIdx: make(map[string]int),
	}
	v.registerBuiltins()
	return v
}

// DefineBuiltin installs b under its own name, returning its table index,
// and binds that name in the global environment. The register*Builtins
// functions call it for every native procedure when New builds a VM.
func (v *VM) DefineBuiltin(b Builtin) int {
	id := len(v.builtins)
	v.builtins = append(v.builtins, b)
	v.builtinIdx[b.Name] = id
	sym := v.Heap.InternSymbol(b.Name)
	v.Globals.Define(sym.Addr(), BuiltInCell(id))
	return id
}

// LookupBuiltin returns the table index for name, if any.
func (v *VM) LookupBuiltin(name string) (int, bool) {
	id, ok := v.builtinIdx[name]
	return id, ok
}

// Intern is a small convenience wrapper over Heap.InternSymbol used by the
// compiler and the REPL.
func (v *VM) Intern(name string) VCell { return v.Heap.InternSymbol(name) }

// Run loads code, resets the registers to a fresh top-level frame, and
// drives the dispatch loop to completion, returning the final value left
// on the stack by HALT. On error the stack is cut back to the depth it had
// when Run was called.
func (v *VM) Run(code *Code) (VCell, error) {
	base := v.Stack.Len()
	v.code = code
	v.ip = 0
	v.bp = 0
	v.activeClosure = nil
	for {
		halted, result, err := v.step()
		if err != nil {
			if v.Stack.Len() > base {
				v.Stack.Truncate(base)
			}
			v.activeClosure = nil
			return VCell{}, err
		}
		if halted {
			return result, nil
		}
	}
}

// invoke calls proc with args from within a running builtin (apply, map,
// for-each, and friends). A builtin's Fn runs as one case inside step's
// switch, called synchronously from the middle of the dispatch loop, so
// invoking a compiled closure here means recursively pumping the same
// loop rather than returning to it: we push a fresh call frame on the
// live stack and keep calling step until the stack has unwound back to
// exactly one value above where it stood before the call, which is
// exactly the shape OpRet leaves behind for its caller. Builtin-only
// calls (proc is KBuiltIn) still go through the ordinary v.call path,
// which runs synchronously and never needs this loop.
func (v *VM) invoke(proc VCell, args []VCell) (VCell, error) {
	base := v.Stack.Len()
	v.Stack.Push(proc)
	for _, a := range args {
		v.Stack.Push(a)
	}
	v.Stack.Push(ArgcCell(len(args)))
	if err := v.call(len(args), false); err != nil {
		return VCell{}, err
	}
	for v.Stack.Len() != base+1 {
		halted, _, err := v.step()
		if err != nil {
			return VCell{}, err
		}
		if halted {
			return VCell{}, errHeapCorruption("halt reached inside a nested procedure call")
		}
	}
	return v.Stack.Pop()
}

// step decodes and executes exactly one instruction. halted is true only
// after OpHalt, in which case result holds the value it popped.
func (v *VM) step() (halted bool, result VCell, err error) {
	if v.ip >= len(v.code.Instrs) {
		return false, VCell{}, errHeapCorruption("instruction pointer ran off the end of the code")
	}
	instr := v.code.Instrs[v.ip]
	v.ip++
	switch instr.Op {
	case OpNop:
		// no-op

	case OpPushConst:
		v.Stack.Push(v.code.Consts[instr.A])

	case OpPop:
		if _, err := v.Stack.Pop(); err != nil {
			return false, VCell{}, err
		}

	case OpDup:
		top := v.Stack.At(v.Stack.Len() - 1)
		v.Stack.Push(top)

	case OpPushGlobal:
		val, err := v.lookupGlobalBySlotOperand(instr.A)
		if err != nil {
			return false, VCell{}, err
		}
		v.Stack.Push(val)

	case OpPopGlobal:
		val, err := v.Stack.Pop()
		if err != nil {
			return false, VCell{}, err
		}
		name := v.Heap.SymbolName(instr.A)
		if err := v.Globals.Set(instr.A, name, val); err != nil {
			return false, VCell{}, err
		}

	case OpDefineGlobal:
		val, err := v.Stack.Pop()
		if err != nil {
			return false, VCell{}, err
		}
		v.Globals.Define(instr.A, val)

	case OpPushLocal:
		v.Stack.Push(v.Stack.At(v.bp + instr.A))

	case OpPopLocal:
		val, err := v.Stack.Pop()
		if err != nil {
			return false, VCell{}, err
		}
		v.Stack.SetAt(v.bp+instr.A, val)

	case OpPushCapture:
		cl, err := v.currentClosure()
		if err != nil {
			return false, VCell{}, err
		}
		if instr.A < 0 || instr.A >= len(cl.Captures) {
			return false, VCell{}, errHeapCorruption("capture index %d out of range", instr.A)
		}
		v.Stack.Push(cl.Captures[instr.A])

	case OpPushArgc:
		v.Stack.Push(ArgcCell(instr.A))

	case OpJmp:
		v.ip = instr.A

	case OpJmpIfFalse:
		cond, err := v.Stack.Pop()
		if err != nil {
			return false, VCell{}, err
		}
		if cond.IsFalse() {
			v.ip = instr.A
		}

	case OpMakeClosure:
		tmpl := v.code.Consts[instr.A].LambdaVal()
		captures := make([]VCell, tmpl.NumCaptures)
		for i := tmpl.NumCaptures - 1; i >= 0; i-- {
			val, err := v.Stack.Pop()
			if err != nil {
				return false, VCell{}, err
			}
			captures[i] = val
		}
		v.Stack.Push(ClosureCell(&Closure{Template: tmpl, Captures: captures}))

	case OpCall:
		if err := v.call(instr.A, false); err != nil {
			return false, VCell{}, err
		}

	case OpTCall:
		if err := v.call(instr.A, true); err != nil {
			return false, VCell{}, err
		}

	case OpRet:
		res, err := v.Stack.Pop()
		if err != nil {
			return false, VCell{}, err
		}
		ipCellv, err := v.Stack.Pop()
		if err != nil {
			return false, VCell{}, err
		}
		bpCellv, err := v.Stack.Pop()
		if err != nil {
			return false, VCell{}, err
		}
		v.Stack.Truncate(v.bp)
		v.Stack.Push(res)
		v.ip = ipCellv.Addr()
		v.bp = bpCellv.Addr()
		v.activeClosure = ipCellv.ClosureVal()

	case OpHalt:
		res, err := v.Stack.Pop()
		if err != nil {
			return false, VCell{}, err
		}
		return true, res, nil

	default:
		return false, VCell{}, errHeapCorruption("unknown opcode %d", instr.Op)
	}
	return false, VCell{}, nil
}

// lookupGlobalBySlotOperand resolves PUSH_GLOBAL's operand, which carries
// the symbol's heap address rather than a compiler-assigned stable slot
// (see DESIGN.md: the compiler has no second pass over call sites, so it
// cannot hand out literal slot indices the way spec §4.4 describes; the
// heap address plays the same role and is just as stable for the life of
// a symbol).
func (v *VM) lookupGlobalBySlotOperand(symAddr int) (VCell, error) {
	return v.Globals.Lookup(symAddr, v.Heap.SymbolName(symAddr))
}

func (v *VM) currentClosure() (*Closure, error) {
	// activeClosure is set by call() when a closure body is entered, and RET
	// puts back the caller's closure, which call() stored in the saved ip
	// cell. Top-level code and capture-free lambdas run with it nil.
	if v.activeClosure == nil {
		return nil, errHeapCorruption("push.capture outside of a closure body")
	}
	return v.activeClosure, nil
}

// call implements both CALL and TCALL. The stack on entry looks like:
//
//	... callee arg1 .. argN Argc(N)
//
// The callee's index is computed from declaredArgc (it sits beneath the N
// arguments and the Argc cell), and the callee is removed from there,
// leaving the arguments and Argc in place.
func (v *VM) call(declaredArgc int, tail bool) error {
	n := declaredArgc
	calleeIdx := v.Stack.Len() - 2 - n
	if calleeIdx < 0 {
		return errStackUnderflow()
	}
	callee := v.Stack.At(calleeIdx)
	v.Stack.RemoveAt(calleeIdx)

	switch callee.Kind() {
	case KBuiltIn:
		if _, err := v.Stack.PopArgc(); err != nil {
			return err
		}
		b := v.builtins[callee.BuiltinID()]
		if n < b.MinArgs || (b.MaxArgs >= 0 && n > b.MaxArgs) {
			v.Stack.Truncate(v.Stack.Len() - n)
			return errInvalidNumArgs(b.Name)
		}
		result, err := b.Fn(v, n)
		if err != nil {
			return err
		}
		v.Stack.Push(result)
		return nil

	case KLambda, KClosure:
		tmpl, closure := procedureParts(callee)
		if !tmpl.acceptsArgc(n) {
			return errInvalidNumArgs(tmpl.displayName())
		}
		if _, err := v.Stack.PopArgc(); err != nil {
			return err
		}
		if !tail {
			newBP := v.Stack.Len() - n
			v.Stack.Push(bpCell(v.bp))
			// The saved ip cell also carries the caller's closure for RET.
			v.Stack.Push(VCell{kind: KInstructionPointer, addr: v.ip, closure: v.activeClosure})
			v.bp = newBP
			v.ip = tmpl.Entry
			v.activeClosure = closure
			return nil
		}
		// TCALL: reuse the current frame's saved bp/ip cells instead of
		// pushing a new pair, so recursion in tail position runs in
		// constant stack space (spec §4.5's tail-call requirement).
		args := make([]VCell, n)
		for i := n - 1; i >= 0; i-- {
			val, err := v.Stack.Pop()
			if err != nil {
				return err
			}
			args[i] = val
		}
		savedIP, err := v.Stack.Pop()
		if err != nil {
			return err
		}
		savedBP, err := v.Stack.Pop()
		if err != nil {
			return err
		}
		v.Stack.Truncate(v.bp)
		newBP := v.Stack.Len()
		for _, a := range args {
			v.Stack.Push(a)
		}
		v.Stack.Push(savedBP)
		v.Stack.Push(savedIP)
		v.bp = newBP
		v.ip = tmpl.Entry
		v.activeClosure = closure
		return nil

	default:
		return errInvalidArgs("apply", "a procedure", "a non-procedure")
	}
}

func procedureParts(v VCell) (*Lambda, *Closure) {
	if v.Kind() == KClosure {
		c := v.ClosureVal()
		return c.Template, c
	}
	return v.LambdaVal(), nil
}

// Eval compiles every top-level form in src and runs the result, the
// embedding entry point spec §6 describes. Compile errors are wrapped with
// pkg/errors under a "compile" prefix, so errors.Cause recovers the
// compiler's own error; errors from Run are returned unwrapped, following
// the wrapping convention the teacher uses throughout
// db47h/ngaro/asm for reporting assembly failures with file/line context.
func (v *VM) Eval(src string, compile func(string, *VM) (*Code, error)) (VCell, error) {
	code, err := compile(src, v)
	if err != nil {
		return VCell{}, errors.Wrap(err, "compile")
	}
	return v.Run(code)
}
