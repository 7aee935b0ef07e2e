package vm

// Opcode is the instruction set of the C8 dispatch loop (spec §4.5). The
// normative set from spec.md is PUSH_CONST, PUSH_GLOBAL, POP_GLOBAL,
// PUSH_LOCAL, POP_LOCAL, JMP, JMP_IF_FALSE, CALL, TCALL, RET, MAKE_CLOSURE,
// and HALT ("at least including"); OpPushArgc, OpPushCapture, OpPop, and
// OpDup are additions this port needs to realize the calling convention,
// lexical closures, and non-consuming truthiness tests (or's short
// circuit) described in spec §4.2 and §12.1 of SPEC_FULL.md. Named and
// ordered the way the teacher's db47h/ngaro/vm/opcodes.go lays out its own
// instruction set (a const block plus a name table for disassembly).
type Opcode uint8

const (
	OpNop Opcode = iota
	OpPushConst
	OpPushGlobal
	OpPopGlobal
	OpDefineGlobal
	OpPushLocal
	OpPopLocal
	OpPushCapture
	OpPushArgc
	OpJmp
	OpJmpIfFalse
	OpCall
	OpTCall
	OpRet
	OpMakeClosure
	OpPop
	OpDup
	OpHalt
)

var opcodeNames = [...]string{
	OpNop:          "nop",
	OpPushConst:    "push.const",
	OpPushGlobal:   "push.global",
	OpPopGlobal:    "pop.global",
	OpDefineGlobal: "define.global",
	OpPushLocal:    "push.local",
	OpPopLocal:     "pop.local",
	OpPushCapture:  "push.capture",
	OpPushArgc:     "push.argc",
	OpJmp:          "jmp",
	OpJmpIfFalse:   "jmp.if-false",
	OpCall:         "call",
	OpTCall:        "tcall",
	OpRet:          "ret",
	OpMakeClosure:  "make.closure",
	OpPop:          "pop",
	OpDup:          "dup",
	OpHalt:         "halt",
}

// String renders the opcode's assembly mnemonic, used by package asm's
// disassembler.
func (op Opcode) String() string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return "???"
}

// Instr is a single decoded instruction: an opcode plus the one operand
// every instruction in this set needs at most (a constant-pool index, a
// global symbol address, a frame-relative offset, a capture index, an
// absolute jump target, or an argument count).
type Instr struct {
	Op Opcode
	A  int
}

// Code is the compiled representation the external compiler (package
// compile) hands to the VM: a constant pool plus a flat instruction
// stream, per spec §2's data-flow description and §6's embedding
// contract. Lambda templates live in the constant pool as KLambda VCells
// so MAKE_CLOSURE can reference them by index like any other constant.
type Code struct {
	Consts []VCell
	Instrs []Instr
}
