// Package asm renders a compiled vm.Code object as readable assembly
// text. It has no assembler half (package compile already lowers
// source straight to vm.Code): this is the disassembler the teacher's
// asm package paired with its own parser, repurposed here as a pure
// read-side debugging aid for -disasm and for this package's own tests,
// which compile source and assert on the emitted instruction shape through
// this renderer rather than by string-matching raw opcode integers.
package asm

import (
	"fmt"
	"io"
	"strings"

	"github.com/chayleaf/marwood/vm"
)

// operandKind says how to render an instruction's operand, since the
// same int field means a constant-pool index for one opcode and an
// absolute jump target for another.
type operandKind int

const (
	operandNone operandKind = iota
	operandConst
	operandGlobalSymbol
	operandFrameOffset
	operandCaptureIndex
	operandAddr
	operandArgc
)

func kindOf(op vm.Opcode) operandKind {
	switch op {
	case vm.OpPushConst, vm.OpMakeClosure:
		return operandConst
	case vm.OpPushGlobal, vm.OpPopGlobal, vm.OpDefineGlobal:
		return operandGlobalSymbol
	case vm.OpPushLocal, vm.OpPopLocal:
		return operandFrameOffset
	case vm.OpPushCapture:
		return operandCaptureIndex
	case vm.OpJmp, vm.OpJmpIfFalse:
		return operandAddr
	case vm.OpCall, vm.OpTCall, vm.OpPushArgc:
		return operandArgc
	default:
		return operandNone
	}
}

// Disassemble renders every instruction in code to w, one per line, as
// "addr  mnemonic  operand", with constant-pool and global-symbol
// operands annotated by their printed value so a reader doesn't need to
// cross-reference the constant pool by hand.
func Disassemble(v *vm.VM, code *vm.Code, w io.Writer) error {
	for addr, instr := range code.Instrs {
		line, err := FormatInstr(v, code, addr, instr)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// FormatInstr renders one instruction the way Disassemble does, without
// requiring a full Code stream — used by step-tracing tools that print
// one instruction at a time.
func FormatInstr(v *vm.VM, code *vm.Code, addr int, instr vm.Instr) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "%5d  %-14s", addr, instr.Op.String())
	switch kindOf(instr.Op) {
	case operandConst:
		if instr.A < 0 || instr.A >= len(code.Consts) {
			fmt.Fprintf(&b, "%d  ; ??? out of range", instr.A)
			break
		}
		fmt.Fprintf(&b, "%d  ; %s", instr.A, v.Write(code.Consts[instr.A]))
	case operandGlobalSymbol:
		fmt.Fprintf(&b, "%d  ; %s", instr.A, v.Heap.SymbolName(instr.A))
	case operandFrameOffset:
		fmt.Fprintf(&b, "%d", instr.A)
	case operandCaptureIndex:
		fmt.Fprintf(&b, "%d", instr.A)
	case operandAddr:
		fmt.Fprintf(&b, "-> %d", instr.A)
	case operandArgc:
		fmt.Fprintf(&b, "%d", instr.A)
	}
	return b.String(), nil
}

// DisassembleString is a convenience wrapper returning the full listing
// as a string, used by tests that assert on the rendered output.
func DisassembleString(v *vm.VM, code *vm.Code) (string, error) {
	var b strings.Builder
	if err := Disassemble(v, code, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}
