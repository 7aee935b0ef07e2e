package asm_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chayleaf/marwood/asm"
	"github.com/chayleaf/marwood/compile"
	"github.com/chayleaf/marwood/vm"
)

func TestDisassembleArithmetic(t *testing.T) {
	v := vm.New()
	code, err := compile.Compile("(+ 1 2)", v)
	require.NoError(t, err)

	out, err := asm.DisassembleString(v, code)
	require.NoError(t, err)

	assert.Contains(t, out, "push.const")
	assert.Contains(t, out, "push.global")
	assert.Contains(t, out, "call")
	assert.Contains(t, out, "halt")
	// constants are annotated with their printed value
	assert.Contains(t, out, "; 1")
	assert.Contains(t, out, "; 2")
	// the global operand is annotated with the symbol's name
	assert.Contains(t, out, "; +")
}

func TestDisassembleClosureShowsMakeClosureAndCapture(t *testing.T) {
	v := vm.New()
	code, err := compile.Compile("(define (make-adder n) (lambda (x) (+ x n)))", v)
	require.NoError(t, err)

	out, err := asm.DisassembleString(v, code)
	require.NoError(t, err)

	assert.Contains(t, out, "make.closure")
	assert.Contains(t, out, "push.capture")
}

func TestFormatInstrLineCount(t *testing.T) {
	v := vm.New()
	code, err := compile.Compile("(if #t 1 2)", v)
	require.NoError(t, err)

	out, err := asm.DisassembleString(v, code)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Equal(t, len(code.Instrs), len(lines))
}
