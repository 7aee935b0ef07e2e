package vm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chayleaf/marwood/vm"
)

// buildAddOneAndTwo hand-assembles (+ 1 2) directly against vm.Code,
// exercising the dispatch loop without going through package compile:
// push.global(+), push.const(1), push.const(2), push.argc(2), call, halt.
func buildAddOneAndTwo(v *vm.VM) *vm.Code {
	plus := v.Intern("+")
	return &vm.Code{
		Consts: []vm.VCell{
			vm.NumberCell(vm.NumberFromInt64(1)),
			vm.NumberCell(vm.NumberFromInt64(2)),
		},
		Instrs: []vm.Instr{
			{Op: vm.OpPushGlobal, A: plus.Addr()},
			{Op: vm.OpPushConst, A: 0},
			{Op: vm.OpPushConst, A: 1},
			{Op: vm.OpPushArgc, A: 2},
			{Op: vm.OpCall, A: 2},
			{Op: vm.OpHalt},
		},
	}
}

func TestRunBuiltinCall(t *testing.T) {
	v := vm.New()
	result, err := v.Run(buildAddOneAndTwo(v))
	require.NoError(t, err)
	require.True(t, result.IsNumber())
	assert.Equal(t, "3", result.NumberVal().String())
}

func TestRunStackUnderflowOnOpPop(t *testing.T) {
	v := vm.New()
	code := &vm.Code{
		Instrs: []vm.Instr{
			{Op: vm.OpPop},
			{Op: vm.OpHalt},
		},
	}
	_, err := v.Run(code)
	assert.Error(t, err)
}

func TestDupDuplicatesTopOfStack(t *testing.T) {
	v := vm.New()
	code := &vm.Code{
		Consts: []vm.VCell{vm.NumberCell(vm.NumberFromInt64(7))},
		Instrs: []vm.Instr{
			{Op: vm.OpPushConst, A: 0},
			{Op: vm.OpDup},
			{Op: vm.OpPop},
			{Op: vm.OpHalt},
		},
	}
	result, err := v.Run(code)
	require.NoError(t, err)
	assert.Equal(t, "7", result.NumberVal().String())
}

func TestCallWrongBuiltinArityIsError(t *testing.T) {
	v := vm.New()
	car := v.Intern("car")
	code := &vm.Code{
		Instrs: []vm.Instr{
			{Op: vm.OpPushGlobal, A: car.Addr()},
			{Op: vm.OpPushArgc, A: 0},
			{Op: vm.OpCall, A: 0},
			{Op: vm.OpHalt},
		},
	}
	_, err := v.Run(code)
	assert.Error(t, err)
}

func TestDefineBuiltinIsLookupable(t *testing.T) {
	v := vm.New()
	id, ok := v.LookupBuiltin("+")
	require.True(t, ok)
	assert.GreaterOrEqual(t, id, 0)
}

func TestHeapInternSymbolIsStable(t *testing.T) {
	h := vm.NewHeap()
	a := h.InternSymbol("foo")
	b := h.InternSymbol("foo")
	assert.Equal(t, a.Addr(), b.Addr())
	assert.Equal(t, "foo", h.SymbolName(a.Addr()))
}

func TestHeapPutInternsSmallFixnums(t *testing.T) {
	h := vm.NewHeap()
	a := h.Put(vm.NumberCell(vm.NumberFromInt64(5)))
	b := h.Put(vm.NumberCell(vm.NumberFromInt64(5)))
	assert.Equal(t, a.Addr(), b.Addr())
}
