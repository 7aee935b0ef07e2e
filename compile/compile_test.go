package compile_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chayleaf/marwood/compile"
	"github.com/chayleaf/marwood/vm"
)

func evalString(t *testing.T, src string) vm.VCell {
	t.Helper()
	v := vm.New()
	result, err := v.Eval(src, compile.Compile)
	require.NoError(t, err)
	return result
}

func evalStringErr(t *testing.T, src string) error {
	t.Helper()
	v := vm.New()
	_, err := v.Eval(src, compile.Compile)
	return err
}

func intOf(t *testing.T, c vm.VCell) int64 {
	t.Helper()
	require.True(t, c.IsNumber())
	n := c.NumberVal()
	require.Equal(t, vm.Fixnum, n.Kind())
	i := new(big.Int)
	i.SetString(n.String(), 10)
	return i.Int64()
}

func TestSelfEvaluating(t *testing.T) {
	assert.Equal(t, int64(42), intOf(t, evalString(t, "42")))
}

func TestArithmetic(t *testing.T) {
	assert.Equal(t, int64(7), intOf(t, evalString(t, "(+ 3 4)")))
	assert.Equal(t, int64(6), intOf(t, evalString(t, "(* 2 3)")))
	assert.Equal(t, int64(1), intOf(t, evalString(t, "(- 4 3)")))
}

func TestIf(t *testing.T) {
	assert.Equal(t, int64(1), intOf(t, evalString(t, "(if #t 1 2)")))
	assert.Equal(t, int64(2), intOf(t, evalString(t, "(if #f 1 2)")))
	assert.True(t, evalString(t, "(if #f 1)").IsVoid())
}

func TestDefineAndReference(t *testing.T) {
	v := vm.New()
	_, err := v.Eval("(define x 10)", compile.Compile)
	require.NoError(t, err)
	result, err := v.Eval("(+ x 5)", compile.Compile)
	require.NoError(t, err)
	assert.Equal(t, int64(15), intOf(t, result))
}

func TestDefineFunctionSugar(t *testing.T) {
	v := vm.New()
	_, err := v.Eval("(define (square x) (* x x))", compile.Compile)
	require.NoError(t, err)
	result, err := v.Eval("(square 5)", compile.Compile)
	require.NoError(t, err)
	assert.Equal(t, int64(25), intOf(t, result))
}

func TestLambdaAndClosureCapture(t *testing.T) {
	v := vm.New()
	_, err := v.Eval("(define (make-adder n) (lambda (x) (+ x n)))", compile.Compile)
	require.NoError(t, err)
	_, err = v.Eval("(define add5 (make-adder 5))", compile.Compile)
	require.NoError(t, err)
	result, err := v.Eval("(add5 10)", compile.Compile)
	require.NoError(t, err)
	assert.Equal(t, int64(15), intOf(t, result))
}

func TestNestedCaptureThreeLevels(t *testing.T) {
	v := vm.New()
	src := "(define (outer a) (lambda (b) (lambda (c) (+ a (+ b c)))))"
	_, err := v.Eval(src, compile.Compile)
	require.NoError(t, err)
	_, err = v.Eval("(define f ((outer 1) 2))", compile.Compile)
	require.NoError(t, err)
	result, err := v.Eval("(f 3)", compile.Compile)
	require.NoError(t, err)
	assert.Equal(t, int64(6), intOf(t, result))
}

func TestLetAndLetStar(t *testing.T) {
	assert.Equal(t, int64(3), intOf(t, evalString(t, "(let ((a 1) (b 2)) (+ a b))")))
	assert.Equal(t, int64(3), intOf(t, evalString(t, "(let* ((a 1) (b (+ a 1))) (+ a b))")))
}

func TestCond(t *testing.T) {
	assert.Equal(t, int64(2), intOf(t, evalString(t, "(cond (#f 1) (#t 2) (else 3))")))
	assert.Equal(t, int64(3), intOf(t, evalString(t, "(cond (#f 1) (else 3))")))
	assert.Equal(t, int64(5), intOf(t, evalString(t, "(cond (5))")))
}

func TestAndOrShortCircuit(t *testing.T) {
	assert.True(t, evalString(t, "(and 1 2 #f)").IsFalse())
	assert.Equal(t, int64(3), intOf(t, evalString(t, "(and 1 2 3)")))
	assert.Equal(t, int64(1), intOf(t, evalString(t, "(or #f 1 2)")))
	assert.True(t, evalString(t, "(or #f #f)").IsFalse())
}

func TestWhenUnless(t *testing.T) {
	assert.Equal(t, int64(1), intOf(t, evalString(t, "(when #t 1)")))
	assert.True(t, evalString(t, "(when #f 1)").IsVoid())
	assert.Equal(t, int64(1), intOf(t, evalString(t, "(unless #f 1)")))
	assert.True(t, evalString(t, "(unless #t 1)").IsVoid())
}

func TestTailCallDoesNotGrowStack(t *testing.T) {
	v := vm.New()
	src := "(define (count n acc) (if (= n 0) acc (count (- n 1) (+ acc 1))))"
	_, err := v.Eval(src, compile.Compile)
	require.NoError(t, err)
	result, err := v.Eval("(count 100000 0)", compile.Compile)
	require.NoError(t, err)
	assert.Equal(t, int64(100000), intOf(t, result))
}

func TestKeywordShadowing(t *testing.T) {
	result := evalString(t, "((lambda (if) (if 1 2)) +)")
	assert.Equal(t, int64(3), intOf(t, result))
}

func TestSetOnCapturedVariableIsCompileError(t *testing.T) {
	err := evalStringErr(t, "(define (f n) (lambda () (set! n 1)))")
	require.Error(t, err)
}

func TestQuote(t *testing.T) {
	v := vm.New()
	result, err := v.Eval("(quote (1 2 3))", compile.Compile)
	require.NoError(t, err)
	assert.True(t, v.Write(result) == "(1 2 3)")
}

func TestEmptySourceCompilesToVoid(t *testing.T) {
	assert.True(t, evalString(t, "").IsVoid())
}
