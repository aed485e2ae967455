package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zilchlang/zilch/pkg/handle"
	"github.com/zilchlang/zilch/pkg/opcode"
	"github.com/zilchlang/zilch/pkg/types"
)

// freeFunction builds a *types.Function with the given frame size, param
// layout and instruction/constant stream -- the hand-assembled fixture
// every test in this file starts from, mirroring how compiler_test.go
// hand-builds an ast.Program instead of going through the lexer/parser.
func freeFunction(name string, frameSize int, params []opcode.Operand, instrs []opcode.Instruction, consts []any) *types.Function {
	return &types.Function{
		Name:        name,
		FrameSize:   frameSize,
		ParamLayout: params,
		Code:        instrs,
		Constants:   &opcode.ConstantPool{Values: consts},
	}
}

func newTestState(t *testing.T) *ExecutableState {
	t.Helper()
	lib := types.NewLibrary("Test")
	mod, err := types.BuildModule(lib)
	require.NoError(t, err)
	return NewExecutableState(mod, nil)
}

func TestCallAddsTwoParameters(t *testing.T) {
	// fn(a, b) { return a + b }
	// slot 0: return, slot 1: a, slot 2: b
	fn := freeFunction("Add", 3,
		[]opcode.Operand{
			{Kind: opcode.Local, ConstOrLocal: 1},
			{Kind: opcode.Local, ConstOrLocal: 2},
		},
		[]opcode.Instruction{
			{Op: opcode.OpAdd,
				A:   opcode.Operand{Kind: opcode.Local, ConstOrLocal: 1},
				B:   opcode.Operand{Kind: opcode.Local, ConstOrLocal: 2},
				Dst: opcode.Operand{Kind: opcode.Local, ConstOrLocal: 0}},
			{Op: opcode.OpReturn},
		}, nil)

	es := newTestState(t)
	result, err := Call(es, fn, handle.Handle{}, []any{int64(2), int64(40)})
	require.NoError(t, err)
	assert.Equal(t, int64(42), result)
}

func TestIfJumpSkipsElseBranch(t *testing.T) {
	// fn(cond) { if (cond) return 1 else return 2 }
	// slot 0: return, slot 1: cond
	fn := freeFunction("Choose", 2,
		[]opcode.Operand{{Kind: opcode.Local, ConstOrLocal: 1}},
		[]opcode.Instruction{
			/*0*/ {Op: opcode.OpIf, A: opcode.Operand{Kind: opcode.Local, ConstOrLocal: 1}, Offset: 3},
			/*1*/ {Op: opcode.OpCopy, A: opcode.Operand{Kind: opcode.Constant, ConstOrLocal: 0}, Dst: opcode.Operand{Kind: opcode.Local, ConstOrLocal: 0}},
			/*2*/ {Op: opcode.OpReturn},
			/*3*/ {Op: opcode.OpCopy, A: opcode.Operand{Kind: opcode.Constant, ConstOrLocal: 1}, Dst: opcode.Operand{Kind: opcode.Local, ConstOrLocal: 0}},
			/*4*/ {Op: opcode.OpReturn},
		}, []any{int64(1), int64(2)})

	es := newTestState(t)

	result, err := Call(es, fn, handle.Handle{}, []any{true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result)

	result, err = Call(es, fn, handle.Handle{}, []any{false})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result)
}

func TestThrowExceptionSurfacesAsRuntimeError(t *testing.T) {
	fn := freeFunction("Boom", 1, nil,
		[]opcode.Instruction{
			{Op: opcode.OpThrowException, A: opcode.Operand{Kind: opcode.Constant, ConstOrLocal: 0}},
		}, []any{"bad input"})

	es := newTestState(t)
	_, err := Call(es, fn, handle.Handle{}, nil)
	require.Error(t, err)

	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "bad input", rerr.Value)
}

func TestStackOverflowIsReportedBeforeFatal(t *testing.T) {
	// A function that unconditionally calls itself; FrameLimit caps the
	// recursion so the test terminates.
	fn := &types.Function{Name: "Loop", FrameSize: 1}
	callInstr := []opcode.Instruction{
		{Op: opcode.OpFunctionCall, Offset: 0, Size: 0, Dst: opcode.Operand{Kind: opcode.Local, ConstOrLocal: 0}},
		{Op: opcode.OpReturn},
	}
	fn.Code = callInstr
	fn.Constants = &opcode.ConstantPool{Values: []any{fn}}

	es := newTestState(t)
	es.FrameLimit = 8
	_, err := Call(es, fn, handle.Handle{}, nil)
	require.Error(t, err)

	var overflow *StackOverflowError
	require.ErrorAs(t, err, &overflow)
}

func TestCompoundAssignAddsInPlace(t *testing.T) {
	// fn(a) { a += 5; return a }
	fn := freeFunction("Increment", 2,
		[]opcode.Operand{{Kind: opcode.Local, ConstOrLocal: 1}},
		[]opcode.Instruction{
			{Op: opcode.OpAddAssign,
				A: opcode.Operand{Kind: opcode.Local, ConstOrLocal: 1},
				B: opcode.Operand{Kind: opcode.Constant, ConstOrLocal: 0}},
			{Op: opcode.OpCopy,
				A:   opcode.Operand{Kind: opcode.Local, ConstOrLocal: 1},
				Dst: opcode.Operand{Kind: opcode.Local, ConstOrLocal: 0}},
			{Op: opcode.OpReturn},
		}, []any{int64(5)})

	es := newTestState(t)
	result, err := Call(es, fn, handle.Handle{}, []any{int64(10)})
	require.NoError(t, err)
	assert.Equal(t, int64(15), result)
}
