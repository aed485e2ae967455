package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zilchlang/zilch/pkg/analyzer"
	"github.com/zilchlang/zilch/pkg/ast"
	"github.com/zilchlang/zilch/pkg/opcode"
	"github.com/zilchlang/zilch/pkg/types"
)

// analyze builds a Library from program's declarations and runs every
// analyzer pass, failing the test immediately on any reported error -- the
// fixture every compiler test in this file starts from, since the compiler
// only ever sees an already-analyzed tree.
func analyze(t *testing.T, program *ast.Program) *analyzer.Analyzer {
	t.Helper()
	lib := types.NewLibrary("Test")
	az := analyzer.New(lib, nil, false)
	require.NoError(t, az.Analyze(program))
	return az
}

func opcodes(instrs []opcode.Instruction) []opcode.Opcode {
	ops := make([]opcode.Opcode, len(instrs))
	for i, inst := range instrs {
		ops[i] = inst.Op
	}
	return ops
}

func TestCompileFreeFunctionReturnsSum(t *testing.T) {
	fn := &ast.Method{
		Name: "Add",
		Parameters: []*ast.Param{
			{Name: "a", TypeRef: ast.TypeRef{Name: "Integer"}},
			{Name: "b", TypeRef: ast.TypeRef{Name: "Integer"}},
		},
		ReturnType: ast.TypeRef{Name: "Integer"},
		Body: []ast.Statement{
			&ast.ReturnStatement{Value: &ast.BinaryExpression{
				Left: &ast.Identifier{Name: "a"}, Operator: "+", Right: &ast.Identifier{Name: "b"},
			}},
		},
	}
	program := &ast.Program{Statements: []ast.Statement{ast.FunctionStatement{Fn: fn}}}

	az := analyze(t, program)
	require.NoError(t, New().CompileLibrary(az))

	fns := az.Functions()
	require.Len(t, fns, 1)
	compiled := fns[0]

	assert.Equal(t, []opcode.Opcode{opcode.OpAdd, opcode.OpCopy, opcode.OpReturn}, opcodes(compiled.Code))
	assert.Equal(t, opcode.CopyFromReturn, compiled.Code[1].Mode)
	// return slot + two parameters + the scratch local OpAdd writes
	assert.Equal(t, 4, compiled.FrameSize)
	require.Len(t, compiled.ParamLayout, 2)
	assert.Equal(t, opcode.Local, compiled.ParamLayout[0].Kind)
}

func TestCompileMethodAssignsField(t *testing.T) {
	this := func() ast.Expression { return &ast.Identifier{Name: "this"} }
	thisValue := func() ast.Expression { return &ast.MemberAccess{Receiver: this(), Name: "Value"} }

	class := &ast.Class{
		Name: "Counter",
		Fields: []*ast.FieldDecl{
			{Name: "Value", TypeRef: ast.TypeRef{Name: "Integer"}},
		},
		Methods: []*ast.Method{{
			Name: "Increment",
			Body: []ast.Statement{
				&ast.ExpressionStatement{Expr: &ast.Assignment{
					Target:   thisValue(),
					Operator: "=",
					Value: &ast.BinaryExpression{
						Left: thisValue(), Operator: "+", Right: &ast.IntegerLiteral{Value: 1},
					},
				}},
			},
		}},
	}
	program := &ast.Program{Statements: []ast.Statement{class}}

	az := analyze(t, program)
	require.NoError(t, New().CompileLibrary(az))

	fns := az.Functions()
	require.Len(t, fns, 1)
	compiled := fns[0]

	assert.Equal(t, []opcode.Opcode{opcode.OpAdd, opcode.OpCopy, opcode.OpReturn}, opcodes(compiled.Code))
	assign := compiled.Code[1]
	assert.Equal(t, opcode.CopyAssignment, assign.Mode)
	assert.Equal(t, opcode.Field, assign.Dst.Kind)
	assert.Equal(t, 0, assign.Dst.FieldOffset)
}

func TestCompileWhileLoopWithBreak(t *testing.T) {
	fn := &ast.Method{
		Name:       "CountTo",
		ReturnType: ast.TypeRef{Name: "Integer"},
		Body: []ast.Statement{
			&ast.VariableDeclaration{Name: "i", TypeRef: ast.TypeRef{Name: "Integer"}, Initial: &ast.IntegerLiteral{Value: 0}},
			&ast.WhileStatement{
				Condition: &ast.BinaryExpression{Left: &ast.Identifier{Name: "i"}, Operator: "<", Right: &ast.IntegerLiteral{Value: 3}},
				Body: []ast.Statement{
					&ast.IfStatement{
						Condition: &ast.BinaryExpression{Left: &ast.Identifier{Name: "i"}, Operator: "==", Right: &ast.IntegerLiteral{Value: 1}},
						Then:      []ast.Statement{&ast.BreakStatement{}},
					},
					&ast.ExpressionStatement{Expr: &ast.Assignment{
						Target: &ast.Identifier{Name: "i"}, Operator: "=",
						Value:  &ast.BinaryExpression{Left: &ast.Identifier{Name: "i"}, Operator: "+", Right: &ast.IntegerLiteral{Value: 1}},
					}},
				},
			},
			&ast.ReturnStatement{Value: &ast.Identifier{Name: "i"}},
		},
	}
	program := &ast.Program{Statements: []ast.Statement{ast.FunctionStatement{Fn: fn}}}

	az := analyze(t, program)
	require.NoError(t, New().CompileLibrary(az))

	fns := az.Functions()
	require.Len(t, fns, 1)
	compiled := fns[0]

	var ifCount, jumpCount int
	for _, inst := range compiled.Code {
		switch inst.Op {
		case opcode.OpIf:
			ifCount++
		case opcode.OpJump:
			jumpCount++
		}
	}
	assert.Equal(t, 2, ifCount, "one OpIf for the while condition, one for the nested if")
	assert.GreaterOrEqual(t, jumpCount, 2, "break jump plus the loop's back edge")
	assert.Equal(t, opcode.OpReturn, compiled.Code[len(compiled.Code)-1].Op)

	// Every jump/if offset must land inside the instruction stream.
	for i, inst := range compiled.Code {
		if inst.Op == opcode.OpJump || inst.Op == opcode.OpIf {
			target := i + inst.Offset
			assert.GreaterOrEqual(t, target, 0)
			assert.LessOrEqual(t, target, len(compiled.Code))
		}
	}
}

func TestCompileMessageSendUsesResolvedFunction(t *testing.T) {
	callee := &ast.Method{
		Name:       "Greet",
		ReturnType: ast.TypeRef{Name: "String"},
		Body:       []ast.Statement{&ast.ReturnStatement{Value: &ast.StringLiteral{Value: "hi"}}},
	}
	call := &ast.MessageSend{Selector: "Greet"}
	caller := &ast.Method{
		Name:       "Main",
		ReturnType: ast.TypeRef{Name: "String"},
		Body:       []ast.Statement{&ast.ReturnStatement{Value: call}},
	}
	program := &ast.Program{Statements: []ast.Statement{
		ast.FunctionStatement{Fn: callee},
		ast.FunctionStatement{Fn: caller},
	}}

	az := analyze(t, program)
	require.NotNil(t, call.Resolved)
	assert.Equal(t, "Greet", call.Resolved.Name)

	require.NoError(t, New().CompileLibrary(az))

	var callerFn *types.Function
	for _, fn := range az.Functions() {
		if fn.Name == "Main" {
			callerFn = fn
		}
	}
	require.NotNil(t, callerFn)

	var found bool
	for _, inst := range callerFn.Code {
		if inst.Op == opcode.OpFunctionCall {
			found = true
			constVal, ok := callerFn.Constants.Get(inst.Size)
			require.True(t, ok)
			fnConst, ok := constVal.(*types.Function)
			require.True(t, ok, "resolved call should reference the callee Function directly, not its selector name")
			assert.Equal(t, "Greet", fnConst.Name)
		}
	}
	assert.True(t, found, "expected an OpFunctionCall instruction")
}
