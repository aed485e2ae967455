package compiler

import (
	"fmt"
	"strings"

	"github.com/zilchlang/zilch/pkg/ast"
	"github.com/zilchlang/zilch/pkg/opcode"
	"github.com/zilchlang/zilch/pkg/types"
)

// compileExpr compiles expr and returns the Operand its value is already
// addressable through. A scalar literal, a string literal without
// interpolations, or a plain identifier read costs zero instructions (it
// returns a Constant or Local operand directly); actual computation, array
// literals and interpolated strings included, emits instructions and
// returns the local it wrote to.
func (fc *funcCompiler) compileExpr(expr ast.Expression) (opcode.Operand, error) {
	switch e := expr.(type) {
	case *ast.BooleanLiteral:
		return opcode.Operand{Kind: opcode.Constant, ConstOrLocal: fc.b.AddConstant(e.Value)}, nil

	case *ast.NilLiteral:
		return opcode.Operand{Kind: opcode.Constant, ConstOrLocal: fc.b.AddConstant(nil)}, nil

	case *ast.IntegerLiteral:
		return opcode.Operand{Kind: opcode.Constant, ConstOrLocal: fc.b.AddConstant(e.Value)}, nil

	case *ast.RealLiteral:
		return opcode.Operand{Kind: opcode.Constant, ConstOrLocal: fc.b.AddConstant(e.Value)}, nil

	case *ast.StringLiteral:
		return fc.compileStringLiteral(e)

	case *ast.ArrayLiteral:
		return fc.compileArrayLiteral(e)

	case *ast.Identifier:
		idx, ok := fc.locals[e.Name]
		if !ok {
			return opcode.NoOperand, fmt.Errorf("undeclared identifier %q", e.Name)
		}
		return opcode.Operand{Kind: opcode.Local, ConstOrLocal: idx}, nil

	case *ast.BlockLiteral:
		return fc.compileBlockLiteral(e)

	case *ast.MessageSend:
		return fc.compileMessageSend(e)

	case *ast.BinaryExpression:
		return fc.compileBinary(e)

	case *ast.UnaryExpression:
		return fc.compileUnary(e)

	case *ast.Assignment:
		return fc.compileAssignment(e)

	case *ast.MemberAccess:
		return fc.compileMemberAccess(e)

	case *ast.TypeCast:
		return fc.compileTypeCast(e)

	case *ast.MultiExpression:
		var last opcode.Operand
		for _, part := range e.Parts {
			v, err := fc.compileExpr(part)
			if err != nil {
				return opcode.NoOperand, err
			}
			last = v
		}
		return last, nil

	default:
		return opcode.NoOperand, fmt.Errorf("compiler: unhandled expression type %T", expr)
	}
}

// compileStringLiteral compiles a plain string as a single constant; a
// literal with `${}` interpolations drives the string-builder opcode
// family instead, appending the literal prefix followed by each
// interpolated operand in source order.
func (fc *funcCompiler) compileStringLiteral(e *ast.StringLiteral) (opcode.Operand, error) {
	if len(e.Interpolations) == 0 {
		return opcode.Operand{Kind: opcode.Constant, ConstOrLocal: fc.b.AddConstant(e.Value)}, nil
	}
	dst := fc.newLocal()
	fc.b.Emit(opcode.Instruction{Op: opcode.OpBeginStringBuilder, Dst: dst})
	prefix := opcode.Operand{Kind: opcode.Constant, ConstOrLocal: fc.b.AddConstant(e.Value)}
	fc.b.Emit(opcode.Instruction{Op: opcode.OpAddToStringBuilder, A: dst, B: prefix})
	for _, interp := range e.Interpolations {
		part, err := fc.compileExpr(interp)
		if err != nil {
			return opcode.NoOperand, err
		}
		fc.b.Emit(opcode.Instruction{Op: opcode.OpAddToStringBuilder, A: dst, B: part})
	}
	fc.b.Emit(opcode.Instruction{Op: opcode.OpEndStringBuilder, A: dst, Dst: dst})
	return dst, nil
}

// compileArrayLiteral materializes each element in source order. There is
// no dedicated array-construction opcode (array-of-T is a library type, not
// a primitive the VM constructs directly); a literal compiles to a
// CreateType call against the receiver's own array indexer, with elements
// populated through a Set call per slot.
func (fc *funcCompiler) compileArrayLiteral(e *ast.ArrayLiteral) (opcode.Operand, error) {
	bt, ok := e.Annotations().ResultType.(*types.BoundType)
	arrType := "Array"
	if ok {
		arrType = bt.Name
	}
	dst := fc.newLocal()
	fc.b.Emit(opcode.Instruction{
		Op:  opcode.OpCreateType,
		A:   opcode.Operand{Kind: opcode.Constant, ConstOrLocal: fc.b.AddConstant(arrType)},
		Dst: dst,
	})
	for i, el := range e.Elements {
		val, err := fc.compileExpr(el)
		if err != nil {
			return opcode.NoOperand, err
		}
		idxOperand := opcode.Operand{Kind: opcode.Constant, ConstOrLocal: fc.b.AddConstant(int64(i))}
		fc.b.Emit(opcode.Instruction{Op: opcode.OpPrepForFunctionCall, A: idxOperand})
		fc.b.Emit(opcode.Instruction{Op: opcode.OpPrepForFunctionCall, A: val})
		fc.b.Emit(opcode.Instruction{
			Op:     opcode.OpFunctionCall,
			A:      dst,
			Offset: 2,
			Size:   fc.b.AddConstant("Set"),
		})
	}
	return dst, nil
}

// compileBlockLiteral compiles an inline closure body into its own
// function-shaped bytecode buffer, stored as a constant the enclosing
// function's OpCreateInstanceDelegate (or equivalent host call) can
// reference; the closure shares no locals with its enclosing function, so
// it compiles exactly like a free function with no parameters reserved
// beyond its own.
func (fc *funcCompiler) compileBlockLiteral(e *ast.BlockLiteral) (opcode.Operand, error) {
	inner := newFuncCompiler(fc.owner)
	inner.reserve() // return slot
	for _, p := range e.Parameters {
		inner.locals[p.Name] = inner.reserve()
	}
	for name, idx := range fc.locals {
		if _, shadowed := inner.locals[name]; !shadowed {
			inner.locals[name] = idx
		}
	}
	if err := inner.compileStatements(e.Body); err != nil {
		return opcode.NoOperand, err
	}
	inner.b.Emit(opcode.Instruction{Op: opcode.OpReturn})
	code, constants := inner.b.Finalize()
	blockValue := struct {
		Code      []opcode.Instruction
		Constants opcode.ConstantPool
		FrameSize int
	}{Code: code, Constants: constants, FrameSize: inner.nextLocal}
	return opcode.Operand{Kind: opcode.Constant, ConstOrLocal: fc.b.AddConstant(blockValue)}, nil
}

func (fc *funcCompiler) compileUnary(e *ast.UnaryExpression) (opcode.Operand, error) {
	operand, err := fc.compileExpr(e.Operand)
	if err != nil {
		return opcode.NoOperand, err
	}
	op := opcode.OpNegate
	if e.Operator == "!" {
		op = opcode.OpLogicalNot
	}
	dst := fc.newLocal()
	fc.b.Emit(opcode.Instruction{Op: op, A: operand, Dst: dst, Size: opSize(e.Annotations().ResultType)})
	return dst, nil
}

func (fc *funcCompiler) compileBinary(e *ast.BinaryExpression) (opcode.Operand, error) {
	left, err := fc.compileExpr(e.Left)
	if err != nil {
		return opcode.NoOperand, err
	}
	right, err := fc.compileExpr(e.Right)
	if err != nil {
		return opcode.NoOperand, err
	}
	op, ok := binaryOpcodes[e.Operator]
	if !ok {
		return opcode.NoOperand, fmt.Errorf("unknown binary operator %q", e.Operator)
	}
	dst := fc.newLocal()
	size := opSize(e.Left.Annotations().ResultType)
	fc.b.Emit(opcode.Instruction{Op: op, A: left, B: right, Dst: dst, Size: size})
	return dst, nil
}

var binaryOpcodes = map[string]opcode.Opcode{
	"+": opcode.OpAdd, "-": opcode.OpSub, "*": opcode.OpMul, "/": opcode.OpDiv, "%": opcode.OpMod,
	"<": opcode.OpLess, ">": opcode.OpGreater, "<=": opcode.OpLessEq, ">=": opcode.OpGreaterEq,
	"==": opcode.OpEqual, "!=": opcode.OpNotEqual, "&&": opcode.OpLogicalAnd, "||": opcode.OpLogicalOr,
}

func (fc *funcCompiler) compileAssignment(e *ast.Assignment) (opcode.Operand, error) {
	val, err := fc.compileExpr(e.Value)
	if err != nil {
		return opcode.NoOperand, err
	}
	target, err := fc.lvalueOperand(e.Target)
	if err != nil {
		return opcode.NoOperand, err
	}
	size := opSize(e.Target.Annotations().ResultType)
	if compound, ok := compoundAssignOpcodes[e.Operator]; ok {
		fc.b.Emit(opcode.Instruction{Op: compound, A: target, B: val, Size: size})
		return target, nil
	}
	fc.b.Emit(opcode.Instruction{Op: opcode.OpCopy, A: val, Dst: target, Mode: opcode.CopyAssignment, Size: size})
	return target, nil
}

var compoundAssignOpcodes = map[string]opcode.Opcode{
	"+=": opcode.OpAddAssign, "-=": opcode.OpSubAssign, "*=": opcode.OpMulAssign, "/=": opcode.OpDivAssign,
}

// lvalueOperand resolves an assignable expression to the Operand its
// storage lives at: a declared local, or a field offset on a compiled
// receiver.
func (fc *funcCompiler) lvalueOperand(expr ast.Expression) (opcode.Operand, error) {
	switch e := expr.(type) {
	case *ast.Identifier:
		idx, ok := fc.locals[e.Name]
		if !ok {
			return opcode.NoOperand, fmt.Errorf("assignment to undeclared identifier %q", e.Name)
		}
		return opcode.Operand{Kind: opcode.Local, ConstOrLocal: idx}, nil
	case *ast.MemberAccess:
		return fc.fieldOperand(e)
	default:
		return opcode.NoOperand, fmt.Errorf("expression of type %T is not assignable", expr)
	}
}

func (fc *funcCompiler) fieldOperand(e *ast.MemberAccess) (opcode.Operand, error) {
	base, err := fc.compileExpr(e.Receiver)
	if err != nil {
		return opcode.NoOperand, err
	}
	bt, ok := e.Receiver.Annotations().ResultType.(*types.BoundType)
	if !ok {
		return opcode.NoOperand, fmt.Errorf("member access %q on non-class receiver", e.Name)
	}
	field, ok := bt.FindField(e.Name)
	if !ok {
		return opcode.NoOperand, fmt.Errorf("unknown field %q on %s", e.Name, bt.Name)
	}
	return opcode.Operand{Kind: opcode.Field, ConstOrLocal: base.ConstOrLocal, FieldOffset: field.Offset}, nil
}

func (fc *funcCompiler) compileMemberAccess(e *ast.MemberAccess) (opcode.Operand, error) {
	bt, ok := e.Receiver.Annotations().ResultType.(*types.BoundType)
	if !ok {
		return opcode.NoOperand, fmt.Errorf("member access %q on non-class receiver", e.Name)
	}
	if _, ok := bt.FindField(e.Name); ok {
		return fc.fieldOperand(e)
	}
	for cur := bt; cur != nil; cur = cur.Parent {
		for _, p := range cur.Properties {
			if p.Name == e.Name && p.Getter != nil {
				return fc.emitCall(e.Receiver, p.Getter, nil, e.Name)
			}
		}
	}
	return opcode.NoOperand, fmt.Errorf("unknown member %q on %s", e.Name, bt.Name)
}

func (fc *funcCompiler) compileTypeCast(e *ast.TypeCast) (opcode.Operand, error) {
	val, err := fc.compileExpr(e.Value)
	if err != nil {
		return opcode.NoOperand, err
	}
	dst := fc.newLocal()
	target := e.Annotations().ResultType

	if _, isAny := target.(types.AnyType); isAny {
		fc.b.Emit(opcode.Instruction{Op: opcode.OpAnyConversion, A: val, Dst: dst})
		return dst, nil
	}
	if toBound, ok := target.(*types.BoundType); ok {
		if fromBound, ok := e.Value.Annotations().ResultType.(*types.BoundType); ok && toBound.IsDerivedFrom(fromBound) && toBound != fromBound {
			fc.b.Emit(opcode.Instruction{Op: opcode.OpDowncast, A: val, Dst: dst, Offset: fc.b.AddConstant(toBound.Name)})
			return dst, nil
		}
	}
	fc.b.Emit(opcode.Instruction{Op: opcode.OpTypeCast, A: val, Dst: dst, Size: opSize(target)})
	return dst, nil
}

// compileMessageSend emits a call's argument-staging instructions followed
// by OpFunctionCall. When the send was committed to a specific overload by
// the analyzer (the common case), the target is that *types.Function,
// stored as a constant-pool entry referenced through Size; a MessageSend
// the analyzer left unresolved (a rewriteIndexers-synthesized Get/Set/
// GetSet, or a vector/matrix intrinsic) instead carries its selector name,
// and the VM looks up the implementation dynamically against the
// receiver's runtime type.
func (fc *funcCompiler) compileMessageSend(e *ast.MessageSend) (opcode.Operand, error) {
	if e.Receiver == nil && strings.HasPrefix(e.Selector, "new:") {
		return fc.compileNew(e)
	}
	args := make([]opcode.Operand, 0, len(e.Args))
	for _, arg := range e.Args {
		v, err := fc.compileExpr(arg)
		if err != nil {
			return opcode.NoOperand, err
		}
		args = append(args, v)
	}
	return fc.emitCall(e.Receiver, e.Resolved, args, e.Selector)
}

// compileNew handles a `new:ClassName` send: the analyzer resolves it to
// the chosen constructor (or leaves Resolved nil for a class with no
// declared constructor) but never synthesizes a receiver, since there is
// no object yet at analysis time. The compiler allocates the instance via
// OpCreateType first, then -- if a constructor was resolved -- invokes it
// with the fresh instance as the receiver, and yields the instance operand
// as the overall expression result regardless of the constructor's own
// (void) return value.
func (fc *funcCompiler) compileNew(e *ast.MessageSend) (opcode.Operand, error) {
	typeName := strings.TrimPrefix(e.Selector, "new:")
	obj := fc.newLocal()
	fc.b.Emit(opcode.Instruction{
		Op:  opcode.OpCreateType,
		A:   opcode.Operand{Kind: opcode.Constant, ConstOrLocal: fc.b.AddConstant(typeName)},
		Dst: obj,
	})
	if e.Resolved == nil {
		return obj, nil
	}
	args := make([]opcode.Operand, 0, len(e.Args))
	for _, arg := range e.Args {
		v, err := fc.compileExpr(arg)
		if err != nil {
			return opcode.NoOperand, err
		}
		args = append(args, v)
	}
	if _, err := fc.emitCallOn(obj, e.Resolved, args, e.Selector); err != nil {
		return opcode.NoOperand, err
	}
	return obj, nil
}

// emitCall compiles recv (if any) into the operand OpFunctionCall carries in
// A, stages every argument via OpPrepForFunctionCall, then emits
// OpFunctionCall. target non-nil calls the resolved Function
// directly (Size holds its constant-pool index); target nil falls back to
// dynamic selector-name dispatch (Size holds the selector string's index).
func (fc *funcCompiler) emitCall(recv ast.Expression, target *types.Function, args []opcode.Operand, selector string) (opcode.Operand, error) {
	recvOperand := opcode.NoOperand
	if recv != nil {
		v, err := fc.compileExpr(recv)
		if err != nil {
			return opcode.NoOperand, err
		}
		recvOperand = v
	}
	return fc.emitCallOn(recvOperand, target, args, selector)
}

// emitCallOn is emitCall's receiver-already-an-Operand variant, used by
// compileNew (whose receiver is a just-allocated instance, not something
// reachable through an ast.Expression).
func (fc *funcCompiler) emitCallOn(recvOperand opcode.Operand, target *types.Function, args []opcode.Operand, selector string) (opcode.Operand, error) {
	for _, arg := range args {
		fc.b.Emit(opcode.Instruction{Op: opcode.OpPrepForFunctionCall, A: arg})
	}
	var targetConst int
	if target != nil {
		targetConst = fc.b.AddConstant(target)
	} else {
		targetConst = fc.b.AddConstant(selector)
	}
	dst := fc.newLocal()
	fc.b.Emit(opcode.Instruction{
		Op:     opcode.OpFunctionCall,
		A:      recvOperand,
		Dst:    dst,
		Offset: len(args),
		Size:   targetConst,
	})
	return dst, nil
}
