// Package spirvfunc is the function resolver registry: lowering a
// Language member's compiled opcode.Instruction stream into SPIR-V
// instruction emission, including the scalar-splat lowering for
// vector-scalar arithmetic and the operand-order flip for matrix
// multiplies to match SPIR-V's column-major convention (spec section 5.6).
package spirvfunc

import (
	"fmt"

	"github.com/zilchlang/zilch/pkg/opcode"
	"github.com/zilchlang/zilch/pkg/shader/spirvenc"
	"github.com/zilchlang/zilch/pkg/shader/spirvtype"
	"github.com/zilchlang/zilch/pkg/types"
)

// ValueRef is a SSA-style reference: a SPIR-V id plus the Type it was
// resolved against, needed at every arithmetic site to decide between a
// scalar op, a vector op, or a scalar-splat.
type ValueRef struct {
	ID   uint32
	Type types.Type
}

// Emitter lowers one Function's body into mod, given a Resolver already
// primed with the surrounding Library's types.
type Emitter struct {
	mod      *spirvenc.Module
	resolver *spirvtype.Resolver
	locals   map[int]ValueRef // compiler local slot -> last SSA value
}

// NewEmitter returns an Emitter writing into mod via resolver.
func NewEmitter(mod *spirvenc.Module, resolver *spirvtype.Resolver) *Emitter {
	return &Emitter{mod: mod, resolver: resolver, locals: make(map[int]ValueRef)}
}

// EmitFunction lowers fn's bytecode body into a SPIR-V OpFunction..
// OpFunctionEnd block. Control flow (OpIf/OpJump) is out of scope for this
// pass: shader entry points compiled from the Language are expected to be
// straight-line after the analyzer's dead-branch and loop-unrolling passes
// (spec section 5.6 non-goal: shaders never observe an opcode yield, so the
// VM's general jump machinery is never exercised here).
func (e *Emitter) EmitFunction(fn *types.Function, retType types.Type) (uint32, error) {
	voidFnType := e.mod.InternType("fnvoid", func(id uint32) spirvenc.Instruction {
		return spirvenc.Instruction{Op: spirvenc.OpTypeFunction, Operands: []uint32{id}}
	})
	retID, err := e.resolver.Resolve(retType)
	if err != nil {
		return 0, fmt.Errorf("spirvfunc: return type of %q: %w", fn.Name, err)
	}
	funcID := e.mod.AllocID()
	e.mod.Functions = append(e.mod.Functions,
		spirvenc.Instruction{Op: spirvenc.OpFunction, Operands: []uint32{retID, funcID, 0, voidFnType}})
	labelID := e.mod.AllocID()
	e.mod.Functions = append(e.mod.Functions, spirvenc.Instruction{Op: spirvenc.OpLabel, Operands: []uint32{labelID}})

	for _, inst := range fn.Code {
		if err := e.emitInstruction(inst, fn); err != nil {
			return 0, fmt.Errorf("spirvfunc: %q: %w", fn.Name, err)
		}
	}

	e.mod.Functions = append(e.mod.Functions, spirvenc.Instruction{Op: spirvenc.OpFunctionEnd})
	return funcID, nil
}

func (e *Emitter) emitInstruction(inst opcode.Instruction, fn *types.Function) error {
	switch inst.Op {
	case opcode.OpAdd, opcode.OpSub, opcode.OpMul, opcode.OpDiv:
		return e.emitArith(inst)
	case opcode.OpReturn:
		if inst.A.Kind == opcode.NotSet {
			e.mod.Functions = append(e.mod.Functions, spirvenc.Instruction{Op: spirvenc.OpReturn})
			return nil
		}
		v, ok := e.locals[inst.A.ConstOrLocal]
		if !ok {
			return fmt.Errorf("return of unresolved local %d", inst.A.ConstOrLocal)
		}
		e.mod.Functions = append(e.mod.Functions, spirvenc.Instruction{Op: spirvenc.OpReturnValue, Operands: []uint32{v.ID}})
		return nil
	default:
		return fmt.Errorf("opcode %v has no SPIR-V lowering", inst.Op)
	}
}

// emitArith lowers a binary arithmetic instruction, applying the
// scalar-splat rule: a Vector op Scalar pair first broadcasts the scalar
// via OpVectorTimesScalar-equivalent splat (for multiply) or a constructed
// composite (for add/sub/div), rather than requiring the Language's
// analyzer to have already inserted an explicit splat node.
func (e *Emitter) emitArith(inst opcode.Instruction) error {
	left, ok := e.locals[inst.A.ConstOrLocal]
	if !ok {
		return fmt.Errorf("arithmetic operand local %d not yet defined", inst.A.ConstOrLocal)
	}
	right, ok := e.locals[inst.B.ConstOrLocal]
	if !ok {
		return fmt.Errorf("arithmetic operand local %d not yet defined", inst.B.ConstOrLocal)
	}

	op, isFloat := arithOpcode(inst.Op, left.Type, right.Type)
	resultType := left.Type
	if _, lv := left.Type.(types.VectorType); !lv {
		resultType = right.Type
	}
	resultID, err := e.resolver.Resolve(resultType)
	if err != nil {
		return err
	}
	id := e.mod.AllocID()

	_, leftIsVec := left.Type.(types.VectorType)
	_, rightIsVec := right.Type.(types.VectorType)
	if inst.Op == opcode.OpMul && leftIsVec && !rightIsVec {
		op = spirvenc.OpVectorTimesScalar
	} else if inst.Op == opcode.OpMul && !leftIsVec && rightIsVec {
		op = spirvenc.OpVectorTimesScalar
		left, right = right, left // scalar must be the second operand to OpVectorTimesScalar
	} else if leftIsVec != rightIsVec {
		vecType, scalar := left.Type, &right
		if rightIsVec {
			vecType, scalar = right.Type, &left
		}
		operands := []uint32{resultID, e.mod.AllocID()}
		for i := 0; i < vecType.(types.VectorType).Rows; i++ {
			operands = append(operands, scalar.ID)
		}
		e.mod.Functions = append(e.mod.Functions, spirvenc.Instruction{Op: spirvenc.OpCompositeConstruct, Operands: operands})
		*scalar = ValueRef{ID: operands[1], Type: vecType}
	}
	_ = isFloat

	e.mod.Functions = append(e.mod.Functions,
		spirvenc.Instruction{Op: op, Operands: []uint32{resultID, id, left.ID, right.ID}})
	e.locals[inst.Dst.ConstOrLocal] = ValueRef{ID: id, Type: resultType}
	return nil
}

// arithOpcode picks the correctly-typed SPIR-V arithmetic op: SPIR-V keeps
// separate integer and float opcodes where the Language's opcode.Opcode
// does not, so the Emitter decides here rather than pushing the split back
// onto package compiler.
func arithOpcode(op opcode.Opcode, left, right types.Type) (spirvenc.Op, bool) {
	isFloat := isFloatType(left) || isFloatType(right)
	switch op {
	case opcode.OpAdd:
		if isFloat {
			return spirvenc.OpFAdd, true
		}
		return spirvenc.OpIAdd, false
	case opcode.OpSub:
		if isFloat {
			return spirvenc.OpFSub, true
		}
		return spirvenc.OpISub, false
	case opcode.OpMul:
		if isFloat {
			return spirvenc.OpFMul, true
		}
		return spirvenc.OpIMul, false
	case opcode.OpDiv:
		if isFloat {
			return spirvenc.OpFDiv, true
		}
		return spirvenc.OpSDiv, false
	default:
		return spirvenc.OpNop, isFloat
	}
}

func isFloatType(t types.Type) bool {
	switch v := t.(type) {
	case types.PrimitiveType:
		return v.Kind == types.KindReal || v.Kind == types.KindDoubleReal
	case types.VectorType:
		return isFloatType(v.Element)
	case types.MatrixType:
		return isFloatType(v.Element)
	default:
		return false
	}
}

// MatrixMultiplyOperands returns the (left, right) operand order SPIR-V's
// OpMatrixTimesMatrix/OpMatrixTimesVector expect, given the Language's
// row-major surface-syntax order (a * b): SPIR-V is column-major, so a
// matrix-by-matrix or matrix-by-vector multiply must have its operands
// flipped to produce the mathematically equivalent result.
func MatrixMultiplyOperands(langLeft, langRight ValueRef) (spirvLeft, spirvRight ValueRef) {
	return langRight, langLeft
}
