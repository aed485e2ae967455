package spirvfunc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zilchlang/zilch/pkg/opcode"
	"github.com/zilchlang/zilch/pkg/shader/spirvenc"
	"github.com/zilchlang/zilch/pkg/shader/spirvtype"
	"github.com/zilchlang/zilch/pkg/types"
)

func TestEmitArithPicksFloatOpcodeForRealOperands(t *testing.T) {
	mod := spirvenc.NewModule()
	resolver := spirvtype.NewResolver(mod)
	e := NewEmitter(mod, resolver)

	realType := types.PrimitiveType{Kind: types.KindReal}
	realID, err := resolver.Resolve(realType)
	require.NoError(t, err)
	e.locals[1] = ValueRef{ID: realID, Type: realType}
	e.locals[2] = ValueRef{ID: realID, Type: realType}

	err = e.emitArith(opcode.Instruction{
		Op:  opcode.OpAdd,
		A:   opcode.Operand{ConstOrLocal: 1},
		B:   opcode.Operand{ConstOrLocal: 2},
		Dst: opcode.Operand{ConstOrLocal: 0},
	})
	require.NoError(t, err)

	last := mod.Functions[len(mod.Functions)-1]
	assert.Equal(t, spirvenc.OpFAdd, last.Op)
}

func TestEmitArithSplatsScalarAgainstVector(t *testing.T) {
	mod := spirvenc.NewModule()
	resolver := spirvtype.NewResolver(mod)
	e := NewEmitter(mod, resolver)

	vecType := types.VectorType{Rows: 3, Element: types.PrimitiveType{Kind: types.KindReal}}
	vecID, err := resolver.Resolve(vecType)
	require.NoError(t, err)
	scalarType := types.PrimitiveType{Kind: types.KindReal}
	scalarID, err := resolver.Resolve(scalarType)
	require.NoError(t, err)

	e.locals[1] = ValueRef{ID: vecID, Type: vecType}
	e.locals[2] = ValueRef{ID: scalarID, Type: scalarType}

	err = e.emitArith(opcode.Instruction{
		Op:  opcode.OpMul,
		A:   opcode.Operand{ConstOrLocal: 1},
		B:   opcode.Operand{ConstOrLocal: 2},
		Dst: opcode.Operand{ConstOrLocal: 0},
	})
	require.NoError(t, err)

	last := mod.Functions[len(mod.Functions)-1]
	assert.Equal(t, spirvenc.OpVectorTimesScalar, last.Op)
}
