package spirvtype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zilchlang/zilch/pkg/shader/spirvenc"
	"github.com/zilchlang/zilch/pkg/types"
)

func TestResolveVectorResolvesElementFirst(t *testing.T) {
	mod := spirvenc.NewModule()
	r := NewResolver(mod)

	vecID, err := r.Resolve(types.VectorType{Rows: 3, Element: types.PrimitiveType{Kind: types.KindReal}})
	require.NoError(t, err)
	assert.NotZero(t, vecID)
	// float32 and vec3 should both have been declared.
	assert.Len(t, mod.Types, 2)
}

func TestResolveIsIdempotent(t *testing.T) {
	mod := spirvenc.NewModule()
	r := NewResolver(mod)

	a, err := r.Resolve(types.PrimitiveType{Kind: types.KindInteger})
	require.NoError(t, err)
	b, err := r.Resolve(types.PrimitiveType{Kind: types.KindInteger})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestResolveStructWalksFieldsInOrder(t *testing.T) {
	mod := spirvenc.NewModule()
	r := NewResolver(mod)

	bt := types.NewBoundType("Particle", types.ByValue)
	bt.Fields = []types.Field{
		{Name: "position", Type: types.VectorType{Rows: 3, Element: types.PrimitiveType{Kind: types.KindReal}}},
		{Name: "mass", Type: types.PrimitiveType{Kind: types.KindReal}},
	}
	bt.Finalize()

	id, err := r.Resolve(bt)
	require.NoError(t, err)
	assert.NotZero(t, id)
}

func TestResolveUnknownKindErrors(t *testing.T) {
	mod := spirvenc.NewModule()
	r := NewResolver(mod)
	_, err := r.Resolve(&types.DelegateType{})
	assert.Error(t, err)
}
