package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zilchlang/zilch/pkg/types"
)

func TestArraySetGrowsAndGetReadsBack(t *testing.T) {
	bt := NewArrayType()
	lib := types.NewLibrary("stdlib")
	require.NoError(t, lib.AddType(bt))
	mod, err := types.BuildModule(lib)
	require.NoError(t, err)
	es := NewExecutableState(mod, nil)

	h, err := es.createInstance(bt, "")
	require.NoError(t, err)

	_, err = Call(es, bt.Functions["Set"][0], h, []any{int64(2), "third"})
	require.NoError(t, err)

	length, err := Call(es, bt.Functions["Length"][0], h, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), length)

	got, err := Call(es, bt.Functions["Get"][0], h, []any{int64(2)})
	require.NoError(t, err)
	assert.Equal(t, "third", got)

	// Slots skipped by the grow are left nil, not an error.
	got, err = Call(es, bt.Functions["Get"][0], h, []any{int64(0)})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestArrayGetOutOfRangeErrors(t *testing.T) {
	bt := NewArrayType()
	lib := types.NewLibrary("stdlib")
	require.NoError(t, lib.AddType(bt))
	mod, err := types.BuildModule(lib)
	require.NoError(t, err)
	es := NewExecutableState(mod, nil)

	h, err := es.createInstance(bt, "")
	require.NoError(t, err)

	_, err = Call(es, bt.Functions["Get"][0], h, []any{int64(0)})
	assert.Error(t, err)
}

func TestArrayAppendExtendsLength(t *testing.T) {
	bt := NewArrayType()
	lib := types.NewLibrary("stdlib")
	require.NoError(t, lib.AddType(bt))
	mod, err := types.BuildModule(lib)
	require.NoError(t, err)
	es := NewExecutableState(mod, nil)

	h, err := es.createInstance(bt, "")
	require.NoError(t, err)

	_, err = Call(es, bt.Functions["Append"][0], h, []any{int64(7)})
	require.NoError(t, err)
	_, err = Call(es, bt.Functions["Append"][0], h, []any{int64(8)})
	require.NoError(t, err)

	length, err := Call(es, bt.Functions["Length"][0], h, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), length)
}

func TestSystemHashingPrimitivesAreDeterministic(t *testing.T) {
	bt := NewSystemType()
	lib := types.NewLibrary("stdlib")
	require.NoError(t, lib.AddType(bt))
	mod, err := types.BuildModule(lib)
	require.NoError(t, err)
	es := NewExecutableState(mod, nil)

	h, err := es.createInstance(bt, "")
	require.NoError(t, err)

	sum, err := Call(es, bt.Functions["Sha256"][0], h, []any{"hello"})
	require.NoError(t, err)
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", sum)

	encoded, err := Call(es, bt.Functions["Base64Encode"][0], h, []any{"hello"})
	require.NoError(t, err)
	assert.Equal(t, "aGVsbG8=", encoded)

	decoded, err := Call(es, bt.Functions["Base64Decode"][0], h, []any{encoded})
	require.NoError(t, err)
	assert.Equal(t, "hello", decoded)
}

func TestSystemJSONRoundTrip(t *testing.T) {
	bt := NewSystemType()
	lib := types.NewLibrary("stdlib")
	require.NoError(t, lib.AddType(bt))
	mod, err := types.BuildModule(lib)
	require.NoError(t, err)
	es := NewExecutableState(mod, nil)

	h, err := es.createInstance(bt, "")
	require.NoError(t, err)

	parsed, err := Call(es, bt.Functions["JsonParse"][0], h, []any{`{"n": 3}`})
	require.NoError(t, err)
	m, ok := parsed.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(3), m["n"])

	generated, err := Call(es, bt.Functions["JsonGenerate"][0], h, []any{m})
	require.NoError(t, err)
	assert.Equal(t, `{"n":3}`, generated)
}

func TestSystemRegexMatchAndReplace(t *testing.T) {
	bt := NewSystemType()
	lib := types.NewLibrary("stdlib")
	require.NoError(t, lib.AddType(bt))
	mod, err := types.BuildModule(lib)
	require.NoError(t, err)
	es := NewExecutableState(mod, nil)

	h, err := es.createInstance(bt, "")
	require.NoError(t, err)

	matched, err := Call(es, bt.Functions["RegexMatch"][0], h, []any{`\d+`, "room 42"})
	require.NoError(t, err)
	assert.Equal(t, true, matched)

	replaced, err := Call(es, bt.Functions["RegexReplace"][0], h, []any{`\d+`, "room 42", "N"})
	require.NoError(t, err)
	assert.Equal(t, "room N", replaced)
}

func TestVectorArithmeticDelegatesToMathx(t *testing.T) {
	bt := NewVectorType()
	lib := types.NewLibrary("stdlib")
	require.NoError(t, lib.AddType(bt))
	mod, err := types.BuildModule(lib)
	require.NoError(t, err)
	es := NewExecutableState(mod, nil)

	h, err := es.createInstance(bt, "")
	require.NoError(t, err)

	sum, err := Call(es, bt.Functions["Add"][0], h, []any{1.0, 2.0, 3.0, 4.0, 5.0, 6.0})
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 7, 9}, sum)

	dot, err := Call(es, bt.Functions["Dot"][0], h, []any{1.0, 0.0, 0.0, 0.0, 1.0, 0.0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, dot)

	cross, err := Call(es, bt.Functions["Cross"][0], h, []any{1.0, 0.0, 0.0, 0.0, 1.0, 0.0})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 1}, cross)

	length, err := Call(es, bt.Functions["Length"][0], h, []any{3.0, 0.0, 4.0})
	require.NoError(t, err)
	assert.Equal(t, 5.0, length)
}
