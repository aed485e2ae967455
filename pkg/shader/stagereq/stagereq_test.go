package stagereq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropagateInheritsFromEntryPoint(t *testing.T) {
	symbols := []Symbol{
		{Name: "fragMain", Declared: StageSet(StageFragment), Calls: []string{"sampleTexture"}},
		{Name: "sampleTexture"},
	}
	required, err := Propagate(symbols)
	require.NoError(t, err)
	assert.True(t, required["sampleTexture"].Has(StageFragment))
}

func TestPropagateFlagsUnderDeclaredSymbol(t *testing.T) {
	symbols := []Symbol{
		{Name: "vertMain", Declared: StageSet(StageVertex), Calls: []string{"shared"}},
		{Name: "fragMain", Declared: StageSet(StageFragment), Calls: []string{"shared"}},
		{Name: "shared", Declared: StageSet(StageVertex)},
	}
	_, err := Propagate(symbols)
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "shared", verr.Symbol)
}
