package cycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectAcyclicGraphPasses(t *testing.T) {
	nodes := []Node{
		{Name: "main", Edges: []string{"helper"}},
		{Name: "helper", Edges: []string{"leaf"}},
		{Name: "leaf"},
	}
	assert.NoError(t, Detect(nodes))
}

func TestDetectDirectRecursionReportsChain(t *testing.T) {
	nodes := []Node{
		{Name: "factorial", Edges: []string{"factorial"}},
	}
	err := Detect(nodes)
	require.Error(t, err)
	var rerr *RecursionError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, []string{"factorial", "factorial"}, rerr.Chain)
}

func TestDetectIndirectRecursionReportsFullChain(t *testing.T) {
	nodes := []Node{
		{Name: "a", Edges: []string{"b"}},
		{Name: "b", Edges: []string{"c"}},
		{Name: "c", Edges: []string{"a"}},
	}
	err := Detect(nodes)
	require.Error(t, err)
	var rerr *RecursionError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, []string{"a", "b", "c", "a"}, rerr.Chain)
}
