package depcollect

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGraph map[string][]Dependency

func (g fakeGraph) Dependencies(symbol string) []Dependency { return g[symbol] }

func TestCollectOrdersDependenciesBeforeDependents(t *testing.T) {
	g := fakeGraph{
		"main": {
			{Name: "Vec3", Section: SectionType},
			{Name: "helper", Section: SectionFunctionDecl},
		},
		"helper": {
			{Name: "Vec3", Section: SectionType},
		},
	}
	closures, err := Collect(context.Background(), g, []EntryPoint{{Name: "vertMain", Root: "main"}})
	require.NoError(t, err)
	require.Len(t, closures, 1)

	names := make([]string, len(closures[0].Ordered))
	for i, d := range closures[0].Ordered {
		names[i] = d.Name
	}
	assert.Contains(t, names, "Vec3")
	assert.Contains(t, names, "helper")
	assert.Contains(t, names, "main")

	// Vec3 (a type) must be declared before helper (a function decl).
	var vecIdx, helperIdx int
	for i, n := range names {
		if n == "Vec3" {
			vecIdx = i
		}
		if n == "helper" {
			helperIdx = i
		}
	}
	assert.Less(t, vecIdx, helperIdx)
}

func TestCollectRunsMultipleEntryPointsConcurrently(t *testing.T) {
	g := fakeGraph{
		"vert": {{Name: "Shared", Section: SectionType}},
		"frag": {{Name: "Shared", Section: SectionType}},
	}
	closures, err := Collect(context.Background(), g, []EntryPoint{
		{Name: "vertMain", Root: "vert"},
		{Name: "fragMain", Root: "frag"},
	})
	require.NoError(t, err)
	assert.Len(t, closures, 2)
}
