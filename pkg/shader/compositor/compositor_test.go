package compositor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zilchlang/zilch/pkg/shader/stagereq"
)

func TestComposeMaterialOverridesCore(t *testing.T) {
	key := FragmentKey{Name: "albedo", Type: "Real3"}
	c := Composition{
		Core:     []Fragment{{Key: key, Stage: stagereq.StageFragment, Body: "core"}},
		Material: []Fragment{{Key: key, Stage: stagereq.StageFragment, Body: "material"}},
	}
	modules, err := Compose(c)
	require.NoError(t, err)
	require.Len(t, modules, 1)
	require.Len(t, modules[0].Fragments, 1)
	assert.Equal(t, "material", modules[0].Fragments[0].Body)
}

func TestComposeGroupsByStage(t *testing.T) {
	c := Composition{
		Core: []Fragment{
			{Key: FragmentKey{Name: "position", Type: "Real3"}, Stage: stagereq.StageVertex, Body: "v"},
			{Key: FragmentKey{Name: "color", Type: "Real3"}, Stage: stagereq.StageFragment, Body: "f"},
		},
	}
	modules, err := Compose(c)
	require.NoError(t, err)
	assert.Len(t, modules, 2)
}

func TestComposeRejectsFragmentWithNoStage(t *testing.T) {
	c := Composition{Core: []Fragment{{Key: FragmentKey{Name: "x"}}}}
	_, err := Compose(c)
	assert.Error(t, err)
}
