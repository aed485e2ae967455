package shaderface

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zilchlang/zilch/pkg/shader/compositor"
	"github.com/zilchlang/zilch/pkg/shader/depcollect"
	"github.com/zilchlang/zilch/pkg/shader/spirvenc"
	"github.com/zilchlang/zilch/pkg/shader/stagereq"
	"github.com/zilchlang/zilch/pkg/shaderpass"
)

type upperPass struct{ calls int }

func (p *upperPass) Name() string { return "upper" }
func (p *upperPass) Run(mod *spirvenc.Module) ([]byte, error) {
	p.calls++
	return []byte("ok"), nil
}

func testProgram() *Program {
	return &Program{
		Symbols: map[string]Symbol{
			"VertexMain": {
				Name:     "VertexMain",
				Declared: stagereq.StageSet(stagereq.StageVertex),
				Calls:    []string{"Helper"},
				Dependencies: []depcollect.Dependency{
					{Name: "Helper", Section: depcollect.SectionFunctionDecl},
				},
			},
			"Helper": {Name: "Helper"},
			"FragmentMain": {
				Name:     "FragmentMain",
				Declared: stagereq.StageSet(stagereq.StageFragment),
			},
		},
		Composition: compositor.Composition{
			Core: []compositor.Fragment{
				{Key: compositor.FragmentKey{Name: "position", Type: "Real3"}, Stage: stagereq.StageVertex, Body: "VertexMain"},
				{Key: compositor.FragmentKey{Name: "color", Type: "Real3"}, Stage: stagereq.StageFragment, Body: "FragmentMain"},
			},
		},
	}
}

func TestCompileProducesOneResultPerActiveStage(t *testing.T) {
	def := CompositeDefinition{
		Name:           "Unlit",
		CoreVertexName: "VertexMain",
		MaterialName:   "FragmentMain",
	}
	pass := &upperPass{}
	results, err := Compile(context.Background(), def, testProgram(), PipelineDescriptor{
		Backend:    "spirv",
		ToolPasses: []shaderpass.TranslationPass{pass},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 2, pass.calls)
	for _, r := range results {
		assert.Empty(t, r.ErrorLog)
		assert.Equal(t, []byte("ok"), r.Bytes)
	}
}

func TestCompileRejectsRecursiveShaderGraph(t *testing.T) {
	prog := &Program{
		Symbols: map[string]Symbol{
			"A": {Name: "A", Declared: stagereq.StageSet(stagereq.StageVertex), Calls: []string{"B"}},
			"B": {Name: "B", Calls: []string{"A"}},
		},
		Composition: compositor.Composition{
			Core: []compositor.Fragment{{Key: compositor.FragmentKey{Name: "p"}, Stage: stagereq.StageVertex, Body: "A"}},
		},
	}
	def := CompositeDefinition{Name: "Broken", CoreVertexName: "A"}
	_, err := Compile(context.Background(), def, prog, PipelineDescriptor{})
	assert.Error(t, err)
}
