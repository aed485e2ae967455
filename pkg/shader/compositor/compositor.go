// Package compositor assembles a fragment composition: a core vertex
// stage, zero or more material fragments, an API-perspective-output
// adapter, and a render pass, into one SPIR-V module per active stage.
// Fragments are routed by (Name, Type) key so a later fragment's [Name]
// attribute override replaces an earlier fragment's contribution rather
// than appending a duplicate.
package compositor

import (
	"fmt"
	"sort"

	"github.com/zilchlang/zilch/pkg/shader/stagereq"
)

// FragmentKey identifies one routable contribution to a composed shader:
// a logical slot name plus the type flowing through it (e.g. a vertex
// output "worldPosition" of type Real3).
type FragmentKey struct {
	Name string
	Type string
}

// Fragment is one piece of shader composition: the core vertex stage, a
// material's contribution, the API-perspective-output adapter, or a
// render-pass fixup, each targeting a specific Stage.
type Fragment struct {
	Key   FragmentKey
	Stage stagereq.Stage
	Body  string // opaque reference to the compiled member this fragment lowers; callers interpret this as fits their pipeline
}

// Composition is the full set of fragments contributing to one shader
// build, gathered from the core vertex stage, the active material, the
// API-perspective-output adapter, and the render pass.
type Composition struct {
	Core         []Fragment
	Material     []Fragment
	APIPerspective []Fragment
	RenderPass   []Fragment
}

// Module is one composed stage's resolved, de-duplicated fragment list,
// in a stable order (sorted by FragmentKey) so repeated composition of the
// same inputs produces byte-identical output.
type Module struct {
	Stage     stagereq.Stage
	Fragments []Fragment
}

// Compose routes every fragment in c by (Stage, Key), letting a later
// layer's fragment (Material overrides Core, APIPerspective overrides
// Material, RenderPass overrides APIPerspective) replace an earlier one
// at the same key -- the override order an attribute-driven [Name]
// re-target implies.
func Compose(c Composition) ([]Module, error) {
	type slot struct {
		stage stagereq.Stage
		key   FragmentKey
	}
	routed := make(map[slot]Fragment)

	apply := func(layer []Fragment) error {
		for _, f := range layer {
			if f.Stage == 0 {
				return fmt.Errorf("compositor: fragment %+v has no stage", f.Key)
			}
			routed[slot{stage: f.Stage, key: f.Key}] = f
		}
		return nil
	}
	for _, layer := range [][]Fragment{c.Core, c.Material, c.APIPerspective, c.RenderPass} {
		if err := apply(layer); err != nil {
			return nil, err
		}
	}

	byStage := make(map[stagereq.Stage][]Fragment)
	for s, f := range routed {
		byStage[s.stage] = append(byStage[s.stage], f)
	}

	var stages []stagereq.Stage
	for s := range byStage {
		stages = append(stages, s)
	}
	sort.Slice(stages, func(i, j int) bool { return stages[i] < stages[j] })

	modules := make([]Module, 0, len(stages))
	for _, s := range stages {
		frags := byStage[s]
		sort.Slice(frags, func(i, j int) bool {
			if frags[i].Key.Name != frags[j].Key.Name {
				return frags[i].Key.Name < frags[j].Key.Name
			}
			return frags[i].Key.Type < frags[j].Key.Type
		})
		modules = append(modules, Module{Stage: s, Fragments: frags})
	}
	return modules, nil
}
