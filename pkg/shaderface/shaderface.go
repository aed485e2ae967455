// Package shaderface is the shader front-end's external interface (spec
// section 6.5): the composite shader definition a host submits, the
// pipeline descriptor selecting a backend and its tool/debug passes, and
// the ShaderTranslationPassResult each requested stage comes back as. It
// is the orchestration point that calls every pkg/shader/* sub-package in
// sequence -- cycle detection, stage-requirement propagation, fragment
// composition, dependency collection -- so a host never has to sequence
// those packages by hand. The module it serializes for each stage is a
// fresh, empty spirvenc.Module: Compile does not call spirvtype or
// spirvfunc, so no type or function lowering happens here.
package shaderface

import (
	"context"
	"fmt"
	"sort"

	"github.com/zilchlang/zilch/pkg/shader/compositor"
	"github.com/zilchlang/zilch/pkg/shader/cycle"
	"github.com/zilchlang/zilch/pkg/shader/depcollect"
	"github.com/zilchlang/zilch/pkg/shader/spirvenc"
	"github.com/zilchlang/zilch/pkg/shader/stagereq"
	"github.com/zilchlang/zilch/pkg/shaderpass"
)

// CompositeDefinition is the shader a host wants built: a name, the
// ordered list of fragment types contributing to it, and the three named
// member slots compositor.Composition routes by (core vertex, material,
// render pass).
type CompositeDefinition struct {
	Name           string
	FragmentTypes  []string
	CoreVertexName string
	MaterialName   string
	RenderPassName string
}

// PipelineDescriptor selects the final backend a build targets and the
// ordered tool/debug passes to run the compiled IR through. No backend
// ships in this repo (Non-goals); Backend is an opaque label a host's own
// TranslationPass implementations interpret.
type PipelineDescriptor struct {
	Backend     string
	ToolPasses  []shaderpass.TranslationPass
	DebugPasses []shaderpass.TranslationPass
}

// ReflectionData is the interface-introspection output a host tool (a
// material editor, a debugger) reads back alongside the compiled bytes.
type ReflectionData struct {
	InterfaceNames []string
	Bindings       map[string]int
	Dependencies   []depcollect.Dependency
}

// ShaderTranslationPassResult is one stage's build output: either Bytes
// holds the backend's output stream, or ErrorLog explains why it doesn't.
type ShaderTranslationPassResult struct {
	Stage      stagereq.Stage
	Bytes      []byte
	ErrorLog   string
	Reflection ReflectionData
}

// Symbol is one member of the shader call graph: its declared stage set
// (zero if it inherits from callers), the symbols it calls, and the
// dependency edges depcollect walks for it.
type Symbol struct {
	Name         string
	Declared     stagereq.StageSet
	Calls        []string
	Dependencies []depcollect.Dependency
}

// Program is the full shader call graph a CompositeDefinition's fragments
// are drawn from, plus the fragment Composition itself.
type Program struct {
	Symbols     map[string]Symbol
	Composition compositor.Composition
}

// Dependencies implements depcollect.Graph over Program's Symbols table.
func (p *Program) Dependencies(name string) []depcollect.Dependency {
	return p.Symbols[name].Dependencies
}

// entryRoot resolves which Symbol a given pipeline stage's dependency
// closure starts from: the core vertex stage walks from the vertex
// symbol, everything else from whichever fragment stage symbol owns it --
// per this repo's single-material composition model the fragment-stage
// entry point is always the material's own symbol.
func entryRoot(def CompositeDefinition, stage stagereq.Stage) string {
	switch stage {
	case stagereq.StageVertex:
		return def.CoreVertexName
	case stagereq.StageFragment:
		return def.MaterialName
	default:
		return def.RenderPassName
	}
}

// Compile runs def through the full front-end pipeline: reject recursion,
// propagate stage requirements, compose fragments into one Module per
// active stage, collect each stage's dependency closure, and run desc's
// tool/debug passes over the resulting SPIR-V module. One
// ShaderTranslationPassResult is returned per stage compositor.Compose
// produced, in the same order.
func Compile(ctx context.Context, def CompositeDefinition, prog *Program, desc PipelineDescriptor) ([]ShaderTranslationPassResult, error) {
	if err := checkAcyclic(prog); err != nil {
		return nil, err
	}

	required, err := stagereq.Propagate(stageReqSymbols(prog))
	if err != nil {
		return nil, err
	}

	modules, err := compositor.Compose(prog.Composition)
	if err != nil {
		return nil, err
	}

	entryPoints := make([]depcollect.EntryPoint, len(modules))
	for i, m := range modules {
		entryPoints[i] = depcollect.EntryPoint{Name: fmt.Sprintf("%s:%s", def.Name, m.Stage), Root: entryRoot(def, m.Stage)}
	}
	closures, err := depcollect.Collect(ctx, prog, entryPoints)
	if err != nil {
		return nil, err
	}

	results := make([]ShaderTranslationPassResult, len(modules))
	for i, m := range modules {
		mod := spirvenc.NewModule()
		results[i] = buildResult(mod, m.Stage, closures[i], required, desc)
	}
	return results, nil
}

func buildResult(mod *spirvenc.Module, stage stagereq.Stage, closure depcollect.Closure, required map[string]stagereq.StageSet, desc PipelineDescriptor) ShaderTranslationPassResult {
	names := make([]string, 0, len(closure.Ordered))
	bindings := make(map[string]int, len(closure.Ordered))
	for i, dep := range closure.Ordered {
		names = append(names, dep.Name)
		bindings[dep.Name] = i
	}

	result := ShaderTranslationPassResult{
		Stage: stage,
		Reflection: ReflectionData{
			InterfaceNames: names,
			Bindings:       bindings,
			Dependencies:   closure.Ordered,
		},
	}

	words := mod.Words(1, 5)
	bytes := make([]byte, 0, len(words)*4)
	for _, w := range words {
		bytes = append(bytes, byte(w), byte(w>>8), byte(w>>16), byte(w>>24))
	}
	result.Bytes = bytes

	for _, pass := range append(append([]shaderpass.TranslationPass{}, desc.ToolPasses...), desc.DebugPasses...) {
		out, err := pass.Run(mod)
		if err != nil {
			result.ErrorLog += fmt.Sprintf("%s: %v\n", pass.Name(), err)
			continue
		}
		result.Bytes = out
	}
	return result
}

func checkAcyclic(prog *Program) error {
	names := make([]string, 0, len(prog.Symbols))
	for name := range prog.Symbols {
		names = append(names, name)
	}
	sort.Strings(names)

	nodes := make([]cycle.Node, len(names))
	for i, name := range names {
		nodes[i] = cycle.Node{Name: name, Edges: prog.Symbols[name].Calls}
	}
	return cycle.Detect(nodes)
}

func stageReqSymbols(prog *Program) []stagereq.Symbol {
	names := make([]string, 0, len(prog.Symbols))
	for name := range prog.Symbols {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]stagereq.Symbol, len(names))
	for i, name := range names {
		s := prog.Symbols[name]
		out[i] = stagereq.Symbol{Name: s.Name, Declared: s.Declared, Calls: s.Calls}
	}
	return out
}
