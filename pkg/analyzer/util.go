package analyzer

import (
	"sort"

	"github.com/zilchlang/zilch/pkg/ast"
	"github.com/zilchlang/zilch/pkg/types"
)

// Functions exposes every Function this Analyzer's library owns, for the
// bytecode compiler to walk once Analyze has finished.
func (a *Analyzer) Functions() []*types.Function { return a.allFunctions() }

// Decl returns the ast.Method a built Function came from, so the compiler
// can walk its Body; ok is false for a native function, which has no body.
func (a *Analyzer) Decl(fn *types.Function) (*ast.Method, bool) {
	m, ok := a.funcDecls[fn]
	return m, ok
}

// allFunctions yields every Function this Analyzer's library owns:
// methods, constructors, destructors, pre-constructors of every class, plus
// every free function -- the full set later passes need to walk bodies
// for.
func (a *Analyzer) allFunctions() []*types.Function {
	var out []*types.Function
	for _, name := range a.classOrder {
		bt := a.Library.Types[name]
		for _, fnName := range sortedFuncNames(bt.Functions) {
			out = append(out, bt.Functions[fnName]...)
		}
		out = append(out, bt.Constructors...)
		if bt.Destructor != nil {
			out = append(out, bt.Destructor)
		}
		if bt.PreConstructor != nil {
			out = append(out, bt.PreConstructor)
		}
	}
	out = append(out, a.FreeFunctions...)
	return out
}

func sortedFuncNames(m map[string][]*types.Function) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
