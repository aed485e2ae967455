// Package depcollect computes the transitive-closure dependency set a
// SPIR-V module needs in valid declaration order: types, constants,
// globals, imports, function declarations, function bodies. When a
// single build requests more than one entry point, each entry point's
// closure is collected concurrently via errgroup (spec section 3 Domain
// Stack), since the collectors are read-only over a shared, already-built
// types.Module and never mutate shared state themselves.
package depcollect

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Section names the declaration-order bucket a dependency belongs to.
type Section int

const (
	SectionType Section = iota
	SectionConstant
	SectionGlobal
	SectionImport
	SectionFunctionDecl
	SectionFunctionBody
)

// Dependency is one symbol an entry point's closure requires.
type Dependency struct {
	Name    string
	Section Section
}

// Graph supplies the edges depcollect walks: Dependencies returns the direct
// dependencies of a symbol name engaged by entry-point collection.
type Graph interface {
	Dependencies(symbol string) []Dependency
}

// EntryPoint is one requested shader entry point: the root symbol its
// dependency closure starts from.
type EntryPoint struct {
	Name string
	Root string
}

// Closure is one entry point's fully-collected, declaration-ordered
// dependency list.
type Closure struct {
	EntryPoint EntryPoint
	Ordered    []Dependency
}

// Collect computes every entry point's closure. With exactly one entry
// point it runs inline; with more, each closure is computed on its own
// errgroup goroutine since graph traversal never mutates g and every
// entry point's Closure is independent.
func Collect(ctx context.Context, g Graph, entryPoints []EntryPoint) ([]Closure, error) {
	results := make([]Closure, len(entryPoints))
	if len(entryPoints) <= 1 {
		for i, ep := range entryPoints {
			results[i] = Closure{EntryPoint: ep, Ordered: collectOne(g, ep.Root)}
		}
		return results, nil
	}

	eg, _ := errgroup.WithContext(ctx)
	for i, ep := range entryPoints {
		i, ep := i, ep
		eg.Go(func() error {
			results[i] = Closure{EntryPoint: ep, Ordered: collectOne(g, ep.Root)}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// collectOne walks root's transitive dependency graph and returns it in
// valid SPIR-V declaration order: every Section in increasing order, and
// within a section, dependencies-before-dependents (a stable topological
// order so repeated collection of the same root is deterministic).
func collectOne(g Graph, root string) []Dependency {
	discoveryIndex := make(map[string]int)
	var order []Dependency
	visiting := make(map[string]bool)

	record := func(d Dependency) {
		if _, ok := discoveryIndex[d.Name]; ok {
			return
		}
		discoveryIndex[d.Name] = len(order)
		order = append(order, d)
	}

	var visit func(name string)
	visit = func(name string) {
		if visiting[name] {
			return // already on the stack; a cycle here is cycle's job to report, not depcollect's
		}
		visiting[name] = true
		for _, dep := range g.Dependencies(name) {
			visit(dep.Name)
			record(dep)
		}
		visiting[name] = false
	}
	visit(root)
	record(Dependency{Name: root, Section: SectionFunctionBody})

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].Section != order[j].Section {
			return order[i].Section < order[j].Section
		}
		return discoveryIndex[order[i].Name] < discoveryIndex[order[j].Name]
	})
	return order
}
