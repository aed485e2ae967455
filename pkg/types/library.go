package types

import "fmt"

// StaticFieldID identifies a static field for lookup in an ExecutableState's
// static-field table. Mirrors opcode.StaticFieldID field-for-field; package
// types defines its own so callers working with *BoundType values don't
// need to round-trip through strings.
type StaticFieldID struct {
	Library string
	Type    string
	Name    string
}

func (id StaticFieldID) String() string {
	return fmt.Sprintf("%s.%s.%s", id.Library, id.Type, id.Name)
}

// Library is a named collection of types, plus the other libraries it
// depends on, forming a DAG (spec section 3.1).
type Library struct {
	Name         string
	Types        map[string]*BoundType
	Dependencies []*Library
}

// NewLibrary creates an empty library.
func NewLibrary(name string) *Library {
	return &Library{Name: name, Types: make(map[string]*BoundType)}
}

// AddType registers a type, failing if the name already exists -- type
// names must be unique within one library (spec section 3.1).
func (l *Library) AddType(t *BoundType) error {
	if _, exists := l.Types[t.Name]; exists {
		return fmt.Errorf("types: library %q already declares a type named %q", l.Name, t.Name)
	}
	l.Types[t.Name] = t
	return nil
}

// DependsOn records a dependency edge from l to dep.
func (l *Library) DependsOn(dep *Library) {
	l.Dependencies = append(l.Dependencies, dep)
}

// CycleError reports a dependency cycle discovered while flattening a
// Module. This is distinct from the shader dependency graph's own
// RecursionError in package shader/cycle -- a library DAG cycle is a
// structural module-loading error, not a runtime-recursion one.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	s := "types: library dependency cycle: "
	for i, name := range e.Chain {
		if i > 0 {
			s += " -> "
		}
		s += name
	}
	return s
}

// Module is an ordered flattening of a Library's transitive dependency DAG,
// dependencies before dependents, suitable for sequential load/link.
type Module []*Library

// BuildModule performs a topological sort (DFS, post-order) of root's
// dependency DAG, rooted at root itself last. A cycle in the DAG is
// reported as a *CycleError, distinct from any cycle the shader IR
// compiler's own detector (package shader/cycle) might find in compiled
// member bodies.
func BuildModule(root *Library) (Module, error) {
	const (
		white = iota
		gray
		black
	)
	color := make(map[*Library]int)
	var order Module
	var stack []string

	var visit func(l *Library) error
	visit = func(l *Library) error {
		switch color[l] {
		case black:
			return nil
		case gray:
			chain := append(append([]string{}, stack...), l.Name)
			return &CycleError{Chain: chain}
		}
		color[l] = gray
		stack = append(stack, l.Name)
		for _, dep := range l.Dependencies {
			if err := visit(dep); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		color[l] = black
		order = append(order, l)
		return nil
	}

	if err := visit(root); err != nil {
		return nil, err
	}
	return order, nil
}

// FindType searches every library in the module for a type by name, root
// library's own types taking precedence over dependencies in the event of
// (otherwise-prohibited) shadowing.
func (m Module) FindType(name string) (*BoundType, bool) {
	for i := len(m) - 1; i >= 0; i-- {
		if t, ok := m[i].Types[name]; ok {
			return t, true
		}
	}
	return nil, false
}
