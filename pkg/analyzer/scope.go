package analyzer

import "github.com/zilchlang/zilch/pkg/types"

// scope is a single function's flat symbol table: parameters and every
// `var` declaration seen so far, in source order. The Language has no
// nested block scoping beyond shadowing-by-redeclaration, so a flat map
// keyed by name is sufficient (spec section 4.3).
type scope struct {
	owner *types.BoundType // non-nil inside an instance method, for `this`
	vars  map[string]types.Type
}

func newScope(owner *types.BoundType) *scope {
	return &scope{owner: owner, vars: make(map[string]types.Type)}
}

func (s *scope) declare(name string, t types.Type) { s.vars[name] = t }

func (s *scope) lookup(name string) (types.Type, bool) {
	t, ok := s.vars[name]
	return t, ok
}
