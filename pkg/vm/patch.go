package vm

import (
	"fmt"

	"github.com/dolthub/swiss"

	"github.com/zilchlang/zilch/pkg/types"
)

// PatchTable records live-patch replacements: a previously-loaded Function
// or BoundType swapped for a newer compiled version without restarting the
// ExecutableState (spec section 4.3 Patching). Lookups happen on every
// dispatch and every CreateType, so both tables are swiss.Map for the same
// reason the analyzer's overload cache is: open-addressed lookup beats the
// stdlib map under this kind of hot-path, pointer-keyed traffic.
type PatchTable struct {
	Functions *swiss.Map[*types.Function, *types.Function]
	Types     *swiss.Map[*types.BoundType, *types.BoundType]
}

// NewPatchTable creates an empty patch table.
func NewPatchTable() *PatchTable {
	return &PatchTable{
		Functions: swiss.NewMap[*types.Function, *types.Function](8),
		Types:     swiss.NewMap[*types.BoundType, *types.BoundType](8),
	}
}

// ResolveFunction returns the live replacement for fn, if one has been
// patched in, or fn itself otherwise.
func (p *PatchTable) ResolveFunction(fn *types.Function) *types.Function {
	if repl, ok := p.Functions.Get(fn); ok {
		return repl
	}
	return fn
}

// ResolveType returns the live replacement for bt, if one has been patched
// in, or bt itself otherwise.
func (p *PatchTable) ResolveType(bt *types.BoundType) *types.BoundType {
	if repl, ok := p.Types.Get(bt); ok {
		return repl
	}
	return bt
}

// PatchFunction installs a live replacement for old. Legal only when the
// owning ExecutableState has no frames currently executing (spec section
// 4.3: "patching is legal only when the call stack is empty").
func (es *ExecutableState) PatchFunction(old, replacement *types.Function) error {
	if len(es.frames) != 0 {
		return fmt.Errorf("vm: cannot patch a function while %d frame(s) are active", len(es.frames))
	}
	es.Patched.Functions.Put(old, replacement)
	return nil
}

// PatchType installs a live replacement for old. Same call-stack-empty
// restriction as PatchFunction.
func (es *ExecutableState) PatchType(old, replacement *types.BoundType) error {
	if len(es.frames) != 0 {
		return fmt.Errorf("vm: cannot patch a type while %d frame(s) are active", len(es.frames))
	}
	es.Patched.Types.Put(old, replacement)
	return nil
}
