package analyzer

import (
	"fmt"
	"strings"

	"github.com/zilchlang/zilch/pkg/ast"
	"github.com/zilchlang/zilch/pkg/diagnostics"
	"github.com/zilchlang/zilch/pkg/types"
)

// resolveOverloads is pass 5: every MessageSend is matched against its
// candidate overload set (cached in a.overloadCache, keyed by owner/name/
// arity so a call site seen twice -- e.g. inside a loop body visited once
// per textual occurrence, not once per dynamic call -- doesn't re-rank),
// and the chosen Function's return type replaces the provisional Any
// result type typeExpressions left behind.
func (a *Analyzer) resolveOverloads(program *ast.Program) error {
	for _, fn := range a.allFunctions() {
		decl, ok := a.funcDecls[fn]
		if !ok || fn.IsNative() {
			continue
		}
		if err := walkStatements(decl.Body, a.resolveOneSend); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyzer) resolveOneSend(expr ast.Expression) error {
	send, ok := expr.(*ast.MessageSend)
	if !ok {
		return nil
	}

	if typeName, isNew := strings.CutPrefix(send.Selector, "new:"); isNew {
		t, ok := a.lookupType(typeName)
		if !ok {
			return a.report(diagnostics.ErrorEvent{
				Code:   "E-UNKNOWN-TYPE",
				Reason: fmt.Sprintf("new: unknown class %q", typeName),
			})
		}
		bt, ok := t.(*types.BoundType)
		if !ok {
			return a.report(diagnostics.ErrorEvent{
				Code:   "E-BAD-NEW",
				Reason: fmt.Sprintf("cannot construct non-class type %q", typeName),
			})
		}
		if len(bt.Constructors) > 0 {
			chosen, err := a.pickOverload(bt.Name, send.Selector, bt.Constructors, send.Args)
			if err != nil {
				return a.report(diagnostics.ErrorEvent{Code: "E-NO-OVERLOAD", Reason: err.Error()})
			}
			a.overloadCache.Put(overloadKey{owner: "$free", name: send.Selector, arity: len(send.Args)}, chosen)
			send.Resolved = chosen
		}
		send.Annotations().ResultType = bt
		return nil
	}

	var candidates []*types.Function
	owner := "$free"
	if send.Receiver == nil {
		for _, f := range a.FreeFunctions {
			if f.Name == send.Selector {
				candidates = append(candidates, f)
			}
		}
	} else {
		rt := send.Receiver.Annotations().ResultType
		bt, ok := rt.(*types.BoundType)
		if !ok {
			// Vector/matrix/primitive receivers dispatch to VM intrinsics,
			// not a user overload set; leave the provisional type in place.
			return nil
		}
		owner = bt.Name
		candidates = bt.FindFunction(send.Selector)
	}

	if len(candidates) == 0 {
		return a.report(diagnostics.ErrorEvent{
			Code:   "E-NO-OVERLOAD",
			Reason: fmt.Sprintf("no overload of %q found for %d argument(s)", send.Selector, len(send.Args)),
		})
	}

	key := overloadKey{owner: owner, name: send.Selector, arity: len(send.Args)}
	chosen, ok := a.overloadCache.Get(key)
	if !ok {
		var err error
		chosen, err = a.pickOverload(owner, send.Selector, candidates, send.Args)
		if err != nil {
			return a.report(diagnostics.ErrorEvent{Code: "E-NO-OVERLOAD", Reason: err.Error()})
		}
		a.overloadCache.Put(key, chosen)
	}
	send.Resolved = chosen
	send.Annotations().ResultType = chosen.Signature.Return
	return nil
}

// pickOverload ranks candidates by arity match and then by how many
// parameter types are an exact match against the call's argument types,
// returning the highest-scoring candidate. Ties resolve to the first
// declared candidate (declaration order), matching the Language's
// "earliest match wins" overload rule (spec section 4.4).
func (a *Analyzer) pickOverload(owner, name string, candidates []*types.Function, args []ast.Expression) (*types.Function, error) {
	var best *types.Function
	bestScore := -1
	for _, c := range candidates {
		if len(c.Signature.Parameters) != len(args) {
			continue
		}
		score := 0
		for i, p := range c.Signature.Parameters {
			if p.TypeName() == args[i].Annotations().ResultType.TypeName() {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%s.%s: no overload accepts %d argument(s)", owner, name, len(args))
	}
	return best, nil
}
