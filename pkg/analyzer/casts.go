package analyzer

import (
	"github.com/zilchlang/zilch/pkg/ast"
	"github.com/zilchlang/zilch/pkg/conv"
	"github.com/zilchlang/zilch/pkg/types"
)

// insertImplicitCasts is pass 6: every place an expression of one type
// flows into a slot expecting another (a variable's declared type, a
// return statement's declared return type, a call argument's parameter
// type) gets wrapped in an implicit ast.TypeCast when the conversion is
// allowed, so the compiler never has to make a widening/narrowing decision
// itself (spec section 4.4).
func (a *Analyzer) insertImplicitCasts(program *ast.Program) error {
	for _, fn := range a.allFunctions() {
		decl, ok := a.funcDecls[fn]
		if !ok || fn.IsNative() {
			continue
		}
		a.castStatements(decl.Body, fn.Signature.Return)
	}
	return nil
}

func (a *Analyzer) castStatements(stmts []ast.Statement, returnType types.Type) {
	for _, stmt := range stmts {
		a.castStatement(stmt, returnType)
	}
}

func (a *Analyzer) castStatement(stmt ast.Statement, returnType types.Type) {
	switch s := stmt.(type) {
	case *ast.VariableDeclaration:
		if s.Initial == nil {
			return
		}
		a.castCallArgs(s.Initial)
		if t, err := a.resolveTypeRef(s.TypeRef); err == nil {
			s.Initial = a.maybeCast(s.Initial, t)
		}
	case *ast.ReturnStatement:
		if s.Value == nil {
			return
		}
		a.castCallArgs(s.Value)
		s.Value = a.maybeCast(s.Value, returnType)
	case *ast.ExpressionStatement:
		a.castCallArgs(s.Expr)
		if asgn, ok := s.Expr.(*ast.Assignment); ok {
			a.castAssignment(asgn)
		}
	case *ast.ThrowStatement:
		a.castCallArgs(s.Value)
	case *ast.DeleteStatement:
		a.castCallArgs(s.Target)
	case *ast.IfStatement:
		a.castCallArgs(s.Condition)
		a.castStatements(s.Then, returnType)
		a.castStatements(s.Else, returnType)
	case *ast.WhileStatement:
		a.castCallArgs(s.Condition)
		a.castStatements(s.Body, returnType)
	}
}

func (a *Analyzer) castAssignment(asgn *ast.Assignment) {
	targetType := asgn.Target.Annotations().ResultType
	if targetType != nil {
		asgn.Value = a.maybeCast(asgn.Value, targetType)
	}
}

// castCallArgs walks every MessageSend reachable from expr and rewraps its
// arguments against the resolved candidate's declared parameter types.
func (a *Analyzer) castCallArgs(expr ast.Expression) {
	_ = walkExpr(expr, func(e ast.Expression) error {
		send, ok := e.(*ast.MessageSend)
		if !ok {
			return nil
		}
		owner := "$free"
		if send.Receiver != nil {
			if bt, ok := send.Receiver.Annotations().ResultType.(*types.BoundType); ok {
				owner = bt.Name
			}
		}
		key := overloadKey{owner: owner, name: send.Selector, arity: len(send.Args)}
		fn, ok := a.overloadCache.Get(key)
		if !ok || fn == nil {
			return nil
		}
		for i, p := range fn.Signature.Parameters {
			if i < len(send.Args) {
				send.Args[i] = a.maybeCast(send.Args[i], p)
			}
		}
		return nil
	})
}

// maybeCast wraps expr in an implicit TypeCast if its resolved type differs
// from want and the conversion is one the Language allows implicitly:
// numeric widening, and any concrete type up to Any.
func (a *Analyzer) maybeCast(expr ast.Expression, want types.Type) ast.Expression {
	if want == nil || expr == nil {
		return expr
	}
	got := expr.Annotations().ResultType
	if got == nil || got.TypeName() == want.TypeName() {
		return expr
	}
	if !conv.ImplicitlyConvertible(got, want) {
		return expr
	}
	cast := &ast.TypeCast{Value: expr, Implicit: true}
	cast.Annotations().ResultType = want
	cast.Annotations().IO = ast.ReadRValue
	return cast
}
