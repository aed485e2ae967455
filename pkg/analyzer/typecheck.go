package analyzer

import (
	"fmt"

	"github.com/zilchlang/zilch/pkg/ast"
	"github.com/zilchlang/zilch/pkg/diagnostics"
	"github.com/zilchlang/zilch/pkg/types"
)

// typeExpressions is pass 4: every expression in every function body gets
// its ast.Meta ResultType and IO filled in (Line and Column are not set).
// Overload resolution for MessageSend is deliberately left provisional here
// (the result type is Any) -- resolveOverloads is the pass that commits to
// one candidate and reports no-match errors.
func (a *Analyzer) typeExpressions(program *ast.Program) error {
	for _, fn := range a.allFunctions() {
		decl, ok := a.funcDecls[fn]
		if !ok || fn.IsNative() {
			continue
		}
		sc := newScope(fn.Owner)
		if fn.Owner != nil {
			sc.declare("this", fn.Owner)
		}
		for i, p := range decl.Parameters {
			sc.declare(p.Name, fn.Signature.Parameters[i])
		}
		if err := a.typeStatements(decl.Body, sc); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyzer) typeStatements(stmts []ast.Statement, sc *scope) error {
	for _, stmt := range stmts {
		if err := a.typeStatement(stmt, sc); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyzer) typeStatement(stmt ast.Statement, sc *scope) error {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		_, err := a.typeExpr(s.Expr, sc)
		return err
	case *ast.VariableDeclaration:
		var declared types.Type
		if s.TypeRef.Name != "" {
			t, err := a.resolveTypeRef(s.TypeRef)
			if err != nil {
				return a.report(diagnostics.ErrorEvent{Code: "E-UNKNOWN-TYPE", Reason: err.Error()})
			}
			declared = t
		}
		if s.Initial != nil {
			it, err := a.typeExpr(s.Initial, sc)
			if err != nil {
				return err
			}
			if declared == nil {
				declared = it
			}
		}
		if declared == nil {
			declared = types.TheAnyType
		}
		sc.declare(s.Name, declared)
		return nil
	case *ast.ReturnStatement:
		if s.Value != nil {
			_, err := a.typeExpr(s.Value, sc)
			return err
		}
		return nil
	case *ast.ThrowStatement:
		_, err := a.typeExpr(s.Value, sc)
		return err
	case *ast.DeleteStatement:
		_, err := a.typeExpr(s.Target, sc)
		return err
	case *ast.IfStatement:
		if _, err := a.typeExpr(s.Condition, sc); err != nil {
			return err
		}
		if err := a.typeStatements(s.Then, sc); err != nil {
			return err
		}
		return a.typeStatements(s.Else, sc)
	case *ast.WhileStatement:
		if _, err := a.typeExpr(s.Condition, sc); err != nil {
			return err
		}
		return a.typeStatements(s.Body, sc)
	case *ast.BreakStatement, *ast.ContinueStatement:
		return nil
	default:
		return nil
	}
}

// typeExpr annotates expr's Meta and returns its resolved type. Walking is
// bottom-up: operands are typed before the expression that combines them.
func (a *Analyzer) typeExpr(expr ast.Expression, sc *scope) (types.Type, error) {
	meta := expr.Annotations()
	switch e := expr.(type) {
	case *ast.BooleanLiteral:
		meta.ResultType, meta.IO = types.Boolean, ast.ReadRValue
	case *ast.NilLiteral:
		meta.ResultType, meta.IO = types.Null, ast.ReadRValue
	case *ast.IntegerLiteral:
		meta.ResultType, meta.IO = types.Integer, ast.ReadRValue
	case *ast.RealLiteral:
		meta.ResultType, meta.IO = types.Real, ast.ReadRValue
	case *ast.StringLiteral:
		for _, interp := range e.Interpolations {
			if _, err := a.typeExpr(interp, sc); err != nil {
				return nil, err
			}
		}
		meta.ResultType, meta.IO = types.String, ast.ReadRValue
	case *ast.ArrayLiteral:
		var elem types.Type = types.TheAnyType
		for i, el := range e.Elements {
			t, err := a.typeExpr(el, sc)
			if err != nil {
				return nil, err
			}
			if i == 0 {
				elem = t
			}
		}
		meta.ResultType, meta.IO = elem, ast.ReadRValue
	case *ast.Identifier:
		if t, ok := sc.lookup(e.Name); ok {
			meta.ResultType = t
		} else if t, ok := a.lookupType(e.Name); ok {
			meta.ResultType = t
		} else {
			return nil, a.report(diagnostics.ErrorEvent{
				Code:   "E-UNKNOWN-IDENT",
				Reason: fmt.Sprintf("undeclared identifier %q", e.Name),
			})
		}
		meta.IO = ast.ReadRValue | ast.WriteLValue
	case *ast.BlockLiteral:
		blockScope := newScope(sc.owner)
		for name, t := range sc.vars {
			blockScope.declare(name, t)
		}
		for _, p := range e.Parameters {
			pt, err := a.resolveTypeRef(p.TypeRef)
			if err != nil {
				return nil, a.report(diagnostics.ErrorEvent{Code: "E-UNKNOWN-TYPE", Reason: err.Error()})
			}
			blockScope.declare(p.Name, pt)
		}
		if err := a.typeStatements(e.Body, blockScope); err != nil {
			return nil, err
		}
		meta.ResultType, meta.IO = types.TheAnyType, ast.ReadRValue
	case *ast.MessageSend:
		if e.Receiver != nil {
			if _, err := a.typeExpr(e.Receiver, sc); err != nil {
				return nil, err
			}
		}
		for _, arg := range e.Args {
			if _, err := a.typeExpr(arg, sc); err != nil {
				return nil, err
			}
		}
		// Provisional result type; resolveOverloads commits to a candidate
		// and overwrites this with the chosen Function.Signature.Return.
		meta.ResultType, meta.IO = types.TheAnyType, ast.ReadRValue
	case *ast.BinaryExpression:
		lt, err := a.typeExpr(e.Left, sc)
		if err != nil {
			return nil, err
		}
		rt, err := a.typeExpr(e.Right, sc)
		if err != nil {
			return nil, err
		}
		meta.ResultType = binaryResultType(e.Operator, lt, rt)
		meta.IO = ast.ReadRValue
	case *ast.UnaryExpression:
		ot, err := a.typeExpr(e.Operand, sc)
		if err != nil {
			return nil, err
		}
		if e.Operator == "!" {
			meta.ResultType = types.Boolean
		} else {
			meta.ResultType = ot
		}
		meta.IO = ast.ReadRValue
	case *ast.Assignment:
		if _, err := a.typeExpr(e.Target, sc); err != nil {
			return nil, err
		}
		vt, err := a.typeExpr(e.Value, sc)
		if err != nil {
			return nil, err
		}
		e.Target.Annotations().IO |= ast.WriteLValue
		meta.ResultType, meta.IO = vt, ast.ReadRValue
	case *ast.MemberAccess:
		rt, err := a.typeExpr(e.Receiver, sc)
		if err != nil {
			return nil, err
		}
		meta.ResultType, meta.IO = a.memberType(rt, e.Name), ast.ReadRValue|ast.WriteLValue
	case *ast.IndexExpression:
		rt, err := a.typeExpr(e.Receiver, sc)
		if err != nil {
			return nil, err
		}
		if _, err := a.typeExpr(e.Index, sc); err != nil {
			return nil, err
		}
		meta.ResultType = elementType(rt)
		meta.IO = ast.ReadRValue | ast.WriteLValue
	case *ast.TypeCast:
		if _, err := a.typeExpr(e.Value, sc); err != nil {
			return nil, err
		}
		t, err := a.resolveTypeRef(e.Target)
		if err != nil {
			return nil, a.report(diagnostics.ErrorEvent{Code: "E-UNKNOWN-TYPE", Reason: err.Error()})
		}
		meta.ResultType, meta.IO = t, ast.ReadRValue
	case *ast.MultiExpression:
		var last types.Type = types.Void
		for _, part := range e.Parts {
			t, err := a.typeExpr(part, sc)
			if err != nil {
				return nil, err
			}
			last = t
		}
		meta.ResultType, meta.IO = last, ast.ReadRValue
	default:
		return nil, fmt.Errorf("analyzer: unhandled expression type %T", expr)
	}
	return meta.ResultType, nil
}

// memberType resolves receiver.Name against a BoundType's fields and
// properties, walking the Parent chain; anything else (vectors, matrices)
// yields Any since their members are host intrinsics, not reflectable
// fields.
func (a *Analyzer) memberType(receiver types.Type, name string) types.Type {
	bt, ok := receiver.(*types.BoundType)
	if !ok {
		return types.TheAnyType
	}
	if f, ok := bt.FindField(name); ok {
		return f.Type
	}
	for cur := bt; cur != nil; cur = cur.Parent {
		for _, p := range cur.Properties {
			if p.Name == name {
				return p.Type
			}
		}
	}
	return types.TheAnyType
}

// elementType reports the type produced by indexing receiver; for a
// BoundType this defers to its declared `Get` overload (best-effort,
// refined properly once rewriteIndexers runs), and for vectors/matrices it
// is the declared Element type.
func elementType(receiver types.Type) types.Type {
	switch t := receiver.(type) {
	case types.VectorType:
		return t.Element
	case types.MatrixType:
		return t.Element
	case *types.BoundType:
		if fns, ok := t.Functions["Get"]; ok && len(fns) > 0 {
			return fns[0].Signature.Return
		}
		return types.TheAnyType
	default:
		return types.TheAnyType
	}
}

// binaryResultType applies the Language's numeric promotion rule: Real
// dominates Integer, DoubleReal dominates Real, and comparison/logical
// operators always produce Boolean.
func binaryResultType(op string, l, r types.Type) types.Type {
	switch op {
	case "==", "!=", "<", ">", "<=", ">=", "&&", "||":
		return types.Boolean
	}
	lp, lok := l.(types.PrimitiveType)
	rp, rok := r.(types.PrimitiveType)
	if !lok || !rok {
		return types.TheAnyType
	}
	rank := map[types.Kind]int{
		types.KindByte: 0, types.KindInteger: 1, types.KindDoubleInteger: 2,
		types.KindReal: 3, types.KindDoubleReal: 4,
	}
	if rank[rp.Kind] > rank[lp.Kind] {
		return rp
	}
	return lp
}
