package analyzer

import (
	"fmt"

	"github.com/zilchlang/zilch/pkg/ast"
	"github.com/zilchlang/zilch/pkg/diagnostics"
)

// rewriteIndexers is pass 7: every IndexExpression is lowered to a message
// send against the receiver's indexer overload set. Materialization is
// lazy per occurrence (the Open Questions decision recorded in the
// grounding ledger): a plain read becomes Get, a plain `arr[i] = v` becomes
// Set, and a compound `arr[i] += v` becomes a single GetSet send so the
// receiver and index expressions are evaluated exactly once even though
// the operation both reads and writes.
func (a *Analyzer) rewriteIndexers(program *ast.Program) error {
	for _, fn := range a.allFunctions() {
		decl, ok := a.funcDecls[fn]
		if !ok || fn.IsNative() {
			continue
		}
		rewriteStatements(decl.Body)
	}
	return nil
}

func rewriteStatements(stmts []ast.Statement) {
	for _, stmt := range stmts {
		rewriteStatement(stmt)
	}
}

func rewriteStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		s.Expr = rewriteExpr(s.Expr)
	case *ast.VariableDeclaration:
		if s.Initial != nil {
			s.Initial = rewriteExpr(s.Initial)
		}
	case *ast.ReturnStatement:
		if s.Value != nil {
			s.Value = rewriteExpr(s.Value)
		}
	case *ast.ThrowStatement:
		s.Value = rewriteExpr(s.Value)
	case *ast.DeleteStatement:
		s.Target = rewriteExpr(s.Target)
	case *ast.IfStatement:
		s.Condition = rewriteExpr(s.Condition)
		rewriteStatements(s.Then)
		rewriteStatements(s.Else)
	case *ast.WhileStatement:
		s.Condition = rewriteExpr(s.Condition)
		rewriteStatements(s.Body)
	}
}

// rewriteExpr rewrites expr's children in place and returns the expression
// that should replace expr itself (identical to expr except at an
// IndexExpression or an Assignment whose target is one).
func rewriteExpr(expr ast.Expression) ast.Expression {
	switch e := expr.(type) {
	case *ast.Assignment:
		if idx, ok := e.Target.(*ast.IndexExpression); ok {
			idx.Receiver = rewriteExpr(idx.Receiver)
			idx.Index = rewriteExpr(idx.Index)
			e.Value = rewriteExpr(e.Value)
			if e.Operator == "=" {
				send := &ast.MessageSend{Receiver: idx.Receiver, Selector: "Set", Args: []ast.Expression{idx.Index, e.Value}}
				*send.Annotations() = *e.Annotations()
				return send
			}
			op := e.Operator[:len(e.Operator)-1] // "+=" -> "+"
			marker := &ast.StringLiteral{Value: op}
			send := &ast.MessageSend{Receiver: idx.Receiver, Selector: "GetSet", Args: []ast.Expression{idx.Index, marker, e.Value}}
			*send.Annotations() = *e.Annotations()
			return send
		}
		e.Target = rewriteExpr(e.Target)
		e.Value = rewriteExpr(e.Value)
		return e
	case *ast.IndexExpression:
		e.Receiver = rewriteExpr(e.Receiver)
		e.Index = rewriteExpr(e.Index)
		send := &ast.MessageSend{Receiver: e.Receiver, Selector: "Get", Args: []ast.Expression{e.Index}}
		*send.Annotations() = *e.Annotations()
		return send
	case *ast.MessageSend:
		if e.Receiver != nil {
			e.Receiver = rewriteExpr(e.Receiver)
		}
		for i, arg := range e.Args {
			e.Args[i] = rewriteExpr(arg)
		}
		return e
	case *ast.BinaryExpression:
		e.Left = rewriteExpr(e.Left)
		e.Right = rewriteExpr(e.Right)
		return e
	case *ast.UnaryExpression:
		e.Operand = rewriteExpr(e.Operand)
		return e
	case *ast.MemberAccess:
		e.Receiver = rewriteExpr(e.Receiver)
		return e
	case *ast.TypeCast:
		e.Value = rewriteExpr(e.Value)
		return e
	case *ast.ArrayLiteral:
		for i, el := range e.Elements {
			e.Elements[i] = rewriteExpr(el)
		}
		return e
	case *ast.StringLiteral:
		for i, interp := range e.Interpolations {
			e.Interpolations[i] = rewriteExpr(interp)
		}
		return e
	case *ast.BlockLiteral:
		rewriteStatements(e.Body)
		return e
	case *ast.MultiExpression:
		for i, part := range e.Parts {
			e.Parts[i] = rewriteExpr(part)
		}
		return e
	default:
		return expr
	}
}

// validateControlFlow is pass 8: break/continue must appear inside a while
// loop, and a function with a non-Void return type must return a value.
// The return check is structural, not a full control-flow-graph proof: a
// body passes if it has a top-level return with a value, an if/else whose
// branches both pass the same check, or a while loop whose body contains
// such a return (the loop is not checked for whether it can exit).
func (a *Analyzer) validateControlFlow(program *ast.Program) error {
	for _, fn := range a.allFunctions() {
		decl, ok := a.funcDecls[fn]
		if !ok || fn.IsNative() {
			continue
		}
		if err := validateLoopKeywords(decl.Body, 0); err != nil {
			return a.report(diagnostics.ErrorEvent{Code: "E-BAD-CONTROL-FLOW", Reason: err.Error()})
		}
		if fn.Signature.Return.TypeName() != "Void" && !hasReturnWithValue(decl.Body) {
			return a.report(diagnostics.ErrorEvent{
				Code:   "E-MISSING-RETURN",
				Reason: fmt.Sprintf("function %q must return a value on every path", decl.Name),
			})
		}
	}
	return nil
}

func validateLoopKeywords(stmts []ast.Statement, loopDepth int) error {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.BreakStatement:
			if loopDepth == 0 {
				return fmt.Errorf("break statement outside of any while loop")
			}
		case *ast.ContinueStatement:
			if loopDepth == 0 {
				return fmt.Errorf("continue statement outside of any while loop")
			}
		case *ast.IfStatement:
			if err := validateLoopKeywords(s.Then, loopDepth); err != nil {
				return err
			}
			if err := validateLoopKeywords(s.Else, loopDepth); err != nil {
				return err
			}
		case *ast.WhileStatement:
			if err := validateLoopKeywords(s.Body, loopDepth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

func hasReturnWithValue(stmts []ast.Statement) bool {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.ReturnStatement:
			if s.Value != nil {
				return true
			}
		case *ast.IfStatement:
			if hasReturnWithValue(s.Then) && hasReturnWithValue(s.Else) && len(s.Else) > 0 {
				return true
			}
		case *ast.WhileStatement:
			if hasReturnWithValue(s.Body) {
				return true
			}
		}
	}
	return false
}
