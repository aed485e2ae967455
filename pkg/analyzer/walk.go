package analyzer

import "github.com/zilchlang/zilch/pkg/ast"

// walkStatements visits every statement in stmts and every expression
// reachable from it, calling visit on each expression node post-order
// (children before the expression that contains them) so a pass can assume
// child annotations are already settled.
func walkStatements(stmts []ast.Statement, visit func(ast.Expression) error) error {
	for _, stmt := range stmts {
		if err := walkStatement(stmt, visit); err != nil {
			return err
		}
	}
	return nil
}

func walkStatement(stmt ast.Statement, visit func(ast.Expression) error) error {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		return walkExpr(s.Expr, visit)
	case *ast.VariableDeclaration:
		if s.Initial != nil {
			return walkExpr(s.Initial, visit)
		}
	case *ast.ReturnStatement:
		if s.Value != nil {
			return walkExpr(s.Value, visit)
		}
	case *ast.ThrowStatement:
		return walkExpr(s.Value, visit)
	case *ast.DeleteStatement:
		return walkExpr(s.Target, visit)
	case *ast.IfStatement:
		if err := walkExpr(s.Condition, visit); err != nil {
			return err
		}
		if err := walkStatements(s.Then, visit); err != nil {
			return err
		}
		return walkStatements(s.Else, visit)
	case *ast.WhileStatement:
		if err := walkExpr(s.Condition, visit); err != nil {
			return err
		}
		return walkStatements(s.Body, visit)
	}
	return nil
}

// walkExpr recurses into expr's children first, then calls visit on expr
// itself.
func walkExpr(expr ast.Expression, visit func(ast.Expression) error) error {
	if expr == nil {
		return nil
	}
	switch e := expr.(type) {
	case *ast.StringLiteral:
		for _, interp := range e.Interpolations {
			if err := walkExpr(interp, visit); err != nil {
				return err
			}
		}
	case *ast.ArrayLiteral:
		for _, el := range e.Elements {
			if err := walkExpr(el, visit); err != nil {
				return err
			}
		}
	case *ast.BlockLiteral:
		if err := walkStatements(e.Body, visit); err != nil {
			return err
		}
	case *ast.MessageSend:
		if err := walkExpr(e.Receiver, visit); err != nil {
			return err
		}
		for _, arg := range e.Args {
			if err := walkExpr(arg, visit); err != nil {
				return err
			}
		}
	case *ast.BinaryExpression:
		if err := walkExpr(e.Left, visit); err != nil {
			return err
		}
		if err := walkExpr(e.Right, visit); err != nil {
			return err
		}
	case *ast.UnaryExpression:
		if err := walkExpr(e.Operand, visit); err != nil {
			return err
		}
	case *ast.Assignment:
		if err := walkExpr(e.Target, visit); err != nil {
			return err
		}
		if err := walkExpr(e.Value, visit); err != nil {
			return err
		}
	case *ast.MemberAccess:
		if err := walkExpr(e.Receiver, visit); err != nil {
			return err
		}
	case *ast.IndexExpression:
		if err := walkExpr(e.Receiver, visit); err != nil {
			return err
		}
		if err := walkExpr(e.Index, visit); err != nil {
			return err
		}
	case *ast.TypeCast:
		if err := walkExpr(e.Value, visit); err != nil {
			return err
		}
	case *ast.MultiExpression:
		for _, part := range e.Parts {
			if err := walkExpr(part, visit); err != nil {
				return err
			}
		}
	}
	return visit(expr)
}
