package parser

import (
	"testing"

	"github.com/zilchlang/zilch/pkg/ast"
)

// TestParsePrecedence_MultiplicationBindsTighterThanAddition verifies that
// `1 + 2 * 3` parses as `1 + (2 * 3)`, not `(1 + 2) * 3`.
func TestParsePrecedence_MultiplicationBindsTighterThanAddition(t *testing.T) {
	program := parseProgram(t, `1 + 2 * 3;`)
	es := program.Statements[0].(*ast.ExpressionStatement)
	top, ok := es.Expr.(*ast.BinaryExpression)
	if !ok || top.Operator != "+" {
		t.Fatalf("expected top-level '+', got %+v", es.Expr)
	}
	right, ok := top.Right.(*ast.BinaryExpression)
	if !ok || right.Operator != "*" {
		t.Fatalf("expected right-hand '*', got %+v", top.Right)
	}
}

// TestParsePrecedence_RelationalBindsLooserThanAdditive verifies that
// `a + 1 < b - 1` parses with `<` at the top.
func TestParsePrecedence_RelationalBindsLooserThanAdditive(t *testing.T) {
	program := parseProgram(t, `a + 1 < b - 1;`)
	es := program.Statements[0].(*ast.ExpressionStatement)
	top, ok := es.Expr.(*ast.BinaryExpression)
	if !ok || top.Operator != "<" {
		t.Fatalf("expected top-level '<', got %+v", es.Expr)
	}
	if _, ok := top.Left.(*ast.BinaryExpression); !ok {
		t.Fatalf("expected left-hand side to be a '+' expression, got %+v", top.Left)
	}
	if _, ok := top.Right.(*ast.BinaryExpression); !ok {
		t.Fatalf("expected right-hand side to be a '-' expression, got %+v", top.Right)
	}
}

// TestParsePrecedence_LogicalAndBindsTighterThanOr verifies
// `a || b && c` parses as `a || (b && c)`.
func TestParsePrecedence_LogicalAndBindsTighterThanOr(t *testing.T) {
	program := parseProgram(t, `a || b && c;`)
	es := program.Statements[0].(*ast.ExpressionStatement)
	top, ok := es.Expr.(*ast.BinaryExpression)
	if !ok || top.Operator != "||" {
		t.Fatalf("expected top-level '||', got %+v", es.Expr)
	}
	right, ok := top.Right.(*ast.BinaryExpression)
	if !ok || right.Operator != "&&" {
		t.Fatalf("expected right-hand '&&', got %+v", top.Right)
	}
}

// TestParsePrecedence_UnaryBindsTighterThanMultiplicative verifies
// `-a * b` parses as `(-a) * b`.
func TestParsePrecedence_UnaryBindsTighterThanMultiplicative(t *testing.T) {
	program := parseProgram(t, `-a * b;`)
	es := program.Statements[0].(*ast.ExpressionStatement)
	top, ok := es.Expr.(*ast.BinaryExpression)
	if !ok || top.Operator != "*" {
		t.Fatalf("expected top-level '*', got %+v", es.Expr)
	}
	if _, ok := top.Left.(*ast.UnaryExpression); !ok {
		t.Fatalf("expected left-hand side to be a unary '-' expression, got %+v", top.Left)
	}
}

// TestParsePrecedence_MemberCallBindsTighterThanArithmetic verifies
// `a.Length() + 1` parses with '+' at the top and a MessageSend on the left.
func TestParsePrecedence_MemberCallBindsTighterThanArithmetic(t *testing.T) {
	program := parseProgram(t, `a.Length() + 1;`)
	es := program.Statements[0].(*ast.ExpressionStatement)
	top, ok := es.Expr.(*ast.BinaryExpression)
	if !ok || top.Operator != "+" {
		t.Fatalf("expected top-level '+', got %+v", es.Expr)
	}
	if _, ok := top.Left.(*ast.MessageSend); !ok {
		t.Fatalf("expected left-hand side to be a MessageSend, got %+v", top.Left)
	}
}

// TestParsePrecedence_AssignmentIsLowestAndRightAssociative verifies
// `a = b = 1` parses as `a = (b = 1)`.
func TestParsePrecedence_AssignmentIsLowestAndRightAssociative(t *testing.T) {
	program := parseProgram(t, `a = b = 1;`)
	es := program.Statements[0].(*ast.ExpressionStatement)
	top, ok := es.Expr.(*ast.Assignment)
	if !ok || top.Operator != "=" {
		t.Fatalf("expected top-level assignment, got %+v", es.Expr)
	}
	inner, ok := top.Value.(*ast.Assignment)
	if !ok || inner.Operator != "=" {
		t.Fatalf("expected nested assignment, got %+v", top.Value)
	}
}
