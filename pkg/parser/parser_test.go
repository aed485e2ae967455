package parser

import (
	"testing"

	"github.com/zilchlang/zilch/pkg/ast"
)

func parseProgram(t *testing.T, input string) *ast.Program {
	t.Helper()
	p := New(input)
	program, err := p.Parse()
	if err != nil {
		t.Fatalf("parser errors: %v", p.Errors())
	}
	return program
}

func TestParse_VariableDeclaration(t *testing.T) {
	program := parseProgram(t, `var x : Integer = 5;`)
	if len(program.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(program.Statements))
	}
	decl, ok := program.Statements[0].(*ast.VariableDeclaration)
	if !ok {
		t.Fatalf("expected *ast.VariableDeclaration, got %T", program.Statements[0])
	}
	if decl.Name != "x" || decl.TypeRef.Name != "Integer" {
		t.Fatalf("unexpected declaration: %+v", decl)
	}
	lit, ok := decl.Initial.(*ast.IntegerLiteral)
	if !ok || lit.Value != 5 {
		t.Fatalf("expected initial value 5, got %+v", decl.Initial)
	}
}

func TestParse_FreeFunction(t *testing.T) {
	program := parseProgram(t, `function Factorial(n : Integer) : Integer { if (n <= 1) return 1; return n * Factorial(n - 1); }`)
	if len(program.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(program.Statements))
	}
	ms, ok := program.Statements[0].(ast.FunctionStatement)
	if !ok {
		t.Fatalf("expected ast.FunctionStatement, got %T", program.Statements[0])
	}
	if ms.Fn.Name != "Factorial" {
		t.Fatalf("expected function named Factorial, got %q", ms.Fn.Name)
	}
	if len(ms.Fn.Parameters) != 1 || ms.Fn.Parameters[0].Name != "n" {
		t.Fatalf("unexpected parameters: %+v", ms.Fn.Parameters)
	}
	if ms.Fn.ReturnType.Name != "Integer" {
		t.Fatalf("expected return type Integer, got %q", ms.Fn.ReturnType.Name)
	}
	if len(ms.Fn.Body) != 2 {
		t.Fatalf("expected 2 body statements, got %d", len(ms.Fn.Body))
	}
}

func TestParse_Class(t *testing.T) {
	program := parseProgram(t, `
class Animal {
	var Name : String;
	function Speak() : String { return "..."; }
}
class Dog : Animal {
	function Speak() : String { return "Woof"; }
}
`)
	if len(program.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(program.Statements))
	}
	animal, ok := program.Statements[0].(*ast.Class)
	if !ok || animal.Name != "Animal" {
		t.Fatalf("expected class Animal, got %+v", program.Statements[0])
	}
	if len(animal.Fields) != 1 || animal.Fields[0].Name != "Name" {
		t.Fatalf("unexpected fields: %+v", animal.Fields)
	}
	if len(animal.Methods) != 1 || animal.Methods[0].Name != "Speak" {
		t.Fatalf("unexpected methods: %+v", animal.Methods)
	}

	dog, ok := program.Statements[1].(*ast.Class)
	if !ok || dog.Name != "Dog" || dog.SuperClass != "Animal" {
		t.Fatalf("expected class Dog : Animal, got %+v", program.Statements[1])
	}
}

func TestParse_IfElse(t *testing.T) {
	program := parseProgram(t, `if (x > 0) { return 1; } else { return -1; }`)
	stmt, ok := program.Statements[0].(*ast.IfStatement)
	if !ok {
		t.Fatalf("expected *ast.IfStatement, got %T", program.Statements[0])
	}
	if len(stmt.Then) != 1 || len(stmt.Else) != 1 {
		t.Fatalf("unexpected branches: then=%d else=%d", len(stmt.Then), len(stmt.Else))
	}
}

func TestParse_While(t *testing.T) {
	program := parseProgram(t, `while (true) { break; }`)
	stmt, ok := program.Statements[0].(*ast.WhileStatement)
	if !ok {
		t.Fatalf("expected *ast.WhileStatement, got %T", program.Statements[0])
	}
	if len(stmt.Body) != 1 {
		t.Fatalf("expected 1 body statement, got %d", len(stmt.Body))
	}
	if _, ok := stmt.Body[0].(*ast.BreakStatement); !ok {
		t.Fatalf("expected break statement, got %T", stmt.Body[0])
	}
}

func TestParse_MemberAndCall(t *testing.T) {
	program := parseProgram(t, `a.Speak();`)
	es, ok := program.Statements[0].(*ast.ExpressionStatement)
	if !ok {
		t.Fatalf("expected *ast.ExpressionStatement, got %T", program.Statements[0])
	}
	msg, ok := es.Expr.(*ast.MessageSend)
	if !ok {
		t.Fatalf("expected *ast.MessageSend, got %T", es.Expr)
	}
	if msg.Selector != "Speak" {
		t.Fatalf("expected selector Speak, got %q", msg.Selector)
	}
	recv, ok := msg.Receiver.(*ast.Identifier)
	if !ok || recv.Name != "a" {
		t.Fatalf("expected receiver identifier a, got %+v", msg.Receiver)
	}
}

func TestParse_IndexExpression(t *testing.T) {
	program := parseProgram(t, `var y = arr[i];`)
	decl := program.Statements[0].(*ast.VariableDeclaration)
	idx, ok := decl.Initial.(*ast.IndexExpression)
	if !ok {
		t.Fatalf("expected *ast.IndexExpression, got %T", decl.Initial)
	}
	if _, ok := idx.Receiver.(*ast.Identifier); !ok {
		t.Fatalf("expected identifier receiver, got %+v", idx.Receiver)
	}
}

func TestParse_NewExpression(t *testing.T) {
	program := parseProgram(t, `var a = new Animal();`)
	decl := program.Statements[0].(*ast.VariableDeclaration)
	msg, ok := decl.Initial.(*ast.MessageSend)
	if !ok || msg.Selector != "new:Animal" {
		t.Fatalf("expected new:Animal message send, got %+v", decl.Initial)
	}
}

func TestParse_ReportsSyntaxErrors(t *testing.T) {
	p := New(`var = ;`)
	_, err := p.Parse()
	if err == nil {
		t.Fatalf("expected a parse error for malformed input")
	}
}
