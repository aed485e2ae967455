// Package ast defines the abstract syntax tree the parser produces and the
// semantic analyzer annotates in place. Every expression node embeds a Meta
// value that starts zero; package analyzer's typeExpressions step fills in
// ResultType and IO. Line and Column are not set by the parser or analyzer.
package ast

import "github.com/zilchlang/zilch/pkg/types"

// IOMode is a bitset describing whether an expression may be read as an
// rvalue, written as an lvalue, or both -- attached to every analyzed
// expression, not to the bytecode operand itself (spec section 4.3).
type IOMode byte

const (
	ReadRValue  IOMode = 1 << 0
	WriteLValue IOMode = 1 << 1
)

// Meta carries the semantic analyzer's annotations for one expression node.
type Meta struct {
	ResultType   types.Type
	IO           IOMode
	Line, Column int
}

// Node is the interface every AST node implements.
type Node interface {
	TokenLiteral() string
}

// Expression is a Node that produces a value.
type Expression interface {
	Node
	expressionNode()
	Annotations() *Meta
}

// Statement is a Node that does not itself produce a value.
type Statement interface {
	Node
	statementNode()
}

// exprBase is embedded by every concrete Expression to provide the shared
// Meta storage and satisfy Annotations without repeating it everywhere.
type exprBase struct {
	Meta Meta
}

func (e *exprBase) Annotations() *Meta { return &e.Meta }

// Program is the root node of one compiled source unit.
type Program struct {
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

// Class is a class (BoundType) definition: name, optional superclass,
// optional template parameters, fields, and methods.
type Class struct {
	Name           string
	SuperClass     string
	TemplateParams []string
	Fields         []*FieldDecl
	Methods        []*Method
	Constructors   []*Method
	Destructor     *Method
	PreConstructor *Method
	Attributes     []AttributeRef
}

func (c *Class) TokenLiteral() string { return "class" }
func (c *Class) statementNode()       {}

// FieldDecl is one member-variable declaration inside a Class body.
type FieldDecl struct {
	Name    string
	TypeRef TypeRef
	Initial Expression
}

// AttributeRef is a parsed [Name(args...)] annotation, resolved against the
// type system by the analyzer.
type AttributeRef struct {
	Name string
	Args []Expression
}

// TypeRef is an unresolved, parsed type name (possibly with template
// arguments), resolved to a types.Type by the analyzer's
// resolveInheritanceAndTemplates step.
type TypeRef struct {
	Name string
	Args []TypeRef
}

// Method represents a function or method definition.
type Method struct {
	Name       string
	Parameters []*Param
	ReturnType TypeRef
	Body       []Statement
	IsStatic   bool
	IsVirtual  bool
	IsOverride bool
}

func (m *Method) TokenLiteral() string { return "method" }

// Param is one parameter declaration.
type Param struct {
	Name    string
	TypeRef TypeRef
	ByRef   bool
}

// FunctionStatement adapts a free-function Method (which is not itself a
// Statement, since Method is also embedded inside Class) so it can sit
// directly in a Program's top-level statement list.
type FunctionStatement struct{ Fn *Method }

func (s FunctionStatement) TokenLiteral() string { return "function" }
func (s FunctionStatement) statementNode()       {}

// --- Statements ---

type ExpressionStatement struct {
	Expr Expression
}

func (s *ExpressionStatement) TokenLiteral() string { return "expr" }
func (s *ExpressionStatement) statementNode()       {}

type VariableDeclaration struct {
	Name    string
	TypeRef TypeRef
	Initial Expression
}

func (s *VariableDeclaration) TokenLiteral() string { return "var" }
func (s *VariableDeclaration) statementNode()       {}

type ReturnStatement struct {
	Value Expression // nil for a bare `return`
}

func (s *ReturnStatement) TokenLiteral() string { return "return" }
func (s *ReturnStatement) statementNode()       {}

type ThrowStatement struct {
	Value Expression
}

func (s *ThrowStatement) TokenLiteral() string { return "throw" }
func (s *ThrowStatement) statementNode()       {}

type DeleteStatement struct {
	Target Expression
}

func (s *DeleteStatement) TokenLiteral() string { return "delete" }
func (s *DeleteStatement) statementNode()       {}

type IfStatement struct {
	Condition Expression
	Then      []Statement
	Else      []Statement
}

func (s *IfStatement) TokenLiteral() string { return "if" }
func (s *IfStatement) statementNode()       {}

type WhileStatement struct {
	Condition Expression
	Body      []Statement
}

func (s *WhileStatement) TokenLiteral() string { return "while" }
func (s *WhileStatement) statementNode()       {}

type BreakStatement struct{}

func (s *BreakStatement) TokenLiteral() string { return "break" }
func (s *BreakStatement) statementNode()       {}

type ContinueStatement struct{}

func (s *ContinueStatement) TokenLiteral() string { return "continue" }
func (s *ContinueStatement) statementNode()       {}

// --- Expressions ---

type BooleanLiteral struct {
	exprBase
	Value bool
}

func (e *BooleanLiteral) TokenLiteral() string { return "bool" }
func (e *BooleanLiteral) expressionNode()      {}

type NilLiteral struct{ exprBase }

func (e *NilLiteral) TokenLiteral() string { return "null" }
func (e *NilLiteral) expressionNode()      {}

type IntegerLiteral struct {
	exprBase
	Value int64
}

func (e *IntegerLiteral) TokenLiteral() string { return "integer" }
func (e *IntegerLiteral) expressionNode()      {}

type RealLiteral struct {
	exprBase
	Value float64
}

func (e *RealLiteral) TokenLiteral() string { return "real" }
func (e *RealLiteral) expressionNode()      {}

type StringLiteral struct {
	exprBase
	Value string
	// Interpolations holds embedded expressions for a string with `${}`
	// interpolants; empty for a plain literal.
	Interpolations []Expression
}

func (e *StringLiteral) TokenLiteral() string { return "string" }
func (e *StringLiteral) expressionNode()      {}

type ArrayLiteral struct {
	exprBase
	Elements []Expression
}

func (e *ArrayLiteral) TokenLiteral() string { return "array" }
func (e *ArrayLiteral) expressionNode()      {}

type Identifier struct {
	exprBase
	Name string
}

func (e *Identifier) TokenLiteral() string { return e.Name }
func (e *Identifier) expressionNode()      {}

// BlockLiteral is an inline function/closure expression.
type BlockLiteral struct {
	exprBase
	Parameters []*Param
	Body       []Statement
}

func (e *BlockLiteral) TokenLiteral() string { return "block" }
func (e *BlockLiteral) expressionNode()      {}

// MessageSend is a method call or binary-operator dispatch: receiver,
// selector name, arguments.
type MessageSend struct {
	exprBase
	Receiver Expression
	Selector string
	Args     []Expression

	// Resolved is set by the semantic analyzer's resolveOverloads step to
	// the specific overload (or constructor, for a `new:` selector) this
	// send was committed to -- the bytecode compiler reads it directly
	// instead of re-running overload resolution.
	Resolved *types.Function
}

func (e *MessageSend) TokenLiteral() string { return e.Selector }
func (e *MessageSend) expressionNode()      {}

// BinaryExpression is an infix operator expression; the analyzer types it
// in place and the compiler lowers it directly to an arithmetic or
// comparison opcode.
type BinaryExpression struct {
	exprBase
	Left     Expression
	Operator string
	Right    Expression
}

func (e *BinaryExpression) TokenLiteral() string { return e.Operator }
func (e *BinaryExpression) expressionNode()      {}

type UnaryExpression struct {
	exprBase
	Operator string
	Operand  Expression
}

func (e *UnaryExpression) TokenLiteral() string { return e.Operator }
func (e *UnaryExpression) expressionNode()      {}

type Assignment struct {
	exprBase
	Target   Expression
	Operator string // "=", "+=", "-=", "*=", "/="
	Value    Expression
}

func (e *Assignment) TokenLiteral() string { return e.Operator }
func (e *Assignment) expressionNode()      {}

// MemberAccess is `receiver.Name`, resolved by the analyzer to a Field,
// Property, or StaticField operand.
type MemberAccess struct {
	exprBase
	Receiver Expression
	Name     string
}

func (e *MemberAccess) TokenLiteral() string { return e.Name }
func (e *MemberAccess) expressionNode()      {}

// IndexExpression is `receiver[index]`, rewritten by the analyzer's
// rewriteIndexers step into a Get/GetSet/Set MessageSend per the indexer's
// declared access.
type IndexExpression struct {
	exprBase
	Receiver Expression
	Index    Expression
}

func (e *IndexExpression) TokenLiteral() string { return "[]" }
func (e *IndexExpression) expressionNode()      {}

// TypeCast is an explicit `(Type)expr` cast; the analyzer also inserts
// nodes of this kind implicitly (insertImplicitCasts).
type TypeCast struct {
	exprBase
	Target   TypeRef
	Value    Expression
	Implicit bool
}

func (e *TypeCast) TokenLiteral() string { return "cast" }
func (e *TypeCast) expressionNode()      {}

// MultiExpression sequences several lowered expressions that together
// implement one surface-level operation (e.g. an indexer's Get then a
// compound assignment's Set). rewriteIndexers does not produce it (it emits
// Get/Set/GetSet MessageSends); the analyzer and compiler accept it when
// present.
type MultiExpression struct {
	exprBase
	Parts []Expression
}

func (e *MultiExpression) TokenLiteral() string { return "multi" }
func (e *MultiExpression) expressionNode()      {}
