// Package parser implements a recursive-descent parser for the Language's
// C-family surface syntax, turning a lexer.Lexer token stream into a
// pkg/ast tree.
//
// The parser keeps a two-token lookahead window (curTok/peekTok), exactly
// as a Smalltalk-style single-pass recursive-descent parser would, but the
// grammar itself is precedence-climbing over infix operators rather than
// message-send chaining, since the Language's surface syntax is
// brace-and-semicolon, not unary/binary/keyword messages.
//
// Errors accumulate in p.errors rather than aborting at the first one, so a
// caller can report every syntax error found in one pass.
package parser

import (
	"fmt"
	"strconv"

	"github.com/zilchlang/zilch/pkg/ast"
	"github.com/zilchlang/zilch/pkg/lexer"
)

// Parser is a single-use, stateful recursive-descent parser.
type Parser struct {
	l       *lexer.Lexer
	curTok  lexer.Token
	peekTok lexer.Token
	errors  []string
}

// New creates a parser for the given source, primed with two tokens of
// lookahead.
func New(input string) *Parser {
	p := &Parser{l: lexer.New(input)}
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curTok = p.peekTok
	p.peekTok = p.l.NextToken()
}

func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, fmt.Sprintf("%d:%d: %s", p.curTok.Line, p.curTok.Column, msg))
}

// Errors returns every syntax error accumulated during Parse.
func (p *Parser) Errors() []string { return p.errors }

func (p *Parser) expect(tt lexer.TokenType, what string) bool {
	if p.curTok.Type != tt {
		p.addError(fmt.Sprintf("expected %s, got %s %q", what, p.curTok.Type, p.curTok.Literal))
		return false
	}
	return true
}

// Parse parses the whole source unit: a sequence of class declarations,
// free function declarations, and top-level statements.
func (p *Parser) Parse() (*ast.Program, error) {
	program := &ast.Program{}

	for p.curTok.Type != lexer.TokenEOF {
		switch p.curTok.Type {
		case lexer.TokenClass:
			if c := p.parseClass(); c != nil {
				program.Statements = append(program.Statements, c)
			}
		case lexer.TokenFunction:
			if fn := p.parseFunctionDecl(false, false, false); fn != nil {
				program.Statements = append(program.Statements, ast.FunctionStatement{Fn: fn})
			}
		default:
			if stmt := p.parseStatement(); stmt != nil {
				program.Statements = append(program.Statements, stmt)
			} else {
				p.nextToken()
			}
		}
	}

	if len(p.errors) > 0 {
		return program, fmt.Errorf("parser errors: %v", p.errors)
	}
	return program, nil
}

// parseClass parses `class Name [: Super] { member* }`.
func (p *Parser) parseClass() *ast.Class {
	p.nextToken() // consume 'class'
	if !p.expect(lexer.TokenIdentifier, "class name") {
		return nil
	}
	class := &ast.Class{Name: p.curTok.Literal}
	p.nextToken()

	if p.curTok.Type == lexer.TokenColon {
		p.nextToken()
		if !p.expect(lexer.TokenIdentifier, "superclass name") {
			return nil
		}
		class.SuperClass = p.curTok.Literal
		p.nextToken()
	}

	if !p.expect(lexer.TokenLBrace, "'{' to open class body") {
		return nil
	}
	p.nextToken()

	for p.curTok.Type != lexer.TokenRBrace && p.curTok.Type != lexer.TokenEOF {
		p.parseClassMember(class)
	}
	if !p.expect(lexer.TokenRBrace, "'}' to close class body") {
		return nil
	}
	p.nextToken()
	return class
}

func (p *Parser) parseClassMember(class *ast.Class) {
	isStatic, isVirtual, isOverride := false, false, false
	for {
		switch p.curTok.Type {
		case lexer.TokenStatic:
			isStatic = true
			p.nextToken()
			continue
		case lexer.TokenVirtual:
			isVirtual = true
			p.nextToken()
			continue
		case lexer.TokenOverride:
			isOverride = true
			p.nextToken()
			continue
		}
		break
	}

	switch p.curTok.Type {
	case lexer.TokenFunction:
		if fn := p.parseFunctionDecl(isStatic, isVirtual, isOverride); fn != nil {
			switch fn.Name {
			case class.Name:
				class.Constructors = append(class.Constructors, fn)
			case "~" + class.Name:
				class.Destructor = fn
			default:
				class.Methods = append(class.Methods, fn)
			}
		}
	case lexer.TokenVar:
		if f := p.parseFieldDecl(); f != nil {
			class.Fields = append(class.Fields, f)
		}
	default:
		p.addError(fmt.Sprintf("unexpected token in class body: %s", p.curTok.Type))
		p.nextToken()
	}
}

func (p *Parser) parseFieldDecl() *ast.FieldDecl {
	p.nextToken() // consume 'var'
	if !p.expect(lexer.TokenIdentifier, "field name") {
		return nil
	}
	field := &ast.FieldDecl{Name: p.curTok.Literal}
	p.nextToken()

	if p.curTok.Type == lexer.TokenColon {
		p.nextToken()
		field.TypeRef = p.parseTypeRef()
	}
	if p.curTok.Type == lexer.TokenAssign {
		p.nextToken()
		field.Initial = p.parseExpression()
	}
	if p.curTok.Type == lexer.TokenSemicolon {
		p.nextToken()
	}
	return field
}

// parseTypeRef parses a type name with optional template arguments:
// `Array[Integer]`, `Integer`, `Animal`.
func (p *Parser) parseTypeRef() ast.TypeRef {
	if !p.expect(lexer.TokenIdentifier, "type name") {
		return ast.TypeRef{}
	}
	ref := ast.TypeRef{Name: p.curTok.Literal}
	p.nextToken()

	if p.curTok.Type == lexer.TokenLBracket {
		p.nextToken()
		for p.curTok.Type != lexer.TokenRBracket && p.curTok.Type != lexer.TokenEOF {
			ref.Args = append(ref.Args, p.parseTypeRef())
			if p.curTok.Type == lexer.TokenComma {
				p.nextToken()
			}
		}
		if p.curTok.Type == lexer.TokenRBracket {
			p.nextToken()
		}
	}
	return ref
}

func (p *Parser) parseFunctionDecl(isStatic, isVirtual, isOverride bool) *ast.Method {
	p.nextToken() // consume 'function'
	if !p.expect(lexer.TokenIdentifier, "function name") {
		return nil
	}
	fn := &ast.Method{Name: p.curTok.Literal, IsStatic: isStatic, IsVirtual: isVirtual, IsOverride: isOverride}
	p.nextToken()

	if !p.expect(lexer.TokenLParen, "'(' to open parameter list") {
		return nil
	}
	p.nextToken()
	for p.curTok.Type != lexer.TokenRParen && p.curTok.Type != lexer.TokenEOF {
		if !p.expect(lexer.TokenIdentifier, "parameter name") {
			return nil
		}
		param := &ast.Param{Name: p.curTok.Literal}
		p.nextToken()
		if p.curTok.Type == lexer.TokenColon {
			p.nextToken()
			param.TypeRef = p.parseTypeRef()
		}
		fn.Parameters = append(fn.Parameters, param)
		if p.curTok.Type == lexer.TokenComma {
			p.nextToken()
		}
	}
	if !p.expect(lexer.TokenRParen, "')' to close parameter list") {
		return nil
	}
	p.nextToken()

	if p.curTok.Type == lexer.TokenColon {
		p.nextToken()
		fn.ReturnType = p.parseTypeRef()
	}

	fn.Body = p.parseBlock()
	return fn
}

// parseBlock parses `{ statement* }`, consuming both braces.
func (p *Parser) parseBlock() []ast.Statement {
	if !p.expect(lexer.TokenLBrace, "'{' to open block") {
		return nil
	}
	p.nextToken()

	var stmts []ast.Statement
	for p.curTok.Type != lexer.TokenRBrace && p.curTok.Type != lexer.TokenEOF {
		if s := p.parseStatement(); s != nil {
			stmts = append(stmts, s)
		} else {
			p.nextToken()
		}
	}
	if p.curTok.Type == lexer.TokenRBrace {
		p.nextToken()
	}
	return stmts
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.curTok.Type {
	case lexer.TokenVar:
		return p.parseVariableDeclaration()
	case lexer.TokenIf:
		return p.parseIfStatement()
	case lexer.TokenWhile:
		return p.parseWhileStatement()
	case lexer.TokenReturn:
		return p.parseReturnStatement()
	case lexer.TokenBreak:
		p.nextToken()
		p.skipSemicolon()
		return &ast.BreakStatement{}
	case lexer.TokenContinue:
		p.nextToken()
		p.skipSemicolon()
		return &ast.ContinueStatement{}
	case lexer.TokenThrow:
		p.nextToken()
		val := p.parseExpression()
		p.skipSemicolon()
		return &ast.ThrowStatement{Value: val}
	case lexer.TokenDelete:
		p.nextToken()
		target := p.parseExpression()
		p.skipSemicolon()
		return &ast.DeleteStatement{Target: target}
	case lexer.TokenLBrace:
		// A bare nested block is sugar for `if (true) { ... }`.
		return &ast.IfStatement{Condition: &ast.BooleanLiteral{Value: true}, Then: p.parseBlock()}
	default:
		expr := p.parseExpression()
		if expr == nil {
			return nil
		}
		p.skipSemicolon()
		return &ast.ExpressionStatement{Expr: expr}
	}
}

func (p *Parser) skipSemicolon() {
	if p.curTok.Type == lexer.TokenSemicolon {
		p.nextToken()
	}
}

func (p *Parser) parseVariableDeclaration() ast.Statement {
	p.nextToken() // consume 'var'
	if !p.expect(lexer.TokenIdentifier, "variable name") {
		return nil
	}
	decl := &ast.VariableDeclaration{Name: p.curTok.Literal}
	p.nextToken()

	if p.curTok.Type == lexer.TokenColon {
		p.nextToken()
		decl.TypeRef = p.parseTypeRef()
	}
	if p.curTok.Type == lexer.TokenAssign {
		p.nextToken()
		decl.Initial = p.parseExpression()
	}
	p.skipSemicolon()
	return decl
}

func (p *Parser) parseIfStatement() ast.Statement {
	p.nextToken() // consume 'if'
	if !p.expect(lexer.TokenLParen, "'(' after if") {
		return nil
	}
	p.nextToken()
	cond := p.parseExpression()
	if !p.expect(lexer.TokenRParen, "')' after if condition") {
		return nil
	}
	p.nextToken()

	stmt := &ast.IfStatement{Condition: cond, Then: p.parseBlockOrSingle()}
	if p.curTok.Type == lexer.TokenElse {
		p.nextToken()
		if p.curTok.Type == lexer.TokenIf {
			stmt.Else = []ast.Statement{p.parseIfStatement()}
		} else {
			stmt.Else = p.parseBlockOrSingle()
		}
	}
	return stmt
}

// parseBlockOrSingle allows both `if (c) { ... }` and `if (c) stmt;`.
func (p *Parser) parseBlockOrSingle() []ast.Statement {
	if p.curTok.Type == lexer.TokenLBrace {
		return p.parseBlock()
	}
	if s := p.parseStatement(); s != nil {
		return []ast.Statement{s}
	}
	return nil
}

func (p *Parser) parseWhileStatement() ast.Statement {
	p.nextToken() // consume 'while'
	if !p.expect(lexer.TokenLParen, "'(' after while") {
		return nil
	}
	p.nextToken()
	cond := p.parseExpression()
	if !p.expect(lexer.TokenRParen, "')' after while condition") {
		return nil
	}
	p.nextToken()
	return &ast.WhileStatement{Condition: cond, Body: p.parseBlockOrSingle()}
}

func (p *Parser) parseReturnStatement() ast.Statement {
	p.nextToken() // consume 'return'
	if p.curTok.Type == lexer.TokenSemicolon {
		p.nextToken()
		return &ast.ReturnStatement{}
	}
	val := p.parseExpression()
	p.skipSemicolon()
	return &ast.ReturnStatement{Value: val}
}

// --- Expressions, precedence-climbing ---

func (p *Parser) parseExpression() ast.Expression {
	return p.parseAssignment()
}

func (p *Parser) parseAssignment() ast.Expression {
	left := p.parseLogicalOr()
	switch p.curTok.Type {
	case lexer.TokenAssign, lexer.TokenPlusAssign, lexer.TokenMinusAssign, lexer.TokenStarAssign, lexer.TokenSlashAssign:
		op := p.curTok.Literal
		p.nextToken()
		value := p.parseAssignment()
		return &ast.Assignment{Target: left, Operator: op, Value: value}
	}
	return left
}

func (p *Parser) parseLogicalOr() ast.Expression {
	left := p.parseLogicalAnd()
	for p.curTok.Type == lexer.TokenPipePipe {
		op := p.curTok.Literal
		p.nextToken()
		right := p.parseLogicalAnd()
		left = &ast.BinaryExpression{Left: left, Operator: op, Right: right}
	}
	return left
}

func (p *Parser) parseLogicalAnd() ast.Expression {
	left := p.parseEquality()
	for p.curTok.Type == lexer.TokenAmpAmp {
		op := p.curTok.Literal
		p.nextToken()
		right := p.parseEquality()
		left = &ast.BinaryExpression{Left: left, Operator: op, Right: right}
	}
	return left
}

func (p *Parser) parseEquality() ast.Expression {
	left := p.parseRelational()
	for p.curTok.Type == lexer.TokenEqualEqual || p.curTok.Type == lexer.TokenNotEqual {
		op := p.curTok.Literal
		p.nextToken()
		right := p.parseRelational()
		left = &ast.BinaryExpression{Left: left, Operator: op, Right: right}
	}
	return left
}

func (p *Parser) parseRelational() ast.Expression {
	left := p.parseAdditive()
	for p.curTok.Type == lexer.TokenLess || p.curTok.Type == lexer.TokenGreater ||
		p.curTok.Type == lexer.TokenLessEq || p.curTok.Type == lexer.TokenGreaterEq {
		op := p.curTok.Literal
		p.nextToken()
		right := p.parseAdditive()
		left = &ast.BinaryExpression{Left: left, Operator: op, Right: right}
	}
	return left
}

func (p *Parser) parseAdditive() ast.Expression {
	left := p.parseMultiplicative()
	for p.curTok.Type == lexer.TokenPlus || p.curTok.Type == lexer.TokenMinus {
		op := p.curTok.Literal
		p.nextToken()
		right := p.parseMultiplicative()
		left = &ast.BinaryExpression{Left: left, Operator: op, Right: right}
	}
	return left
}

func (p *Parser) parseMultiplicative() ast.Expression {
	left := p.parseUnary()
	for p.curTok.Type == lexer.TokenStar || p.curTok.Type == lexer.TokenSlash || p.curTok.Type == lexer.TokenPercent {
		op := p.curTok.Literal
		p.nextToken()
		right := p.parseUnary()
		left = &ast.BinaryExpression{Left: left, Operator: op, Right: right}
	}
	return left
}

func (p *Parser) parseUnary() ast.Expression {
	if p.curTok.Type == lexer.TokenBang || p.curTok.Type == lexer.TokenMinus {
		op := p.curTok.Literal
		p.nextToken()
		operand := p.parseUnary()
		return &ast.UnaryExpression{Operator: op, Operand: operand}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() ast.Expression {
	expr := p.parsePrimary()
	for {
		switch p.curTok.Type {
		case lexer.TokenDot:
			p.nextToken()
			if !p.expect(lexer.TokenIdentifier, "member name after '.'") {
				return expr
			}
			name := p.curTok.Literal
			p.nextToken()
			if p.curTok.Type == lexer.TokenLParen {
				args := p.parseArgs()
				expr = &ast.MessageSend{Receiver: expr, Selector: name, Args: args}
			} else {
				expr = &ast.MemberAccess{Receiver: expr, Name: name}
			}
		case lexer.TokenLBracket:
			p.nextToken()
			index := p.parseExpression()
			if p.curTok.Type == lexer.TokenRBracket {
				p.nextToken()
			}
			expr = &ast.IndexExpression{Receiver: expr, Index: index}
		case lexer.TokenLParen:
			args := p.parseArgs()
			if id, ok := expr.(*ast.Identifier); ok {
				expr = &ast.MessageSend{Receiver: nil, Selector: id.Name, Args: args}
			} else {
				expr = &ast.MessageSend{Receiver: expr, Selector: "()", Args: args}
			}
		default:
			return expr
		}
	}
}

func (p *Parser) parseArgs() []ast.Expression {
	p.nextToken() // consume '('
	var args []ast.Expression
	for p.curTok.Type != lexer.TokenRParen && p.curTok.Type != lexer.TokenEOF {
		if a := p.parseExpression(); a != nil {
			args = append(args, a)
		}
		if p.curTok.Type == lexer.TokenComma {
			p.nextToken()
		}
	}
	if p.curTok.Type == lexer.TokenRParen {
		p.nextToken()
	}
	return args
}

func (p *Parser) parsePrimary() ast.Expression {
	switch p.curTok.Type {
	case lexer.TokenInteger:
		return p.parseIntegerLiteral()
	case lexer.TokenFloat:
		return p.parseFloatLiteral()
	case lexer.TokenString:
		v := p.curTok.Literal
		p.nextToken()
		return &ast.StringLiteral{Value: v}
	case lexer.TokenTrue:
		p.nextToken()
		return &ast.BooleanLiteral{Value: true}
	case lexer.TokenFalse:
		p.nextToken()
		return &ast.BooleanLiteral{Value: false}
	case lexer.TokenNull:
		p.nextToken()
		return &ast.NilLiteral{}
	case lexer.TokenThis:
		p.nextToken()
		return &ast.Identifier{Name: "this"}
	case lexer.TokenIdentifier:
		name := p.curTok.Literal
		p.nextToken()
		return &ast.Identifier{Name: name}
	case lexer.TokenLParen:
		p.nextToken()
		expr := p.parseExpression()
		if p.curTok.Type == lexer.TokenRParen {
			p.nextToken()
		}
		return expr
	case lexer.TokenNew:
		p.nextToken()
		typeRef := p.parseTypeRef()
		var args []ast.Expression
		if p.curTok.Type == lexer.TokenLParen {
			args = p.parseArgs()
		}
		return &ast.MessageSend{Receiver: nil, Selector: "new:" + typeRef.Name, Args: args}
	case lexer.TokenLBracket:
		p.nextToken()
		var elems []ast.Expression
		for p.curTok.Type != lexer.TokenRBracket && p.curTok.Type != lexer.TokenEOF {
			if e := p.parseExpression(); e != nil {
				elems = append(elems, e)
			}
			if p.curTok.Type == lexer.TokenComma {
				p.nextToken()
			}
		}
		if p.curTok.Type == lexer.TokenRBracket {
			p.nextToken()
		}
		return &ast.ArrayLiteral{Elements: elems}
	default:
		p.addError(fmt.Sprintf("unexpected token: %s %q", p.curTok.Type, p.curTok.Literal))
		p.nextToken()
		return nil
	}
}

func (p *Parser) parseIntegerLiteral() ast.Expression {
	value, err := strconv.ParseInt(p.curTok.Literal, 10, 64)
	if err != nil {
		p.addError(fmt.Sprintf("could not parse %q as integer", p.curTok.Literal))
		p.nextToken()
		return nil
	}
	p.nextToken()
	return &ast.IntegerLiteral{Value: value}
}

func (p *Parser) parseFloatLiteral() ast.Expression {
	value, err := strconv.ParseFloat(p.curTok.Literal, 64)
	if err != nil {
		p.addError(fmt.Sprintf("could not parse %q as a real", p.curTok.Literal))
		p.nextToken()
		return nil
	}
	p.nextToken()
	return &ast.RealLiteral{Value: value}
}
