package lexer

import "testing"

func runTokenTest(t *testing.T, input string, tests []struct {
	expectedType    TokenType
	expectedLiteral string
}) {
	t.Helper()
	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q", i, tt.expectedType, tok.Type)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q", i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestNextToken_BasicTokens(t *testing.T) {
	input := `; , : . ( ) { } [ ]`

	runTokenTest(t, input, []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenSemicolon, ";"},
		{TokenComma, ","},
		{TokenColon, ":"},
		{TokenDot, "."},
		{TokenLParen, "("},
		{TokenRParen, ")"},
		{TokenLBrace, "{"},
		{TokenRBrace, "}"},
		{TokenLBracket, "["},
		{TokenRBracket, "]"},
		{TokenEOF, ""},
	})
}

func TestNextToken_Operators(t *testing.T) {
	input := `+ - * / % < > <= >= == != = += -= *= /= && || !`

	runTokenTest(t, input, []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenPlus, "+"},
		{TokenMinus, "-"},
		{TokenStar, "*"},
		{TokenSlash, "/"},
		{TokenPercent, "%"},
		{TokenLess, "<"},
		{TokenGreater, ">"},
		{TokenLessEq, "<="},
		{TokenGreaterEq, ">="},
		{TokenEqualEqual, "=="},
		{TokenNotEqual, "!="},
		{TokenAssign, "="},
		{TokenPlusAssign, "+="},
		{TokenMinusAssign, "-="},
		{TokenStarAssign, "*="},
		{TokenSlashAssign, "/="},
		{TokenAmpAmp, "&&"},
		{TokenPipePipe, "||"},
		{TokenBang, "!"},
		{TokenEOF, ""},
	})
}

func TestNextToken_Numbers(t *testing.T) {
	input := `42 3.14 -17 -2.5 100`

	runTokenTest(t, input, []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenInteger, "42"},
		{TokenFloat, "3.14"},
		{TokenInteger, "-17"},
		{TokenFloat, "-2.5"},
		{TokenInteger, "100"},
		{TokenEOF, ""},
	})
}

func TestNextToken_Strings(t *testing.T) {
	input := `"Hello, World!" "test" ""`

	runTokenTest(t, input, []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenString, "Hello, World!"},
		{TokenString, "test"},
		{TokenString, ""},
		{TokenEOF, ""},
	})
}

func TestNextToken_Keywords(t *testing.T) {
	input := `true false null class function var if else while return break continue throw delete this new timeout static virtual override get set`

	runTokenTest(t, input, []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenTrue, "true"},
		{TokenFalse, "false"},
		{TokenNull, "null"},
		{TokenClass, "class"},
		{TokenFunction, "function"},
		{TokenVar, "var"},
		{TokenIf, "if"},
		{TokenElse, "else"},
		{TokenWhile, "while"},
		{TokenReturn, "return"},
		{TokenBreak, "break"},
		{TokenContinue, "continue"},
		{TokenThrow, "throw"},
		{TokenDelete, "delete"},
		{TokenThis, "this"},
		{TokenNew, "new"},
		{TokenTimeout, "timeout"},
		{TokenStatic, "static"},
		{TokenVirtual, "virtual"},
		{TokenOverride, "override"},
		{TokenGet, "get"},
		{TokenSet, "set"},
		{TokenEOF, ""},
	})
}

func TestNextToken_Identifiers(t *testing.T) {
	input := `x count Point println isTrue`

	runTokenTest(t, input, []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenIdentifier, "x"},
		{TokenIdentifier, "count"},
		{TokenIdentifier, "Point"},
		{TokenIdentifier, "println"},
		{TokenIdentifier, "isTrue"},
		{TokenEOF, ""},
	})
}

func TestNextToken_Comments(t *testing.T) {
	input := "x // a line comment\ny /* a block\ncomment */ z"

	runTokenTest(t, input, []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenIdentifier, "x"},
		{TokenIdentifier, "y"},
		{TokenIdentifier, "z"},
		{TokenEOF, ""},
	})
}

func TestNextToken_Factorial(t *testing.T) {
	input := `function Factorial(n : Integer) : Integer { if (n <= 1) return 1; return n * Factorial(n - 1); }`

	l := New(input)
	var got []TokenType
	for {
		tok := l.NextToken()
		got = append(got, tok.Type)
		if tok.Type == TokenEOF {
			break
		}
	}

	want := []TokenType{
		TokenFunction, TokenIdentifier, TokenLParen, TokenIdentifier, TokenColon, TokenIdentifier, TokenRParen,
		TokenColon, TokenIdentifier, TokenLBrace,
		TokenIf, TokenLParen, TokenIdentifier, TokenLessEq, TokenInteger, TokenRParen, TokenReturn, TokenInteger, TokenSemicolon,
		TokenReturn, TokenIdentifier, TokenStar, TokenIdentifier, TokenLParen, TokenIdentifier, TokenMinus, TokenInteger, TokenRParen, TokenSemicolon,
		TokenRBrace, TokenEOF,
	}
	if len(got) != len(want) {
		t.Fatalf("token count mismatch: got %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestTokenize_StopsOnIllegalToken(t *testing.T) {
	l := New("x @ y")
	_, err := l.Tokenize()
	if err == nil {
		t.Fatalf("expected an error for an illegal token, got nil")
	}
}
