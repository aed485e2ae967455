package compile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileFreeFunctionProducesRunnableLibrary(t *testing.T) {
	src := Source{
		Origin: "factorial.zilch",
		Code:   `function Factorial(n : Integer) : Integer { if (n <= 1) return 1; return n * Factorial(n - 1); }`,
	}
	result := Compile(src, Options{})
	require.Empty(t, result.Errors)
	require.NotNil(t, result.Library)

	fns := result.Library.Types
	_ = fns
}

func TestCompileSyntaxErrorReportsParseDiagnostic(t *testing.T) {
	src := Source{Origin: "bad.zilch", Code: `function ( { `}
	result := Compile(src, Options{})
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, "CS0001", result.Errors[0].Code)
	assert.Equal(t, "bad.zilch", result.Errors[0].Primary.Origin)
}

func TestCompileLibraryNameDefaultsToOrigin(t *testing.T) {
	src := Source{Origin: "widget.zilch", Code: `var x : Integer = 1;`}
	result := Compile(src, Options{})
	require.NotNil(t, result.Library)
	assert.Equal(t, "widget.zilch", result.Library.Name)
}
