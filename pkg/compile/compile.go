// Package compile wires the lexer, parser, semantic analyzer, and bytecode
// compiler into the single entry point a host (the CLI, a test, or
// eventually the debugger) calls to turn one source unit into a linkable
// types.Library: lexer.New -> parser.New -> analyzer.New -> compiler.New,
// in that order, matching the teacher's cmd/smog driving the same four
// stages by hand.
package compile

import (
	"fmt"

	"github.com/zilchlang/zilch/pkg/analyzer"
	"github.com/zilchlang/zilch/pkg/compiler"
	"github.com/zilchlang/zilch/pkg/diagnostics"
	"github.com/zilchlang/zilch/pkg/parser"
	"github.com/zilchlang/zilch/pkg/types"
)

// Source is one unit of input: Origin labels it for diagnostics (a file
// path, "<repl>", ...), Code is the text, and UserData lets a host thread
// its own bookkeeping through a build without compile needing to know its
// shape.
type Source struct {
	Origin   string
	Code     string
	UserData any
}

// Result is what Compile hands back: either a populated Library ready to
// link into a Module and run, or the diagnostics explaining why it isn't.
type Result struct {
	Library *types.Library
	Errors  []diagnostics.ErrorEvent
}

// Options configures a Compile call.
type Options struct {
	// LibraryName names the Library being built; defaults to src.Origin.
	LibraryName string

	// Module is the set of already-built dependency libraries src's code
	// may reference (Array, System, and any other previously compiled
	// library). A nil Module compiles against the empty dependency set.
	Module types.Module

	// Tolerant, when true, keeps the analyzer accumulating diagnostics
	// past the first error instead of aborting the build (spec section
	// 4.4's "Failure semantics").
	Tolerant bool
}

// Compile runs src through the full pipeline and returns the Library it
// produced. A parse error aborts before the analyzer ever runs, since an
// ast.Program with syntax errors in it isn't safe to walk; an analyzer or
// compiler error is reported as a diagnostics.ErrorEvent tagged with
// src.Origin, appended after whatever events the analyzer had already
// queued on its Errors channel (which includes the event behind an
// analyzer error).
func Compile(src Source, opts Options) Result {
	name := opts.LibraryName
	if name == "" {
		name = src.Origin
	}
	lib := types.NewLibrary(name)

	p := parser.New(src.Code)
	program, err := p.Parse()
	if err != nil {
		return Result{Library: lib, Errors: []diagnostics.ErrorEvent{parseError(src.Origin, err)}}
	}

	az := analyzer.New(lib, opts.Module, opts.Tolerant)
	errs := drainAsync(az.Errors())
	if err := az.Analyze(program); err != nil {
		return Result{Library: lib, Errors: append(errs(), analyzeError(src.Origin, err))}
	}

	c := compiler.New()
	if err := c.CompileLibrary(az); err != nil {
		return Result{Library: lib, Errors: append(errs(), analyzeError(src.Origin, err))}
	}

	return Result{Library: lib, Errors: errs()}
}

// drainAsync returns a function that collects whatever has already been
// sent on ch without blocking, used to flush an Analyzer's Errors channel
// once Analyze has returned (the analyzer itself never closes the channel,
// since a long-lived tolerant build may keep reporting after Analyze
// returns via later passes -- compile only ever calls Analyze once, so a
// non-blocking drain is sufficient here).
func drainAsync(ch analyzer.CompilationErrors) func() []diagnostics.ErrorEvent {
	return func() []diagnostics.ErrorEvent {
		var out []diagnostics.ErrorEvent
		for {
			select {
			case e := <-ch:
				out = append(out, e)
			default:
				return out
			}
		}
	}
}

func parseError(origin string, err error) diagnostics.ErrorEvent {
	return diagnostics.ErrorEvent{
		Code:    "CS0001",
		Primary: diagnostics.Location{Origin: origin},
		Reason:  fmt.Sprintf("syntax error: %v", err),
		Format:  diagnostics.FormatLanguage,
	}
}

func analyzeError(origin string, err error) diagnostics.ErrorEvent {
	return diagnostics.ErrorEvent{
		Code:    "CS0002",
		Primary: diagnostics.Location{Origin: origin},
		Reason:  err.Error(),
		Format:  diagnostics.FormatLanguage,
	}
}
