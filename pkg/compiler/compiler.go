// Package compiler lowers an analyzed AST (package analyzer's output) into
// the opcode.Instruction stream package vm executes, one types.Function at a
// time. It is the direct descendant of the teacher's single-pass
// compiler.go, generalized from a push-based stack machine (OpPush/
// OpLoadLocal/OpSend) to the three-operand addressing model package opcode
// defines: compileExpr returns the Operand an expression's value already
// lives at (a Constant or a Local) rather than forcing every intermediate
// result through an emitted instruction.
package compiler

import (
	"fmt"

	"github.com/zilchlang/zilch/pkg/analyzer"
	"github.com/zilchlang/zilch/pkg/ast"
	"github.com/zilchlang/zilch/pkg/opcode"
	"github.com/zilchlang/zilch/pkg/types"
)

// Compiler holds no state (the analyzer is passed to CompileLibrary); all
// per-function state lives in funcCompiler, matching the teacher's pattern
// of one short-lived value per compilation unit.
type Compiler struct{}

// New creates a Compiler.
func New() *Compiler {
	return &Compiler{}
}

// CompileLibrary compiles every non-native function az's analysis pass
// built, attaching the result (Code, Constants, FrameSize, ParamLayout)
// directly onto each *types.Function so package vm can execute it without
// any further lookup. DebugRanges is left unset.
func (c *Compiler) CompileLibrary(az *analyzer.Analyzer) error {
	for _, fn := range az.Functions() {
		if fn.IsNative() {
			continue
		}
		decl, ok := az.Decl(fn)
		if !ok {
			continue
		}
		if err := c.compileFunction(fn, decl); err != nil {
			return fmt.Errorf("compiling %s: %w", fn.Name, err)
		}
	}
	return nil
}

// compileFunction lays out fn's frame (per the layout documented in package
// opcode: return slot, parameters, this, locals) and compiles decl.Body
// against it.
func (c *Compiler) compileFunction(fn *types.Function, decl *ast.Method) error {
	fc := newFuncCompiler(fn.Owner)

	fc.reserve() // slot 0: return value

	paramLayout := make([]opcode.Operand, len(decl.Parameters))
	for i, p := range decl.Parameters {
		idx := fc.reserve()
		fc.locals[p.Name] = idx
		paramLayout[i] = opcode.Operand{Kind: opcode.Local, ConstOrLocal: idx}
	}
	if fn.Owner != nil {
		fc.locals["this"] = fc.reserve()
	}

	if err := fc.compileStatements(decl.Body); err != nil {
		return err
	}
	endsInReturn := false
	if n := len(decl.Body); n > 0 {
		_, endsInReturn = decl.Body[n-1].(*ast.ReturnStatement)
	}
	if !endsInReturn {
		fc.b.Emit(opcode.Instruction{Op: opcode.OpReturn})
	}

	code, constants := fc.b.Finalize()
	fn.Code = code
	fn.Constants = &constants
	fn.FrameSize = fc.nextLocal
	fn.ParamLayout = paramLayout
	return nil
}
