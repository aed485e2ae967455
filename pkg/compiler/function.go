package compiler

import (
	"github.com/zilchlang/zilch/pkg/opcode"
	"github.com/zilchlang/zilch/pkg/types"
)

// loopContext tracks the patch sites a break/continue inside one enclosing
// while loop needs: breaks jump forward to the loop's exit (patched once the
// exit is known), continues jump back to the loop's condition re-check
// (already known when the continue is compiled).
type loopContext struct {
	start        int
	breakPatchAt []int
}

// funcCompiler holds the mutable state for compiling one types.Function
// body: the instruction/constant builder, the local-variable symbol table,
// and the stack of enclosing loops (for break/continue).
type funcCompiler struct {
	b *opcode.Builder

	owner     *types.BoundType
	locals    map[string]int
	nextLocal int

	loops []*loopContext
}

func newFuncCompiler(owner *types.BoundType) *funcCompiler {
	return &funcCompiler{
		b:      opcode.NewBuilder(),
		owner:  owner,
		locals: make(map[string]int),
	}
}

// reserve allocates the next frame slot and returns its index.
func (fc *funcCompiler) reserve() int {
	idx := fc.nextLocal
	fc.nextLocal++
	return idx
}

// newLocal reserves a fresh scratch local and returns an Operand addressing
// it, for a sub-expression's computed result.
func (fc *funcCompiler) newLocal() opcode.Operand {
	return opcode.Operand{Kind: opcode.Local, ConstOrLocal: fc.reserve()}
}

func (fc *funcCompiler) pushLoop(start int) *loopContext {
	lc := &loopContext{start: start}
	fc.loops = append(fc.loops, lc)
	return lc
}

func (fc *funcCompiler) popLoop() {
	fc.loops = fc.loops[:len(fc.loops)-1]
}

func (fc *funcCompiler) currentLoop() *loopContext {
	if len(fc.loops) == 0 {
		return nil
	}
	return fc.loops[len(fc.loops)-1]
}

// opSize reports the byte width compileExpr's Size field should carry for
// arithmetic/copy/cast instructions over t, mirroring the widths package
// types assigns fields in BoundType.Finalize.
func opSize(t types.Type) int {
	pt, ok := t.(types.PrimitiveType)
	if !ok {
		return 8
	}
	switch pt.Kind {
	case types.KindBoolean, types.KindByte:
		return 1
	case types.KindInteger, types.KindReal:
		return 4
	case types.KindDoubleInteger, types.KindDoubleReal:
		return 8
	default:
		return 8
	}
}
