package compiler

import (
	"fmt"

	"github.com/zilchlang/zilch/pkg/ast"
	"github.com/zilchlang/zilch/pkg/opcode"
)

func (fc *funcCompiler) compileStatements(stmts []ast.Statement) error {
	for _, stmt := range stmts {
		if err := fc.compileStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (fc *funcCompiler) compileStatement(stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		_, err := fc.compileExpr(s.Expr)
		return err

	case *ast.VariableDeclaration:
		idx := fc.reserve()
		fc.locals[s.Name] = idx
		if s.Initial == nil {
			return nil
		}
		val, err := fc.compileExpr(s.Initial)
		if err != nil {
			return err
		}
		fc.b.Emit(opcode.Instruction{
			Op:   opcode.OpCopy,
			A:    val,
			Dst:  opcode.Operand{Kind: opcode.Local, ConstOrLocal: idx},
			Mode: opcode.CopyInitialize,
			Size: opSize(s.Initial.Annotations().ResultType),
		})
		return nil

	case *ast.ReturnStatement:
		if s.Value != nil {
			val, err := fc.compileExpr(s.Value)
			if err != nil {
				return err
			}
			fc.b.Emit(opcode.Instruction{
				Op:   opcode.OpCopy,
				A:    val,
				Dst:  opcode.Operand{Kind: opcode.Local, ConstOrLocal: 0},
				Mode: opcode.CopyFromReturn,
				Size: opSize(s.Value.Annotations().ResultType),
			})
		}
		fc.b.Emit(opcode.Instruction{Op: opcode.OpReturn})
		return nil

	case *ast.ThrowStatement:
		val, err := fc.compileExpr(s.Value)
		if err != nil {
			return err
		}
		fc.b.Emit(opcode.Instruction{Op: opcode.OpThrowException, A: val})
		return nil

	case *ast.DeleteStatement:
		val, err := fc.compileExpr(s.Target)
		if err != nil {
			return err
		}
		fc.b.Emit(opcode.Instruction{Op: opcode.OpDeleteObject, A: val})
		return nil

	case *ast.IfStatement:
		return fc.compileIf(s)

	case *ast.WhileStatement:
		return fc.compileWhile(s)

	case *ast.BreakStatement:
		lc := fc.currentLoop()
		if lc == nil {
			return fmt.Errorf("break statement outside of any loop")
		}
		at := fc.b.Emit(opcode.Instruction{Op: opcode.OpJump})
		lc.breakPatchAt = append(lc.breakPatchAt, at)
		return nil

	case *ast.ContinueStatement:
		lc := fc.currentLoop()
		if lc == nil {
			return fmt.Errorf("continue statement outside of any loop")
		}
		at := fc.b.Emit(opcode.Instruction{Op: opcode.OpJump})
		fc.b.PatchJump(at, lc.start)
		return nil

	default:
		return fmt.Errorf("compiler: unhandled statement type %T", stmt)
	}
}

// compileIf emits: evaluate condition, OpIf jumps past Then when false, an
// unconditional OpJump past Else follows Then when an Else branch exists.
func (fc *funcCompiler) compileIf(s *ast.IfStatement) error {
	cond, err := fc.compileExpr(s.Condition)
	if err != nil {
		return err
	}
	skipThen := fc.b.Emit(opcode.Instruction{Op: opcode.OpIf, A: cond})
	if err := fc.compileStatements(s.Then); err != nil {
		return err
	}
	if len(s.Else) == 0 {
		fc.b.PatchJump(skipThen, fc.b.Here())
		return nil
	}
	skipElse := fc.b.Emit(opcode.Instruction{Op: opcode.OpJump})
	fc.b.PatchJump(skipThen, fc.b.Here())
	if err := fc.compileStatements(s.Else); err != nil {
		return err
	}
	fc.b.PatchJump(skipElse, fc.b.Here())
	return nil
}

// compileWhile emits: loop start (condition re-evaluated every iteration),
// OpIf jumps past the body when false, body, unconditional jump back to
// start. Breaks target the instruction after the backward jump; continues
// target the loop start directly (already known).
func (fc *funcCompiler) compileWhile(s *ast.WhileStatement) error {
	start := fc.b.Here()
	cond, err := fc.compileExpr(s.Condition)
	if err != nil {
		return err
	}
	exit := fc.b.Emit(opcode.Instruction{Op: opcode.OpIf, A: cond})

	lc := fc.pushLoop(start)
	if err := fc.compileStatements(s.Body); err != nil {
		fc.popLoop()
		return err
	}
	fc.popLoop()

	backEdge := fc.b.Emit(opcode.Instruction{Op: opcode.OpJump})
	fc.b.PatchJump(backEdge, start)
	fc.b.PatchJump(exit, fc.b.Here())
	for _, at := range lc.breakPatchAt {
		fc.b.PatchJump(at, fc.b.Here())
	}
	return nil
}
