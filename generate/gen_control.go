package generate

import (
	"streamc/ast"
	"streamc/report"
	"streamc/typing"

	"github.com/llir/llvm/ir/value"
)

// lowerCond lowers a branch condition.
func (fb *FuncBuilder) lowerCond(cond ast.Expr) (value.Value, error) {
	if !typing.IsBoolean(cond.Type()) {
		report.ICE("condition has non-boolean type `%s`", cond.Type().Repr())
	}

	return fb.lowerValue(cond)
}

// genIf generates an if statement.  Both arms continue at a common merge block
// which the builder is left positioned on.
func (fb *FuncBuilder) genIf(ifStmt *ast.If) error {
	cond, err := fb.lowerCond(ifStmt.Cond)
	if err != nil {
		return err
	}

	thenBlock := fb.NewBlock()
	mergeBlock := fb.NewBlock()

	// if there is no else, then the "else" block is the merge block.
	elseBlock := mergeBlock
	if ifStmt.Else != nil {
		elseBlock = fb.NewBlock()
	}

	fb.cur.NewCondBr(cond, thenBlock, elseBlock)

	fb.cur = thenBlock
	if err := fb.LowerStmt(ifStmt.Then); err != nil {
		return err
	}
	fb.branchTo(mergeBlock)

	if ifStmt.Else != nil {
		fb.cur = elseBlock
		if err := fb.LowerStmt(ifStmt.Else); err != nil {
			return err
		}
		fb.branchTo(mergeBlock)
	}

	fb.cur = mergeBlock
	return nil
}

// genFor generates a C-style for loop.  The init clause is lowered in the
// current block, then the loop is laid out as a condition block, the body, a
// continue block holding the post expression and the exit block.  The branch
// from the continue block back to the condition is the only back edge.
func (fb *FuncBuilder) genFor(forStmt *ast.For) error {
	if forStmt.Init != nil {
		if err := fb.LowerStmt(forStmt.Init); err != nil {
			return err
		}
	}

	condBlock := fb.NewBlock()
	bodyBlock := fb.NewBlock()
	continueBlock := fb.NewBlock()
	breakBlock := fb.NewBlock()

	fb.cur.NewBr(condBlock)

	fb.cur = condBlock
	if forStmt.Cond != nil {
		cond, err := fb.lowerCond(forStmt.Cond)
		if err != nil {
			return err
		}

		fb.cur.NewCondBr(cond, bodyBlock, breakBlock)
	} else {
		fb.cur.NewBr(bodyBlock)
	}

	fb.pushLoop(breakBlock, continueBlock)
	fb.cur = bodyBlock
	if err := fb.LowerStmt(forStmt.Body); err != nil {
		return err
	}
	fb.branchTo(continueBlock)
	fb.popLoop()

	fb.cur = continueBlock
	if forStmt.Post != nil {
		if _, err := fb.LowerExpr(forStmt.Post); err != nil {
			return err
		}
	}
	fb.cur.NewBr(condBlock)

	fb.cur = breakBlock
	return nil
}

// genWhile generates a while loop.  Continue jumps back to the condition.
func (fb *FuncBuilder) genWhile(whileStmt *ast.While) error {
	condBlock := fb.NewBlock()
	bodyBlock := fb.NewBlock()
	endBlock := fb.NewBlock()

	fb.cur.NewBr(condBlock)

	fb.cur = condBlock
	cond, err := fb.lowerCond(whileStmt.Cond)
	if err != nil {
		return err
	}
	fb.cur.NewCondBr(cond, bodyBlock, endBlock)

	fb.pushLoop(endBlock, condBlock)
	fb.cur = bodyBlock
	if err := fb.LowerStmt(whileStmt.Body); err != nil {
		return err
	}
	fb.branchTo(condBlock)
	fb.popLoop()

	fb.cur = endBlock
	return nil
}
