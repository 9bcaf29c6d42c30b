package generate

import (
	"streamc/ast"
	"streamc/report"
	"streamc/typing"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// LowerStmt lowers a statement at the builder's current block.
func (fb *FuncBuilder) LowerStmt(stmt ast.Stmt) error {
	if pos := stmt.Position(); pos != nil {
		defer report.AnnotateICE(pos)
	}

	switch v := stmt.(type) {
	case *ast.Block:
		return fb.LowerBlock(v)
	case *ast.ExprStmt:
		_, err := fb.LowerExpr(v.Expr)
		return err
	case *ast.VarDecl:
		return fb.genVarDecl(v)
	case *ast.If:
		return fb.genIf(v)
	case *ast.For:
		return fb.genFor(v)
	case *ast.While:
		return fb.genWhile(v)
	case *ast.Break:
		if len(fb.breakStack) == 0 {
			report.ICE("break outside of a loop")
		}

		fb.cur.NewBr(fb.breakStack[len(fb.breakStack)-1])
		fb.deadBlock()
		return nil
	case *ast.Continue:
		if len(fb.continueStack) == 0 {
			report.ICE("continue outside of a loop")
		}

		fb.cur.NewBr(fb.continueStack[len(fb.continueStack)-1])
		fb.deadBlock()
		return nil
	case *ast.Return:
		return fb.genReturn(v)
	case *ast.Push:
		val, err := fb.lowerValue(v.Value)
		if err != nil {
			return err
		}

		if !fb.frag.BuildPush(fb.cur, val) {
			report.ICE("push is not available in function `%s`", fb.fn.Name())
		}

		return nil
	}

	report.ICE("unsupported statement node %T", stmt)
	return nil
}

// LowerBlock lowers each statement of a block in order.
func (fb *FuncBuilder) LowerBlock(block *ast.Block) error {
	for _, stmt := range block.Stmts {
		if err := fb.LowerStmt(stmt); err != nil {
			return err
		}
	}

	return nil
}

// genReturn generates a return statement.
func (fb *FuncBuilder) genReturn(ret *ast.Return) error {
	if ret.Value == nil {
		if !typing.IsVoid(fb.retType) {
			report.ICE("missing return value in function `%s`", fb.fn.Name())
		}

		fb.cur.NewRet(nil)
	} else {
		checkOperand(ret.Value, fb.retType, "return")

		val, err := fb.lowerValue(ret.Value)
		if err != nil {
			return err
		}

		fb.cur.NewRet(val)
	}

	fb.deadBlock()
	return nil
}

// -----------------------------------------------------------------------------

// genVarDecl generates a local variable declaration.  Constants with a foldable
// initializer get no storage.
func (fb *FuncBuilder) genVarDecl(decl *ast.VarDecl) error {
	if decl.Constant && decl.Init != nil {
		if c, ok := fb.ctx.FoldConstant(decl.Init, fb.consts); ok {
			fb.BindConstant(decl, c)
			return nil
		}
	}

	addr := fb.CreateVariable(decl)
	if decl.Init == nil {
		return nil
	}

	if initList, ok := decl.Init.(*ast.InitList); ok {
		return fb.genInitList(addr, decl.Typ, initList)
	}

	checkOperand(decl.Init, decl.Typ, "initializer")

	val, err := fb.lowerValue(decl.Init)
	if err != nil {
		return err
	}

	fb.cur.NewStore(val, addr)
	return nil
}

// genInitList stores each element of an initializer list into the array at
// addr.  Nested lists initialize the inner dimensions.
func (fb *FuncBuilder) genInitList(addr value.Value, dt typing.DataType, initList *ast.InitList) error {
	arrType, ok := dt.(*typing.ArrayType)
	if !ok {
		report.ICE("initializer list for non-array type `%s`", dt.Repr())
	}

	if len(initList.Elems) > arrType.Len {
		report.ICE("initializer list has %d elements for `%s`", len(initList.Elems), dt.Repr())
	}

	llArrType := fb.ctx.ConvType(arrType)
	for i, elem := range initList.Elems {
		elemAddr := fb.cur.NewGetElementPtr(llArrType, addr, constant.NewInt(types.I32, 0), constant.NewInt(types.I32, int64(i)))
		elemAddr.InBounds = true

		if inner, ok := elem.(*ast.InitList); ok {
			if err := fb.genInitList(elemAddr, arrType.ElemType, inner); err != nil {
				return err
			}

			continue
		}

		checkOperand(elem, arrType.ElemType, "initializer element")

		val, err := fb.lowerValue(elem)
		if err != nil {
			return err
		}

		fb.cur.NewStore(val, elemAddr)
	}

	return nil
}
