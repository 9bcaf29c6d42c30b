package astload

import (
	"fmt"
	"strings"

	"streamc/ast"
	"streamc/typing"
)

// node looks up a node by id and marks it active.  The returned function must
// be called once the node is linked.
func (l *loader) node(id int) (*tomlNode, func(), error) {
	tn, ok := l.nodes[id]
	if !ok {
		return nil, nil, fmt.Errorf("reference to undefined node %d", id)
	}

	if l.active[id] {
		return nil, nil, fmt.Errorf("node %d contains itself", id)
	}

	l.active[id] = true
	return tn, func() { delete(l.active, id) }, nil
}

// nodeError creates an error about a particular node.
func nodeError(tn *tomlNode, format string, args ...interface{}) error {
	return fmt.Errorf("%s node %d: %s", tn.Kind, tn.ID, fmt.Sprintf(format, args...))
}

// typeOf returns the declared type of a node or def if the node has none.  A
// nil def means the type is required.
func typeOf(tn *tomlNode, def typing.DataType) (typing.DataType, error) {
	if tn.Type == "" {
		if def == nil {
			return nil, nodeError(tn, "missing type")
		}

		return def, nil
	}

	dt, err := typing.Parse(tn.Type)
	if err != nil {
		return nil, nodeError(tn, "%s", err)
	}

	return dt, nil
}

// -----------------------------------------------------------------------------

// expr links an expression node.
func (l *loader) expr(id int) (ast.Expr, error) {
	tn, done, err := l.node(id)
	if err != nil {
		return nil, err
	}
	defer done()

	return l.linkExpr(tn)
}

// exprs links a list of expression nodes.
func (l *loader) exprs(ids []int) ([]ast.Expr, error) {
	exprs := make([]ast.Expr, len(ids))
	for i, id := range ids {
		expr, err := l.expr(id)
		if err != nil {
			return nil, err
		}

		exprs[i] = expr
	}

	return exprs, nil
}

// operand links a required child expression.
func (l *loader) operand(tn *tomlNode, id int, what string) (ast.Expr, error) {
	if id == 0 {
		return nil, nodeError(tn, "missing %s", what)
	}

	return l.expr(id)
}

func (l *loader) linkExpr(tn *tomlNode) (ast.Expr, error) {
	base := func(def typing.DataType) (ast.ExprBase, error) {
		typ, err := typeOf(tn, def)
		if err != nil {
			return ast.ExprBase{}, err
		}

		eb := ast.NewExprBase(typ)
		eb.Pos = position(tn.Line, tn.Col)
		return eb, nil
	}

	switch tn.Kind {
	case "int":
		eb, err := base(typing.PrimInt)
		if err != nil {
			return nil, err
		}

		return &ast.IntLit{ExprBase: eb, Value: tn.Int}, nil
	case "float":
		eb, err := base(typing.PrimFloat)
		if err != nil {
			return nil, err
		}

		return &ast.FloatLit{ExprBase: eb, Value: tn.Float}, nil
	case "bool":
		eb, err := base(typing.PrimBool)
		if err != nil {
			return nil, err
		}

		return &ast.BoolLit{ExprBase: eb, Value: tn.Bool}, nil
	case "ident":
		decl, ok := l.astDecls[tn.Decl]
		if !ok {
			return nil, nodeError(tn, "reference to undefined declaration %d", tn.Decl)
		} else if _, ok := decl.(*ast.FuncDecl); ok {
			return nil, nodeError(tn, "function `%s` used as a value", decl.DeclName())
		}

		eb, err := base(decl.DeclType())
		if err != nil {
			return nil, err
		}

		return &ast.Identifier{ExprBase: eb, Name: decl.DeclName(), Decl: decl}, nil
	case "index":
		array, err := l.operand(tn, tn.Array, "array")
		if err != nil {
			return nil, err
		}

		index, err := l.operand(tn, tn.Index, "index")
		if err != nil {
			return nil, err
		}

		var elemType typing.DataType
		if at, ok := array.Type().(*typing.ArrayType); ok {
			elemType = at.ElemType
		} else {
			return nil, nodeError(tn, "cannot index a value of type `%s`", array.Type().Repr())
		}

		eb, err := base(elemType)
		if err != nil {
			return nil, err
		}

		return &ast.Index{ExprBase: eb, Array: array, Index: index}, nil
	case "comma":
		lhs, rhs, err := l.operands(tn)
		if err != nil {
			return nil, err
		}

		eb, err := base(rhs.Type())
		if err != nil {
			return nil, err
		}

		return &ast.Comma{ExprBase: eb, Lhs: lhs, Rhs: rhs}, nil
	case "assign":
		op := ast.OpNone
		if tn.Op != "=" {
			bop, ok := ast.BinaryOpNames[strings.TrimSuffix(tn.Op, "=")]
			if !ok || !strings.HasSuffix(tn.Op, "=") || !ast.IsArithOp(bop) {
				return nil, nodeError(tn, "unknown assignment operator `%s`", tn.Op)
			}

			op = bop
		}

		lhs, rhs, err := l.operands(tn)
		if err != nil {
			return nil, err
		}

		eb, err := base(lhs.Type())
		if err != nil {
			return nil, err
		}

		return &ast.Assign{ExprBase: eb, Op: op, Lhs: lhs, Rhs: rhs}, nil
	case "unary":
		op, ok := ast.UnaryOpNames[tn.Op]
		if !ok {
			return nil, nodeError(tn, "unknown unary operator `%s`", tn.Op)
		}

		operand, err := l.operand(tn, tn.Operand, "operand")
		if err != nil {
			return nil, err
		}

		eb, err := base(operand.Type())
		if err != nil {
			return nil, err
		}

		return &ast.Unary{ExprBase: eb, Op: op, Operand: operand}, nil
	case "binary", "relational", "logical":
		op, ok := ast.BinaryOpNames[tn.Op]
		if !ok {
			return nil, nodeError(tn, "unknown operator `%s`", tn.Op)
		}

		lhs, rhs, err := l.operands(tn)
		if err != nil {
			return nil, err
		}

		switch tn.Kind {
		case "binary":
			if !ast.IsArithOp(op) {
				return nil, nodeError(tn, "`%s` is not an arithmetic operator", tn.Op)
			}

			eb, err := base(lhs.Type())
			if err != nil {
				return nil, err
			}

			return &ast.Binary{ExprBase: eb, Op: op, Lhs: lhs, Rhs: rhs}, nil
		case "relational":
			if !ast.IsRelOp(op) {
				return nil, nodeError(tn, "`%s` is not a relational operator", tn.Op)
			}

			eb, err := base(typing.PrimBool)
			if err != nil {
				return nil, err
			}

			return &ast.Relational{ExprBase: eb, Op: op, Lhs: lhs, Rhs: rhs}, nil
		default:
			if !ast.IsLogicalOp(op) {
				return nil, nodeError(tn, "`%s` is not a logical operator", tn.Op)
			}

			eb, err := base(typing.PrimBool)
			if err != nil {
				return nil, err
			}

			return &ast.Logical{ExprBase: eb, Op: op, Lhs: lhs, Rhs: rhs}, nil
		}
	case "call":
		fd, ok := l.astDecls[tn.Func].(*ast.FuncDecl)
		if !ok {
			return nil, nodeError(tn, "declaration %d is not a function", tn.Func)
		}

		args, err := l.exprs(tn.Args)
		if err != nil {
			return nil, err
		}

		// the signature is linked when the function declaration is completed
		var rt typing.DataType
		if fd.Sig != nil {
			rt = fd.Sig.ReturnType
		} else {
			rt, err = channelType(l.decls[tn.Func].Returns)
			if err != nil {
				return nil, nodeError(tn, "%s", err)
			}
		}

		eb, err := base(rt)
		if err != nil {
			return nil, err
		}

		return &ast.Call{ExprBase: eb, Func: fd, Args: args}, nil
	case "cast":
		src, err := l.operand(tn, tn.Src, "source")
		if err != nil {
			return nil, err
		}

		eb, err := base(nil)
		if err != nil {
			return nil, err
		}

		return &ast.Cast{ExprBase: eb, Src: src}, nil
	case "pop":
		eb, err := base(nil)
		if err != nil {
			return nil, err
		}

		return &ast.Pop{ExprBase: eb}, nil
	case "peek":
		index, err := l.operand(tn, tn.Index, "index")
		if err != nil {
			return nil, err
		}

		eb, err := base(nil)
		if err != nil {
			return nil, err
		}

		return &ast.Peek{ExprBase: eb, Index: index}, nil
	case "initlist":
		elems, err := l.exprs(tn.Elems)
		if err != nil {
			return nil, err
		}

		eb, err := base(nil)
		if err != nil {
			return nil, err
		}

		return &ast.InitList{ExprBase: eb, Elems: elems}, nil
	}

	return nil, nodeError(tn, "not an expression")
}

// operands links the `lhs` and `rhs` children of a node.
func (l *loader) operands(tn *tomlNode) (ast.Expr, ast.Expr, error) {
	lhs, err := l.operand(tn, tn.Lhs, "left operand")
	if err != nil {
		return nil, nil, err
	}

	rhs, err := l.operand(tn, tn.Rhs, "right operand")
	if err != nil {
		return nil, nil, err
	}

	return lhs, rhs, nil
}

// -----------------------------------------------------------------------------

// block links a node that must be a block.
func (l *loader) block(id int) (*ast.Block, error) {
	stmt, err := l.stmt(id)
	if err != nil {
		return nil, err
	}

	block, ok := stmt.(*ast.Block)
	if !ok {
		return nil, fmt.Errorf("node %d is not a block", id)
	}

	return block, nil
}

// stmt links a statement node.
func (l *loader) stmt(id int) (ast.Stmt, error) {
	tn, done, err := l.node(id)
	if err != nil {
		return nil, err
	}
	defer done()

	sb := ast.StmtBase{Pos: position(tn.Line, tn.Col)}

	switch tn.Kind {
	case "expr":
		expr, err := l.operand(tn, tn.Value, "expression")
		if err != nil {
			return nil, err
		}

		return &ast.ExprStmt{StmtBase: sb, Expr: expr}, nil
	case "block":
		block := &ast.Block{StmtBase: sb}
		for _, sid := range tn.Body {
			stmt, err := l.stmt(sid)
			if err != nil {
				return nil, err
			}

			block.Stmts = append(block.Stmts, stmt)
		}

		return block, nil
	case "vardecl":
		vd, ok := l.astDecls[tn.Decl].(*ast.VarDecl)
		if !ok {
			return nil, nodeError(tn, "declaration %d is not a variable", tn.Decl)
		}

		return vd, nil
	case "if":
		cond, err := l.operand(tn, tn.Cond, "condition")
		if err != nil {
			return nil, err
		}

		if tn.Then == 0 {
			return nil, nodeError(tn, "missing then branch")
		}

		then, err := l.stmt(tn.Then)
		if err != nil {
			return nil, err
		}

		ifStmt := &ast.If{StmtBase: sb, Cond: cond, Then: then}
		if tn.Else != 0 {
			if ifStmt.Else, err = l.stmt(tn.Else); err != nil {
				return nil, err
			}
		}

		return ifStmt, nil
	case "for":
		forStmt := &ast.For{StmtBase: sb}

		if tn.Init != 0 {
			if forStmt.Init, err = l.stmt(tn.Init); err != nil {
				return nil, err
			}
		}

		if tn.Cond != 0 {
			if forStmt.Cond, err = l.expr(tn.Cond); err != nil {
				return nil, err
			}
		}

		if tn.Post != 0 {
			if forStmt.Post, err = l.expr(tn.Post); err != nil {
				return nil, err
			}
		}

		if forStmt.Body, err = l.loopBody(tn); err != nil {
			return nil, err
		}

		return forStmt, nil
	case "while":
		cond, err := l.operand(tn, tn.Cond, "condition")
		if err != nil {
			return nil, err
		}

		body, err := l.loopBody(tn)
		if err != nil {
			return nil, err
		}

		return &ast.While{StmtBase: sb, Cond: cond, Body: body}, nil
	case "break":
		return &ast.Break{StmtBase: sb}, nil
	case "continue":
		return &ast.Continue{StmtBase: sb}, nil
	case "return":
		ret := &ast.Return{StmtBase: sb}
		if tn.Value != 0 {
			if ret.Value, err = l.expr(tn.Value); err != nil {
				return nil, err
			}
		}

		return ret, nil
	case "push":
		val, err := l.operand(tn, tn.Value, "value")
		if err != nil {
			return nil, err
		}

		return &ast.Push{StmtBase: sb, Value: val}, nil
	}

	return nil, nodeError(tn, "not a statement")
}

// loopBody links the single body statement of a loop.
func (l *loader) loopBody(tn *tomlNode) (ast.Stmt, error) {
	if len(tn.Body) != 1 {
		return nil, nodeError(tn, "loop body must be exactly one statement")
	}

	return l.stmt(tn.Body[0])
}
