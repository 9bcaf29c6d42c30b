package generate

import (
	"fmt"

	"streamc/ast"
	"streamc/interp"
	"streamc/report"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
)

// StateVariables are the globals holding a filter instance's state.
type StateVariables struct {
	Globals map[*ast.VarDecl]*ir.Global

	// order lists the declarations in source order.
	order []*ast.VarDecl
}

// Global returns the global of a state variable.
func (sv *StateVariables) Global(decl *ast.VarDecl) *ir.Global {
	return sv.Globals[decl]
}

// bind adds every state global to the bindings.
func (sv *StateVariables) bind(b *Bindings) {
	for _, decl := range sv.order {
		glob := sv.Globals[decl]
		b.AddVariable(decl, glob, glob.ContentType)
	}
}

// createStateGlobals creates a private global named `<instance>_<name>` for each
// state variable, initialized by its constant initializer or zero.
func (c *Context) createStateGlobals(instance string, state []*ast.VarDecl, consts map[ast.Decl]constant.Constant) (*StateVariables, error) {
	sv := &StateVariables{Globals: make(map[*ast.VarDecl]*ir.Global)}

	for _, decl := range state {
		name := fmt.Sprintf("%s_%s", instance, decl.Name)
		if c.LookupGlobal(name) != nil || c.LookupFunc(name) != nil {
			return nil, c.errorf("unable to create state variable `%s`: name already in use", name)
		}

		llType := c.ConvType(decl.Typ)

		var init constant.Constant
		if decl.Init != nil {
			var ok bool
			if init, ok = c.FoldConstant(decl.Init, consts); !ok {
				report.ICE("initializer of state variable `%s` is not constant", decl.Name)
			}
		} else {
			init = zeroConstant(llType)
		}

		glob := c.Mod.NewGlobalDef(name, init)
		glob.Linkage = enum.LinkagePrivate

		sv.Globals[decl] = glob
		sv.order = append(sv.order, decl)
	}

	return sv, nil
}

// zeroConstant returns the zero value of an IR type.
func zeroConstant(t types.Type) constant.Constant {
	switch v := t.(type) {
	case *types.IntType:
		return constant.NewInt(v, 0)
	case *types.FloatType:
		return constant.NewFloat(v, 0)
	}

	return constant.NewZeroInitializer(t)
}

// -----------------------------------------------------------------------------

// BuildStateVariables creates the state globals of a filter instance in the
// context's module.  If the filter has an init block, the block is compiled
// into a scratch module, executed, and the resulting values become the
// initializers of the globals.  The state of stateless filters is immutable.
func (c *Context) BuildStateVariables(instance string, filter *ast.FilterDecl, params *Bindings, funcs []*ast.FuncDecl) (*StateVariables, error) {
	sv, err := c.createStateGlobals(instance, filter.State, params.Constants())
	if err != nil {
		return nil, err
	}

	if filter.Init != nil && len(filter.State) > 0 {
		inits, err := c.evaluateInitBlock(instance, filter, params, funcs)
		if err != nil {
			return nil, err
		}

		for _, decl := range sv.order {
			glob := sv.Globals[decl]
			if filter.Stateless && !sameConstant(glob.Init, inits[decl]) {
				report.ICE("init block of stateless filter `%s` writes state variable `%s`", filter.Name, decl.Name)
			}

			glob.Init = inits[decl]
		}
	}

	if filter.Stateless {
		for _, glob := range sv.Globals {
			glob.Immutable = true
		}
	}

	return sv, nil
}

// evaluateInitBlock compiles and runs a filter's init block and returns the
// final value of each state variable.
func (c *Context) evaluateInitBlock(instance string, filter *ast.FilterDecl, params *Bindings, funcs []*ast.FuncDecl) (map[*ast.VarDecl]constant.Constant, error) {
	scratch := NewContext("evalinit_"+instance, c.sink)
	if err := scratch.GenerateFunctions(funcs); err != nil {
		return nil, err
	}

	sv, err := scratch.createStateGlobals(instance, filter.State, params.Constants())
	if err != nil {
		return nil, err
	}

	fn, err := scratch.GetOrInsertFunc(instance+"_init", types.Void)
	if err != nil {
		return nil, err
	}

	bindings := params.copy()
	sv.bind(bindings)
	if err := scratch.GenerateBody(fn, NullFragment{}, filter.Init, bindings); err != nil {
		return nil, err
	}

	if errs := Verify(scratch.Mod); len(errs) > 0 {
		return nil, c.errorf("init module for `%s` failed verification: %s", instance, errs[0])
	}

	m := interp.NewMachine(scratch.Mod)
	if _, err := m.Call(fn); err != nil {
		return nil, c.errorf("evaluating init block of `%s`: %w", instance, err)
	}

	inits := make(map[*ast.VarDecl]constant.Constant, len(sv.order))
	for _, decl := range sv.order {
		glob := sv.Globals[decl]

		val, err := m.Global(glob)
		if err != nil {
			return nil, c.errorf("reading back `%s`: %w", glob.Name(), err)
		}

		cst, err := interp.ToConstant(val, glob.ContentType)
		if err != nil {
			return nil, c.errorf("reading back `%s`: %w", glob.Name(), err)
		}

		inits[decl] = cst
	}

	return inits, nil
}

// sameConstant compares two constants by their textual form.
func sameConstant(a, b constant.Constant) bool {
	za, erra := interp.ConstValue(a)
	zb, errb := interp.ConstValue(b)
	if erra != nil || errb != nil {
		return a.Ident() == b.Ident()
	}

	return interp.Format(za, a.Type()) == interp.Format(zb, b.Type())
}
