package generate

import (
	"fmt"

	"streamc/ast"
	"streamc/report"
	"streamc/typing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
)

// Context is the IR builder context for a single output module.  It owns the
// module, caches the conversion of source types to IR types, and holds the sink
// that environment failures are reported to.  A context is not safe for
// concurrent use: each program build owns its own.
type Context struct {
	// Mod is the LLVM module being generated.
	Mod *ir.Module

	// sink receives environment failures.
	sink report.Sink

	// typeCache maps the representative strings of source types to their
	// converted IR types.
	typeCache map[string]types.Type

	// usedNames is the set of instance names handed out by UniqueName.
	usedNames map[string]struct{}
}

// NewContext creates a new context generating a module named name.
func NewContext(name string, sink report.Sink) *Context {
	mod := ir.NewModule()
	mod.SourceFilename = name

	return &Context{
		Mod:       mod,
		sink:      sink,
		typeCache: make(map[string]types.Type),
		usedNames: make(map[string]struct{}),
	}
}

// errorf reports an environment failure through the sink and returns it as an
// error for the caller to propagate.
func (c *Context) errorf(format string, args ...interface{}) error {
	err := fmt.Errorf(format, args...)
	c.sink.ReportError("%s", err)
	return err
}

// UniqueName returns name if it has not been handed out before and a suffixed
// variant of it otherwise.
func (c *Context) UniqueName(name string) string {
	unique := name
	for i := 1; ; i++ {
		if _, ok := c.usedNames[unique]; !ok {
			break
		}

		unique = fmt.Sprintf("%s_%d", name, i)
	}

	c.usedNames[unique] = struct{}{}
	return unique
}

// -----------------------------------------------------------------------------

// GetOrInsertFunc looks up the function named name in the module, declaring it
// with the given signature if it does not exist.  If a function or global with
// that name exists but does not match the signature, the failure is reported
// and an error is returned.
func (c *Context) GetOrInsertFunc(name string, retType types.Type, paramTypes ...types.Type) (*ir.Func, error) {
	sig := types.NewFunc(retType, paramTypes...)

	for _, fn := range c.Mod.Funcs {
		if fn.Name() == name {
			if !fn.Sig.Equal(sig) {
				return nil, c.errorf("unable to get function `%s`: existing declaration has type %s, not %s", name, fn.Sig, sig)
			}

			return fn, nil
		}
	}

	for _, glob := range c.Mod.Globals {
		if glob.Name() == name {
			return nil, c.errorf("unable to get function `%s`: name is already used by a global", name)
		}
	}

	params := make([]*ir.Param, len(paramTypes))
	for i, pt := range paramTypes {
		params[i] = ir.NewParam("", pt)
	}

	return c.Mod.NewFunc(name, retType, params...), nil
}

// DeclareFunc gets or inserts the prototype for a source function under its
// executable symbol name.
func (c *Context) DeclareFunc(fd *ast.FuncDecl) (*ir.Func, error) {
	paramTypes := make([]types.Type, len(fd.Sig.Params))
	for i, pt := range fd.Sig.Params {
		paramTypes[i] = c.ConvType(pt)
	}

	return c.GetOrInsertFunc(fd.SymbolName(), c.ConvType(fd.Sig.ReturnType), paramTypes...)
}

// LookupFunc returns the function named name in the module or nil.
func (c *Context) LookupFunc(name string) *ir.Func {
	for _, fn := range c.Mod.Funcs {
		if fn.Name() == name {
			return fn
		}
	}

	return nil
}

// LookupGlobal returns the global named name in the module or nil.
func (c *Context) LookupGlobal(name string) *ir.Global {
	for _, glob := range c.Mod.Globals {
		if glob.Name() == name {
			return glob
		}
	}

	return nil
}

// ConvType converts a source type into its IR type.
func (c *Context) ConvType(dt typing.DataType) types.Type {
	key := dt.Repr()
	if llType, ok := c.typeCache[key]; ok {
		return llType
	}

	llType := ConvType(dt)
	c.typeCache[key] = llType
	return llType
}
