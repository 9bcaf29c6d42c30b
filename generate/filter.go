package generate

import (
	"streamc/ast"
	"streamc/report"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
)

// Enumeration of the kinds of filter functions.
const (
	FilterInit = iota
	FilterPrework
	FilterWork
)

// FilterFuncSuffixes are the name suffixes of the filter functions.
var FilterFuncSuffixes = [...]string{
	FilterInit:    "_init",
	FilterPrework: "_prework",
	FilterWork:    "_work",
}

// Target supplies the target-specific parts of filter generation.
type Target interface {
	// DeclareFilterFunc declares the prework or work function of a filter
	// instance with the signature the target requires.
	DeclareFilterFunc(ctx *Context, name string, filter *ast.FilterDecl) (*ir.Func, error)

	// NewFragment creates the fragment used to access the channels of a
	// filter instance from fn.
	NewFragment(ctx *Context, instance string, fn *ir.Func, filter *ast.FilterDecl) (Fragment, error)
}

// FilterFuncs are the functions generated for a filter instance.  Init and
// Prework are nil when the filter has no such block.
type FilterFuncs struct {
	Instance string
	State    *StateVariables

	Init, Prework, Work *ir.Func

	// Fragments holds the fragment used to build Prework and Work.
	Fragments map[*ir.Func]Fragment
}

// BuildFilter generates the state variables and functions of one instance of
// a filter.  funcs are the program's functions, which init blocks may call.
func (c *Context) BuildFilter(filter *ast.FilterDecl, target Target, funcs []*ast.FuncDecl) (*FilterFuncs, error) {
	instance := c.UniqueName(filter.Name)
	ff := &FilterFuncs{Instance: instance, Fragments: make(map[*ir.Func]Fragment)}

	params := NewBindings()
	for _, param := range filter.Params {
		if param.Init == nil {
			report.ICE("filter parameter `%s` of `%s` has no value", param.Name, filter.Name)
		}

		cst, ok := c.FoldConstant(param.Init, params.Constants())
		if !ok {
			report.ICE("filter parameter `%s` of `%s` is not constant", param.Name, filter.Name)
		}

		params.BindConstant(param, cst)
	}

	state, err := c.BuildStateVariables(instance, filter, params, funcs)
	if err != nil {
		return nil, err
	}
	ff.State = state

	bindings := params.copy()
	state.bind(bindings)

	if filter.Init != nil {
		fn, err := c.GetOrInsertFunc(instance+FilterFuncSuffixes[FilterInit], types.Void)
		if err != nil {
			return nil, err
		}

		if err := c.GenerateBody(fn, NullFragment{}, filter.Init, bindings); err != nil {
			return nil, err
		}
		ff.Init = fn
	}

	if filter.Prework != nil {
		if ff.Prework, err = c.buildChannelFunc(instance, FilterPrework, filter, target, bindings, ff); err != nil {
			return nil, err
		}
	}

	if filter.Work == nil {
		report.ICE("filter `%s` has no work block", filter.Name)
	}

	if ff.Work, err = c.buildChannelFunc(instance, FilterWork, filter, target, bindings, ff); err != nil {
		return nil, err
	}

	return ff, nil
}

// buildChannelFunc builds one of the filter functions that accesses channels.
func (c *Context) buildChannelFunc(instance string, kind int, filter *ast.FilterDecl, target Target, bindings *Bindings, ff *FilterFuncs) (*ir.Func, error) {
	fn, err := target.DeclareFilterFunc(c, instance+FilterFuncSuffixes[kind], filter)
	if err != nil {
		return nil, err
	}

	frag, err := target.NewFragment(c, instance, fn, filter)
	if err != nil {
		return nil, err
	}

	body := filter.Work
	if kind == FilterPrework {
		body = filter.Prework
	}

	if err := c.GenerateBody(fn, frag, body, bindings); err != nil {
		return nil, err
	}

	ff.Fragments[fn] = frag
	return fn, nil
}
