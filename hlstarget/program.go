// Package hlstarget generates code for filters synthesized to hardware.  Each
// filter function receives its channels as pointer parameters which the
// synthesis tool maps to FIFO ports.
package hlstarget

import (
	"streamc/ast"
	"streamc/generate"
	"streamc/report"
	"streamc/typing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
)

// Target is the hardware target.
type Target struct{}

// DeclareFilterFunc declares `void name(T* in_ptr, U* out_ptr)`.  A void
// channel has no parameter.
func (Target) DeclareFilterFunc(ctx *generate.Context, name string, filter *ast.FilterDecl) (*ir.Func, error) {
	var paramTypes []types.Type
	if !typing.IsVoid(filter.InputType) {
		paramTypes = append(paramTypes, types.NewPointer(ctx.ConvType(filter.InputType)))
	}

	if !typing.IsVoid(filter.OutputType) {
		paramTypes = append(paramTypes, types.NewPointer(ctx.ConvType(filter.OutputType)))
	}

	fn, err := ctx.GetOrInsertFunc(name, types.Void, paramTypes...)
	if err != nil {
		return nil, err
	}

	in, out := channelParams(fn, filter)
	if in != nil {
		in.SetName("in_ptr")
	}

	if out != nil {
		out.SetName("out_ptr")
	}

	return fn, nil
}

func (Target) NewFragment(ctx *generate.Context, instance string, fn *ir.Func, filter *ast.FilterDecl) (generate.Fragment, error) {
	in, out := channelParams(fn, filter)
	return NewFragment(in, out), nil
}

// channelParams returns the channel parameters of a filter function.
func channelParams(fn *ir.Func, filter *ast.FilterDecl) (in, out *ir.Param) {
	params := fn.Params
	if !typing.IsVoid(filter.InputType) {
		in, params = params[0], params[1:]
	}

	if !typing.IsVoid(filter.OutputType) {
		out = params[0]
	}

	return
}

// -----------------------------------------------------------------------------

// Filter is a single filter built for the hardware target.
type Filter struct {
	*generate.FilterFuncs

	// Usage is the channel usage of the work function.
	Usage ChannelUsage
}

// Program is the output of building a program for the hardware target.  All
// filters share one module; each becomes its own component.
type Program struct {
	Mod     *ir.Module
	Filters []*Filter
}

// BuildProgram generates a module for a whole program.
func BuildProgram(prog *ast.Program, sink report.Sink) (*Program, error) {
	ctx := generate.NewContext(prog.Name, sink)

	if err := ctx.GenerateFunctions(prog.Functions); err != nil {
		return nil, err
	}

	out := &Program{Mod: ctx.Mod}
	for _, filter := range prog.Filters {
		ff, err := ctx.BuildFilter(filter, Target{}, prog.Functions)
		if err != nil {
			return nil, err
		}

		hf := &Filter{FilterFuncs: ff}
		if frag, ok := ff.Fragments[ff.Work].(*Fragment); ok {
			hf.Usage = frag.Usage
		}

		out.Filters = append(out.Filters, hf)
	}

	return out, nil
}
