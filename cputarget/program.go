// Package cputarget generates code for filters run in software.  Each program
// becomes a single module; the runtime supplies the channel functions.
package cputarget

import (
	"streamc/ast"
	"streamc/generate"
	"streamc/report"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
)

// Target is the software target.  Filter functions take no arguments and have
// private linkage.
type Target struct{}

func (Target) DeclareFilterFunc(ctx *generate.Context, name string, filter *ast.FilterDecl) (*ir.Func, error) {
	fn, err := ctx.GetOrInsertFunc(name, types.Void)
	if err != nil {
		return nil, err
	}

	fn.Linkage = enum.LinkagePrivate
	return fn, nil
}

func (Target) NewFragment(ctx *generate.Context, instance string, fn *ir.Func, filter *ast.FilterDecl) (generate.Fragment, error) {
	frag, err := NewFragment(ctx, instance, filter)
	if err != nil {
		return nil, err
	}

	return frag, nil
}

// -----------------------------------------------------------------------------

// Program is the output of building a program for the software target.
type Program struct {
	Mod     *ir.Module
	Filters []*generate.FilterFuncs
}

// BuildProgram generates a module for a whole program.  Environment failures
// are reported to sink and returned.
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

		if ff.Init != nil {
			ff.Init.Linkage = enum.LinkagePrivate
		}

		out.Filters = append(out.Filters, ff)
	}

	return out, nil
}
