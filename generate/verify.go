package generate

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
)

// Verify checks the block structure of every defined function in a module and
// returns a list of error messages.  An empty slice indicates the module is
// valid.
func Verify(mod *ir.Module) []string {
	var errors []string
	for _, fn := range mod.Funcs {
		if len(fn.Blocks) > 0 {
			errors = append(errors, verifyFunc(fn)...)
		}
	}

	return errors
}

// verifyFunc checks that every block of fn is terminated, branches only to
// blocks of fn, and that its phi nodes name exactly its predecessors.
func verifyFunc(fn *ir.Func) []string {
	var errors []string

	owned := make(map[*ir.Block]bool, len(fn.Blocks))
	for _, block := range fn.Blocks {
		owned[block] = true
	}

	for _, block := range fn.Blocks {
		context := fmt.Sprintf("function @%s block %s", fn.Name(), block.Name())
		if block.Term == nil {
			errors = append(errors, context+": missing terminator")
			continue
		}

		switch term := block.Term.(type) {
		case *ir.TermBr:
			if asBlock(term.Target) == nil {
				errors = append(errors, context+": branch target is not a block")
			}
		case *ir.TermCondBr:
			if asBlock(term.TargetTrue) == nil || asBlock(term.TargetFalse) == nil {
				errors = append(errors, context+": branch target is not a block")
			}
		}

		for _, succ := range Succs(block) {
			if succ != nil && !owned[succ] {
				errors = append(errors, fmt.Sprintf("%s: branch to block %s of another function", context, succ.Name()))
			}
		}

		if ret, ok := block.Term.(*ir.TermRet); ok {
			if (ret.X == nil) != fn.Sig.RetType.Equal(types.Void) {
				errors = append(errors, context+": return does not match the function's return type")
			}
		}
	}

	preds := Preds(fn)
	for _, block := range fn.Blocks {
		context := fmt.Sprintf("function @%s block %s", fn.Name(), block.Name())

		inPhis := true
		for _, inst := range block.Insts {
			phi, ok := inst.(*ir.InstPhi)
			if !ok {
				inPhis = false
				continue
			}

			if !inPhis {
				errors = append(errors, context+": phi after a non-phi instruction")
			}

			errors = append(errors, verifyPhi(context, phi, preds[block])...)
		}
	}

	return errors
}

// verifyPhi checks that a phi has one incoming value per predecessor.
func verifyPhi(context string, phi *ir.InstPhi, preds []*ir.Block) []string {
	var errors []string

	seen := make(map[*ir.Block]bool)
	for _, inc := range phi.Incs {
		pred := asBlock(inc.Pred)
		if pred == nil {
			errors = append(errors, context+": phi incoming block is not a block")
			continue
		}

		if seen[pred] {
			errors = append(errors, fmt.Sprintf("%s: phi lists predecessor %s twice", context, pred.Name()))
		}
		seen[pred] = true
	}

	if len(seen) != len(preds) {
		errors = append(errors, fmt.Sprintf("%s: phi has %d incoming blocks, block has %d predecessors", context, len(seen), len(preds)))
	}

	for _, pred := range preds {
		if !seen[pred] {
			errors = append(errors, fmt.Sprintf("%s: phi has no incoming value for predecessor %s", context, pred.Name()))
		}
	}

	return errors
}
