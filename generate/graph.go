package generate

import (
	"fmt"

	"github.com/llir/llvm/ir"
)

// asBlock converts a branch target to a block.  Branch targets are held as
// values; every target produced by code generation is a block.
func asBlock(v interface{}) *ir.Block {
	b, _ := v.(*ir.Block)
	return b
}

// Succs returns the successors of a block in branch order.
func Succs(block *ir.Block) []*ir.Block {
	switch term := block.Term.(type) {
	case *ir.TermBr:
		return []*ir.Block{asBlock(term.Target)}
	case *ir.TermCondBr:
		return []*ir.Block{asBlock(term.TargetTrue), asBlock(term.TargetFalse)}
	}

	return nil
}

// Preds returns the predecessors of every block of fn.  A block that is the
// target of both arms of a conditional branch lists that predecessor once.
func Preds(fn *ir.Func) map[*ir.Block][]*ir.Block {
	preds := make(map[*ir.Block][]*ir.Block, len(fn.Blocks))
	for _, block := range fn.Blocks {
		preds[block] = nil
	}

	for _, block := range fn.Blocks {
		seen := make(map[*ir.Block]bool)
		for _, succ := range Succs(block) {
			if succ != nil && !seen[succ] {
				preds[succ] = append(preds[succ], block)
				seen[succ] = true
			}
		}
	}

	return preds
}

// Edge is a control-flow edge between two blocks.
type Edge struct {
	From, To *ir.Block
}

func (e Edge) String() string {
	return fmt.Sprintf("%s -> %s", e.From.Name(), e.To.Name())
}

// BackEdges returns the edges of fn that close a loop: edges found by a depth
// first search from the entry block whose target is still on the search stack.
func BackEdges(fn *ir.Func) []Edge {
	if len(fn.Blocks) == 0 {
		return nil
	}

	const (
		unvisited = iota
		onStack
		done
	)

	state := make(map[*ir.Block]int)
	var edges []Edge

	var visit func(b *ir.Block)
	visit = func(b *ir.Block) {
		state[b] = onStack
		for _, succ := range Succs(b) {
			switch state[succ] {
			case unvisited:
				visit(succ)
			case onStack:
				edges = append(edges, Edge{From: b, To: succ})
			}
		}
		state[b] = done
	}

	visit(fn.Blocks[0])
	return edges
}

// Reachable returns the set of blocks reachable from the entry block.
func Reachable(fn *ir.Func) map[*ir.Block]bool {
	reached := make(map[*ir.Block]bool)
	if len(fn.Blocks) == 0 {
		return reached
	}

	work := []*ir.Block{fn.Blocks[0]}
	for len(work) > 0 {
		b := work[len(work)-1]
		work = work[:len(work)-1]

		if reached[b] {
			continue
		}
		reached[b] = true

		work = append(work, Succs(b)...)
	}

	return reached
}

// -----------------------------------------------------------------------------

// Shape summarizes the block graph of a function: the number of blocks, the
// kind of each block's terminator and its successors by block index.  Two
// lowerings of the same tree have equal shapes.
type Shape struct {
	Blocks int
	Terms  []string
	Succs  [][]int
	Insts  []int
}

// ShapeOf computes the shape of a function.
func ShapeOf(fn *ir.Func) Shape {
	index := make(map[*ir.Block]int, len(fn.Blocks))
	for i, block := range fn.Blocks {
		index[block] = i
	}

	shape := Shape{Blocks: len(fn.Blocks)}
	for _, block := range fn.Blocks {
		shape.Terms = append(shape.Terms, termKind(block.Term))
		shape.Insts = append(shape.Insts, len(block.Insts))

		var succs []int
		for _, succ := range Succs(block) {
			succs = append(succs, index[succ])
		}
		shape.Succs = append(shape.Succs, succs)
	}

	return shape
}

// termKind returns the mnemonic of a terminator.
func termKind(term ir.Terminator) string {
	switch term.(type) {
	case *ir.TermRet:
		return "ret"
	case *ir.TermBr:
		return "br"
	case *ir.TermCondBr:
		return "condbr"
	case *ir.TermUnreachable:
		return "unreachable"
	case nil:
		return "none"
	}

	return fmt.Sprintf("%T", term)
}
