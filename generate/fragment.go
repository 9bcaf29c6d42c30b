package generate

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"
)

// Fragment is the target-specific part of filter code generation: how a filter
// reads from its input channel and writes to its output channel.  Each method
// emits its instructions at the end of the given block.  A nil value (or false
// from BuildPush) means the operation cannot be built in this context.
type Fragment interface {
	BuildPop(block *ir.Block) value.Value
	BuildPeek(block *ir.Block, index value.Value) value.Value
	BuildPush(block *ir.Block, val value.Value) bool
}

// NullFragment is the fragment for code with no channels: init blocks and
// ordinary functions.
type NullFragment struct{}

func (NullFragment) BuildPop(*ir.Block) value.Value               { return nil }
func (NullFragment) BuildPeek(*ir.Block, value.Value) value.Value { return nil }
func (NullFragment) BuildPush(*ir.Block, value.Value) bool        { return false }
