package hlstarget

import (
	"streamc/generate"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// ChannelUsage records how a filter function accesses its channels.  It is
// used to size the FIFOs connecting hardware components.  Counts are of
// emitted accesses, not of accesses made at run time.
type ChannelUsage struct {
	PopSites  int
	PeekSites int
	PushSites int

	// MaxPeek is the largest constant peek offset, or -1 if there is none.
	MaxPeek int64

	// DynamicPeek is set if any peek offset is not a constant.
	DynamicPeek bool
}

// Fragment accesses a filter's channels through the `in_ptr` and `out_ptr`
// parameters of its work function.  Every access is volatile: a pop is a load
// through `in_ptr`, a peek is a load through an offset from `in_ptr` and a push
// is a store through `out_ptr`.
type Fragment struct {
	in, out         value.Value
	inType, outType types.Type

	Usage ChannelUsage
}

// NewFragment creates a fragment for the given channel pointers.  Either may
// be nil when the filter has no such channel.
func NewFragment(in, out *ir.Param) *Fragment {
	frag := &Fragment{Usage: ChannelUsage{MaxPeek: -1}}

	if in != nil {
		frag.in = in
		frag.inType = in.Typ.(*types.PointerType).ElemType
	}

	if out != nil {
		frag.out = out
		frag.outType = out.Typ.(*types.PointerType).ElemType
	}

	return frag
}

func (f *Fragment) BuildPop(block *ir.Block) value.Value {
	if f.in == nil {
		return nil
	}

	f.Usage.PopSites++

	load := block.NewLoad(f.inType, f.in)
	load.Volatile = true
	return load
}

func (f *Fragment) BuildPeek(block *ir.Block, index value.Value) value.Value {
	if f.in == nil {
		return nil
	}

	f.Usage.PeekSites++
	if c, ok := index.(*constant.Int); ok {
		if off := c.X.Int64(); off > f.Usage.MaxPeek {
			f.Usage.MaxPeek = off
		}
	} else {
		f.Usage.DynamicPeek = true
	}

	elemPtr := block.NewGetElementPtr(f.inType, f.in, index)
	load := block.NewLoad(f.inType, elemPtr)
	load.Volatile = true
	return load
}

func (f *Fragment) BuildPush(block *ir.Block, val value.Value) bool {
	if f.out == nil {
		return false
	}

	f.Usage.PushSites++

	st := block.NewStore(val, f.out)
	st.Volatile = true
	return true
}

var _ generate.Fragment = (*Fragment)(nil)
