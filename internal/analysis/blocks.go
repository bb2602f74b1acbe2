package analysis

import (
	"fmt"
	"sort"

	"blockgraph/internal/disasm"
	"blockgraph/internal/graph"
	"blockgraph/internal/normalize"
)

// BlockLabel names a non-entry block after its start address.
func BlockLabel(va uint64) string {
	return fmt.Sprintf("LAB_%08x", va)
}

// SplitBlocks partitions a function's instruction stream into basic blocks
// and derives their edges. The entry block is labelled with the function
// name, the others with BlockLabel.
//
// Leaders are the first instruction, direct jump targets inside the function
// and every instruction following a jump or terminator. Calls do not end a
// block.
func SplitBlocks(name string, insts disasm.Stream) graph.RawFunction {
	fn := graph.RawFunction{Name: name}
	if len(insts) == 0 {
		return fn
	}

	start := insts[0].VA
	end := insts[len(insts)-1].Next()

	addrToIdx := make(map[uint64]int, len(insts))
	for i, inst := range insts {
		addrToIdx[inst.VA] = i
	}

	inFunc := func(inst disasm.Inst) (int, bool) {
		if !inst.HasTarget || inst.Target < start || inst.Target >= end {
			return 0, false
		}
		idx, ok := addrToIdx[inst.Target]
		return idx, ok
	}

	leaders := map[int]bool{0: true}
	for i, inst := range insts {
		if inst.Flow != normalize.Jump && inst.Flow != normalize.Terminal {
			continue
		}
		if i+1 < len(insts) {
			leaders[i+1] = true
		}
		if inst.Flow == normalize.Jump {
			if idx, ok := inFunc(inst); ok {
				leaders[idx] = true
			}
		}
	}

	sorted := make([]int, 0, len(leaders))
	for idx := range leaders {
		sorted = append(sorted, idx)
	}
	sort.Ints(sorted)

	leaderToBlock := make(map[int]int, len(sorted))
	fn.Blocks = make([]graph.RawBlock, len(sorted))
	ends := make([]int, len(sorted))
	for b, first := range sorted {
		last := len(insts)
		if b+1 < len(sorted) {
			last = sorted[b+1]
		}
		ends[b] = last
		leaderToBlock[first] = b

		label := BlockLabel(insts[first].VA)
		if first == 0 {
			label = name
		}
		raw := make([]normalize.RawInstruction, 0, last-first)
		for _, inst := range insts[first:last] {
			raw = append(raw, inst.Raw())
		}
		fn.Blocks[b] = graph.RawBlock{Label: label, Instructions: raw}
	}

	for b := range fn.Blocks {
		tail := insts[ends[b]-1]
		var succs []int
		if tail.Flow == normalize.Jump {
			if idx, ok := inFunc(tail); ok {
				succs = append(succs, leaderToBlock[idx])
			}
		}
		if tail.FallsThrough() {
			if next, ok := leaderToBlock[ends[b]]; ok {
				succs = append(succs, next)
			}
		}
		for _, s := range succs {
			fn.Blocks[b].Destinations = append(fn.Blocks[b].Destinations, fn.Blocks[s].Label)
			fn.Blocks[s].Sources = append(fn.Blocks[s].Sources, fn.Blocks[b].Label)
		}
	}
	return fn
}
