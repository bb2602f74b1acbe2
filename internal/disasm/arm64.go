package disasm

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/arch/arm64/arm64asm"

	"blockgraph/internal/normalize"
)

func decodeARM64(code []byte, va uint64, max int) Stream {
	n := len(code) / 4
	if max > 0 && n > max {
		n = max
	}

	out := make(Stream, 0, n)
	for i := 0; i < n; i++ {
		off := i * 4
		pc := va + uint64(off)

		inst, err := arm64asm.Decode(code[off : off+4])
		if err != nil {
			raw := binary.LittleEndian.Uint32(code[off : off+4])
			out = append(out, Inst{VA: pc, Len: 4, Text: fmt.Sprintf(".word 0x%08x", raw)})
			continue
		}

		di := Inst{VA: pc, Len: 4, Text: inst.String()}
		di.Flow, di.Cond = classifyARM64(inst)
		if di.Flow.IsTransfer() {
			for _, arg := range inst.Args {
				if rel, ok := arg.(arm64asm.PCRel); ok {
					di.Target = pc + uint64(int64(rel))
					di.HasTarget = true
					break
				}
			}
		}
		out = append(out, di)
	}
	return out
}

func classifyARM64(inst arm64asm.Inst) (flow normalize.FlowKind, cond bool) {
	switch inst.Op {
	case arm64asm.BL, arm64asm.BLR:
		return normalize.Call, false
	case arm64asm.B:
		// B.<cond> decodes as B with a condition argument.
		for _, arg := range inst.Args {
			if _, ok := arg.(arm64asm.Cond); ok {
				return normalize.Jump, true
			}
		}
		return normalize.Jump, false
	case arm64asm.BR:
		return normalize.Jump, false
	case arm64asm.CBZ, arm64asm.CBNZ, arm64asm.TBZ, arm64asm.TBNZ:
		return normalize.Jump, true
	case arm64asm.RET, arm64asm.ERET, arm64asm.BRK, arm64asm.HLT:
		return normalize.Terminal, false
	}
	return normalize.Operation, false
}
