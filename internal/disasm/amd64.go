package disasm

import (
	"fmt"

	"golang.org/x/arch/x86/x86asm"

	"blockgraph/internal/normalize"
)

func decodeAMD64(code []byte, va uint64, max int) Stream {
	var out Stream
	off := 0
	for off < len(code) && (max <= 0 || len(out) < max) {
		pc := va + uint64(off)

		// x86asm does not know the CET markers ENDBR64/ENDBR32.
		if off+4 <= len(code) &&
			code[off] == 0xf3 && code[off+1] == 0x0f &&
			code[off+2] == 0x1e && (code[off+3] == 0xfa || code[off+3] == 0xfb) {
			text := "endbr64"
			if code[off+3] == 0xfb {
				text = "endbr32"
			}
			out = append(out, Inst{VA: pc, Len: 4, Text: text})
			off += 4
			continue
		}

		inst, err := x86asm.Decode(code[off:], 64)
		if err != nil || inst.Len == 0 {
			out = append(out, Inst{VA: pc, Len: 1, Text: fmt.Sprintf(".byte 0x%02x", code[off])})
			off++
			continue
		}

		di := Inst{
			VA:   pc,
			Len:  inst.Len,
			Text: x86asm.IntelSyntax(inst, pc, noSymbols),
		}
		di.Flow, di.Cond = classifyAMD64(inst.Op)
		if di.Flow.IsTransfer() {
			if rel, ok := inst.Args[0].(x86asm.Rel); ok {
				di.Target = pc + uint64(inst.Len) + uint64(int64(rel))
				di.HasTarget = true
			}
		}
		out = append(out, di)
		off += inst.Len
	}
	return out
}

func noSymbols(uint64) (string, uint64) { return "", 0 }

func classifyAMD64(op x86asm.Op) (flow normalize.FlowKind, cond bool) {
	switch op {
	case x86asm.CALL, x86asm.LCALL:
		return normalize.Call, false
	case x86asm.JMP, x86asm.LJMP:
		return normalize.Jump, false
	case x86asm.JA, x86asm.JAE, x86asm.JB, x86asm.JBE, x86asm.JE, x86asm.JNE,
		x86asm.JG, x86asm.JGE, x86asm.JL, x86asm.JLE, x86asm.JO, x86asm.JNO,
		x86asm.JP, x86asm.JNP, x86asm.JS, x86asm.JNS,
		x86asm.JCXZ, x86asm.JECXZ, x86asm.JRCXZ,
		x86asm.LOOP, x86asm.LOOPE, x86asm.LOOPNE:
		return normalize.Jump, true
	case x86asm.RET, x86asm.LRET, x86asm.IRET, x86asm.IRETD, x86asm.IRETQ,
		x86asm.HLT, x86asm.UD1, x86asm.UD2, x86asm.SYSRET, x86asm.SYSEXIT:
		return normalize.Terminal, false
	}
	return normalize.Operation, false
}
