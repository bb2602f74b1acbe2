// Package regs holds the fixed register name sets used to recognise register
// operands in disassembly text.
package regs

import (
	"strconv"
	"strings"
)

// Arch names a register set.
type Arch string

const (
	X86_64 Arch = "x86_64"
	ARM    Arch = "arm"
)

// x86_64 general purpose, vector, FPU, control, debug, segment and
// descriptor table registers.
var x86_64Names = []string{
	"AH", "AL", "AX", "EAX", "RAX", "BH", "BL", "BX", "EBX", "RBX",
	"CH", "CL", "ECX", "RCX", "DH", "DL", "EDX", "RDX",
	"BPL", "BP", "EBP", "RBP", "SPL", "SP", "ESP", "RSP",
	"SIL", "SI", "ESI", "RSI", "DIL", "DI", "EDI", "RDI",
	"R8", "R8B", "R8D", "R8W", "R9", "R9B", "R9D", "R9W",
	"R10", "R10B", "R10D", "R10W", "R11", "R11B", "R11D", "R11W",
	"R12", "R12B", "R12D", "R12W", "R13", "R13B", "R13D", "R13W",
	"R14", "R14B", "R14D", "R14W", "R15", "R15B", "R15D", "R15W",
	"MM0", "MM1", "MM2", "MM3", "MM4", "MM5", "MM6", "MM7",
	"ST(0)", "ST(1)", "ST(2)", "ST(3)", "ST(4)", "ST(5)", "ST(6)", "ST(7)",
	"MXCSR",
	"CS", "SS", "DS", "ES", "FS", "GS",
	"GDTR", "IDTR", "TR", "LDTR",
	"CW", "SW", "TW", "FP_IP", "FP_DP", "FP_CS", "FP_DS", "FP_OPC", "MSW",
	"IP", "EIP", "RIP",
}

// ARM 32-bit core registers and AArch64 general purpose and SIMD/FP
// registers.
var armNames = []string{
	"R0", "R1", "R2", "R3", "R4", "R5", "R6", "R7", "R8", "R9", "R10", "R11",
	"FP", "R12", "IP", "R13", "SP", "R14", "LR", "R15", "PC", "CPSR",
}

var (
	x86_64Set = buildX86()
	armSet    = buildARM()
)

func buildX86() map[string]struct{} {
	set := make(map[string]struct{}, 256)
	for _, n := range x86_64Names {
		set[n] = struct{}{}
	}
	for i := 0; i < 32; i++ {
		set[numbered("ZMM", i)] = struct{}{}
		if i < 16 {
			set[numbered("XMM", i)] = struct{}{}
			set[numbered("YMM", i)] = struct{}{}
			set[numbered("CR", i)] = struct{}{}
			set[numbered("DR", i)] = struct{}{}
		}
	}
	return set
}

func buildARM() map[string]struct{} {
	set := make(map[string]struct{}, 256)
	for _, n := range armNames {
		set[n] = struct{}{}
	}
	for i := 0; i < 32; i++ {
		if i <= 30 {
			set[numbered("X", i)] = struct{}{}
			set[numbered("W", i)] = struct{}{}
		}
		set[numbered("S", i)] = struct{}{}
		set[numbered("D", i)] = struct{}{}
		set[numbered("V", i)] = struct{}{}
	}
	return set
}

func numbered(prefix string, i int) string {
	return prefix + strconv.Itoa(i)
}

// Canonical strips all whitespace and upper-cases the token, the form the
// catalog is keyed by.
func Canonical(token string) string {
	return strings.ToUpper(strings.Join(strings.Fields(token), ""))
}

// IsRegister reports whether token names a register of any known
// architecture. Matching ignores case and spaces; there is no prefix or
// partial matching.
func IsRegister(token string) bool {
	_, ok := Lookup(token)
	return ok
}

// Lookup returns the first architecture whose register set contains token.
// x86_64 is checked before ARM.
func Lookup(token string) (Arch, bool) {
	name := Canonical(token)
	if name == "" {
		return "", false
	}
	if _, ok := x86_64Set[name]; ok {
		return X86_64, true
	}
	if _, ok := armSet[name]; ok {
		return ARM, true
	}
	return "", false
}

// Names returns a copy of the register names of arch in no particular order.
func Names(arch Arch) []string {
	var set map[string]struct{}
	switch arch {
	case X86_64:
		set = x86_64Set
	case ARM:
		set = armSet
	default:
		return nil
	}
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	return out
}
