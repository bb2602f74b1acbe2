// Package disasm decodes machine code into a common instruction
// representation carrying the text, control-flow class and direct branch
// target of each instruction.
package disasm

import (
	"debug/elf"
	"errors"
	"fmt"

	"blockgraph/internal/normalize"
)

// Arch selects a decoder.
type Arch string

const (
	AMD64 Arch = "amd64"
	ARM64 Arch = "arm64"
)

var ErrUnsupportedArch = errors.New("unsupported architecture")

// ArchFor maps an ELF machine to a decoder.
func ArchFor(m elf.Machine) (Arch, error) {
	switch m {
	case elf.EM_X86_64:
		return AMD64, nil
	case elf.EM_AARCH64:
		return ARM64, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedArch, m)
}

// Inst is a decoded instruction.
type Inst struct {
	VA   uint64 // virtual address of instruction
	Len  int
	Text string // formatted disassembly string
	Flow normalize.FlowKind
	// Cond is set on jumps that may fall through.
	Cond bool
	// Target is the direct branch or call target when HasTarget is set.
	Target    uint64
	HasTarget bool
}

// Next is the address of the following instruction.
func (i Inst) Next() uint64 { return i.VA + uint64(i.Len) }

// FallsThrough reports whether control can continue at Next.
func (i Inst) FallsThrough() bool {
	switch i.Flow {
	case normalize.Terminal:
		return false
	case normalize.Jump:
		return i.Cond
	}
	return true
}

// Raw splits the text into the analyzer-facing instruction shape.
func (i Inst) Raw() normalize.RawInstruction {
	return normalize.ParseInstruction(i.Text, i.Flow)
}

// Stream is a linear sequence of instructions.
type Stream []Inst

// Decode disassembles code located at va until the bytes run out or max
// instructions have been produced. max <= 0 means no limit. Undecodable bytes
// become data pseudo-instructions and decoding resumes after them.
func Decode(arch Arch, code []byte, va uint64, max int) (Stream, error) {
	switch arch {
	case AMD64:
		return decodeAMD64(code, va, max), nil
	case ARM64:
		return decodeARM64(code, va, max), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedArch, arch)
}
