// Package normalize rewrites disassembled instructions into a canonical,
// architecture-neutral text form. Two instructions that differ only in which
// register or memory cell they touch normalize to the same string; literal
// operands are kept verbatim.
package normalize

import (
	"strings"
	"unicode"

	"blockgraph/internal/regs"
)

// Canonical operand tokens.
const (
	TokenMem     = "MEM"
	TokenReg     = "REG"
	TokenAddress = "ADDRESS"
)

// AddressPredicate reports whether an address literal is the entry of a known
// function.
type AddressPredicate func(operand string) bool

// NoAddresses is an AddressPredicate that knows no functions.
func NoAddresses(string) bool { return false }

// RawInstruction is one disassembled instruction as supplied by an analyzer.
type RawInstruction struct {
	Mnemonic string
	// OperandText is everything after the mnemonic. Empty means the
	// instruction has no operands.
	OperandText string
	Flow        FlowKind
}

// ParseInstruction splits disassembly text at its first whitespace run into
// mnemonic and operand text.
func ParseInstruction(text string, flow FlowKind) RawInstruction {
	text = strings.TrimSpace(text)
	i := strings.IndexFunc(text, unicode.IsSpace)
	if i < 0 {
		return RawInstruction{Mnemonic: text, Flow: flow}
	}
	return RawInstruction{
		Mnemonic:    text[:i],
		OperandText: strings.TrimSpace(text[i:]),
		Flow:        flow,
	}
}

// String reassembles the instruction text.
func (ri RawInstruction) String() string {
	if ri.OperandText == "" {
		return ri.Mnemonic
	}
	return ri.Mnemonic + " " + ri.OperandText
}

// SplitOperands splits operand text on every comma and trims each part.
// Commas inside brackets are not protected: "[rax,rbx]" yields two operands.
func SplitOperands(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	parts := strings.Split(text, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// IsMemory reports whether operand contains a bracketed sub-expression.
func IsMemory(operand string) bool {
	open := strings.IndexByte(operand, '[')
	return open >= 0 && strings.IndexByte(operand[open+1:], ']') >= 0
}

// Classify maps one operand to its canonical token. First match wins:
//
//  1. bracketed expression: MEM
//  2. contains ':': split once, each half MEM, REG or itself, rejoined with ':'
//  3. register name: REG
//  4. anything else: unchanged
//
// isKnown is accepted for address resolution but no rule consults it yet;
// address literals outside calls and jumps fall through to rule 4.
func Classify(operand string, isKnown AddressPredicate) string {
	if IsMemory(operand) {
		return TokenMem
	}
	if left, right, ok := strings.Cut(operand, ":"); ok {
		return classifyHalf(left) + ":" + classifyHalf(right)
	}
	if regs.IsRegister(operand) {
		return TokenReg
	}
	return operand
}

func classifyHalf(s string) string {
	switch {
	case IsMemory(s):
		return TokenMem
	case regs.IsRegister(s):
		return TokenReg
	default:
		return s
	}
}

// Normalize returns the canonical string of inst.
//
// Calls and jumps become "<mnemonic> ADDRESS" whatever their target.
// Terminals are the bare mnemonic. Everything else is the mnemonic followed by
// its classified operands joined with ", ".
func Normalize(inst RawInstruction, isKnown AddressPredicate) string {
	switch inst.Flow {
	case Call, Jump:
		return inst.Mnemonic + " " + TokenAddress
	case Terminal:
		return inst.Mnemonic
	}

	operands := SplitOperands(inst.OperandText)
	if len(operands) == 0 {
		return inst.Mnemonic
	}

	var b strings.Builder
	b.WriteString(inst.Mnemonic)
	b.WriteByte(' ')
	for i, op := range operands {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(Classify(op, isKnown))
	}
	return b.String()
}

// NormalizeAll normalizes insts in order.
func NormalizeAll(insts []RawInstruction, isKnown AddressPredicate) []string {
	out := make([]string, len(insts))
	for i, inst := range insts {
		out[i] = Normalize(inst, isKnown)
	}
	return out
}
