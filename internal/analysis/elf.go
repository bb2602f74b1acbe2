// Package analysis enumerates the functions of a binary as basic blocks with
// instruction text, flow kinds and block-to-block edges. It is the analyzer
// side of extraction: ELF binaries are disassembled here, and analyses
// produced by other tools are loaded from JSON.
package analysis

import (
	"fmt"

	"blockgraph/internal/disasm"
	"blockgraph/internal/elfx"
	"blockgraph/internal/graph"
)

// Options controls ELF analysis.
type Options struct {
	// Demangle replaces mangled function names with their demangled form.
	Demangle bool
	// MaxInstructions caps decoding per function; 0 means no cap.
	MaxInstructions int
	// IncludeThunks keeps PLT stubs.
	IncludeThunks bool
}

// ELF is a function source backed by an ELF image.
type ELF struct {
	im    *elfx.Image
	arch  disasm.Arch
	funcs []elfx.Func
	opts  Options
}

// OpenELF opens path and prepares its function symbols for extraction.
func OpenELF(path string, opts Options) (*ELF, error) {
	im, err := elfx.Open(path)
	if err != nil {
		return nil, err
	}
	arch, err := disasm.ArchFor(im.Machine)
	if err != nil {
		im.Close()
		return nil, err
	}
	all, err := im.Functions()
	if err != nil {
		im.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	funcs := make([]elfx.Func, 0, len(all))
	for _, fn := range all {
		if fn.Thunk && !opts.IncludeThunks {
			continue
		}
		funcs = append(funcs, fn)
	}
	return &ELF{im: im, arch: arch, funcs: funcs, opts: opts}, nil
}

// Arch is the decoder used for the image.
func (e *ELF) Arch() disasm.Arch { return e.arch }

// Len is the number of functions to extract.
func (e *ELF) Len() int { return len(e.funcs) }

// Function disassembles the i-th function in address order and splits it
// into blocks.
func (e *ELF) Function(i int) (graph.RawFunction, error) {
	fn := e.funcs[i]
	name := fn.Name
	if e.opts.Demangle {
		name = Demangle(name)
	}

	code, ok := e.im.Code(fn)
	if !ok {
		return graph.RawFunction{Name: name}, fmt.Errorf("function %q: code at %#x+%#x is not mapped", name, fn.Addr, fn.Size)
	}
	insts, err := disasm.Decode(e.arch, code, fn.Addr, e.opts.MaxInstructions)
	if err != nil {
		return graph.RawFunction{Name: name}, fmt.Errorf("function %q: %w", name, err)
	}
	return SplitBlocks(name, insts), nil
}

// IsFunctionEntry reports whether an address literal is a function start.
func (e *ELF) IsFunctionEntry(literal string) bool {
	return e.im.IsFunctionEntry(literal)
}

// Close releases the image.
func (e *ELF) Close() error {
	return e.im.Close()
}
