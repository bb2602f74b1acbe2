// Package elfx opens ELF binaries, enumerates their function symbols and maps
// virtual addresses to file bytes.
package elfx

import (
	"debug/elf"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"syscall"
)

// ErrNoSymbols is returned by Functions when the image has neither a static
// nor a dynamic symbol table with function entries.
var ErrNoSymbols = errors.New("no function symbols")

type Image struct {
	Path    string
	File    *elf.File
	Machine elf.Machine
	All     []byte
	Loads   []Seg
	Text    Section
	PLT     Section
	Funcs   []Func
	f       *os.File

	entries map[uint64]int
}

type Seg struct {
	Vaddr, Off, Filesz uint64
	Flags              elf.ProgFlag
}

type Section struct {
	Name          string
	VA, Off, Size uint64
}

// Contains reports whether va lies inside the section.
func (s Section) Contains(va uint64) bool {
	return s.Size != 0 && va >= s.VA && va < s.VA+s.Size
}

// Func is a sized function symbol.
type Func struct {
	Name    string
	Addr    uint64
	Size    uint64
	Dynamic bool // came from .dynsym
	Thunk   bool // lies in .plt or carries an @plt suffix
}

func Open(path string) (*Image, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open elf: %w", err)
	}

	of, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open file: %w", err)
	}

	fi, err := of.Stat()
	if err != nil {
		of.Close()
		f.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}

	var all []byte
	if fi.Size() > 0 {
		all, err = syscall.Mmap(int(of.Fd()), 0, int(fi.Size()), syscall.PROT_READ, syscall.MAP_SHARED)
		if err != nil {
			of.Close()
			f.Close()
			return nil, fmt.Errorf("mmap file: %w", err)
		}
	}

	im := &Image{Path: path, File: f, Machine: f.Machine, All: all, f: of}
	for _, p := range f.Progs {
		if p.Type != elf.PT_LOAD {
			continue
		}
		im.Loads = append(im.Loads, Seg{
			Vaddr:  p.Vaddr,
			Off:    p.Off,
			Filesz: p.Filesz,
			Flags:  p.Flags,
		})
	}

	for _, s := range f.Sections {
		switch s.Name {
		case ".text":
			im.Text = Section{s.Name, s.Addr, s.Offset, s.Size}
		case ".plt", ".plt.sec":
			if im.PLT.Size == 0 {
				im.PLT = Section{s.Name, s.Addr, s.Offset, s.Size}
			}
		}
	}

	// Stripped binaries may lack section headers.
	if im.Text.Size == 0 {
		for _, l := range im.Loads {
			if l.Flags&elf.PF_X != 0 && l.Filesz > 0 {
				im.Text = Section{"LOAD(exec)", l.Vaddr, l.Off, l.Filesz}
				break
			}
		}
	}

	im.loadFunctions()
	return im, nil
}

// Close unmaps the memory and closes the underlying files.
func (im *Image) Close() error {
	var err1, err2 error
	if im.All != nil {
		err1 = syscall.Munmap(im.All)
		im.All = nil
	}
	if im.f != nil {
		err2 = im.f.Close()
		im.f = nil
	}
	if im.File != nil {
		err3 := im.File.Close()
		if err3 != nil && err2 == nil {
			err2 = err3
		}
		im.File = nil
	}
	if err1 != nil {
		return err1
	}
	return err2
}

// VA2Off translates a virtual address into a file offset
// using PT_LOAD segments. It returns false if VA is unmapped.
func (im *Image) VA2Off(va uint64) (uint64, bool) {
	for _, l := range im.Loads {
		if va >= l.Vaddr && va < l.Vaddr+l.Filesz {
			return l.Off + (va - l.Vaddr), true
		}
	}
	return 0, false
}

// SliceVA returns a subslice of the mapped file corresponding to the virtual address range [va, va+size).
// It returns (nil, false) if the VA is unmapped or the range is out of bounds.
func (im *Image) SliceVA(va uint64, size uint64) ([]byte, bool) {
	off, ok := im.VA2Off(va)
	if !ok {
		return nil, false
	}
	if size == 0 {
		return []byte{}, true
	}
	end := off + size
	if end > uint64(len(im.All)) {
		return nil, false
	}
	return im.All[off:end], true
}

// IsExecutable reports whether va lies in an executable PT_LOAD segment.
func (im *Image) IsExecutable(va uint64) bool {
	for _, l := range im.Loads {
		if l.Flags&elf.PF_X != 0 && va >= l.Vaddr && va < l.Vaddr+l.Filesz {
			return true
		}
	}
	return false
}

// Code returns the bytes of fn.
func (im *Image) Code(fn Func) ([]byte, bool) {
	return im.SliceVA(fn.Addr, fn.Size)
}

// Functions returns the sized function symbols in address order.
func (im *Image) Functions() ([]Func, error) {
	if len(im.Funcs) == 0 {
		return nil, ErrNoSymbols
	}
	return im.Funcs, nil
}

// FuncAt returns the function starting exactly at addr.
func (im *Image) FuncAt(addr uint64) (Func, bool) {
	i, ok := im.entries[addr]
	if !ok {
		return Func{}, false
	}
	return im.Funcs[i], true
}

// IsFunctionEntry parses an address literal ("0x401000", "00401000",
// "4198400") and reports whether a function starts there. Literals are tried
// as hexadecimal first, the way disassemblers print addresses.
func (im *Image) IsFunctionEntry(literal string) bool {
	addr, ok := ParseAddress(literal)
	if !ok {
		return false
	}
	_, ok = im.entries[addr]
	return ok
}

// ParseAddress parses a hexadecimal (optionally 0x-prefixed) or decimal
// address literal.
func ParseAddress(literal string) (uint64, bool) {
	s := strings.TrimSpace(literal)
	s = strings.TrimPrefix(s, "#")
	if s == "" {
		return 0, false
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseUint(s[2:], 16, 64)
		return v, err == nil
	}
	if v, err := strconv.ParseUint(s, 16, 64); err == nil {
		return v, true
	}
	v, err := strconv.ParseUint(s, 10, 64)
	return v, err == nil
}

// loadFunctions collects STT_FUNC symbols with a size from .symtab, falling
// back to .dynsym, keeping the first name seen at each address.
func (im *Image) loadFunctions() {
	if im.File == nil {
		return
	}

	seen := make(map[uint64]bool)
	add := func(syms []elf.Symbol, dynamic bool) {
		for _, sym := range syms {
			if elf.ST_TYPE(sym.Info) != elf.STT_FUNC || sym.Value == 0 || sym.Size == 0 {
				continue
			}
			if sym.Section == elf.SHN_UNDEF || seen[sym.Value] || !im.IsExecutable(sym.Value) {
				continue
			}
			seen[sym.Value] = true
			im.Funcs = append(im.Funcs, Func{
				Name:    sym.Name,
				Addr:    sym.Value,
				Size:    sym.Size,
				Dynamic: dynamic,
				Thunk:   strings.HasSuffix(sym.Name, "@plt") || im.PLT.Contains(sym.Value),
			})
		}
	}

	// .symtab is absent on stripped binaries.
	if syms, err := im.File.Symbols(); err == nil {
		add(syms, false)
	}
	if dynsyms, err := im.File.DynamicSymbols(); err == nil {
		add(dynsyms, true)
	}

	sort.SliceStable(im.Funcs, func(i, j int) bool { return im.Funcs[i].Addr < im.Funcs[j].Addr })
	im.entries = make(map[uint64]int, len(im.Funcs))
	for i, fn := range im.Funcs {
		im.entries[fn.Addr] = i
	}
}
