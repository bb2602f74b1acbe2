// Package graph links the basic blocks of one function into a directed graph
// of source and destination relationships, normalizing each block's
// instructions on the way.
//
// Blocks live in an arena owned by their FunctionRecord. Edges are BlockIDs
// into that arena, so cyclic control flow needs no shared ownership.
package graph

import (
	"errors"
	"fmt"

	"blockgraph/internal/normalize"
)

// BlockID indexes FunctionRecord.Blocks.
type BlockID int

// BlockNode is one basic block of a function.
type BlockNode struct {
	Label string
	// NormalizedInstructions keeps the original disassembly order.
	NormalizedInstructions []string
	// Sources and Destinations hold one entry per edge in discovery order.
	// Duplicates are kept.
	Sources      []BlockID
	Destinations []BlockID
}

// FunctionRecord is the fully linked graph of one function. It is immutable
// once returned by Build.
type FunctionRecord struct {
	Name   string
	Blocks []BlockNode

	index map[string]BlockID
}

// RawBlock is a basic block as enumerated by an analyzer. Sources and
// Destinations are labels of blocks in the same function.
type RawBlock struct {
	Label        string
	Instructions []normalize.RawInstruction
	Sources      []string
	Destinations []string
}

// RawFunction is a function as enumerated by an analyzer, blocks in discovery
// order.
type RawFunction struct {
	Name   string
	Blocks []RawBlock
}

// Direction tells which edge list an edge was declared in.
type Direction int

const (
	Source Direction = iota
	Destination
)

func (d Direction) String() string {
	if d == Source {
		return "source"
	}
	return "destination"
}

// ErrDuplicateLabel is returned when two blocks of one function share a label.
var ErrDuplicateLabel = errors.New("duplicate block label")

// EdgeResolutionError reports an edge naming a block the function does not
// contain. It means the analyzer's block and edge enumerations disagree.
type EdgeResolutionError struct {
	Function  string
	Block     string
	Label     string
	Direction Direction
}

func (e *EdgeResolutionError) Error() string {
	return fmt.Sprintf("function %q: block %q: %s block %q not found",
		e.Function, e.Block, e.Direction, e.Label)
}

// Build normalizes every block of fn and resolves its edge labels against the
// blocks of the same function. Blocks keep their discovery order.
func Build(fn RawFunction, isKnown normalize.AddressPredicate) (*FunctionRecord, error) {
	if isKnown == nil {
		isKnown = normalize.NoAddresses
	}

	rec := &FunctionRecord{
		Name:   fn.Name,
		Blocks: make([]BlockNode, len(fn.Blocks)),
		index:  make(map[string]BlockID, len(fn.Blocks)),
	}
	for i, rb := range fn.Blocks {
		if _, dup := rec.index[rb.Label]; dup {
			return nil, fmt.Errorf("function %q: %w %q", fn.Name, ErrDuplicateLabel, rb.Label)
		}
		rec.index[rb.Label] = BlockID(i)
		rec.Blocks[i] = BlockNode{
			Label:                  rb.Label,
			NormalizedInstructions: normalize.NormalizeAll(rb.Instructions, isKnown),
		}
	}

	for i, rb := range fn.Blocks {
		node := &rec.Blocks[i]
		var err error
		if node.Sources, err = rec.resolve(rb.Label, rb.Sources, Source); err != nil {
			return nil, err
		}
		if node.Destinations, err = rec.resolve(rb.Label, rb.Destinations, Destination); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

func (f *FunctionRecord) resolve(block string, labels []string, dir Direction) ([]BlockID, error) {
	ids := make([]BlockID, 0, len(labels))
	for _, l := range labels {
		id, ok := f.index[l]
		if !ok {
			return nil, &EdgeResolutionError{Function: f.Name, Block: block, Label: l, Direction: dir}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Lookup returns the block labelled label.
func (f *FunctionRecord) Lookup(label string) (BlockID, bool) {
	if f.index == nil {
		f.reindex()
	}
	id, ok := f.index[label]
	return id, ok
}

func (f *FunctionRecord) reindex() {
	f.index = make(map[string]BlockID, len(f.Blocks))
	for i, b := range f.Blocks {
		f.index[b.Label] = BlockID(i)
	}
}

// Block returns the node for id. It panics if id is out of range.
func (f *FunctionRecord) Block(id BlockID) *BlockNode {
	return &f.Blocks[id]
}

// Labels maps ids to block labels.
func (f *FunctionRecord) Labels(ids []BlockID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = f.Blocks[id].Label
	}
	return out
}

// EdgeCount is the number of destination edges, duplicates included.
func (f *FunctionRecord) EdgeCount() int {
	n := 0
	for _, b := range f.Blocks {
		n += len(b.Destinations)
	}
	return n
}

// InstructionCount is the number of normalized instructions in all blocks.
func (f *FunctionRecord) InstructionCount() int {
	n := 0
	for _, b := range f.Blocks {
		n += len(b.NormalizedInstructions)
	}
	return n
}

// Validate checks that every edge refers to a block of f.
func (f *FunctionRecord) Validate() error {
	check := func(b *BlockNode, ids []BlockID, dir Direction) error {
		for _, id := range ids {
			if id < 0 || int(id) >= len(f.Blocks) {
				return &EdgeResolutionError{
					Function:  f.Name,
					Block:     b.Label,
					Label:     fmt.Sprintf("#%d", id),
					Direction: dir,
				}
			}
		}
		return nil
	}
	for i := range f.Blocks {
		b := &f.Blocks[i]
		if err := check(b, b.Sources, Source); err != nil {
			return err
		}
		if err := check(b, b.Destinations, Destination); err != nil {
			return err
		}
	}
	return nil
}

// Result is the outcome of extracting one function: either a record or the
// reason it could not be built.
type Result struct {
	Name   string
	Record *FunctionRecord
	Err    error
}

// Extracted reports whether the function produced a record.
func (r Result) Extracted() bool { return r.Err == nil && r.Record != nil }

// BuildResult wraps Build in a Result.
func BuildResult(fn RawFunction, isKnown normalize.AddressPredicate) Result {
	rec, err := Build(fn, isKnown)
	return Result{Name: fn.Name, Record: rec, Err: err}
}
