package graph

import (
	"encoding/json"
	"fmt"
)

// FunctionJSON is the serialized form of a FunctionRecord.
type FunctionJSON struct {
	Name   string      `json:"name" jsonschema:"title=Name,description=Function name"`
	Blocks []BlockJSON `json:"blocks" jsonschema:"title=Blocks,description=Basic blocks in discovery order"`
}

// BlockJSON is the serialized form of a BlockNode. Edges are block labels.
type BlockJSON struct {
	Label            string   `json:"label" jsonschema:"title=Label,description=Block label unique within its function"`
	NormalizedInst   []string `json:"normalizedInst" jsonschema:"title=Normalized Instructions,description=Canonical instructions in disassembly order"`
	SourceBlock      []string `json:"sourceBlock" jsonschema:"title=Source Blocks,description=Labels of blocks with an edge into this block"`
	DestinationBlock []string `json:"destinationBlock" jsonschema:"title=Destination Blocks,description=Labels of blocks this block flows to"`
}

// Wire converts f to its serialized form. Empty lists are non-nil so they
// encode as [].
func (f *FunctionRecord) Wire() FunctionJSON {
	out := FunctionJSON{Name: f.Name, Blocks: make([]BlockJSON, len(f.Blocks))}
	for i, b := range f.Blocks {
		insts := b.NormalizedInstructions
		if insts == nil {
			insts = []string{}
		}
		out.Blocks[i] = BlockJSON{
			Label:            b.Label,
			NormalizedInst:   insts,
			SourceBlock:      f.Labels(b.Sources),
			DestinationBlock: f.Labels(b.Destinations),
		}
	}
	return out
}

func (f *FunctionRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Wire())
}

func (f *FunctionRecord) UnmarshalJSON(data []byte) error {
	var w FunctionJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	rec, err := FromWire(w)
	if err != nil {
		return err
	}
	*f = *rec
	return nil
}

// FromWire relinks a serialized function. Edge labels must name blocks of the
// same function.
func FromWire(w FunctionJSON) (*FunctionRecord, error) {
	rec := &FunctionRecord{
		Name:   w.Name,
		Blocks: make([]BlockNode, len(w.Blocks)),
		index:  make(map[string]BlockID, len(w.Blocks)),
	}
	for i, b := range w.Blocks {
		if _, dup := rec.index[b.Label]; dup {
			return nil, fmt.Errorf("function %q: %w %q", w.Name, ErrDuplicateLabel, b.Label)
		}
		rec.index[b.Label] = BlockID(i)
		rec.Blocks[i] = BlockNode{Label: b.Label, NormalizedInstructions: b.NormalizedInst}
	}
	for i, b := range w.Blocks {
		node := &rec.Blocks[i]
		var err error
		if node.Sources, err = rec.resolve(b.Label, b.SourceBlock, Source); err != nil {
			return nil, err
		}
		if node.Destinations, err = rec.resolve(b.Label, b.DestinationBlock, Destination); err != nil {
			return nil, err
		}
	}
	return rec, nil
}
