package analysis

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"blockgraph/internal/elfx"
	"blockgraph/internal/graph"
	"blockgraph/internal/normalize"
)

// InputDocument is an analysis produced by another tool: functions with
// their blocks, instruction text, flow kinds and edge labels.
type InputDocument struct {
	Functions []InputFunction `json:"functions" jsonschema:"title=Functions,description=Functions in discovery order"`
	// FunctionEntries lists address literals of known function entries.
	FunctionEntries []string `json:"functionEntries,omitempty" jsonschema:"title=Function Entries,description=Addresses of known function entry points"`
}

type InputFunction struct {
	Name   string       `json:"name" jsonschema:"title=Name"`
	Blocks []InputBlock `json:"blocks" jsonschema:"title=Blocks"`
}

type InputBlock struct {
	Label        string             `json:"label" jsonschema:"title=Label"`
	Instructions []InputInstruction `json:"instructions" jsonschema:"title=Instructions"`
	Sources      []string           `json:"sources,omitempty" jsonschema:"title=Sources,description=Labels of predecessor blocks"`
	Destinations []string           `json:"destinations,omitempty" jsonschema:"title=Destinations,description=Labels of successor blocks"`
}

type InputInstruction struct {
	Text string `json:"text" jsonschema:"title=Text,description=Disassembly text: mnemonic then operands"`
	Flow string `json:"flow,omitempty" jsonschema:"title=Flow,enum=CALL,enum=JUMP,enum=TERMINAL,enum=OPERATION,default=OPERATION"`
}

// Document is a function source backed by a decoded InputDocument.
type Document struct {
	doc     InputDocument
	entries map[uint64]bool
}

// LoadFile reads an InputDocument from path.
func LoadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open analysis: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes an InputDocument.
func Load(r io.Reader) (*Document, error) {
	var doc InputDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	return NewDocument(doc), nil
}

// NewDocument wraps an already decoded analysis.
func NewDocument(doc InputDocument) *Document {
	d := &Document{doc: doc, entries: make(map[uint64]bool, len(doc.FunctionEntries))}
	for _, lit := range doc.FunctionEntries {
		if addr, ok := elfx.ParseAddress(lit); ok {
			d.entries[addr] = true
		}
	}
	return d
}

func (d *Document) Len() int { return len(d.doc.Functions) }

// Function converts the i-th function. An unknown flow kind is an error
// naming the function and block.
func (d *Document) Function(i int) (graph.RawFunction, error) {
	in := d.doc.Functions[i]
	fn := graph.RawFunction{Name: in.Name, Blocks: make([]graph.RawBlock, len(in.Blocks))}
	for b, ib := range in.Blocks {
		insts := make([]normalize.RawInstruction, len(ib.Instructions))
		for k, ii := range ib.Instructions {
			flow, err := normalize.ParseFlowKind(ii.Flow)
			if err != nil {
				return graph.RawFunction{Name: in.Name}, fmt.Errorf("function %q: block %q: instruction %d: %w", in.Name, ib.Label, k, err)
			}
			insts[k] = normalize.ParseInstruction(ii.Text, flow)
		}
		fn.Blocks[b] = graph.RawBlock{
			Label:        ib.Label,
			Instructions: insts,
			Sources:      ib.Sources,
			Destinations: ib.Destinations,
		}
	}
	return fn, nil
}

func (d *Document) IsFunctionEntry(literal string) bool {
	addr, ok := elfx.ParseAddress(literal)
	return ok && d.entries[addr]
}

func (d *Document) Close() error { return nil }
