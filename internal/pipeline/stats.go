package pipeline

import (
	"cmp"
	"slices"
	"strings"

	"blockgraph/internal/graph"
)

// Stats summarises a run or a document.
type Stats struct {
	Functions    int `json:"functions"`
	Written      int `json:"written"`
	Skipped      int `json:"skipped"`
	Blocks       int `json:"blocks"`
	Edges        int `json:"edges"`
	Instructions int `json:"instructions"`
	// Mnemonics counts the leading word of every canonical instruction.
	Mnemonics map[string]int `json:"mnemonics"`
	Failures  []Failure      `json:"failures,omitempty"`
}

// Failure names a skipped function.
type Failure struct {
	Function string `json:"function"`
	Reason   string `json:"reason"`
}

// MnemonicCount is one histogram entry.
type MnemonicCount struct {
	Mnemonic string
	Count    int
}

func newStats() Stats {
	return Stats{Mnemonics: make(map[string]int)}
}

// Summarize computes Stats for already extracted records.
func Summarize(recs []*graph.FunctionRecord) Stats {
	s := newStats()
	for _, rec := range recs {
		s.Functions++
		s.Add(rec)
	}
	return s
}

// Add accounts for one written record.
func (s *Stats) Add(rec *graph.FunctionRecord) {
	if s.Mnemonics == nil {
		s.Mnemonics = make(map[string]int)
	}
	s.Written++
	s.Blocks += len(rec.Blocks)
	s.Edges += rec.EdgeCount()
	for _, b := range rec.Blocks {
		s.Instructions += len(b.NormalizedInstructions)
		for _, inst := range b.NormalizedInstructions {
			mn, _, _ := strings.Cut(inst, " ")
			s.Mnemonics[mn]++
		}
	}
}

func (s *Stats) fail(res graph.Result) {
	s.Skipped++
	s.Failures = append(s.Failures, Failure{Function: res.Name, Reason: res.Err.Error()})
}

// TopMnemonics returns up to n entries by descending count, ties by name.
// n <= 0 returns all of them.
func (s Stats) TopMnemonics(n int) []MnemonicCount {
	out := make([]MnemonicCount, 0, len(s.Mnemonics))
	for mn, c := range s.Mnemonics {
		out = append(out, MnemonicCount{Mnemonic: mn, Count: c})
	}
	slices.SortFunc(out, func(a, b MnemonicCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Mnemonic, b.Mnemonic)
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
