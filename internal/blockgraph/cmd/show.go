package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"blockgraph/internal/export"
	"blockgraph/internal/graph"
	"blockgraph/internal/ui/colorize"
)

var showCmd = &cobra.Command{
	Use:   "show <document> [function]",
	Short: "Print the canonical listing of extracted functions",
	Long: `Show prints every block of the named function, or of all functions, with its
canonical instructions and its incoming and outgoing edges.`,
	Example: `
blockgraph show graphs.json
blockgraph show graphs.json main
  `,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		recs, err := export.ReadFile(args[0])
		if err != nil {
			return err
		}
		if len(args) == 2 {
			recs = filterFunctions(recs, args[1])
			if len(recs) == 0 {
				return fmt.Errorf("function %q not found in %s", args[1], args[0])
			}
		}

		var b strings.Builder
		for i, rec := range recs {
			if i > 0 {
				b.WriteString("\n")
			}
			writeListing(&b, rec)
		}

		out, err := colorize.ColorizeListing(b.String())
		if err != nil {
			out = b.String()
		}
		_, err = io.WriteString(cmd.OutOrStdout(), out)
		return err
	},
}

// filterFunctions keeps the records named name. Names need not be unique.
func filterFunctions(recs []*graph.FunctionRecord, name string) []*graph.FunctionRecord {
	var out []*graph.FunctionRecord
	for _, rec := range recs {
		if rec.Name == name {
			out = append(out, rec)
		}
	}
	return out
}

// writeListing writes rec as a label line per block, its sources as a
// comment, its instructions indented and its destinations as a comment.
func writeListing(w io.Writer, rec *graph.FunctionRecord) {
	fmt.Fprintf(w, "; %s  %d blocks, %d edges, %d instructions\n",
		rec.Name, len(rec.Blocks), rec.EdgeCount(), rec.InstructionCount())
	for _, b := range rec.Blocks {
		fmt.Fprintf(w, "%s:\n", b.Label)
		if len(b.Sources) > 0 {
			fmt.Fprintf(w, "  ; <- %s\n", strings.Join(rec.Labels(b.Sources), ", "))
		}
		for _, inst := range b.NormalizedInstructions {
			fmt.Fprintf(w, "  %s\n", inst)
		}
		if len(b.Destinations) > 0 {
			fmt.Fprintf(w, "  ; -> %s\n", strings.Join(rec.Labels(b.Destinations), ", "))
		}
	}
}
