package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"blockgraph/internal/blockgraph/styles"
	"blockgraph/internal/export"
	"blockgraph/internal/pipeline"
	"blockgraph/internal/ui/colorize"
)

var statsCmd = &cobra.Command{
	Use:   "stats <document>",
	Short: "Summarize an extracted document",
	Long: `Stats counts the functions, blocks, edges and instructions of a document and
lists its most frequent canonical instructions.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		recs, err := export.ReadFile(args[0])
		if err != nil {
			return err
		}
		stats := pipeline.Summarize(recs)

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		}

		top, _ := cmd.Flags().GetInt("top")
		markdown := statsMarkdown(filepath.Base(args[0]), stats, top)

		width := 80
		if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
			width = w
		}
		renderer := styles.GetReportRenderer(width-2, colorize.Enabled())
		rendered, err := renderer.Render(markdown)
		if err != nil {
			rendered = markdown
		}
		fmt.Fprint(cmd.OutOrStdout(), rendered)
		return nil
	},
}

// statsMarkdown renders the report source.
func statsMarkdown(name string, s pipeline.Stats, top int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", name)

	b.WriteString("| | |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Functions | %d |\n", s.Functions)
	fmt.Fprintf(&b, "| Blocks | %d |\n", s.Blocks)
	fmt.Fprintf(&b, "| Edges | %d |\n", s.Edges)
	fmt.Fprintf(&b, "| Instructions | %d |\n", s.Instructions)
	if s.Functions > 0 {
		fmt.Fprintf(&b, "| Blocks per function | %.1f |\n", float64(s.Blocks)/float64(s.Functions))
	}

	counts := s.TopMnemonics(top)
	if len(counts) == 0 {
		return b.String()
	}
	fmt.Fprintf(&b, "\n## Top %d instructions\n\n", len(counts))
	b.WriteString("| Mnemonic | Count | Share |\n|---|---:|---:|\n")
	for _, c := range counts {
		share := 100 * float64(c.Count) / float64(s.Instructions)
		fmt.Fprintf(&b, "| `%s` | %d | %.1f%% |\n", c.Mnemonic, c.Count, share)
	}
	return b.String()
}

func init() {
	statsCmd.Flags().IntP("top", "t", 10, "Number of canonical mnemonics to list (0 for all)")
	statsCmd.Flags().BoolP("json", "j", false, "Print the summary as JSON")
}
