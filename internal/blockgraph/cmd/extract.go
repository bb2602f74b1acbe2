package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"blockgraph/internal/analysis"
	"blockgraph/internal/export"
	"blockgraph/internal/logging"
	"blockgraph/internal/pipeline"
)

// source is a function source that holds resources.
type source interface {
	pipeline.Source
	io.Closer
}

var extractCmd = &cobra.Command{
	Use:   "extract [binary]",
	Short: "Extract block graphs from a binary",
	Long: `Extract disassembles every function of an ELF binary (x86-64 or ARM64),
splits it into basic blocks, normalizes each instruction and writes one record
per function to a JSON document. With --input the functions come from an
analysis file produced by another tool instead.`,
	Example: `
# Write to stdout
blockgraph extract ./a.out

# Parallel extraction, failing on the first inconsistent function
blockgraph extract ./a.out -o graphs.json --workers 8 --on-edge-error abort

# Use an analysis produced elsewhere
blockgraph extract --input analysis.json -o graphs.json
  `,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := extractConfig(cmd)
		if err != nil {
			return err
		}

		input, _ := cmd.Flags().GetString("input")
		output, _ := cmd.Flags().GetString("output")
		switch {
		case input == "" && len(args) == 0:
			return fmt.Errorf("usage: blockgraph extract <binary> (or --input <analysis.json>)")
		case input != "" && len(args) > 0:
			return fmt.Errorf("give either a binary or --input, not both")
		}

		lg := logging.NewLogger()
		defer lg.Close()
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			lg.SetLevel(log.DebugLevel)
		}

		var src source
		if input != "" {
			src, err = analysis.LoadFile(input)
		} else {
			src, err = analysis.OpenELF(args[0], analysis.Options{
				Demangle:        cfg.Demangle,
				MaxInstructions: cfg.MaxInstructions,
				IncludeThunks:   cfg.IncludeThunks,
			})
		}
		if err != nil {
			return err
		}
		defer src.Close()

		stats, err := runExtract(cmd, src, output, cfg, lg.Logger)
		if err != nil {
			return err
		}
		if cfg.Demangle {
			cached, hits := analysis.DemangleStats()
			lg.Debug("Demangled names", "cached", cached, "hits", hits)
		}
		lg.Info("Extraction complete",
			"functions", stats.Functions,
			"written", stats.Written,
			"skipped", stats.Skipped,
			"blocks", stats.Blocks,
			"edges", stats.Edges)
		return nil
	},
}

// extractConfig loads --config and applies the flags that were set on top.
func extractConfig(cmd *cobra.Command) (pipeline.Config, error) {
	cfg := pipeline.DefaultConfig()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		var err error
		if cfg, err = pipeline.LoadConfig(path); err != nil {
			return cfg, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("on-edge-error") {
		policy, _ := flags.GetString("on-edge-error")
		cfg.OnEdgeError = pipeline.Policy(policy)
	}
	if flags.Changed("demangle") {
		cfg.Demangle, _ = flags.GetBool("demangle")
	}
	if flags.Changed("max-instructions") {
		cfg.MaxInstructions, _ = flags.GetInt("max-instructions")
	}
	if flags.Changed("thunks") {
		cfg.IncludeThunks, _ = flags.GetBool("thunks")
	}
	if flags.Changed("indent") {
		cfg.Indent, _ = flags.GetBool("indent")
	}
	return cfg, cfg.Validate()
}

// runExtract runs the pipeline into output, or stdout for "" and "-".
// Nothing is written to the destination when the run fails.
func runExtract(cmd *cobra.Command, src pipeline.Source, output string, cfg pipeline.Config, logger *log.Logger) (pipeline.Stats, error) {
	runner := &pipeline.Runner{Config: cfg, Logger: logger}

	if output == "" || output == "-" {
		var buf bytes.Buffer
		w := export.NewWriter(&buf, cfg.Indent)
		stats, err := runner.Run(cmd.Context(), src, w)
		if err != nil {
			return stats, err
		}
		if err := w.Close(); err != nil {
			return stats, err
		}
		_, err = buf.WriteTo(cmd.OutOrStdout())
		return stats, err
	}

	f, err := export.Create(output, cfg.Indent)
	if err != nil {
		return pipeline.Stats{}, err
	}
	stats, err := runner.Run(cmd.Context(), src, f)
	if err != nil {
		if derr := f.Discard(); derr != nil {
			err = errors.Join(err, derr)
		}
		return stats, err
	}
	if err := f.Commit(); err != nil {
		return stats, err
	}
	logger.Debug("Wrote document", "path", output, "functions", f.Count())
	return stats, nil
}

func init() {
	addExtractFlags(extractCmd)
}

func addExtractFlags(c *cobra.Command) {
	c.Flags().StringP("output", "o", "", "Output document (default stdout)")
	c.Flags().StringP("input", "i", "", "Read functions from an analysis JSON file instead of a binary")
	c.Flags().String("config", "", "Extraction config JSON file")
	c.Flags().IntP("workers", "w", 1, "Functions extracted concurrently")
	c.Flags().String("on-edge-error", string(pipeline.PolicySkip), "skip or abort on functions whose edges do not resolve")
	c.Flags().Bool("demangle", false, "Write demangled function names")
	c.Flags().Int("max-instructions", 0, "Per-function decode limit (0 is unlimited)")
	c.Flags().Bool("thunks", false, "Extract PLT stubs too")
	c.Flags().Bool("indent", false, "Indent the output document")
}
