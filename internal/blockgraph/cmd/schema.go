package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"blockgraph/internal/analysis"
	"blockgraph/internal/export"
	"blockgraph/internal/pipeline"
)

// schemaTargets maps schema names to the values they are reflected from.
var schemaTargets = map[string]func() any{
	"output": func() any { return export.OutputDocument() },
	"config": func() any { return &pipeline.Config{} },
	"input":  func() any { return &analysis.InputDocument{} },
}

var schemaCmd = &cobra.Command{
	Use:       "schema [output|config|input]",
	Short:     "Generate JSON schemas",
	Long:      "Generate the JSON schema of the output document, the extraction config or the analysis input",
	Hidden:    true,
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"output", "config", "input"},
	RunE: func(cmd *cobra.Command, args []string) error {
		name := "output"
		if len(args) == 1 {
			name = args[0]
		}
		bts, err := export.Schema(schemaTargets[name]())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(bts))
		return nil
	},
}
