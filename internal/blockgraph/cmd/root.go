package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"blockgraph/internal/blockgraph/log"
)

// cpuProfile is the open CPU profile of the running command, if any.
var cpuProfile *os.File

func init() {
	rootCmd.PersistentFlags().StringP("cwd", "c", "", "Current working directory")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")
	rootCmd.PersistentFlags().String("cpuprofile", "", "Write CPU profile to file")
	rootCmd.PersistentFlags().String("memprofile", "", "Write memory profile to file")

	rootCmd.AddCommand(extractCmd, showCmd, statsCmd, browseCmd, schemaCmd)
}

var rootCmd = &cobra.Command{
	Use:   "blockgraph",
	Short: "Extract normalized basic-block graphs from binaries",
	Long: `Blockgraph extracts, for every function of a binary, its basic blocks with
instructions rewritten into a canonical, architecture-normalized form and the
block-to-block edges, and writes them as a JSON document for binary
similarity and function fingerprinting.`,
	Example: `
# Extract every function of a binary
blockgraph extract /path/to/binary -o graphs.json

# Inspect the result
blockgraph stats graphs.json
blockgraph show graphs.json main
blockgraph browse graphs.json
  `,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := ResolveCwd(cmd); err != nil {
			return err
		}

		debug, _ := cmd.Flags().GetBool("debug")
		log.Setup(os.Stderr, debug)

		cpuprofile, _ := cmd.Flags().GetString("cpuprofile")
		if cpuprofile != "" {
			f, err := os.Create(cpuprofile)
			if err != nil {
				return fmt.Errorf("could not create CPU profile: %v", err)
			}
			if err := pprof.StartCPUProfile(f); err != nil {
				f.Close()
				return fmt.Errorf("could not start CPU profile: %v", err)
			}
			cpuProfile = f
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if cpuProfile != nil {
			pprof.StopCPUProfile()
			cpuProfile.Close()
			cpuProfile = nil
		}

		memprofile, _ := cmd.Flags().GetString("memprofile")
		if memprofile != "" {
			f, err := os.Create(memprofile)
			if err != nil {
				fmt.Fprintf(os.Stderr, "could not create memory profile: %v\n", err)
				return
			}
			defer f.Close()
			if err := pprof.WriteHeapProfile(f); err != nil {
				fmt.Fprintf(os.Stderr, "could not write memory profile: %v\n", err)
			}
		}
	},
}

func Execute() {
	// Piped output gets neither colors nor fang's rendering.
	if !term.IsTerminal(os.Stdout.Fd()) {
		os.Setenv("BLOCKGRAPH_NO_COLOR", "1")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if err := rootCmd.ExecuteContext(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			stop()
			os.Exit(1)
		}
		return
	}

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

func ResolveCwd(cmd *cobra.Command) (string, error) {
	cwd, _ := cmd.Flags().GetString("cwd")
	if cwd != "" {
		err := os.Chdir(cwd)
		if err != nil {
			return "", fmt.Errorf("failed to change directory: %v", err)
		}
		return cwd, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %v", err)
	}
	return cwd, nil
}
