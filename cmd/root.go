// Package cmd wires every analysis and transform to the command line.
// Each pass subcommand reads a JSON program on stdin, runs one pass, and
// writes the transformed program to stdout; report writes a SARIF
// document and query prints matching instructions instead. Diagnostics
// go to stderr.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"brilopt/bril"
	"brilopt/output"
)

var rootCmd = &cobra.Command{
	Use:           "brilopt",
	Short:         "Mid-end optimizer for a JSON-serialized three-address IR",
	Long:          `brilopt builds a control-flow graph per function, runs classical dataflow analyses over it, and rewrites the program: SSA construction, dead-code elimination, constant propagation, dead-store elimination, and loop-invariant code motion.`,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Print pass statistics to stderr")
	rootCmd.PersistentFlags().Bool("debug", false, "Print per-block diagnostics to stderr")
}

// newLogger builds the stderr logger from the persistent flags.
func newLogger(cmd *cobra.Command) *output.Logger {
	verbosity := output.VerbosityDefault
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		verbosity = output.VerbosityVerbose
	}
	if d, _ := cmd.Flags().GetBool("debug"); d {
		verbosity = output.VerbosityDebug
	}
	return output.NewLogger(verbosity)
}

// readProgram parses the program on stdin.
func readProgram() (*bril.Program, error) {
	return bril.Load(os.Stdin)
}

// writeProgram emits the program on stdout.
func writeProgram(p *bril.Program) error {
	return p.Dump(os.Stdout)
}
