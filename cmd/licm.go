package cmd

import (
	"github.com/spf13/cobra"

	"brilopt/cfg"
	"brilopt/passes"
)

var licmCmd = &cobra.Command{
	Use:   "licm",
	Short: "Loop-invariant code motion",
	Long:  `Converts to SSA, finds every natural loop, inserts preheaders, and hoists loop-invariant instructions into them when doing so cannot change behavior.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := readProgram()
		if err != nil {
			return err
		}
		g, err := cfg.Build(p)
		if err != nil {
			return err
		}
		g.ToSSA()
		if err := passes.RunLICM(g); err != nil {
			return err
		}
		return writeProgram(g.ToProgram())
	},
}

func init() {
	rootCmd.AddCommand(licmCmd)
}
