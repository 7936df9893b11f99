package cmd

import (
	"github.com/spf13/cobra"

	"brilopt/cfg"
	"brilopt/passes"
)

var dseCmd = &cobra.Command{
	Use:   "dse",
	Short: "May-alias analysis plus dead-store elimination",
	Long:  `Converts to SSA, computes per-block may-point-to sets for pointer values, and deletes stores overwritten within the same block before any read.`,
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
		passes.NewAliasAnalysis(g).Run()
		return writeProgram(g.ToProgram())
	},
}

func init() {
	rootCmd.AddCommand(dseCmd)
}
