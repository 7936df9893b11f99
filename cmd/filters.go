package cmd

import (
	"github.com/spf13/cobra"

	"brilopt/passes"
)

var nopCmd = &cobra.Command{
	Use:   "nop",
	Short: "Remove every nop instruction",
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := readProgram()
		if err != nil {
			return err
		}
		passes.RemoveNops(p)
		return writeProgram(p)
	},
}

var phiCopyCmd = &cobra.Command{
	Use:   "phicopy",
	Short: "Rewrite single-argument phis into plain copies",
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := readProgram()
		if err != nil {
			return err
		}
		passes.PhiToCopies(p)
		return writeProgram(p)
	},
}

func init() {
	rootCmd.AddCommand(nopCmd)
	rootCmd.AddCommand(phiCopyCmd)
}
