package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"brilopt/cfg"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Report per-function basic-block counts on stderr",
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := readProgram()
		if err != nil {
			return err
		}
		g, err := cfg.Build(p)
		if err != nil {
			return err
		}
		for _, fb := range g.Funcs {
			instrs := 0
			for _, id := range fb.Order {
				for _, it := range g.Block(id).Items {
					if it.Instr != nil {
						instrs++
					}
				}
			}
			fmt.Fprintf(os.Stderr, "%s: %d blocks, %d instructions\n", fb.Fn.Name, len(fb.Order), instrs)
		}
		return writeProgram(g.ToProgram())
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
