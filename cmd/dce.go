package cmd

import (
	"github.com/spf13/cobra"

	"brilopt/cfg"
	"brilopt/passes"
)

var dceCmd = &cobra.Command{
	Use:   "dce",
	Short: "Run liveness analysis and drop dead definitions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		log := newLogger(cmd)
		p, err := readProgram()
		if err != nil {
			return err
		}
		g, err := cfg.Build(p)
		if err != nil {
			return err
		}
		lv := passes.NewLiveness(g)
		lv.Run()
		log.Statistic("dce: done")
		return writeProgram(g.ToProgram())
	},
}

func init() {
	rootCmd.AddCommand(dceCmd)
}
