package cmd

import (
	"github.com/spf13/cobra"

	"brilopt/cfg"
)

var cfgCmd = &cobra.Command{
	Use:   "cfg",
	Short: "Build the control-flow graph and echo the program back",
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
		for _, fb := range g.Funcs {
			log.Statistic("%s: %d basic blocks", fb.Fn.Name, len(fb.Order))
		}
		return writeProgram(g.ToProgram())
	},
}

func init() {
	rootCmd.AddCommand(cfgCmd)
}
