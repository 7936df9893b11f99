package cmd

import (
	"github.com/spf13/cobra"

	"brilopt/cfg"
)

var ssaCmd = &cobra.Command{
	Use:   "ssa",
	Short: "Convert the program to static single assignment form",
	RunE: func(cmd *cobra.Command, _ []string) error {
		log := newLogger(cmd)
		stop := log.StartTiming("ssa")
		p, err := readProgram()
		if err != nil {
			return err
		}
		g, err := cfg.Build(p)
		if err != nil {
			return err
		}
		g.ToSSA()
		stop()
		log.Statistic("ssa conversion took %s", log.GetTiming("ssa"))
		return writeProgram(g.ToProgram())
	},
}

func init() {
	rootCmd.AddCommand(ssaCmd)
}
