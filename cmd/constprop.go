package cmd

import (
	"github.com/spf13/cobra"

	"brilopt/cfg"
	"brilopt/passes"
)

var cpCmd = &cobra.Command{
	Use:   "cp",
	Short: "Pessimistic constant propagation",
	Long:  `Folds constant definitions with a plain forward fixed point that meets over every predecessor, reachable or not.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := readProgram()
		if err != nil {
			return err
		}
		g, err := cfg.Build(p)
		if err != nil {
			return err
		}
		passes.NewConstProp(g).Run()
		return writeProgram(g.ToProgram())
	},
}

var sccpCmd = &cobra.Command{
	Use:   "sccp",
	Short: "Sparse conditional constant propagation",
	Long:  `Folds constants optimistically: branches whose condition folds to a known boolean keep the untaken arm off the worklist, so facts never flow along statically-dead edges. Unreached blocks are left untouched.`,
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
		s := passes.NewSCCP(g)
		s.Run()
		if log.IsVerbose() {
			unreached := 0
			for _, b := range g.Blocks {
				if !s.Reached(b.ID) {
					unreached++
					log.Statistic("sccp: block %s never reached", b.Label())
				}
			}
			log.Statistic("sccp: %d unreached blocks", unreached)
		}
		return writeProgram(g.ToProgram())
	},
}

func init() {
	rootCmd.AddCommand(cpCmd)
	rootCmd.AddCommand(sccpCmd)
}
