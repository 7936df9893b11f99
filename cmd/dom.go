package cmd

import (
	"sort"

	"github.com/spf13/cobra"

	"brilopt/cfg"
)

var domCmd = &cobra.Command{
	Use:   "dom",
	Short: "Compute dominance information and echo the program back",
	Long:  `Runs the iterative dominator dataflow, derives immediate dominators and the dominance frontier, and logs the facts to stderr. The program itself is unchanged.`,
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
		dom := cfg.Dominance(g)
		for _, fb := range g.Funcs {
			for _, id := range fb.Order {
				b := g.Block(id)
				log.Debug("%s: idom=%d frontier=%v", b.Label(), dom.IDom[id], dom.Frontier[id])
				var set []int
				for d := range dom.Dom[id] {
					set = append(set, d)
				}
				sort.Ints(set)
				log.Statistic("%s: dominators %v", b.Label(), set)
			}
		}
		return writeProgram(g.ToProgram())
	},
}

func init() {
	rootCmd.AddCommand(domCmd)
}
