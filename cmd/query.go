package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query <expression>",
	Short: "Filter instructions with an expression",
	Long: `Evaluates a boolean expression against every instruction and prints the matches. The environment exposes op, dest, type, args, labels, funcs, and the enclosing function name as fn.

Example:
  brilopt query 'op == "const" && type == "int"' < program.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		program, err := expr.Compile(args[0], expr.AsBool(), expr.AllowUndefinedVariables())
		if err != nil {
			return fmt.Errorf("compiling query: %w", err)
		}
		p, err := readProgram()
		if err != nil {
			return err
		}

		fnColor := color.New(color.FgGreen).SprintFunc()
		opColor := color.New(color.FgYellow).SprintFunc()
		lineColor := color.New(color.FgCyan).SprintfFunc()

		matches := 0
		for fi := range p.Functions {
			f := &p.Functions[fi]
			for ii, it := range f.Instrs {
				in := it.Instr
				if in == nil {
					continue
				}
				env := map[string]interface{}{
					"fn":     f.Name,
					"op":     in.Op,
					"dest":   in.Dest,
					"type":   string(in.Type),
					"args":   in.Args,
					"labels": in.Labels,
					"funcs":  in.Funcs,
				}
				out, err := expr.Run(program, env)
				if err != nil {
					return fmt.Errorf("evaluating query: %w", err)
				}
				if ok, _ := out.(bool); !ok {
					continue
				}
				matches++
				text, _ := json.Marshal(in)
				fmt.Printf("%s %s %s %s\n", lineColor("%4d", ii), fnColor(f.Name), opColor(in.Op), text)
			}
		}
		fmt.Printf("%d instructions matched\n", matches)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
}
