package main

import (
	"fmt"

	betlang "github.com/hyperpolymath/betlang"
	"github.com/hyperpolymath/betlang/internal/config"
	"github.com/spf13/cobra"
)

func newEvalCmd(configPath *string) *cobra.Command {
	var seed string
	cmd := &cobra.Command{
		Use:   "eval [file]",
		Short: "Evaluate a betlang source file (module or single expression)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := ensureSource(args)
			if err != nil {
				return err
			}
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			if seed != "" {
				cfg.Seed = seed
			}
			comp := betlang.NewCompiler(cfg)

			mod, perr := betlang.Parse(src)
			if perr != nil {
				return fmt.Errorf("%s", perr.Error())
			}
			v, err := comp.EvalModule(mod)
			if err != nil {
				return reportCompileError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), v.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&seed, "seed", "", "deterministic RNG seed (overrides betlang.yaml)")
	return cmd
}
