package main

import (
	"encoding/json"
	"fmt"
	"os"

	betlang "github.com/hyperpolymath/betlang"
	"github.com/hyperpolymath/betlang/internal/cache"
	"github.com/hyperpolymath/betlang/internal/config"
	"github.com/spf13/cobra"
)

func newParseCmd(configPath *string) *cobra.Command {
	var (
		emitAST bool
		outPath string
	)
	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse a betlang source file and report syntax errors",
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
			mod, perr := betlang.Parse(src)
			if perr != nil {
				return fmt.Errorf("%s", perr.Error())
			}
			if emitAST {
				data, err := cache.EmitAST(mod)
				if err != nil {
					return err
				}
				if outPath == "" {
					outPath = "a.betc"
				}
				if err := os.WriteFile(outPath, data, 0o644); err != nil {
					return fmt.Errorf("writing %s: %w", outPath, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", outPath, len(data))
				return nil
			}
			summary := map[string]any{"items": len(mod.Items), "target": cfg.Target}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		},
	}
	cmd.Flags().BoolVar(&emitAST, "emit-ast", false, "write a canonical CBOR .betc artifact instead of a summary")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output path for --emit-ast (default a.betc)")
	return cmd
}
