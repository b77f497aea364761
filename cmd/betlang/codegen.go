package main

import (
	"fmt"
	"os"
	"strings"

	betlang "github.com/hyperpolymath/betlang"
	"github.com/hyperpolymath/betlang/internal/config"
	"github.com/hyperpolymath/betlang/internal/schema"
	"github.com/spf13/cobra"
)

func newCodegenCmd(configPath *string) *cobra.Command {
	var (
		target        string
		wantSourceMap bool
		outPath       string
		targetVersion string
	)
	cmd := &cobra.Command{
		Use:   "codegen [file]",
		Short: "Compile a betlang source file to a target language",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := schema.ValidateTargetVersion(targetVersion); err != nil {
				return err
			}
			src, err := ensureSource(args)
			if err != nil {
				return err
			}
			if target == "" {
				cfg, err := config.LoadConfig(*configPath)
				if err != nil {
					return err
				}
				target = cfg.Target
			}
			t, err := parseTarget(target)
			if err != nil {
				return err
			}
			mod, perr := betlang.Parse(src)
			if perr != nil {
				return fmt.Errorf("%s", perr.Error())
			}
			out, err := betlang.CodegenModule(mod, t, wantSourceMap)
			if err != nil {
				return reportCompileError(err)
			}

			code := out.Code
			if targetVersion != "" {
				code = fmt.Sprintf("// target-version: %s\n%s", targetVersion, code)
			}

			if outPath == "" {
				fmt.Fprintln(cmd.OutOrStdout(), code)
				return nil
			}
			if err := os.WriteFile(outPath, []byte(code), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", outPath, err)
			}
			if wantSourceMap && out.SourceMap != "" {
				mapPath := outPath + ".map"
				if err := os.WriteFile(mapPath, []byte(out.SourceMap), 0o644); err != nil {
					return fmt.Errorf("writing %s: %w", mapPath, err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "codegen target: javascript, llvm, beam (default: betlang.yaml's target, else javascript)")
	cmd.Flags().BoolVar(&wantSourceMap, "source-map", false, "emit a simplified JSON source map alongside --output")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&targetVersion, "target-version", "", "ECMAScript baseline hint embedded as a header comment")
	return cmd
}

func parseTarget(s string) (betlang.Target, error) {
	switch strings.ToLower(s) {
	case "javascript", "js":
		return betlang.TargetJavaScript, nil
	case "llvm":
		return betlang.TargetLLVM, nil
	case "beam":
		return betlang.TargetBEAM, nil
	default:
		return 0, fmt.Errorf("unknown codegen target %q", s)
	}
}
