// Command betlang is the betlang compiler's CLI: parse, eval, and
// codegen subcommands over a betlang source file or stdin, the same
// rootCmd + PersistentFlags + RunE shape as the teacher's own CLI
// entry point, scaled down to betlang's much smaller command surface.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	betlang "github.com/hyperpolymath/betlang"
	"github.com/hyperpolymath/betlang/internal/cerr"
	"github.com/hyperpolymath/betlang/internal/config"
	"github.com/spf13/cobra"
)

func main() {
	var (
		configPath string
		debug      bool
	)

	rootCmd := &cobra.Command{
		Use:           "betlang",
		Short:         "Compile and run betlang, a probabilistic scripting language",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debug || os.Getenv("BETLANG_DEBUG") != "" {
				slog.SetLogLoggerLevel(slog.LevelDebug)
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "betlang.yaml", "path to project config")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(
		newParseCmd(&configPath),
		newEvalCmd(&configPath),
		newCodegenCmd(&configPath),
		newWatchCmd(&configPath),
	)

	ctx, cancel := newCancellableContext()
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "betlang: %v\n", err)
		os.Exit(1)
	}
}

// newCancellableContext cancels on SIGINT/SIGTERM, so a long `betlang
// watch` or a stuck `infer` run can always be interrupted cleanly.
func newCancellableContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()
	return ctx, cancel
}

// readSource resolves the CLI's input-file argument the same way as
// the teacher: "-" means stdin explicitly, a piped stdin is detected
// automatically when no file argument is given, and otherwise the
// named file is opened.
func readSource(args []string) ([]byte, error) {
	if len(args) == 1 && args[0] != "-" {
		return os.ReadFile(args[0])
	}
	if len(args) == 1 && args[0] == "-" {
		return io.ReadAll(os.Stdin)
	}
	if hasPipedInput() {
		return io.ReadAll(os.Stdin)
	}
	return nil, fmt.Errorf("no input: pass a file path, \"-\" for stdin, or pipe source in")
}

func hasPipedInput() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

func loadCompiler(configPath string) (*betlang.Compiler, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return betlang.NewCompiler(cfg), nil
}

func reportCompileError(err error) error {
	var ce *cerr.CompileError
	if ok := asCompileError(err, &ce); ok {
		return fmt.Errorf("%s", ce.Error())
	}
	return err
}

func asCompileError(err error, target **cerr.CompileError) bool {
	if ce, ok := err.(*cerr.CompileError); ok {
		*target = ce
		return true
	}
	return false
}

// ensureSource is a small guard shared by every subcommand: cobra
// already enforces arg count via cobra.MaximumNArgs, this just turns a
// read failure into a consistently worded error.
func ensureSource(args []string) (string, error) {
	data, err := readSource(args)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
