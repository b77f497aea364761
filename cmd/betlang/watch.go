package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	betlang "github.com/hyperpolymath/betlang"
	"github.com/hyperpolymath/betlang/internal/config"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// newWatchCmd re-runs codegen every time the named file changes on
// disk, following fsnotify's own documented usage idiom (one watcher,
// add the file's directory and keep only events for the file, select
// over Events/Errors) rather than a
// pattern borrowed from the teacher, which has no file-watch mode.
func newWatchCmd(configPath *string) *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Recompile a betlang file to its codegen target on every save",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
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

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("starting watcher: %w", err)
			}
			defer watcher.Close()

			dir := filepath.Dir(path)
			if err := watcher.Add(dir); err != nil {
				return fmt.Errorf("watching %s: %w", dir, err)
			}

			recompile := func() {
				data, err := os.ReadFile(path)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "read %s: %v\n", path, err)
					return
				}
				mod, perr := betlang.Parse(string(data))
				if perr != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "parse error: %s\n", perr.Error())
					return
				}
				out, err := betlang.CodegenModule(mod, t, false)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "codegen error: %v\n", err)
					return
				}
				fmt.Fprintf(cmd.OutOrStdout(), "--- %s recompiled (%d bytes) ---\n", path, len(out.Code))
			}

			recompile()
			return runWatchLoop(cmd.Context(), watcher, path, recompile)
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "codegen target: javascript, llvm, beam (default: betlang.yaml's target, else javascript)")
	return cmd
}

func runWatchLoop(ctx context.Context, watcher *fsnotify.Watcher, path string, recompile func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			evAbs, err := filepath.Abs(ev.Name)
			if err != nil || evAbs != abs {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				recompile()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch error: %w", err)
		}
	}
}
