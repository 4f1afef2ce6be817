package commands

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"repoviewer/internal/app"
	"repoviewer/internal/watch"
	"repoviewer/util"
)

func newDotCmd(opts *options) *cobra.Command {
	var (
		outPath string
		watchFS bool
	)
	cmd := &cobra.Command{
		Use:   "dot [path]",
		Short: "Print the DOT graph of a repository",
		Long: `Scans a repository and prints its structure as a Graphviz DOT document.
Without a path the enclosing git repository (or the current directory) is used.

Example:
  repoviewer dot
  repoviewer dot ../myproject -o graph.dot
  repoviewer dot . | dot -Tsvg > graph.svg
  repoviewer dot . -o graph.dot --watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if watchFS && outPath == "" {
				return fmt.Errorf("--watch requires --out")
			}
			root, err := repoPath(args)
			if err != nil {
				return err
			}
			a, err := opts.app()
			if err != nil {
				return err
			}
			defer a.Close()

			render := func(ctx context.Context) error {
				doc, err := a.Graph(ctx, root)
				if err != nil {
					return fmt.Errorf("analysis failed: %w", err)
				}
				return writeOutput(cmd.OutOrStdout(), outPath, doc+"\n")
			}
			if err := render(cmd.Context()); err != nil {
				return err
			}
			if !watchFS {
				return nil
			}
			return watchRepo(cmd.Context(), a, root, render)
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the graph to a file instead of stdout")
	cmd.Flags().BoolVarP(&watchFS, "watch", "w", false, "Rewrite the graph whenever a source file changes")
	return cmd
}

func watchRepo(ctx context.Context, a *app.App, root string, render func(context.Context) error) error {
	w, err := watch.New(root, watch.Options{
		IgnoreDirs: a.Config().Scanner.IgnoreDirs,
		Gitignore:  a.Config().Scanner.Gitignore,
		Match:      a.Supports,
	})
	if err != nil {
		return err
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	log.Printf("[watch] Watching %s", root)
	return w.Run(ctx, func(ctx context.Context) error {
		if err := render(ctx); err != nil {
			return err
		}
		log.Printf("[watch] Graph updated")
		return nil
	})
}

func newOutlineCmd(opts *options) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "outline [path]",
		Short: "Print the outline of a repository as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := repoPath(args)
			if err != nil {
				return err
			}
			a, err := opts.app()
			if err != nil {
				return err
			}
			defer a.Close()

			text, err := outlineJSON(cmd.Context(), a, root)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), outPath, text)
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the outline to a file instead of stdout")
	return cmd
}

func repoPath(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return util.FindRepoRoot("")
}

func outlineJSON(ctx context.Context, a *app.App, root string) (string, error) {
	modules, err := a.Outline(ctx, root)
	if err != nil {
		return "", fmt.Errorf("analysis failed: %w", err)
	}
	return encode(modules)
}

func writeOutput(stdout io.Writer, path, content string) error {
	if path == "" {
		_, err := io.WriteString(stdout, content)
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
