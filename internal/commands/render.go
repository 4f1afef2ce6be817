package commands

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"repoviewer/internal/outline"
)

func newRenderCmd(opts *options) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "render [file|-]",
		Short: "Render an outline JSON document as DOT",
		Long: `Reads an outline produced by "repoviewer outline" (or the /visualize
endpoint) and prints the DOT document for it. "-" or no argument reads stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if len(args) > 0 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			modules, err := outline.Decode(in)
			if err != nil {
				return err
			}

			a, err := opts.app()
			if err != nil {
				return err
			}
			defer a.Close()
			return writeOutput(cmd.OutOrStdout(), outPath, a.Render(modules)+"\n")
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the graph to a file instead of stdout")
	return cmd
}

func encode(modules []outline.Module) (string, error) {
	var buf bytes.Buffer
	if err := outline.Encode(&buf, modules); err != nil {
		return "", fmt.Errorf("encoding outline: %w", err)
	}
	return buf.String(), nil
}
