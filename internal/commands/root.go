// Package commands implements the repoviewer command line.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"repoviewer/internal/app"
	"repoviewer/internal/config"
)

// Version is the repoviewer release.
const Version = "0.1.0"

type options struct {
	verbose    bool
	configPath string
}

// NewRootCmd builds the full command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "repoviewer",
		Short: "repoviewer - repository structure as a navigable graph",
		Long: `repoviewer outlines the classes, methods and functions of a repository and
renders them as a Graphviz DOT document whose nodes link back to the source.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log scanner and cache activity")
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultPath, "Path to configuration file")

	root.AddCommand(
		newDotCmd(opts),
		newOutlineCmd(opts),
		newRenderCmd(opts),
		newServeCmd(opts),
		newMCPCmd(opts),
		newInitCmd(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "repoviewer v%s\n", Version)
			},
		},
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func (o *options) app() (*app.App, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	return app.New(cfg, app.Options{Verbose: o.verbose})
}
