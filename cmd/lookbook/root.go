package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/lookbook/internal/config"
	"github.com/kailas-cloud/lookbook/internal/version"
)

var configPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "lookbook",
		Short: "Image tagging and similarity search for fashion merchandisers",
		Long: `lookbook tags uploaded product photos with a multimodal model, stores the
tag embeddings in a vector store and serves ranked search over them.

Running lookbook without a subcommand starts the HTTP server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file (default config/<ENV>.yaml)")

	root.AddCommand(newServeCmd(), newInspectCmd(), newVersionCmd())
	return root
}

// Execute runs the root command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, string, error) {
	env := config.GetEnv()
	if configPath != "" {
		cfg, err := config.LoadFile(configPath)
		return cfg, env, err //nolint:wrapcheck // already annotated by config
	}
	cfg, err := config.Load(env)
	return cfg, env, err //nolint:wrapcheck // already annotated by config
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lookbook %s (commit %s, built %s)\n",
				version.Version, version.Commit, version.Date)
		},
	}
}
