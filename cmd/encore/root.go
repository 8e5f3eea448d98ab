package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCommand() (*cobra.Command, *commandContext) {
	var configFlag string
	var logLevelFlag string

	cc := newCommandContext(&configFlag, &logLevelFlag)

	rootCmd := &cobra.Command{
		Use:           "encore",
		Short:         "Resolve and merge metadata for concert films and music videos",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			return cc.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", defaultConfigPath(), "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Override the configured log level (debug, info, warn, error)")

	rootCmd.AddCommand(newResolveCommand(cc))
	rootCmd.AddCommand(newSearchCommand(cc))
	rootCmd.AddCommand(newMergeCommand(cc))
	rootCmd.AddCommand(newProvidersCommand(cc))
	rootCmd.AddCommand(newCacheCommand(cc))
	rootCmd.AddCommand(newHistoryCommand(cc))
	rootCmd.AddCommand(newDBCommand(cc))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd, cc
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the encore version",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "encore %s\n", version)
			return err
		},
	}
}

// defaultConfigPath honours ENCORE_CONFIG, then falls back to encore.yaml in
// the working directory.
func defaultConfigPath() string {
	if p := os.Getenv("ENCORE_CONFIG"); p != "" {
		return p
	}
	return "encore.yaml"
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
