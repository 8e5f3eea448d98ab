package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sydlexius/encore/internal/cache"
	"github.com/sydlexius/encore/internal/provider"
)

func newCacheCommand(cc *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the provider response cache",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(cc))
	cacheCmd.AddCommand(newCachePurgeCommand(cc))
	cacheCmd.AddCommand(newCacheClearCommand(cc))

	return cacheCmd
}

func cacheStore(cmd *cobra.Command, cc *commandContext) (*cache.Store, error) {
	db, err := cc.openDB(cmd.Context())
	if err != nil {
		return nil, err
	}
	return cache.New(db, cc.cfg.Cache.TTL, cc.logger), nil
}

func newCacheStatsCommand(cc *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cached responses per provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cacheStore(cmd, cc)
			if err != nil {
				return err
			}
			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, stats)
			}
			if len(stats) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Cache is empty")
				return nil
			}
			rows := make([][]string, 0, len(stats))
			for _, s := range stats {
				rows = append(rows, []string{
					s.Provider.DisplayName(),
					strconv.Itoa(s.Entries),
					strconv.Itoa(s.Expired),
				})
			}
			printTable(cmd.OutOrStdout(), []string{"Provider", "Entries", "Expired"}, rows,
				[]columnAlignment{alignLeft, alignRight, alignRight})
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func newCachePurgeCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete expired cache entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cacheStore(cmd, cc)
			if err != nil {
				return err
			}
			n, err := store.Purge(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %d expired entries\n", n)
			return nil
		},
	}
}

func newCacheClearCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear [provider]",
		Short: "Delete all cache entries, or only those of one provider",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name provider.ProviderName
			if len(args) == 1 {
				name = provider.ProviderName(args[0])
				if !knownProvider(name) {
					return fmt.Errorf("unknown provider %q", args[0])
				}
			}
			store, err := cacheStore(cmd, cc)
			if err != nil {
				return err
			}
			n, err := store.Clear(cmd.Context(), name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d entries\n", n)
			return nil
		},
	}
}

func knownProvider(name provider.ProviderName) bool {
	for _, n := range provider.AllProviderNames() {
		if n == name {
			return true
		}
	}
	return false
}
