package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sydlexius/encore/internal/cache"
	"github.com/sydlexius/encore/internal/maintenance"
)

func newDBCommand(cc *commandContext) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Maintain the cache and history database",
	}

	dbCmd.AddCommand(newDBStatusCommand(cc))
	dbCmd.AddCommand(newDBOptimizeCommand(cc))
	dbCmd.AddCommand(newDBVacuumCommand(cc))
	dbCmd.AddCommand(newDBBackupCommand(cc))

	return dbCmd
}

func maintenanceService(cmd *cobra.Command, cc *commandContext) (*maintenance.Service, error) {
	db, err := cc.openDB(cmd.Context())
	if err != nil {
		return nil, err
	}
	return maintenance.NewService(db, cc.cfg.Database.Path, cc.logger), nil
}

func newDBStatusCommand(cc *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show database size and row counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := maintenanceService(cmd, cc)
			if err != nil {
				return err
			}
			st, err := svc.Status(cmd.Context())
			if err != nil {
				return err
			}
			backups, err := maintenance.ListBackups(cc.cfg.Database.BackupDir)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, map[string]any{"status": st, "backups": backups})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Path:          %s\n", cc.cfg.Database.Path)
			fmt.Fprintf(out, "Size:          %s (WAL %s)\n", humanBytes(st.DBFileSize), humanBytes(st.WALFileSize))
			fmt.Fprintf(out, "Pages:         %d x %d bytes, %d free\n", st.PageCount, st.PageSize, st.FreePages)
			fmt.Fprintf(out, "Cache entries: %d\n", st.CacheEntries)
			fmt.Fprintf(out, "Batch runs:    %d (%d items)\n", st.BatchJobs, st.BatchItems)
			if len(backups) == 0 {
				fmt.Fprintln(out, "Backups:       none")
				return nil
			}
			fmt.Fprintf(out, "Backups:       %d, newest %s\n", len(backups), backups[0].CreatedAt.Local().Format(stampLayout))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newDBOptimizeCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "optimize",
		Short: "Drop expired cache entries, then optimize and checkpoint the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := maintenanceService(cmd, cc)
			if err != nil {
				return err
			}
			purged, err := cache.New(cc.db, cc.cfg.Cache.TTL, cc.logger).Purge(cmd.Context())
			if err != nil {
				return err
			}
			if err := svc.Optimize(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %d expired cache entries; optimize complete\n", purged)
			return nil
		},
	}
}

func newDBVacuumCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "vacuum",
		Short: "Rebuild the database file to reclaim free space",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := maintenanceService(cmd, cc)
			if err != nil {
				return err
			}
			if err := svc.Vacuum(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Vacuum complete")
			return nil
		},
	}
}

func newDBBackupCommand(cc *commandContext) *cobra.Command {
	var dir string
	var retain int
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a snapshot of the database and prune old snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = cc.cfg.Database.BackupDir
			}
			if !cmd.Flags().Changed("retain") {
				retain = cc.cfg.Database.BackupRetention
			}
			svc, err := maintenanceService(cmd, cc)
			if err != nil {
				return err
			}
			info, err := svc.Backup(cmd.Context(), dir)
			if err != nil {
				return err
			}
			removed, err := svc.Prune(dir, retain)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %s (%s)\n", info.Filename, humanBytes(info.Size))
			if len(removed) > 0 {
				fmt.Fprintf(out, "Pruned %d old snapshots\n", len(removed))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Backup directory (defaults to config)")
	cmd.Flags().IntVar(&retain, "retain", 0, "Snapshots to keep (defaults to config)")
	return cmd
}

func humanBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}
