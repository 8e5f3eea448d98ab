package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/sydlexius/encore/internal/history"
)

const stampLayout = "2006-01-02 15:04"

func newHistoryCommand(cc *commandContext) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history [job-id]",
		Short: "List past batch runs, or the items of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := cc.openDB(cmd.Context())
			if err != nil {
				return err
			}
			store := history.NewStore(db, cc.logger)

			if len(args) == 1 {
				return showJob(cmd, store, args[0], asJSON)
			}

			jobs, err := store.ListJobs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, jobs)
			}
			if len(jobs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No batch runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(jobs))
			for _, j := range jobs {
				rows = append(rows, []string{
					j.JobID,
					j.StartedAt.Local().Format(stampLayout),
					j.Status,
					strconv.Itoa(j.Total),
					strconv.Itoa(j.Resolved),
					strconv.Itoa(j.Failed),
				})
			}
			printTable(cmd.OutOrStdout(),
				[]string{"Job", "Started", "Status", "Items", "Resolved", "Failed"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight})
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to list")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func showJob(cmd *cobra.Command, store *history.Store, id string, asJSON bool) error {
	job, err := store.GetJob(cmd.Context(), id)
	if errors.Is(err, history.ErrJobNotFound) {
		return fmt.Errorf("no batch run with id %s", id)
	}
	if err != nil {
		return err
	}
	items, err := store.ListItems(cmd.Context(), id)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(cmd, map[string]any{"job": job, "items": items})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Job:       %s\n", job.JobID)
	fmt.Fprintf(out, "Status:    %s\n", job.Status)
	fmt.Fprintf(out, "Started:   %s\n", job.StartedAt.Local().Format(stampLayout))
	if !job.FinishedAt.IsZero() {
		fmt.Fprintf(out, "Elapsed:   %s\n", job.FinishedAt.Sub(job.StartedAt).Round(time.Second))
	}
	fmt.Fprintln(out)

	rows := make([][]string, 0, len(items))
	for _, it := range items {
		detail := it.Reason
		if detail == "" {
			detail = fmt.Sprintf("%d fields", len(it.Sources))
		}
		rows = append(rows, []string{it.Artist, truncate(it.Title, 40), it.Status, truncate(detail, 60)})
	}
	printTable(out, []string{"Artist", "Title", "Status", "Detail"}, rows, nil)
	return nil
}
