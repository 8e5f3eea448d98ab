package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/sydlexius/encore/internal/batch"
	"github.com/sydlexius/encore/internal/event"
)

func newResolveCommand(cc *commandContext) *cobra.Command {
	var (
		artist    string
		title     string
		date      string
		workers   int
		itemDelay time.Duration
		noArtwork bool
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <manifest.yaml | asset-path>",
		Short: "Resolve metadata and write sidecars",
		Long: `Resolve metadata for a batch of assets listed in a YAML manifest and write a
Kodi sidecar next to each one. With --artist and --title the argument is a
single asset path instead of a manifest.

Manifest format:

  items:
    - path: /media/concerts/Pulse
      artist: Pink Floyd
      title: Pulse
      date: 1994-10-20`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := resolveItems(args[0], artist, title, date)
			if err != nil {
				return err
			}

			svc, err := cc.buildServices(cmd.Context())
			if err != nil {
				return err
			}

			opts := batch.Options{
				Workers:   cc.cfg.Batch.Workers,
				ItemDelay: cc.cfg.Batch.ItemDelay,
			}
			if cmd.Flags().Changed("workers") {
				opts.Workers = workers
			}
			if cmd.Flags().Changed("item-delay") {
				opts.ItemDelay = itemDelay
			}

			executor := batch.NewExecutor(svc.resolver, cc.sink(!noArtwork), opts, cc.logger)
			executor.SetRecorder(svc.history)

			bus := event.NewBus(cc.logger, 0)
			if !asJSON {
				subscribeProgress(bus, cmd.OutOrStdout())
			}
			var wg sync.WaitGroup
			wg.Go(bus.Start)

			report, runErr := executor.Run(cmd.Context(), items)
			bus.Stop()
			wg.Wait()
			if runErr != nil {
				return runErr
			}

			if asJSON {
				return writeJSON(cmd, report)
			}
			printReport(cmd.OutOrStdout(), report)
			if report.Status == batch.StatusCanceled {
				return context.Canceled
			}
			if report.Failed > 0 {
				return fmt.Errorf("%d of %d items failed", report.Failed, report.Total)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&artist, "artist", "", "Artist of a single asset")
	f.StringVar(&title, "title", "", "Title of a single asset")
	f.StringVar(&date, "date", "", "Performance date of a single asset (YYYY-MM-DD)")
	f.IntVarP(&workers, "workers", "w", 1, "Items resolved in parallel (overrides config)")
	f.DurationVar(&itemDelay, "item-delay", batch.DefaultItemDelay, "Pause after each item per worker (overrides config)")
	f.BoolVar(&noArtwork, "no-artwork", false, "Skip poster and fanart downloads")
	f.BoolVar(&asJSON, "json", false, "Print the batch report as JSON")
	cmd.MarkFlagsRequiredTogether("artist", "title")

	return cmd
}

// resolveItems builds the item list from a manifest, or from a single
// asset path when artist and title are given.
func resolveItems(arg, artist, title, date string) ([]batch.Item, error) {
	if artist != "" || title != "" {
		return []batch.Item{{Path: arg, Artist: artist, Title: title, Date: date}}, nil
	}
	items, err := batch.LoadManifest(arg)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("manifest %s lists no items", arg)
	}
	return items, nil
}

// subscribeProgress prints one line per finished item. Handlers run on the
// bus goroutine, so writes are serialised.
func subscribeProgress(bus *event.Bus, out io.Writer) {
	bus.Subscribe(event.ItemResolved, func(e event.Event) {
		fmt.Fprintf(out, "[%d/%d] ok    %s by %s (%d fields)\n", e.Processed, e.Total, e.Title, e.Artist, e.Fields)
	})
	bus.Subscribe(event.ItemFailed, func(e event.Event) {
		fmt.Fprintf(out, "[%d/%d] fail  %s by %s: %s\n", e.Processed, e.Total, e.Title, e.Artist, e.Reason)
	})
}

func printReport(out io.Writer, r *batch.Report) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Job:       %s\n", r.JobID)
	fmt.Fprintf(out, "Status:    %s\n", r.Status)
	fmt.Fprintf(out, "Resolved:  %d / %d\n", r.Resolved, r.Total)
	if r.Failed > 0 {
		fmt.Fprintf(out, "Failed:    %d\n", r.Failed)
	}
	if r.Canceled > 0 {
		fmt.Fprintf(out, "Canceled:  %d\n", r.Canceled)
	}
	fmt.Fprintf(out, "Elapsed:   %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))

	if len(r.Failures) == 0 {
		return
	}
	rows := make([][]string, 0, len(r.Failures))
	for i, f := range r.Failures {
		rows = append(rows, []string{strconv.Itoa(i + 1), f.Artist, f.Title, f.Path, f.Reason})
	}
	fmt.Fprintln(out)
	printTable(out, []string{"#", "Artist", "Title", "Path", "Reason"}, rows, []columnAlignment{alignRight})
}
