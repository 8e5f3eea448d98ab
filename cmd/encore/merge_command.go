package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sydlexius/encore/internal/merge"
	"github.com/sydlexius/encore/internal/provider"
)

func newMergeCommand(cc *commandContext) *cobra.Command {
	var (
		artist    string
		title     string
		date      string
		pick      int
		overwrite []string
		keep      []string
		dryRun    bool
		force     bool
		noArtwork bool
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "merge <asset-path>",
		Short: "Reconcile an existing sidecar with a searched and enriched candidate",
		Long: `Search every provider for an asset that already has a sidecar, enrich the
candidate chosen with --pick (the first by default) and show, per field, how
the stored and new values compare. Empty fields are filled by default and
conflicting fields are kept unless named with --overwrite. --keep turns off
the default for a field that would otherwise be filled.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			assetPath := args[0]
			ctx := cmd.Context()

			stored, err := readStored(assetPath)
			if err != nil {
				return err
			}
			if artist == "" {
				artist = stored.record.Artist
			}
			if title == "" {
				title = stored.record.Title
			}
			if artist == "" || title == "" {
				return fmt.Errorf("artist and title are required when the sidecar does not provide them")
			}

			svc, err := cc.buildServices(ctx)
			if err != nil {
				return err
			}
			q := provider.Query{Artist: artist, Title: title, Date: date}
			candidates, err := svc.resolver.Search(ctx, q)
			if err != nil {
				return err
			}
			incoming, _, err := enrichPick(ctx, svc, candidates, pick, q)
			if err != nil {
				return err
			}

			plan, err := stored.plan(incoming, overwrite, keep)
			if err != nil {
				return err
			}
			if asJSON && dryRun {
				return writeJSON(cmd, plan.Decisions())
			}
			if !asJSON {
				printDecisions(cmd.OutOrStdout(), plan.Decisions())
			}
			if dryRun {
				return nil
			}

			rec, err := stored.merged(plan, incoming)
			if err != nil {
				return err
			}
			if err := stored.checkConflict(force); err != nil {
				return err
			}

			layout, err := cc.sink(!noArtwork).Write(ctx, assetPath, rec)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, map[string]any{
					"decisions": plan.Decisions(),
					"nfo":       layout.NFO,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s from %s\n",
				layout.NFO, candidates[pick-1].Source.DisplayName())
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&artist, "artist", "", "Artist to resolve (defaults to the sidecar's)")
	f.StringVar(&title, "title", "", "Title to resolve (defaults to the sidecar's)")
	f.StringVar(&date, "date", "", "Performance date (YYYY-MM-DD)")
	f.IntVar(&pick, "pick", 1, "Row number of the candidate to merge, as listed by search")
	f.StringSliceVar(&overwrite, "overwrite", nil, "Fields to take from the new values")
	f.StringSliceVar(&keep, "keep", nil, "Fields to leave unchanged")
	f.BoolVar(&dryRun, "dry-run", false, "Show decisions without writing")
	f.BoolVar(&force, "force", false, "Write even if the sidecar changed since it was read")
	f.BoolVar(&noArtwork, "no-artwork", false, "Skip poster and fanart downloads")
	f.BoolVar(&asJSON, "json", false, "Print JSON instead of a table")

	return cmd
}

func printDecisions(out io.Writer, decisions []merge.Decision) {
	rows := make([][]string, 0, len(decisions))
	for _, d := range decisions {
		action := "keep"
		if d.Overwrite {
			action = "write"
		}
		if d.Locked {
			action = "-"
		}
		rows = append(rows, []string{
			d.Field,
			truncate(d.Current, 40),
			truncate(d.New, 40),
			d.Status,
			action,
		})
	}
	printTable(out, []string{"Field", "Current", "New", "Status", "Action"}, rows, nil)
}
