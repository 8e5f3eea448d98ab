package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sydlexius/encore/internal/provider"
)

func newSearchCommand(cc *commandContext) *cobra.Command {
	var (
		artist    string
		title     string
		pick      int
		path      string
		overwrite []string
		keep      []string
		dryRun    bool
		force     bool
		noArtwork bool
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "List candidates from every search provider for manual selection",
		Long: `Search TMDB, TheAudioDB and Discogs without scoring and list what each
returns. Pass --pick with the row number and --path to enrich the chosen
candidate and write its sidecar. When the asset already has a sidecar the
pick is merged into it field by field: empty fields are filled, stored values
that differ are kept unless named with --overwrite, and --keep turns off a
fill.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pick > 0 && path == "" {
				return fmt.Errorf("--pick needs --path")
			}

			svc, err := cc.buildServices(cmd.Context())
			if err != nil {
				return err
			}

			q := provider.Query{Artist: artist, Title: title}
			candidates, err := svc.resolver.Search(cmd.Context(), q)
			if err != nil {
				return err
			}

			if pick == 0 {
				if asJSON {
					return writeJSON(cmd, candidates)
				}
				if len(candidates) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No candidates found")
					return nil
				}
				printCandidates(cmd, candidates)
				return nil
			}

			stored, err := readStored(path)
			if err != nil {
				return err
			}
			rec, sources, err := enrichPick(cmd.Context(), svc, candidates, pick, q)
			if err != nil {
				return err
			}
			plan, err := stored.plan(rec, overwrite, keep)
			if err != nil {
				return err
			}
			if !asJSON && stored.found {
				printDecisions(cmd.OutOrStdout(), plan.Decisions())
			}
			if dryRun {
				if asJSON {
					return writeJSON(cmd, plan.Decisions())
				}
				return nil
			}

			out, err := stored.merged(plan, rec)
			if err != nil {
				return err
			}
			if err := stored.checkConflict(force); err != nil {
				return err
			}
			layout, err := cc.sink(!noArtwork).Write(cmd.Context(), path, out)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, map[string]any{
					"record":    out,
					"sources":   sources,
					"decisions": plan.Decisions(),
					"nfo":       layout.NFO,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s from %s (%d enriched fields)\n",
				layout.NFO, candidates[pick-1].Source.DisplayName(), len(sources))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&artist, "artist", "", "Artist name (required)")
	f.StringVar(&title, "title", "", "Title (required)")
	f.IntVar(&pick, "pick", 0, "Row number of the candidate to save")
	f.StringVar(&path, "path", "", "Asset path to write the sidecar for")
	f.StringSliceVar(&overwrite, "overwrite", nil, "Fields to take from the pick over stored values")
	f.StringSliceVar(&keep, "keep", nil, "Fields to leave unchanged")
	f.BoolVar(&dryRun, "dry-run", false, "Show decisions without writing")
	f.BoolVar(&force, "force", false, "Write even if the sidecar changed since it was read")
	f.BoolVar(&noArtwork, "no-artwork", false, "Skip poster and fanart downloads")
	f.BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	_ = cmd.MarkFlagRequired("artist")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func printCandidates(cmd *cobra.Command, candidates []provider.Candidate) {
	rows := make([][]string, 0, len(candidates))
	for i, c := range candidates {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			c.Source.DisplayName(),
			string(c.Kind),
			truncate(c.Title, 50),
			c.Artist,
			c.Year,
			yesNo(c.PosterURL != ""),
		})
	}
	printTable(cmd.OutOrStdout(),
		[]string{"#", "Provider", "Kind", "Title", "Artist", "Year", "Poster"},
		rows,
		[]columnAlignment{alignRight})
}
