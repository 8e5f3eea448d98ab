package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/sydlexius/encore/internal/provider"
)

type providerStatus struct {
	Name         provider.ProviderName `json:"name"`
	DisplayName  string                `json:"display_name"`
	Tier         provider.AccessTier   `json:"tier"`
	Configured   bool                  `json:"configured"`
	Capabilities []string              `json:"capabilities"`
	Interval     string                `json:"interval"`
	HelpURL      string                `json:"help_url,omitempty"`
}

func newProvidersCommand(cc *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "providers",
		Short: "Show providers in waterfall order and whether they are configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limiter := provider.NewRateLimiterMap(cc.cfg.Providers.RateIntervals())
			registry := buildRegistry(cc.cfg, limiter, cc.logger)
			statuses := providerStatuses(registry, limiter)

			if asJSON {
				return writeJSON(cmd, statuses)
			}
			rows := make([][]string, 0, len(statuses))
			for _, s := range statuses {
				interval := s.Interval
				if interval == "0s" {
					interval = "-"
				}
				rows = append(rows, []string{
					s.DisplayName,
					string(s.Tier),
					yesNo(s.Configured),
					strings.Join(s.Capabilities, ", "),
					interval,
					s.HelpURL,
				})
			}
			printTable(cmd.OutOrStdout(),
				[]string{"Provider", "Tier", "Configured", "Capabilities", "Interval", "API key"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight})
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func providerStatuses(registry *provider.Registry, limiter *provider.RateLimiterMap) []providerStatus {
	caps := provider.ProviderCapabilities()
	var out []providerStatus
	for _, p := range registry.All() {
		name := p.Name()
		out = append(out, providerStatus{
			Name:         name,
			DisplayName:  name.DisplayName(),
			Tier:         caps[name].Tier,
			Configured:   p.Configured(),
			Capabilities: capabilities(p),
			Interval:     limiter.Interval(name).String(),
			HelpURL:      caps[name].HelpURL,
		})
	}
	return out
}

func capabilities(p provider.Provider) []string {
	var out []string
	if _, ok := p.(provider.Searcher); ok {
		out = append(out, "search")
	}
	if _, ok := p.(provider.ImageProvider); ok {
		out = append(out, "images")
	}
	if _, ok := p.(provider.SetlistProvider); ok {
		out = append(out, "setlist")
	}
	if _, ok := p.(provider.SummaryProvider); ok {
		out = append(out, "summary")
	}
	return out
}
