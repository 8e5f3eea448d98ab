package resolve

import (
	"context"
	"log/slog"

	"github.com/sydlexius/encore/internal/provider"
)

// SearchLimit caps the candidates collected from each provider.
const SearchLimit = 5

// searchOrder is the provider order of manual search results.
var searchOrder = []provider.ProviderName{
	provider.NameTMDB,
	provider.NameAudioDB,
	provider.NameDiscogs,
}

// Search collects unscored candidates for human selection, grouped in
// provider order. Providers that are unconfigured, empty, or failing are
// skipped. It only returns an error when ctx is done.
func (r *Resolver) Search(ctx context.Context, q provider.Query) ([]provider.Candidate, error) {
	var all []provider.Candidate
	for _, name := range searchOrder {
		if err := ctx.Err(); err != nil {
			return all, err
		}
		s, ok := provider.As[provider.Searcher](r.registry, name)
		if !ok {
			continue
		}
		results, err := s.Search(ctx, q, SearchLimit)
		if err != nil {
			if provider.Classify(err) == provider.StatusTransient {
				r.logger.Warn("provider search failed",
					slog.String("provider", string(name)),
					slog.String("error", err.Error()))
			}
			continue
		}
		all = append(all, results...)
	}
	return all, nil
}
