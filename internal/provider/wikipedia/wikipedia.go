// Package wikipedia adapts the Wikipedia REST page summary endpoint as a
// source of plot text.
package wikipedia

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/sydlexius/encore/internal/provider"
)

// DefaultLanguage is the wiki edition used when none is configured.
const DefaultLanguage = "en"

// Adapter implements provider.SummaryProvider for Wikipedia.
type Adapter struct {
	client  *provider.Client
	filter  PageFilter
	logger  *slog.Logger
	baseURL string
}

// New creates a Wikipedia adapter for the given language edition. A nil
// filter uses DefaultFilter.
func New(limiter *provider.RateLimiterMap, language string, filter PageFilter, logger *slog.Logger, opts ...provider.ClientOption) *Adapter {
	if language == "" {
		language = DefaultLanguage
	}
	return NewWithBaseURL(limiter, filter, logger, fmt.Sprintf("https://%s.wikipedia.org/api/rest_v1", language), opts...)
}

// NewWithBaseURL creates a Wikipedia adapter with a custom base URL (for testing).
func NewWithBaseURL(limiter *provider.RateLimiterMap, filter PageFilter, logger *slog.Logger, baseURL string, opts ...provider.ClientOption) *Adapter {
	if filter == nil {
		filter = DefaultFilter()
	}
	logger = logger.With(slog.String("provider", "wikipedia"))
	return &Adapter{
		client:  provider.NewClient(provider.NameWikipedia, limiter, logger, opts...),
		filter:  filter,
		logger:  logger,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Name returns the provider name.
func (a *Adapter) Name() provider.ProviderName { return provider.NameWikipedia }

// RequiresAuth returns false; the REST API is open.
func (a *Adapter) RequiresAuth() bool { return false }

// Configured always reports true.
func (a *Adapter) Configured() bool { return true }

// Summary tries titles in order and returns the first page the filter
// accepts. Missing and rejected pages move on to the next title.
func (a *Adapter) Summary(ctx context.Context, titles []string) (*provider.Summary, error) {
	var lastErr error
	for _, title := range titles {
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}

		s, err := a.fetch(ctx, title)
		if err != nil {
			if provider.Classify(err) == provider.StatusTransient {
				lastErr = err
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			continue
		}

		page := Page{Title: s.Title, Type: s.Type, Extract: s.Extract}
		if !a.filter.Accept(page) {
			a.logger.Debug("page rejected", slog.String("title", title), slog.String("type", s.Type))
			continue
		}
		return &provider.Summary{
			Title:   s.Title,
			Extract: strings.TrimSpace(s.Extract),
			URL:     s.ContentURLs.Desktop.Page,
		}, nil
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, &provider.ErrNotFound{Provider: provider.NameWikipedia, ID: strings.Join(titles, " | ")}
}

func (a *Adapter) fetch(ctx context.Context, title string) (*SummaryResponse, error) {
	path := url.PathEscape(strings.ReplaceAll(title, " ", "_"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/page/summary/"+path, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Encore/1.0 (https://github.com/sydlexius/encore)")

	var resp SummaryResponse
	if err := a.client.GetJSON(ctx, req, "wikipedia:"+a.baseURL+"/"+path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
