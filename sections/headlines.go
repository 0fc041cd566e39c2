package sections

import (
	"context"
	"errors"
	"math"

	"dailydigest/config"
	"dailydigest/feeds"
	"dailydigest/models"
	"dailydigest/query"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

// Headlines aggregates the configured feed sources
type Headlines struct {
	aggregator     *feeds.Aggregator
	sources        []feeds.Source
	title          string
	perSourceLimit int
	totalLimit     int
	links          bool
	filters        []query.FilterStrategy
}

func NewHeadlines(agg *feeds.Aggregator, cfg config.TomlHeadlines) *Headlines {
	h := &Headlines{
		aggregator:     agg,
		sources:        feeds.SourcesFromConfig(cfg.Sources),
		title:          cfg.Title,
		perSourceLimit: cfg.PerSourceLimit,
		totalLimit:     cfg.TotalLimit,
		links:          cfg.Links,
	}
	if cfg.Keyword != "" {
		h.filters = append(h.filters, &feeds.KeywordFilter{Keyword: cfg.Keyword})
	}
	if len(cfg.Exclude) > 0 {
		h.filters = append(h.filters, &feeds.ExcludeFilter{Keywords: cfg.Exclude})
	}
	return h
}

func (h *Headlines) Name() string { return config.SectionHeadlines }

func (h *Headlines) Fetch(ctx context.Context) models.Section {
	if len(h.sources) == 0 {
		return models.Failed(h.Name(), h.title, models.ReasonDisabled, nil)
	}

	// Filters run before truncation so a keyword does not starve the list
	limit := h.totalLimit
	if len(h.filters) > 0 {
		limit = math.MaxInt
	}

	var entries []models.Entry
	var errs []error
	if h.links {
		entries, errs = h.aggregator.AggregateUniqueItems(ctx, h.sources, h.perSourceLimit, limit)
	} else {
		var titles []string
		titles, errs = h.aggregator.AggregateUnique(ctx, h.sources, h.perSourceLimit, limit)
		entries = lo.Map(titles, func(title string, _ int) models.Entry {
			return models.Entry{Title: title}
		})
	}

	entries = query.Chain(entries, h.filters...)
	if len(entries) > h.totalLimit {
		entries = entries[:h.totalLimit]
	}

	if len(entries) == 0 {
		if len(errs) == len(h.sources) {
			reason := models.ReasonUnreachable
			var fetchErr *feeds.FetchError
			if errors.As(errs[0], &fetchErr) {
				reason = fetchErr.Reason
			}
			log.WithFields(log.Fields{
				"section": h.Name(),
				"reason":  reason,
			}).Warn("Every headline source failed")
			return models.Failed(h.Name(), h.title, reason, errors.Join(errs...))
		}
		return models.Failed(h.Name(), h.title, models.ReasonEmpty, nil)
	}

	return models.Section{
		Name:    h.Name(),
		Title:   h.title,
		Entries: entries,
	}
}
