package feeds

import (
	"context"
	"errors"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"dailydigest/metrics"
	"dailydigest/models"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

const DefaultUserAgent = "dailydigest/1.0 (+https://github.com/dailydigest)"

var (
	titlePolicy = bluemonday.StrictPolicy()
	inlineTag   = regexp.MustCompile(`(?i)</?(a|abbr|b|br|cite|code|del|em|font|i|img|ins|mark|p|q|s|small|span|strong|sub|sup|u)(\s[^<>]*)?/?>`)
)

// Aggregator fetches feed sources one at a time
type Aggregator struct {
	parser    Parser
	metrics   *metrics.Metrics
	detector  LanguageDetector
	detectors map[string]LanguageDetector
	userAgent string
	timeout   time.Duration
}

type Option func(*Aggregator)

// WithParser replaces the gofeed parser
func WithParser(p Parser) Option {
	return func(a *Aggregator) { a.parser = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Aggregator) { a.metrics = m }
}

// WithLanguageDetector sets the detector used for sources that restrict languages
func WithLanguageDetector(d LanguageDetector) Option {
	return func(a *Aggregator) { a.detector = d }
}

func WithUserAgent(ua string) Option {
	return func(a *Aggregator) {
		if ua != "" {
			a.userAgent = ua
		}
	}
}

// WithTimeout bounds each feed request. Zero leaves requests unbounded.
func WithTimeout(d time.Duration) Option {
	return func(a *Aggregator) { a.timeout = d }
}

func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		userAgent: DefaultUserAgent,
		detectors: make(map[string]LanguageDetector),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.parser == nil {
		p := gofeed.NewParser()
		p.UserAgent = a.userAgent
		p.Client = &http.Client{Timeout: a.timeout}
		a.parser = p
	}

	return a
}

// FetchTitles returns up to limit titles of the source in document order.
// Entries without a title are skipped. An unreachable or unparsable source yields an
// empty slice and a *FetchError.
func (a *Aggregator) FetchTitles(ctx context.Context, src Source, limit int) ([]string, error) {
	entries, err := a.fetch(ctx, src, limit, false)
	return lo.Map(entries, func(e models.Entry, _ int) string { return e.Title }), err
}

// FetchItems is FetchTitles for entries that carry both a title and a link
func (a *Aggregator) FetchItems(ctx context.Context, src Source, limit int) ([]models.Entry, error) {
	return a.fetch(ctx, src, limit, true)
}

// AggregateUnique fetches the titles of every source, drops repeated titles keeping
// the first occurrence and truncates the result to totalLimit.
// Failed sources contribute nothing; their errors are returned beside the titles.
func (a *Aggregator) AggregateUnique(ctx context.Context, sources []Source, perSourceLimit, totalLimit int) ([]string, []error) {
	entries, errs := a.aggregate(ctx, sources, perSourceLimit, totalLimit, false)
	return lo.Map(entries, func(e models.Entry, _ int) string { return e.Title }), errs
}

// AggregateUniqueItems is AggregateUnique over linked entries, deduplicated by title
func (a *Aggregator) AggregateUniqueItems(ctx context.Context, sources []Source, perSourceLimit, totalLimit int) ([]models.Entry, []error) {
	return a.aggregate(ctx, sources, perSourceLimit, totalLimit, true)
}

func (a *Aggregator) aggregate(ctx context.Context, sources []Source, perSourceLimit, totalLimit int, withLinks bool) ([]models.Entry, []error) {
	var merged []models.Entry
	var errs []error

	for _, src := range sources {
		entries, err := a.fetch(ctx, src, effectiveLimit(src.Limit, perSourceLimit), withLinks)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		merged = append(merged, entries...)
	}

	unique := DedupeByTitle(merged)
	if totalLimit <= 0 {
		return []models.Entry{}, errs
	}
	if len(unique) > totalLimit {
		unique = unique[:totalLimit]
	}

	log.WithFields(log.Fields{
		"sources": len(sources),
		"failed":  len(errs),
		"merged":  len(merged),
		"kept":    len(unique),
	}).Info("Aggregated headlines")

	return unique, errs
}

func (a *Aggregator) fetch(ctx context.Context, src Source, limit int, requireLink bool) ([]models.Entry, error) {
	entries := []models.Entry{}
	if limit <= 0 {
		return entries, nil
	}

	location := src.Location()
	feed, err := a.parser.ParseURLWithContext(location, ctx)
	if err != nil {
		fetchErr := &FetchError{Source: src.Name, Reason: classify(err), Err: err}
		a.metrics.FeedFailed(src.Name, string(fetchErr.Reason))
		log.WithFields(log.Fields{
			"source": src.Name,
			"url":    location,
			"reason": fetchErr.Reason,
		}).Warnf("Error fetching feed: %v", err)
		return entries, fetchErr
	}

	var keep func(string) bool
	if len(src.Languages) > 0 {
		keep = a.languageFilter(src.Languages)
	}

	for _, item := range feed.Items {
		if len(entries) >= limit {
			break
		}
		if item == nil {
			continue
		}

		title := CleanTitle(item.Title)
		link := strings.TrimSpace(item.Link)
		if title == "" || (requireLink && link == "") {
			continue
		}
		if keep != nil && !keep(title) {
			continue
		}

		entries = append(entries, models.Entry{
			Title:  title,
			Link:   link,
			Source: src.Name,
		})
	}

	a.metrics.FeedFetched(src.Name, len(entries))
	log.WithFields(log.Fields{
		"source":  src.Name,
		"items":   len(feed.Items),
		"entries": len(entries),
	}).Debug("Fetched feed")

	return entries, nil
}

func (a *Aggregator) languageFilter(languages []string) func(string) bool {
	detector := a.detector
	if detector == nil {
		key := strings.Join(languages, ",")
		if cached, ok := a.detectors[key]; ok {
			detector = cached
		} else {
			detector = NewLanguageDetector(languages)
			a.detectors[key] = detector
		}
	}
	return NewLanguageFilter(detector, languages).Keep
}

// CleanTitle reduces a feed title to single-spaced plain text. Markup is
// only stripped when the title carries inline HTML elements; a literal '<'
// in an already decoded title is kept as text.
func CleanTitle(raw string) string {
	if !inlineTag.MatchString(raw) {
		return collapseSpace(raw)
	}

	// Text left after removing just the recognised tags. The sanitizer
	// result is only used when it agrees, so no headline text is lost.
	text := collapseSpace(html.UnescapeString(inlineTag.ReplaceAllString(raw, "")))
	if sanitized := collapseSpace(html.UnescapeString(titlePolicy.Sanitize(raw))); sanitized == text {
		return sanitized
	}
	return text
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// effectiveLimit picks the smaller positive cap
func effectiveLimit(sourceLimit, perSourceLimit int) int {
	switch {
	case sourceLimit <= 0:
		return perSourceLimit
	case perSourceLimit <= 0:
		return sourceLimit
	default:
		return min(sourceLimit, perSourceLimit)
	}
}

func classify(err error) models.Reason {
	var httpErr gofeed.HTTPError
	var urlErr *url.Error

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.ReasonTimeout
	case errors.As(err, &httpErr):
		return models.ReasonBadStatus
	case errors.As(err, &urlErr):
		if urlErr.Timeout() {
			return models.ReasonTimeout
		}
		return models.ReasonUnreachable
	case errors.Is(err, gofeed.ErrFeedTypeNotDetected):
		return models.ReasonMalformed
	case errors.Is(err, context.Canceled):
		return models.ReasonUnreachable
	default:
		return models.ReasonMalformed
	}
}
