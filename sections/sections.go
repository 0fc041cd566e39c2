// Package sections produces the individual blocks of a digest. Every provider is fail
// soft: instead of an error it returns a section carrying a failure reason.
package sections

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"dailydigest/config"
	"dailydigest/feeds"
	"dailydigest/models"

	log "github.com/sirupsen/logrus"
)

const maxBodySize = 2 << 20

// Provider fetches one digest section
type Provider interface {
	Name() string
	Fetch(ctx context.Context) models.Section
}

// StatusError is returned for non-2xx responses
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// MalformedError marks a payload that could not be decoded
type MalformedError struct {
	Err error
}

func (e *MalformedError) Error() string {
	return "malformed response: " + e.Err.Error()
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}

// HTTPClient performs the auxiliary GET requests, each bounded by a fixed timeout
type HTTPClient struct {
	client    *http.Client
	userAgent string
}

func NewHTTPClient(timeout time.Duration, userAgent string) *HTTPClient {
	if userAgent == "" {
		userAgent = feeds.DefaultUserAgent
	}
	return &HTTPClient{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Get returns the body of a successful response
func (c *HTTPClient) Get(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
}

// ReasonFor maps an error to the section failure reason
func ReasonFor(err error) models.Reason {
	var statusErr *StatusError
	var malformedErr *MalformedError
	var urlErr *url.Error

	switch {
	case err == nil:
		return models.ReasonNone
	case errors.Is(err, context.DeadlineExceeded):
		return models.ReasonTimeout
	case errors.As(err, &statusErr):
		return models.ReasonBadStatus
	case errors.As(err, &malformedErr):
		return models.ReasonMalformed
	case errors.As(err, &urlErr):
		if urlErr.Timeout() {
			return models.ReasonTimeout
		}
		return models.ReasonUnreachable
	default:
		return models.ReasonUnreachable
	}
}

func failed(name, title string, err error) models.Section {
	reason := ReasonFor(err)
	log.WithFields(log.Fields{
		"section": name,
		"reason":  reason,
	}).Warnf("Section unavailable: %v", err)
	return models.Failed(name, title, reason, err)
}

// Disabled is the provider for a section that has no configuration
type Disabled struct {
	SectionName string
}

func (d Disabled) Name() string { return d.SectionName }

func (d Disabled) Fetch(context.Context) models.Section {
	return models.Failed(d.SectionName, d.SectionName, models.ReasonDisabled, nil)
}

// Deps are the shared clients handed to providers
type Deps struct {
	Aggregator *feeds.Aggregator
	HTTP       *HTTPClient
	Quotes     QuoteSource
}

// FromConfig builds the providers in the configured section order
func FromConfig(cfg *config.TomlConfig, deps Deps) []Provider {
	providers := make([]Provider, 0, len(cfg.Digest.Sections))

	for _, name := range cfg.Digest.Sections {
		var provider Provider
		switch name {
		case config.SectionHeadlines:
			provider = NewHeadlines(deps.Aggregator, cfg.Headlines)
		case config.SectionWeather:
			if cfg.Weather != nil {
				provider = NewWeather(deps.HTTP, *cfg.Weather)
			}
		case config.SectionHoroscope:
			if cfg.Horoscope != nil {
				provider = NewHoroscope(deps.HTTP, *cfg.Horoscope)
			}
		case config.SectionMarket:
			if cfg.Market != nil {
				provider = NewMarket(deps.Quotes, *cfg.Market)
			}
		case config.SectionJoke:
			if cfg.Joke != nil {
				provider = NewJoke(deps.HTTP, *cfg.Joke)
			}
		}

		if provider == nil {
			provider = Disabled{SectionName: name}
		}
		providers = append(providers, provider)
	}

	return providers
}
