// Package feeds fetches headlines from RSS and Atom sources and merges them into a
// bounded, deduplicated list.
package feeds

import (
	"context"
	"fmt"

	"dailydigest/config"
	"dailydigest/models"

	"github.com/mmcdole/gofeed"
)

// Source is a feed endpoint together with its own item cap
type Source struct {
	Name      string
	URL       string
	Params    map[string]string
	Limit     int
	Languages []string
}

// Location is the source URL with its template parameters filled in
func (s Source) Location() string {
	return config.ExpandTemplate(s.URL, s.Params)
}

// Parser retrieves and parses a feed document. *gofeed.Parser satisfies it.
type Parser interface {
	ParseURLWithContext(feedURL string, ctx context.Context) (*gofeed.Feed, error)
}

// FetchError is returned alongside an empty result when a source could not be read
type FetchError struct {
	Source string
	Reason models.Reason
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("feed %s: %s: %v", e.Source, e.Reason, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// SourcesFromConfig converts configured sources into Source values
func SourcesFromConfig(cfg []config.TomlSource) []Source {
	sources := make([]Source, len(cfg))
	for i, src := range cfg {
		sources[i] = Source{
			Name:      src.Name,
			URL:       src.URL,
			Params:    src.Params,
			Limit:     src.Limit,
			Languages: src.Languages,
		}
	}
	return sources
}
