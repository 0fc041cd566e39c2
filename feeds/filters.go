package feeds

import (
	"strings"

	"dailydigest/models"
	"dailydigest/query"

	"github.com/samber/lo"
)

// FilterByKeyword keeps the titles containing keyword, ignoring case.
// An empty keyword keeps everything.
func FilterByKeyword(titles []string, keyword string) []string {
	if keyword == "" {
		return titles
	}
	needle := strings.ToLower(keyword)
	return lo.Filter(titles, func(title string, _ int) bool {
		return strings.Contains(strings.ToLower(title), needle)
	})
}

// DedupeByTitle drops entries whose title was already seen, keeping the first one
func DedupeByTitle(entries []models.Entry) []models.Entry {
	return lo.UniqBy(entries, func(e models.Entry) string {
		return e.Title
	})
}

// KeywordFilter keeps entries whose title contains the keyword, ignoring case
type KeywordFilter struct {
	Keyword string
}

func (f *KeywordFilter) ApplyFilter(entries []models.Entry) []models.Entry {
	if f.Keyword == "" {
		return entries
	}
	needle := strings.ToLower(f.Keyword)
	return lo.Filter(entries, func(e models.Entry, _ int) bool {
		return strings.Contains(strings.ToLower(e.Title), needle)
	})
}

// ExcludeFilter drops entries whose title contains any of the keywords, ignoring case
type ExcludeFilter struct {
	Keywords []string
}

func (f *ExcludeFilter) ApplyFilter(entries []models.Entry) []models.Entry {
	if len(f.Keywords) == 0 {
		return entries
	}
	needles := lo.Map(f.Keywords, func(k string, _ int) string { return strings.ToLower(k) })
	return lo.Reject(entries, func(e models.Entry, _ int) bool {
		title := strings.ToLower(e.Title)
		return lo.SomeBy(needles, func(n string) bool {
			return n != "" && strings.Contains(title, n)
		})
	})
}

var _ query.FilterStrategy = (*KeywordFilter)(nil)
var _ query.FilterStrategy = (*ExcludeFilter)(nil)
