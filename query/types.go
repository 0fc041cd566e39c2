package query

import "dailydigest/models"

// FilterStrategy narrows a list of entries
type FilterStrategy interface {
	// ApplyFilter returns the entries to keep, preserving order
	ApplyFilter(entries []models.Entry) []models.Entry
}

// Chain applies each filter in turn
func Chain(entries []models.Entry, filters ...FilterStrategy) []models.Entry {
	for _, filter := range filters {
		if filter == nil {
			continue
		}
		entries = filter.ApplyFilter(entries)
	}
	return entries
}
