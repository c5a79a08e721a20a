package domain

import "time"

// ImportEntry is a bookmark candidate read from an external file.
type ImportEntry struct {
	Title     string
	URL       string
	CreatedAt time.Time
	// Tags is optional, set by sources that carry grouping (e.g. Homepage categories).
	Tags []string
}

// ImportReport summarises an import run.
type ImportReport struct {
	Imported   int `json:"imported"`
	Duplicates int `json:"duplicates"`
	Skipped    int `json:"skipped"`
}

// DedupeImport drops entries whose url already exists, or that repeat an
// earlier entry of the same batch. Matching is on the exact url string.
func DedupeImport(entries []ImportEntry, existingURLs []string) (fresh []ImportEntry, duplicates int) {
	seen := make(map[string]bool, len(existingURLs)+len(entries))
	for _, u := range existingURLs {
		seen[u] = true
	}

	fresh = make([]ImportEntry, 0, len(entries))
	for _, e := range entries {
		if seen[e.URL] {
			duplicates++
			continue
		}
		seen[e.URL] = true
		fresh = append(fresh, e)
	}
	return fresh, duplicates
}
