// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// CrawlResult is one collector run over one edition: the ordered record set
// plus provenance. A result is immutable after creation; a fresh crawl
// replaces the cached result wholesale rather than merging into it.
type CrawlResult struct {
	// Conference and Year identify the edition crawled.
	Conference Conference `json:"conference" yaml:"conference"`
	Year       int        `json:"year" yaml:"year"`

	// Collector names the variant that produced the result ("cvf" or
	// "openreview"), for provenance only.
	Collector string `json:"collector" yaml:"collector"`

	// CrawledAt is when the run completed.
	CrawledAt time.Time `json:"crawled_at" yaml:"crawled_at"`

	// Papers holds the records in source-listing order.
	Papers []Paper `json:"papers" yaml:"papers"`
}

// Categories returns the distinct acceptance categories present in the
// result, in vocabulary declaration order.
func (r *CrawlResult) Categories() []Category {
	seen := make(map[Category]bool, len(r.Papers))
	for _, p := range r.Papers {
		seen[p.Category] = true
	}
	var out []Category
	for _, c := range categoryOrder {
		if seen[c] {
			out = append(out, c)
		}
	}
	return out
}
