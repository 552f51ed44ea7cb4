// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the paper-digest pipeline:
// the canonical paper record all collectors normalize into, the per-edition
// acceptance-category vocabularies, and the cached crawl result.
package types

import "fmt"

// Paper is the canonical record for one accepted (or decided) paper. Every
// collector, whatever its source shape, produces this schema.
type Paper struct {
	// Conference is the venue abbreviation.
	Conference Conference `json:"conference" yaml:"conference"`

	// Year is the four-digit edition year.
	Year int `json:"year" yaml:"year"`

	// Title is the paper title. Never empty.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in byline order. Never empty: a
	// record whose authors could not be parsed is a parse failure, not a
	// valid Paper.
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract may be empty when the source omits it.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Category is the normalized acceptance decision, always drawn from
	// the edition's declared vocabulary.
	Category Category `json:"category" yaml:"category"`

	// SourceURL is the canonical link to the paper's detail page. Together
	// with Title it forms the dedup key.
	SourceURL string `json:"source_url" yaml:"source_url"`

	// TLDR is the author-supplied one-line summary, when the source
	// carries one (OpenReview venues only).
	TLDR string `json:"tldr,omitempty" yaml:"tldr,omitempty"`

	// Keywords lists author-supplied keywords, when present.
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

// DedupKey identifies a paper across pages of a paginated source.
func (p Paper) DedupKey() string {
	return p.Title + "\x00" + p.SourceURL
}

// RawPaper holds collector-extracted fields before validation. Category is
// the already-normalized value; label mapping happens in the collector.
type RawPaper struct {
	Conference Conference
	Year       int
	Title      string
	Authors    []string
	Abstract   string
	Category   Category
	SourceURL  string
	TLDR       string
	Keywords   []string
}

// ValidationKind classifies why a raw record was rejected.
type ValidationKind string

const (
	MissingField    ValidationKind = "missing_field"
	InvalidCategory ValidationKind = "invalid_category"
	EmptyAuthors    ValidationKind = "empty_authors"
)

// ValidationError reports a raw record that does not satisfy the canonical
// schema. Validation failures are recovered locally: the collector logs and
// skips the record.
type ValidationError struct {
	Kind  ValidationKind
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid record (%s, field %s): %s", e.Kind, e.Field, e.Msg)
	}
	return fmt.Sprintf("invalid record (%s): %s", e.Kind, e.Msg)
}

// Validate checks a raw record against the canonical schema and returns the
// Paper it normalizes to. Deterministic and side-effect free: the same input
// always yields the same Paper or the same error.
func Validate(raw RawPaper) (Paper, error) {
	switch {
	case raw.Conference == "":
		return Paper{}, &ValidationError{Kind: MissingField, Field: "conference", Msg: "required"}
	case raw.Year < 1000 || raw.Year > 9999:
		return Paper{}, &ValidationError{Kind: MissingField, Field: "year",
			Msg: fmt.Sprintf("%d is not a four-digit year", raw.Year)}
	case raw.Title == "":
		return Paper{}, &ValidationError{Kind: MissingField, Field: "title", Msg: "required"}
	case raw.SourceURL == "":
		return Paper{}, &ValidationError{Kind: MissingField, Field: "source_url", Msg: "required"}
	}

	if len(raw.Authors) == 0 {
		return Paper{}, &ValidationError{Kind: EmptyAuthors,
			Msg: fmt.Sprintf("no authors parsed for %q", raw.Title)}
	}
	for _, a := range raw.Authors {
		if a == "" {
			return Paper{}, &ValidationError{Kind: EmptyAuthors,
				Msg: fmt.Sprintf("blank author entry for %q", raw.Title)}
		}
	}

	if !InVocabulary(raw.Conference, raw.Year, raw.Category) {
		return Paper{}, &ValidationError{Kind: InvalidCategory,
			Msg: fmt.Sprintf("%q is outside the %s %d vocabulary", raw.Category, raw.Conference, raw.Year)}
	}

	authors := make([]string, len(raw.Authors))
	copy(authors, raw.Authors)
	var keywords []string
	if len(raw.Keywords) > 0 {
		keywords = make([]string, len(raw.Keywords))
		copy(keywords, raw.Keywords)
	}

	return Paper{
		Conference: raw.Conference,
		Year:       raw.Year,
		Title:      raw.Title,
		Authors:    authors,
		Abstract:   raw.Abstract,
		Category:   raw.Category,
		SourceURL:  raw.SourceURL,
		TLDR:       raw.TLDR,
		Keywords:   keywords,
	}, nil
}
