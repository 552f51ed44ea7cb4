// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// Conference is one of the supported venues.
type Conference string

const (
	CVPR    Conference = "CVPR"
	ICCV    Conference = "ICCV"
	ECCV    Conference = "ECCV"
	NeurIPS Conference = "NeurIPS"
	ICLR    Conference = "ICLR"
	ICML    Conference = "ICML"
)

// Conferences lists all supported venues in display order.
var Conferences = []Conference{CVPR, ICCV, ECCV, NeurIPS, ICLR, ICML}

// ParseConference matches a venue abbreviation case-sensitively.
func ParseConference(s string) (Conference, error) {
	for _, c := range Conferences {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unsupported conference %q (supported: %v)", s, Conferences)
}

// Category is a normalized acceptance decision. Source-specific labels are
// mapped onto this closed vocabulary by the collectors; free-text categories
// never reach a Paper record.
type Category string

const (
	CategoryOral         Category = "Oral"
	CategorySpotlight    Category = "Spotlight"
	CategoryPoster       Category = "Poster"
	CategoryOralPoster   Category = "OralPoster"
	CategoryNotableTop5  Category = "NotableTop5"
	CategoryNotableTop25 Category = "NotableTop25"
	// CategoryAccept marks venues whose proceedings carry no decision
	// taxonomy: everything listed is simply accepted.
	CategoryAccept Category = "Accept"
)

// categoryOrder fixes the declaration order used when listing the categories
// present in a crawl.
var categoryOrder = []Category{
	CategoryOral, CategorySpotlight, CategoryPoster, CategoryOralPoster,
	CategoryNotableTop5, CategoryNotableTop25, CategoryAccept,
}

// CategoryRank returns the position of c in the declaration order, or
// len(order) for unknown categories.
func CategoryRank(c Category) int {
	for i, k := range categoryOrder {
		if k == c {
			return i
		}
	}
	return len(categoryOrder)
}

// ParseCategory matches a normalized category name case-sensitively.
func ParseCategory(s string) (Category, error) {
	for _, c := range categoryOrder {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q (known: %v)", s, categoryOrder)
}

// venueKey identifies one (conference, year) edition.
type venueKey struct {
	Conference Conference
	Year       int
}

// vocabularies declares the closed acceptance-category set of each supported
// edition. Vocabularies differ per year: OpenReview venues changed their
// decision taxonomy across years, while the proceedings sites (CVPR, ICCV,
// ECCV) publish accepted papers only.
var vocabularies = map[venueKey][]Category{
	{NeurIPS, 2023}: {CategoryOral, CategorySpotlight, CategoryPoster},
	{NeurIPS, 2022}: {CategoryAccept},
	{NeurIPS, 2021}: {CategoryOral, CategorySpotlight, CategoryPoster},

	{ICLR, 2024}: {CategoryOral, CategorySpotlight, CategoryPoster},
	{ICLR, 2023}: {CategoryNotableTop5, CategoryNotableTop25, CategoryPoster},
	{ICLR, 2022}: {CategoryOral, CategorySpotlight, CategoryPoster},
	{ICLR, 2021}: {CategoryOral, CategorySpotlight, CategoryPoster},

	{ICML, 2023}: {CategoryPoster, CategoryOralPoster},

	{CVPR, 2023}: {CategoryAccept},
	{CVPR, 2022}: {CategoryAccept},
	{CVPR, 2021}: {CategoryAccept},

	{ICCV, 2023}: {CategoryAccept},
	{ICCV, 2021}: {CategoryAccept},

	{ECCV, 2022}: {CategoryAccept},
	{ECCV, 2020}: {CategoryAccept},
}

// Vocabulary returns the declared acceptance categories for an edition, or an
// error when the (conference, year) pair is not supported.
func Vocabulary(conference Conference, year int) ([]Category, error) {
	vocab, ok := vocabularies[venueKey{conference, year}]
	if !ok {
		return nil, fmt.Errorf("unsupported year %d for %s (supported: %v)",
			year, conference, SupportedYears(conference))
	}
	out := make([]Category, len(vocab))
	copy(out, vocab)
	return out, nil
}

// InVocabulary reports whether cat belongs to the edition's declared set.
func InVocabulary(conference Conference, year int, cat Category) bool {
	vocab, ok := vocabularies[venueKey{conference, year}]
	if !ok {
		return false
	}
	for _, v := range vocab {
		if v == cat {
			return true
		}
	}
	return false
}

// SupportedYears returns the crawlable years of a conference, newest first.
func SupportedYears(conference Conference) []int {
	var years []int
	for k := range vocabularies {
		if k.Conference == conference {
			years = append(years, k.Year)
		}
	}
	for i := 0; i < len(years); i++ {
		for j := i + 1; j < len(years); j++ {
			if years[j] > years[i] {
				years[i], years[j] = years[j], years[i]
			}
		}
	}
	return years
}

// sourceLabels maps the raw decision labels each edition's source emits onto
// the normalized vocabulary. OpenReview venue strings are inconsistent across
// API versions and years ("oral" vs "Oral", "notable_top_5%"), so the mapping
// is declared explicitly rather than inferred.
var sourceLabels = map[string]Category{
	"oral":            CategoryOral,
	"Oral":            CategoryOral,
	"spotlight":       CategorySpotlight,
	"Spotlight":       CategorySpotlight,
	"poster":          CategoryPoster,
	"Poster":          CategoryPoster,
	"OralPoster":      CategoryOralPoster,
	"notable_top_5%":  CategoryNotableTop5,
	"notable_top_25%": CategoryNotableTop25,
	"Accept":          CategoryAccept,
}

// MapSourceLabel normalizes a source-specific decision label for an edition.
// The label must map into the edition's declared vocabulary.
func MapSourceLabel(conference Conference, year int, label string) (Category, error) {
	cat, ok := sourceLabels[label]
	if !ok {
		return "", fmt.Errorf("unknown decision label %q for %s %d", label, conference, year)
	}
	if !InVocabulary(conference, year, cat) {
		return "", fmt.Errorf("label %q maps to %s, outside the %s %d vocabulary",
			label, cat, conference, year)
	}
	return cat, nil
}

// SourceLabels returns the raw labels to query for an edition, in vocabulary
// order. Used by the OpenReview collector to build per-decision venue queries.
func SourceLabels(conference Conference, year int) ([]string, error) {
	vocab, err := Vocabulary(conference, year)
	if err != nil {
		return nil, err
	}
	labels := make([]string, 0, len(vocab))
	for _, cat := range vocab {
		labels = append(labels, rawLabel(conference, year, cat))
	}
	return labels, nil
}

// rawLabel picks the exact label string an edition's source uses for a
// normalized category. Editions from 2022 onward use lowercase labels on
// OpenReview API v2; earlier editions use capitalized labels on API v1.
func rawLabel(conference Conference, year int, cat Category) string {
	switch cat {
	case CategoryNotableTop5:
		return "notable_top_5%"
	case CategoryNotableTop25:
		return "notable_top_25%"
	case CategoryOralPoster:
		return "OralPoster"
	case CategoryAccept:
		return "Accept"
	}

	lower := (conference == NeurIPS && year == 2023) ||
		(conference == ICLR && (year == 2024 || year == 2023))
	if lower {
		switch cat {
		case CategoryOral:
			return "oral"
		case CategorySpotlight:
			return "spotlight"
		case CategoryPoster:
			return "poster"
		}
	}
	return string(cat)
}
