// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"reflect"
	"testing"
)

func validRaw() RawPaper {
	return RawPaper{
		Conference: ICLR,
		Year:       2023,
		Title:      "Sparse Mixture Routing",
		Authors:    []string{"A. Researcher", "B. Scholar"},
		Abstract:   "We study routing.",
		Category:   CategoryPoster,
		SourceURL:  "https://openreview.net/forum?id=abc123",
	}
}

func TestValidateAccepts(t *testing.T) {
	p, err := Validate(validRaw())
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if p.Title != "Sparse Mixture Routing" || p.Category != CategoryPoster {
		t.Errorf("unexpected paper: %+v", p)
	}
	if len(p.Authors) != 2 {
		t.Errorf("Authors = %v, want 2 entries", p.Authors)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RawPaper)
		kind   ValidationKind
	}{
		{"missing title", func(r *RawPaper) { r.Title = "" }, MissingField},
		{"missing source url", func(r *RawPaper) { r.SourceURL = "" }, MissingField},
		{"missing conference", func(r *RawPaper) { r.Conference = "" }, MissingField},
		{"three-digit year", func(r *RawPaper) { r.Year = 202 }, MissingField},
		{"no authors", func(r *RawPaper) { r.Authors = nil }, EmptyAuthors},
		{"blank author", func(r *RawPaper) { r.Authors = []string{"A", ""} }, EmptyAuthors},
		{"category outside vocabulary", func(r *RawPaper) { r.Category = CategoryOralPoster }, InvalidCategory},
		{"free-text category", func(r *RawPaper) { r.Category = "Best Paper" }, InvalidCategory},
		{"unsupported year", func(r *RawPaper) { r.Year = 2019 }, InvalidCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validRaw()
			tt.mutate(&raw)
			_, err := Validate(raw)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate err = %v, want ValidationError", err)
			}
			if verr.Kind != tt.kind {
				t.Errorf("Kind = %s, want %s", verr.Kind, tt.kind)
			}
		})
	}
}

// Validate must be deterministic: same input, same output.
func TestValidateDeterministic(t *testing.T) {
	raw := validRaw()
	p1, err1 := Validate(raw)
	p2, err2 := Validate(raw)
	if err1 != nil || err2 != nil {
		t.Fatalf("Validate: %v, %v", err1, err2)
	}
	if !reflect.DeepEqual(p1, p2) {
		t.Errorf("Validate not deterministic: %+v vs %+v", p1, p2)
	}

	bad := validRaw()
	bad.Authors = nil
	_, e1 := Validate(bad)
	_, e2 := Validate(bad)
	if e1.Error() != e2.Error() {
		t.Errorf("error not deterministic: %v vs %v", e1, e2)
	}
}

func TestValidateCopiesAuthors(t *testing.T) {
	raw := validRaw()
	p, err := Validate(raw)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	raw.Authors[0] = "mutated"
	if p.Authors[0] == "mutated" {
		t.Error("Paper shares author slice with raw input")
	}
}

func TestVocabulary(t *testing.T) {
	tests := []struct {
		conference Conference
		year       int
		want       []Category
	}{
		{NeurIPS, 2022, []Category{CategoryAccept}},
		{ICLR, 2023, []Category{CategoryNotableTop5, CategoryNotableTop25, CategoryPoster}},
		{ICML, 2023, []Category{CategoryPoster, CategoryOralPoster}},
		{CVPR, 2022, []Category{CategoryAccept}},
	}
	for _, tt := range tests {
		got, err := Vocabulary(tt.conference, tt.year)
		if err != nil {
			t.Fatalf("Vocabulary(%s, %d): %v", tt.conference, tt.year, err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Vocabulary(%s, %d) = %v, want %v", tt.conference, tt.year, got, tt.want)
		}
	}

	if _, err := Vocabulary(ICCV, 2022); err == nil {
		t.Error("Vocabulary(ICCV, 2022) should fail: ICCV is biennial")
	}
}

func TestMapSourceLabel(t *testing.T) {
	tests := []struct {
		conference Conference
		year       int
		label      string
		want       Category
		wantErr    bool
	}{
		{NeurIPS, 2023, "oral", CategoryOral, false},
		{NeurIPS, 2021, "Oral", CategoryOral, false},
		{NeurIPS, 2022, "Accept", CategoryAccept, false},
		{ICLR, 2023, "notable_top_5%", CategoryNotableTop5, false},
		{ICLR, 2023, "notable_top_25%", CategoryNotableTop25, false},
		{ICML, 2023, "OralPoster", CategoryOralPoster, false},
		{NeurIPS, 2022, "oral", "", true},    // not in 2022 vocabulary
		{ICLR, 2023, "Best Paper", "", true}, // unknown label
	}
	for _, tt := range tests {
		got, err := MapSourceLabel(tt.conference, tt.year, tt.label)
		if tt.wantErr {
			if err == nil {
				t.Errorf("MapSourceLabel(%s, %d, %q) should fail", tt.conference, tt.year, tt.label)
			}
			continue
		}
		if err != nil {
			t.Errorf("MapSourceLabel(%s, %d, %q): %v", tt.conference, tt.year, tt.label, err)
			continue
		}
		if got != tt.want {
			t.Errorf("MapSourceLabel(%s, %d, %q) = %s, want %s", tt.conference, tt.year, tt.label, got, tt.want)
		}
	}
}

func TestSourceLabels(t *testing.T) {
	got, err := SourceLabels(ICLR, 2023)
	if err != nil {
		t.Fatalf("SourceLabels: %v", err)
	}
	want := []string{"notable_top_5%", "notable_top_25%", "poster"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SourceLabels(ICLR, 2023) = %v, want %v", got, want)
	}

	got, err = SourceLabels(NeurIPS, 2021)
	if err != nil {
		t.Fatalf("SourceLabels: %v", err)
	}
	want = []string{"Oral", "Spotlight", "Poster"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SourceLabels(NeurIPS, 2021) = %v, want %v", got, want)
	}
}

func TestSupportedYears(t *testing.T) {
	got := SupportedYears(ICLR)
	want := []int{2024, 2023, 2022, 2021}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SupportedYears(ICLR) = %v, want %v", got, want)
	}
}

func TestCrawlResultCategories(t *testing.T) {
	r := CrawlResult{Papers: []Paper{
		{Category: CategoryPoster},
		{Category: CategoryOral},
		{Category: CategoryPoster},
	}}
	got := r.Categories()
	want := []Category{CategoryOral, CategoryPoster}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Categories() = %v, want %v", got, want)
	}
}
