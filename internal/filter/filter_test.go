// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filter

import (
	"reflect"
	"strings"
	"testing"

	"github.com/pdiddy/paper-digest/pkg/types"
)

func papers() []types.Paper {
	return []types.Paper{
		{Title: "A", Category: types.CategoryOral},
		{Title: "B", Category: types.CategoryPoster},
		{Title: "C", Category: types.CategoryOral},
		{Title: "D", Category: types.CategorySpotlight},
	}
}

func titles(ps []types.Paper) []string {
	var out []string
	for _, p := range ps {
		out = append(out, p.Title)
	}
	return out
}

func TestApplyAll(t *testing.T) {
	got := Apply(papers(), All())
	if want := []string{"A", "B", "C", "D"}; !reflect.DeepEqual(titles(got), want) {
		t.Errorf("Apply(ALL) = %v, want all in original order", titles(got))
	}
}

// The empty set is explicit: it is not the all-categories sentinel.
func TestApplyEmptySelection(t *testing.T) {
	got := Apply(papers(), Only())
	if len(got) != 0 {
		t.Errorf("Apply(empty) = %v, want empty", titles(got))
	}
	if Only().IsAll() {
		t.Error("Only() must not be the ALL sentinel")
	}
	if !All().IsAll() {
		t.Error("All() must be the ALL sentinel")
	}
}

func TestApplySingleCategory(t *testing.T) {
	got := Apply(papers(), Only(types.CategoryOral))
	if want := []string{"A", "C"}; !reflect.DeepEqual(titles(got), want) {
		t.Errorf("Apply(Oral) = %v, want %v (order preserved)", titles(got), want)
	}
}

func TestApplyMultipleCategories(t *testing.T) {
	got := Apply(papers(), Only(types.CategoryPoster, types.CategorySpotlight))
	if want := []string{"B", "D"}; !reflect.DeepEqual(titles(got), want) {
		t.Errorf("Apply = %v, want %v", titles(got), want)
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	in := papers()
	Apply(in, Only(types.CategoryOral))
	if !reflect.DeepEqual(titles(in), []string{"A", "B", "C", "D"}) {
		t.Error("Apply mutated its input")
	}
}

func TestAvailable(t *testing.T) {
	got := Available(papers())
	want := []types.Category{types.CategoryOral, types.CategorySpotlight, types.CategoryPoster}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Available = %v, want %v (declaration order)", got, want)
	}
}

func TestSelectionString(t *testing.T) {
	if got := All().String(); got != "all" {
		t.Errorf("All().String() = %q", got)
	}
	if got := Only().String(); got != "none" {
		t.Errorf("Only().String() = %q", got)
	}
	if got := Only(types.CategoryPoster, types.CategoryOral).String(); got != "Oral,Poster" {
		t.Errorf("String() = %q, want declaration order", got)
	}
}

func TestConsoleSelect(t *testing.T) {
	available := []types.Category{types.CategoryOral, types.CategorySpotlight, types.CategoryPoster}

	tests := []struct {
		name    string
		input   string
		want    []types.Category
		wantErr bool
	}{
		{"single choice", "0\n", []types.Category{types.CategoryOral}, false},
		{"two choices", "0 2\n", []types.Category{types.CategoryOral, types.CategoryPoster}, false},
		{"no choice", "\n", nil, false},
		{"out of range", "7\n", nil, true},
		{"not a number", "oral\n", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var prompt strings.Builder
			sel := ConsoleSelect(strings.NewReader(tt.input), &prompt)
			got, err := sel(available)
			if tt.wantErr {
				if err == nil {
					t.Fatal("want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ConsoleSelect: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("chosen = %v, want %v", got, tt.want)
			}
			if !strings.Contains(prompt.String(), "Selecting from") {
				t.Error("prompt not written")
			}
		})
	}
}
