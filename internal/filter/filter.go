// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package filter narrows a record sequence to chosen acceptance categories.
// The interactive chooser is an injected capability so the pipeline never
// touches a terminal directly.
package filter

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// Selection is the set of wanted categories. The all-categories sentinel is
// distinct from an empty set: filtering on an empty set yields nothing.
type Selection struct {
	all        bool
	categories map[types.Category]bool
}

// All selects every category.
func All() Selection {
	return Selection{all: true}
}

// Only selects exactly the given categories. Only() selects nothing.
func Only(categories ...types.Category) Selection {
	set := make(map[types.Category]bool, len(categories))
	for _, c := range categories {
		set[c] = true
	}
	return Selection{categories: set}
}

// IsAll reports whether the selection is the all-categories sentinel.
func (s Selection) IsAll() bool { return s.all }

// Contains reports whether a category is selected.
func (s Selection) Contains(c types.Category) bool {
	return s.all || s.categories[c]
}

func (s Selection) String() string {
	if s.all {
		return "all"
	}
	var names []string
	for _, c := range ordered(s.categories) {
		names = append(names, string(c))
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

func ordered(set map[types.Category]bool) []types.Category {
	var cats []types.Category
	for c := range set {
		cats = append(cats, c)
	}
	for i := 0; i < len(cats); i++ {
		for j := i + 1; j < len(cats); j++ {
			if types.CategoryRank(cats[j]) < types.CategoryRank(cats[i]) {
				cats[i], cats[j] = cats[j], cats[i]
			}
		}
	}
	return cats
}

// Apply returns the order-preserving subsequence of papers whose category is
// selected. Pure: the input slice is never mutated.
func Apply(papers []types.Paper, sel Selection) []types.Paper {
	var out []types.Paper
	for _, p := range papers {
		if sel.Contains(p.Category) {
			out = append(out, p)
		}
	}
	return out
}

// Available returns the distinct categories present in papers, in vocabulary
// declaration order. This is what an interactive chooser presents.
func Available(papers []types.Paper) []types.Category {
	set := make(map[types.Category]bool, len(papers))
	for _, p := range papers {
		set[p.Category] = true
	}
	return ordered(set)
}

// SelectFunc chooses a subset of the categories present in crawled data.
// Injected into the pipeline; the filter consumes only its return value.
type SelectFunc func(available []types.Category) ([]types.Category, error)

// ConsoleSelect returns a SelectFunc that prompts on w and reads
// space-separated numeric choices from r, e.g. "0" or "0 2".
func ConsoleSelect(r io.Reader, w io.Writer) SelectFunc {
	return func(available []types.Category) ([]types.Category, error) {
		fmt.Fprintf(w, "Selecting from %v:\n", available)
		fmt.Fprintf(w, "(select by numbers separated by spaces, e.g. `0` or `0 1`)\n")

		line, err := bufio.NewReader(r).ReadString('\n')
		if err != nil && line == "" {
			return nil, fmt.Errorf("reading selection: %w", err)
		}

		var chosen []types.Category
		for _, field := range strings.Fields(line) {
			i, err := strconv.Atoi(field)
			if err != nil || i < 0 || i >= len(available) {
				return nil, fmt.Errorf("invalid selection %q (choices: 0-%d)", field, len(available)-1)
			}
			chosen = append(chosen, available[i])
		}
		return chosen, nil
	}
}
