// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package collect normalizes heterogeneous conference sources into canonical
// paper records. Each source variant (CVF proceedings pages, the OpenReview
// API) implements the Collector interface per the Strategy pattern; the
// Registry maps each conference onto its variant.
package collect

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// Collector gathers the canonical record set for one conference edition.
// Implementations are safe to re-invoke: a rerun yields an equivalent record
// set modulo source-side updates, so a from-scratch recrawl can simply
// replace the cached result.
type Collector interface {
	// Name identifies the variant for provenance ("cvf", "openreview").
	Name() string

	// Collect fetches and normalizes all records of the edition, in
	// source-listing order.
	Collect(ctx context.Context, conference types.Conference, year int) (*types.CrawlResult, error)
}

// Kind classifies a collector-level failure. Per-record problems never reach
// this level: they are logged and skipped.
type Kind string

const (
	// SourceUnreachable means the index page or API endpoint did not
	// answer after retry. The whole run fails; the cache is untouched.
	SourceUnreachable Kind = "source_unreachable"

	// RateLimited means the source kept throttling past the retry ceiling.
	RateLimited Kind = "rate_limited"
)

// Error is a collector-level failure that aborts the run.
type Error struct {
	Kind   Kind
	Source string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("collector %s: %s: %v", e.Source, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Registry maps each conference onto the collector variant that serves it.
// It is explicit configuration data, injected into the pipeline rather than
// held as package state, so tests can substitute fakes and new sources add a
// table entry instead of a branch.
type Registry map[types.Conference]Collector

// NewRegistry wires the default conference-to-collector table: proceedings
// sites for the vision conferences, the OpenReview API for the rest.
func NewRegistry(cvf, openreview Collector) Registry {
	return Registry{
		types.CVPR:    cvf,
		types.ICCV:    cvf,
		types.ECCV:    cvf,
		types.NeurIPS: openreview,
		types.ICLR:    openreview,
		types.ICML:    openreview,
	}
}

// Lookup returns the collector serving a conference.
func (r Registry) Lookup(conference types.Conference) (Collector, error) {
	c, ok := r[conference]
	if !ok {
		return nil, fmt.Errorf("no collector registered for %s", conference)
	}
	return c, nil
}

var (
	newlineRuns = regexp.MustCompile(`\n+`)
	controlRuns = regexp.MustCompile("[\x00-\x08\x0b\x0e-\x1f\x7f]")
)

// scrub collapses newline runs into single spaces and strips C0 control
// bytes that leak out of both sources, then trims surrounding whitespace.
func scrub(s string) string {
	s = newlineRuns.ReplaceAllString(s, " ")
	s = controlRuns.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// splitAuthors turns a comma-separated byline into individual author names,
// dropping empty fragments.
func splitAuthors(byline string) []string {
	parts := strings.Split(byline, ",")
	var authors []string
	for _, p := range parts {
		if name := strings.TrimSpace(p); name != "" {
			authors = append(authors, name)
		}
	}
	return authors
}
