// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assemble lays out canonical records into a structured HTML
// document: one section per paper, grouped by conference then year, with an
// optional table of contents whose entries anchor into the body. The
// document is what the render backends convert to fixed-layout output.
package assemble

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// Kind classifies an assembly failure.
type Kind string

const (
	// EmptyInput means the filtered record sequence had nothing to render.
	EmptyInput Kind = "empty_input"

	// WriteFailure means the output sink could not be written or
	// finalized. Fatal for the invocation, not retried.
	WriteFailure Kind = "write_failure"
)

// Error is an assembly-level failure.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("assembly failed (%s): %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Options controls document layout.
type Options struct {
	// Title is the document heading. Empty derives "<Conference> <Year>
	// Paper Abstracts" from the first record.
	Title string

	// TOC prepends a table of contents linking into the body.
	TOC bool
}

// Section describes one laid-out body section.
type Section struct {
	Anchor   string
	Title    string
	Category types.Category
}

// Manifest reports what was laid out.
type Manifest struct {
	Sections   []Section
	TOCEntries int
}

// Assemble writes the document for papers to w. Layout is deterministic:
// the same records and options always produce the same bytes (anchors
// included). Body sections stream one at a time through a buffered writer;
// the fully rendered document is never held in memory.
func Assemble(w io.Writer, papers []types.Paper, opts Options) (*Manifest, error) {
	if len(papers) == 0 {
		return nil, &Error{Kind: EmptyInput, Err: fmt.Errorf("no records to render")}
	}

	ordered := groupOrder(papers)
	anchors := allocateAnchors(ordered)

	title := opts.Title
	if title == "" {
		title = fmt.Sprintf("%s %d Paper Abstracts", ordered[0].Conference, ordered[0].Year)
	}

	bw := bufio.NewWriter(w)
	p := func(format string, args ...any) {
		fmt.Fprintf(bw, format, args...)
	}

	p("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	p("<meta charset=\"utf-8\">\n<title>%s</title>\n", html.EscapeString(title))
	p("<style>%s</style>\n</head>\n<body>\n", documentStyle)
	p("<h1>%s</h1>\n", html.EscapeString(title))

	manifest := &Manifest{}

	// The TOC precedes the body it references, which is why anchors are
	// allocated up front from record metadata alone.
	if opts.TOC {
		p("<nav class=\"toc\">\n<h2>Table of Contents</h2>\n<ol>\n")
		for i, paper := range ordered {
			p("<li><a href=\"#%s\">%s</a></li>\n", anchors[i], html.EscapeString(paper.Title))
			manifest.TOCEntries++
		}
		p("</ol>\n</nav>\n")
	}

	var lastGroup string
	for i, paper := range ordered {
		group := fmt.Sprintf("%s %d", paper.Conference, paper.Year)
		if group != lastGroup {
			p("<h2 class=\"venue\">%s</h2>\n", html.EscapeString(group))
			lastGroup = group
		}
		writeSection(bw, paper, anchors[i])
		manifest.Sections = append(manifest.Sections, Section{
			Anchor:   anchors[i],
			Title:    paper.Title,
			Category: paper.Category,
		})

		// Stream out completed sections so large crawls (thousands of
		// records) never pile up in the buffer.
		if err := bw.Flush(); err != nil {
			return nil, &Error{Kind: WriteFailure, Err: err}
		}
	}

	p("</body>\n</html>\n")
	if err := bw.Flush(); err != nil {
		return nil, &Error{Kind: WriteFailure, Err: err}
	}
	return manifest, nil
}

// AssembleFile assembles into path via a temporary sibling renamed on
// success, so a failed run never leaves a partial document behind.
func AssembleFile(path string, papers []types.Paper, opts Options) (*Manifest, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &Error{Kind: WriteFailure, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return nil, &Error{Kind: WriteFailure, Err: err}
	}
	tmpPath := tmp.Name()

	manifest, err := Assemble(tmp, papers, opts)
	closeErr := tmp.Close()
	if err != nil {
		os.Remove(tmpPath)
		return nil, err
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return nil, &Error{Kind: WriteFailure, Err: closeErr}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return nil, &Error{Kind: WriteFailure, Err: err}
	}
	return manifest, nil
}

// writeSection emits one paper: title heading, authors and category
// subheading block, abstract body, plus the optional OpenReview extras.
func writeSection(w io.Writer, paper types.Paper, anchor string) {
	fmt.Fprintf(w, "<section>\n<h3 id=\"%s\">%s</h3>\n", anchor, html.EscapeString(paper.Title))
	fmt.Fprintf(w, "<p class=\"byline\"><b>Authors:</b> %s<br><b>Category:</b> %s</p>\n",
		html.EscapeString(strings.Join(paper.Authors, ", ")), paper.Category)
	if len(paper.Keywords) > 0 {
		fmt.Fprintf(w, "<p><b>Keywords:</b> %s</p>\n",
			html.EscapeString(strings.Join(paper.Keywords, ", ")))
	}
	if paper.TLDR != "" {
		fmt.Fprintf(w, "<p><b>TLDR:</b> %s</p>\n", html.EscapeString(paper.TLDR))
	}
	if paper.Abstract != "" {
		fmt.Fprintf(w, "<p class=\"abstract\"><b>Abstract:</b> %s</p>\n",
			html.EscapeString(paper.Abstract))
	}
	fmt.Fprint(w, "</section>\n")
}

// groupOrder returns papers ordered by conference, then year, then the
// input sequence's order within a group. Stable so the filtered order
// survives grouping.
func groupOrder(papers []types.Paper) []types.Paper {
	ordered := make([]types.Paper, len(papers))
	copy(ordered, papers)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Conference != ordered[j].Conference {
			return conferenceRank(ordered[i].Conference) < conferenceRank(ordered[j].Conference)
		}
		return ordered[i].Year < ordered[j].Year
	})
	return ordered
}

func conferenceRank(c types.Conference) int {
	for i, k := range types.Conferences {
		if k == c {
			return i
		}
	}
	return len(types.Conferences)
}

// allocateAnchors derives a stable anchor identifier per section from the
// slugged title, disambiguating collisions with an ordinal suffix. Anchors
// depend only on record metadata, so they can be handed to the TOC before
// any body section exists.
func allocateAnchors(papers []types.Paper) []string {
	anchors := make([]string, len(papers))
	used := make(map[string]int, len(papers))
	for i, p := range papers {
		base := slug(p.Title)
		n := used[base]
		used[base] = n + 1
		if n == 0 {
			anchors[i] = base
		} else {
			anchors[i] = fmt.Sprintf("%s-%d", base, n+1)
		}
	}
	return anchors
}

// slug lowercases a title and collapses non-alphanumeric runs into hyphens.
func slug(title string) string {
	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			hyphen = false
		default:
			if !hyphen && b.Len() > 0 {
				b.WriteByte('-')
				hyphen = true
			}
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return "section"
	}
	return s
}

// documentStyle keeps the fixed-layout output readable without external
// assets.
const documentStyle = `body{font-family:Georgia,serif;margin:2em auto;max-width:50em;line-height:1.5}
h1{text-align:center}
h2.venue{border-bottom:1px solid #888;padding-bottom:.2em}
nav.toc ol{columns:1}
section{margin-bottom:1.5em}
p.byline{color:#333}`
