// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-digest/internal/httputil"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// OpenReview API bases. Editions reviewed on API v2 (NeurIPS 2023,
// ICLR 2024, ICML 2023) live on a different host than earlier editions.
// Declared as vars so tests can substitute an httptest server.
var (
	openReviewV1Base = "https://api.openreview.net"
	openReviewV2Base = "https://api2.openreview.net"
)

// forumBase is the public paper page each note links back to.
var forumBase = "https://openreview.net/forum?id="

const defaultPageSize = 1000

// OpenReview collects from the OpenReview notes API. The API paginates by
// offset; one query per decision label yields every note of that decision.
type OpenReview struct {
	Client *http.Client
	Config types.CollectConfig
	Log    *zap.Logger
}

// NewOpenReview builds the paginated-API collector.
func NewOpenReview(client *http.Client, cfg types.CollectConfig, log *zap.Logger) *OpenReview {
	if log == nil {
		log = zap.NewNop()
	}
	return &OpenReview{Client: client, Config: cfg, Log: log}
}

// Name identifies the variant for provenance.
func (o *OpenReview) Name() string { return "openreview" }

// Collect queries the notes endpoint once per decision label of the
// edition, walks the offset pagination to the end, and normalizes every
// note. Duplicate notes across page boundaries (cursor drift while the
// source mutates) are kept once, keyed by (title, source URL).
func (o *OpenReview) Collect(ctx context.Context, conference types.Conference, year int) (*types.CrawlResult, error) {
	labels, err := types.SourceLabels(conference, year)
	if err != nil {
		return nil, err
	}

	result := &types.CrawlResult{
		Conference: conference,
		Year:       year,
		Collector:  o.Name(),
		CrawledAt:  time.Now().UTC(),
	}

	seen := make(map[string]bool)
	for _, label := range labels {
		category, err := types.MapSourceLabel(conference, year, label)
		if err != nil {
			return nil, err
		}

		notes, err := o.fetchAllPages(ctx, conference, year, label)
		if err != nil {
			return nil, err
		}

		var kept, skipped, dups int
		for _, note := range notes {
			raw := o.extract(note, conference, year, category)
			paper, err := types.Validate(raw)
			if err != nil {
				o.Log.Warn("skipping note",
					zap.String("note", note.ID),
					zap.Error(err))
				skipped++
				continue
			}
			if seen[paper.DedupKey()] {
				dups++
				continue
			}
			seen[paper.DedupKey()] = true
			result.Papers = append(result.Papers, paper)
			kept++
		}
		o.Log.Info("decision collected",
			zap.String("conference", string(conference)),
			zap.Int("year", year),
			zap.String("label", label),
			zap.Int("papers", kept),
			zap.Int("skipped", skipped),
			zap.Int("duplicates", dups))
	}
	return result, nil
}

// fetchAllPages walks the offset pagination for one decision label until a
// page comes back short or the reported count is reached.
func (o *OpenReview) fetchAllPages(ctx context.Context, conference types.Conference, year int, label string) ([]orNote, error) {
	pageSize := o.Config.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	var notes []orNote
	for offset := 0; ; offset += pageSize {
		page, err := o.fetchPage(ctx, conference, year, label, offset, pageSize)
		if err != nil {
			return nil, err
		}
		notes = append(notes, page.Notes...)

		if len(page.Notes) < pageSize {
			break // short page is the end-of-data marker
		}
		if page.Count > 0 && offset+pageSize >= page.Count {
			break
		}
	}
	return notes, nil
}

// fetchPage issues one paginated request and decodes the response. A 429
// that survives the retry ceiling maps to RateLimited; anything else
// unanswerable maps to SourceUnreachable.
func (o *OpenReview) fetchPage(ctx context.Context, conference types.Conference, year int, label string, offset, limit int) (*orResponse, error) {
	reqURL := o.notesURL(conference, year, label, offset, limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", o.Config.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, o.Client, req, o.Config.MaxRetries, o.Log)
	if err != nil {
		return nil, &Error{Kind: SourceUnreachable, Source: o.Name(),
			Err: fmt.Errorf("fetching %s: %w", reqURL, err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &Error{Kind: RateLimited, Source: o.Name(),
			Err: fmt.Errorf("still throttled after %d retries", o.Config.MaxRetries)}
	case resp.StatusCode != http.StatusOK:
		return nil, &Error{Kind: SourceUnreachable, Source: o.Name(),
			Err: fmt.Errorf("HTTP %d from %s", resp.StatusCode, reqURL)}
	}

	var page orResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, &Error{Kind: SourceUnreachable, Source: o.Name(),
			Err: fmt.Errorf("parsing notes response: %w", err)}
	}
	return &page, nil
}

// notesURL builds the per-decision query. API v2 venues address the
// conference domain; v1 venues address the blind-submission invitation.
// Labels carry underscores as vocabulary keys (ICLR 2023 notable_top_5%),
// but the live venue string spells them with spaces.
func (o *OpenReview) notesURL(conference types.Conference, year int, label string, offset, limit int) string {
	venue := fmt.Sprintf("%s %d %s", conference, year, strings.ReplaceAll(label, "_", " "))

	params := url.Values{}
	params.Set("content.venue", venue)
	params.Set("offset", fmt.Sprintf("%d", offset))
	params.Set("limit", fmt.Sprintf("%d", limit))

	if usesAPIv2(conference, year) {
		params.Set("details", "replyCount,presentation")
		params.Set("domain", fmt.Sprintf("%s.cc/%d/Conference", conference, year))
		return openReviewV2Base + "/notes?" + params.Encode()
	}

	params.Set("details", "replyCount")
	params.Set("invitation", fmt.Sprintf("%s.cc/%d/Conference/-/Blind_Submission", conference, year))
	return openReviewV1Base + "/notes?" + params.Encode()
}

// usesAPIv2 reports whether an edition was reviewed on the second-generation
// API.
func usesAPIv2(conference types.Conference, year int) bool {
	switch {
	case conference == types.NeurIPS && year == 2023:
		return true
	case conference == types.ICLR && year == 2024:
		return true
	case conference == types.ICML && year == 2023:
		return true
	}
	return false
}

// extract normalizes one note into a raw record. Content fields arrive
// either as bare values (API v1) or wrapped in {"value": ...} (API v2); both
// shapes are handled field by field. The TLDR key also differs per venue
// ("TLDR" vs "TL;DR").
func (o *OpenReview) extract(note orNote, conference types.Conference, year int, category types.Category) types.RawPaper {
	forum := note.Forum
	if forum == "" {
		forum = note.ID
	}

	raw := types.RawPaper{
		Conference: conference,
		Year:       year,
		Title:      scrub(flexString(note.Content["title"])),
		Abstract:   scrub(flexString(note.Content["abstract"])),
		Category:   category,
		SourceURL:  forumBase + forum,
		Keywords:   flexStrings(note.Content["keywords"]),
	}

	for _, a := range flexStrings(note.Content["authors"]) {
		if name := scrub(a); name != "" {
			raw.Authors = append(raw.Authors, name)
		}
	}

	if tldr := flexString(note.Content["TLDR"]); tldr != "" {
		raw.TLDR = scrub(tldr)
	} else if tldr := flexString(note.Content["TL;DR"]); tldr != "" {
		raw.TLDR = scrub(tldr)
	}
	return raw
}

// OpenReview notes API JSON structures.
type orResponse struct {
	Count int      `json:"count"`
	Notes []orNote `json:"notes"`
}

type orNote struct {
	ID      string                     `json:"id"`
	Forum   string                     `json:"forum"`
	Content map[string]json.RawMessage `json:"content"`
}

// valueWrapper is the API v2 field envelope.
type valueWrapper struct {
	Value json.RawMessage `json:"value"`
}

// flexString decodes a content field that is either a bare string or a
// {"value": "..."} wrapper. Unknown shapes decode to "".
func flexString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var w valueWrapper
	if err := json.Unmarshal(raw, &w); err == nil && len(w.Value) > 0 {
		if err := json.Unmarshal(w.Value, &s); err == nil {
			return s
		}
	}
	return ""
}

// flexStrings decodes a content field that is either a bare string list or a
// {"value": [...]} wrapper.
func flexStrings(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var w valueWrapper
	if err := json.Unmarshal(raw, &w); err == nil && len(w.Value) > 0 {
		if err := json.Unmarshal(w.Value, &list); err == nil {
			return list
		}
	}
	return nil
}
