// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-digest/internal/cache"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// --- test helpers ---

func testSetup(t *testing.T) (*Store, *cache.Store) {
	t.Helper()
	tmpDir := t.TempDir()

	cacheStore, err := cache.NewStore(filepath.Join(tmpDir, "cache"))
	if err != nil {
		t.Fatal(err)
	}

	store, err := NewStore(types.CatalogConfig{Dir: filepath.Join(tmpDir, "catalog")}, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	return store, cacheStore
}

func storeCrawl(t *testing.T, cacheStore *cache.Store, conference types.Conference, year int, papers []types.Paper) {
	t.Helper()
	err := cacheStore.Store(&types.CrawlResult{
		Conference: conference,
		Year:       year,
		Collector:  "openreview",
		CrawledAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Papers:     papers,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func samplePapers(conference types.Conference, year int) []types.Paper {
	return []types.Paper{
		{
			Conference: conference, Year: year,
			Title:     "Efficient Attention Mechanisms for Long Sequences",
			Authors:   []string{"Ada Smith", "Ben Doe"},
			Abstract:  "We reduce attention computation from quadratic to near-linear cost.",
			Category:  types.CategoryOral,
			SourceURL: "https://openreview.net/forum?id=attn1",
		},
		{
			Conference: conference, Year: year,
			Title:     "Diffusion Models for Molecule Generation",
			Authors:   []string{"Cara Liu"},
			Abstract:  "A diffusion process over molecular graphs.",
			Category:  types.CategoryPoster,
			SourceURL: "https://openreview.net/forum?id=diff1",
		},
	}
}

func rebuildHelper(t *testing.T, store *Store, cacheStore *cache.Store) RebuildSummary {
	t.Helper()
	summary, err := store.Rebuild(context.Background(), cacheStore)
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	return summary
}

// --- schema tests ---

func TestNewStoreCreatesSchema(t *testing.T) {
	store, _ := testSetup(t)

	tables := []string{"crawls", "papers", "papers_fts"}
	for _, table := range tables {
		var count int
		err := store.db.QueryRow(
			`SELECT count(*) FROM sqlite_master WHERE type IN ('table','view') AND name = ?`, table,
		).Scan(&count)
		if err != nil {
			t.Fatalf("checking table %s: %v", table, err)
		}
		if count == 0 {
			t.Errorf("table %s does not exist", table)
		}
	}
}

func TestNewStoreCreatesDBFile(t *testing.T) {
	tmpDir := t.TempDir()
	dir := filepath.Join(tmpDir, "catalog")

	store, err := NewStore(types.CatalogConfig{Dir: dir}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if _, err := os.Stat(filepath.Join(dir, dbFile)); os.IsNotExist(err) {
		t.Errorf("database file not created in %s", dir)
	}
}

// --- rebuild tests ---

func TestRebuild(t *testing.T) {
	tests := []struct {
		name       string
		editions   int
		wantCrawls int
		wantPapers int
	}{
		{"single edition", 1, 1, 2},
		{"multiple editions", 3, 3, 6},
	}

	years := []int{2021, 2022, 2023}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, cacheStore := testSetup(t)
			for i := 0; i < tt.editions; i++ {
				storeCrawl(t, cacheStore, types.NeurIPS, years[i], samplePapers(types.NeurIPS, years[i]))
			}

			summary := rebuildHelper(t, store, cacheStore)
			if summary.Crawls != tt.wantCrawls {
				t.Errorf("Crawls = %d, want %d", summary.Crawls, tt.wantCrawls)
			}
			if summary.Papers != tt.wantPapers {
				t.Errorf("Papers = %d, want %d", summary.Papers, tt.wantPapers)
			}
			if summary.Failed != 0 {
				t.Errorf("Failed = %d, want 0", summary.Failed)
			}
		})
	}
}

func TestRebuildStoresAllFields(t *testing.T) {
	store, cacheStore := testSetup(t)
	storeCrawl(t, cacheStore, types.ICLR, 2024, samplePapers(types.ICLR, 2024))
	rebuildHelper(t, store, cacheStore)

	var authorsJSON, abstract, category, sourceURL string
	err := store.db.QueryRow(
		`SELECT authors, abstract, category, source_url FROM papers WHERE title = ?`,
		"Efficient Attention Mechanisms for Long Sequences",
	).Scan(&authorsJSON, &abstract, &category, &sourceURL)
	if err != nil {
		t.Fatal(err)
	}

	var authors []string
	json.Unmarshal([]byte(authorsJSON), &authors)
	if len(authors) != 2 || authors[0] != "Ada Smith" {
		t.Errorf("authors = %v, want [Ada Smith, Ben Doe]", authors)
	}
	if category != string(types.CategoryOral) {
		t.Errorf("category = %q, want Oral", category)
	}
	if sourceURL == "" {
		t.Error("source_url missing")
	}
}

func TestRebuildRecordsProvenance(t *testing.T) {
	store, cacheStore := testSetup(t)
	storeCrawl(t, cacheStore, types.ICML, 2023, samplePapers(types.ICML, 2023))
	rebuildHelper(t, store, cacheStore)

	var collector, crawledAt string
	err := store.db.QueryRow(
		`SELECT collector, crawled_at FROM crawls WHERE conference = ? AND year = ?`,
		string(types.ICML), 2023,
	).Scan(&collector, &crawledAt)
	if err != nil {
		t.Fatal(err)
	}
	if collector != "openreview" {
		t.Errorf("collector = %q, want openreview", collector)
	}
	if crawledAt != "2026-03-01T12:00:00Z" {
		t.Errorf("crawled_at = %q", crawledAt)
	}
}

func TestRebuildReplacesEditionWholesale(t *testing.T) {
	store, cacheStore := testSetup(t)
	storeCrawl(t, cacheStore, types.NeurIPS, 2023, samplePapers(types.NeurIPS, 2023))
	rebuildHelper(t, store, cacheStore)

	// A fresh crawl replaces the cached papers; rebuilding must drop the
	// stale rows, not accumulate them.
	storeCrawl(t, cacheStore, types.NeurIPS, 2023, []types.Paper{{
		Conference: types.NeurIPS, Year: 2023,
		Title:     "A Single Surviving Paper",
		Authors:   []string{"Ada Smith"},
		Abstract:  "Only this one remains after the re-crawl.",
		Category:  types.CategorySpotlight,
		SourceURL: "https://openreview.net/forum?id=solo",
	}})
	rebuildHelper(t, store, cacheStore)

	var count int
	if err := store.db.QueryRow(
		`SELECT count(*) FROM papers WHERE conference = ? AND year = ?`,
		string(types.NeurIPS), 2023,
	).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("got %d rows after rebuild, want 1", count)
	}
}

func TestRebuildSkipsCorruptEntry(t *testing.T) {
	store, cacheStore := testSetup(t)
	storeCrawl(t, cacheStore, types.CVPR, 2023, samplePapers(types.CVPR, 2023))

	// A hand-mangled artifact must not abort the rebuild.
	badPath := filepath.Join(cacheStore.Dir(), "ICLR_2024.yaml")
	if err := os.WriteFile(badPath, []byte("{not yaml::"), 0o644); err != nil {
		t.Fatal(err)
	}

	summary := rebuildHelper(t, store, cacheStore)
	if summary.Crawls != 1 {
		t.Errorf("Crawls = %d, want 1", summary.Crawls)
	}
	if summary.Failed != 1 {
		t.Errorf("Failed = %d, want 1", summary.Failed)
	}
}

// Same-title records within one crawl collapse onto one row; the collapse
// is counted and the search index follows the surviving row with no stale
// entries for the replaced one.
func TestRebuildCollapsesSameTitlePapers(t *testing.T) {
	store, cacheStore := testSetup(t)
	storeCrawl(t, cacheStore, types.NeurIPS, 2023, []types.Paper{
		{
			Conference: types.NeurIPS, Year: 2023,
			Title:     "Shared Title",
			Authors:   []string{"Ada Smith"},
			Abstract:  "First version, about zebrafish imaging.",
			Category:  types.CategoryOral,
			SourceURL: "https://openreview.net/forum?id=first",
		},
		{
			Conference: types.NeurIPS, Year: 2023,
			Title:     "Shared Title",
			Authors:   []string{"Ben Doe"},
			Abstract:  "Second version, about quasar spectra.",
			Category:  types.CategoryPoster,
			SourceURL: "https://openreview.net/forum?id=second",
		},
	})

	summary := rebuildHelper(t, store, cacheStore)
	if summary.Collisions != 1 {
		t.Errorf("Collisions = %d, want 1", summary.Collisions)
	}
	if summary.Papers != 1 {
		t.Errorf("Papers = %d, want 1 row after the collapse", summary.Papers)
	}

	var count int
	if err := store.db.QueryRow(
		`SELECT count(*) FROM papers WHERE title = ?`, "Shared Title",
	).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("got %d rows for the shared title, want 1", count)
	}

	hits, err := store.Search(context.Background(), "quasar", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].SourceURL != "https://openreview.net/forum?id=second" {
		t.Errorf("hits = %v, want only the last-ingested record", hits)
	}
	hits, err = store.Search(context.Background(), "zebrafish", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("got %d hits for the replaced abstract, want 0", len(hits))
	}
}

// --- search tests ---

func TestSearchFullText(t *testing.T) {
	store, cacheStore := testSetup(t)
	storeCrawl(t, cacheStore, types.NeurIPS, 2023, samplePapers(types.NeurIPS, 2023))
	rebuildHelper(t, store, cacheStore)

	tests := []struct {
		name    string
		query   string
		wantMin int
	}{
		{"title term", "attention", 1},
		{"abstract term", "molecular", 1},
		{"no match", "astrophysics", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := store.Search(context.Background(), tt.query, 0)
			if err != nil {
				t.Fatal(err)
			}
			if len(hits) < tt.wantMin {
				t.Errorf("got %d hits, want >= %d", len(hits), tt.wantMin)
			}
		})
	}
}

func TestSearchHitCarriesEdition(t *testing.T) {
	store, cacheStore := testSetup(t)
	storeCrawl(t, cacheStore, types.ICLR, 2024, samplePapers(types.ICLR, 2024))
	rebuildHelper(t, store, cacheStore)

	hits, err := store.Search(context.Background(), "attention", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
	h := hits[0]
	if h.Conference != types.ICLR || h.Year != 2024 {
		t.Errorf("edition = %s %d, want ICLR 2024", h.Conference, h.Year)
	}
	if h.Category != types.CategoryOral {
		t.Errorf("category = %s, want Oral", h.Category)
	}
	if h.SourceURL == "" {
		t.Error("hit missing source URL")
	}
}

func TestSearchRespectsLimit(t *testing.T) {
	store, cacheStore := testSetup(t)
	for _, year := range []int{2021, 2022, 2023} {
		storeCrawl(t, cacheStore, types.NeurIPS, year, samplePapers(types.NeurIPS, year))
	}
	rebuildHelper(t, store, cacheStore)

	hits, err := store.Search(context.Background(), "attention OR diffusion", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) > 2 {
		t.Errorf("got %d hits, want <= 2", len(hits))
	}
}

// --- stats tests ---

func TestStats(t *testing.T) {
	store, cacheStore := testSetup(t)
	storeCrawl(t, cacheStore, types.NeurIPS, 2023, samplePapers(types.NeurIPS, 2023))
	storeCrawl(t, cacheStore, types.ICLR, 2024, samplePapers(types.ICLR, 2024))
	rebuildHelper(t, store, cacheStore)

	stats, err := store.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	// Two editions, two categories each.
	if len(stats) != 4 {
		t.Fatalf("got %d stat rows, want 4", len(stats))
	}
	// Newest year first.
	if stats[0].Year != 2024 {
		t.Errorf("first row year = %d, want 2024", stats[0].Year)
	}
	for _, r := range stats {
		if r.Papers != 1 {
			t.Errorf("%s %d %s: papers = %d, want 1", r.Conference, r.Year, r.Category, r.Papers)
		}
	}
}

func TestStatsEmptyCatalog(t *testing.T) {
	store, _ := testSetup(t)

	stats, err := store.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 0 {
		t.Errorf("got %d stat rows, want 0", len(stats))
	}
}
