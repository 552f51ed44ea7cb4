// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog maintains a SQLite index over every cached crawl, giving
// full-text lookup and per-edition statistics across conferences without
// re-reading the YAML artifacts.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/pdiddy/paper-digest/internal/cache"
	"github.com/pdiddy/paper-digest/pkg/types"
)

const dbFile = "catalog.db"

const defaultMaxResults = 20

// Source is where the catalog reads crawls from. Satisfied by *cache.Store.
type Source interface {
	Keys() ([]cache.Key, error)
	Load(conference types.Conference, year int) (*types.CrawlResult, error)
}

// Store manages the catalog SQLite database.
type Store struct {
	db         *sql.DB
	maxResults int
	log        *zap.Logger
}

// NewStore opens or creates the catalog database at dir/catalog.db and
// ensures the schema exists.
func NewStore(cfg types.CatalogConfig, log *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, maxResults: maxResults, log: log}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS crawls (
			conference TEXT NOT NULL,
			year INTEGER NOT NULL,
			collector TEXT,
			crawled_at TEXT,
			PRIMARY KEY (conference, year)
		)`,
		`CREATE TABLE IF NOT EXISTS papers (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			conference TEXT NOT NULL,
			year INTEGER NOT NULL,
			title TEXT NOT NULL,
			authors TEXT,
			abstract TEXT,
			category TEXT,
			source_url TEXT,
			UNIQUE (conference, year, title)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_edition ON papers(conference, year)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_category ON papers(category)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='papers_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE papers_fts USING fts5(title, abstract, content=papers, content_rowid=rowid)`,
			`CREATE TRIGGER papers_ai AFTER INSERT ON papers BEGIN
				INSERT INTO papers_fts(rowid, title, abstract) VALUES (new.rowid, new.title, new.abstract);
			END`,
			`CREATE TRIGGER papers_ad AFTER DELETE ON papers BEGIN
				INSERT INTO papers_fts(papers_fts, rowid, title, abstract) VALUES('delete', old.rowid, old.title, old.abstract);
			END`,
			`CREATE TRIGGER papers_au AFTER UPDATE ON papers BEGIN
				INSERT INTO papers_fts(papers_fts, rowid, title, abstract) VALUES('delete', old.rowid, old.title, old.abstract);
				INSERT INTO papers_fts(rowid, title, abstract) VALUES (new.rowid, new.title, new.abstract);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}
	return nil
}

// RebuildSummary holds counts from a catalog rebuild. Collisions counts
// same-title records within one edition that collapsed into a single row.
type RebuildSummary struct {
	Crawls     int
	Papers     int
	Failed     int
	Collisions int
}

// Rebuild re-ingests every cached crawl. Each edition replaces its previous
// index rows wholesale, mirroring how a fresh crawl replaces the cache
// entry.
func (s *Store) Rebuild(ctx context.Context, src Source) (RebuildSummary, error) {
	keys, err := src.Keys()
	if err != nil {
		return RebuildSummary{}, fmt.Errorf("listing cache: %w", err)
	}

	var summary RebuildSummary
	for _, k := range keys {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		result, err := src.Load(k.Conference, k.Year)
		if err != nil {
			s.log.Warn("skipping cache entry", zap.String("key", k.String()), zap.Error(err))
			summary.Failed++
			continue
		}
		collisions, err := s.ingestCrawl(ctx, result)
		if err != nil {
			s.log.Warn("indexing failed", zap.String("key", k.String()), zap.Error(err))
			summary.Failed++
			continue
		}
		if collisions > 0 {
			s.log.Warn("same-title records collapsed",
				zap.String("key", k.String()),
				zap.Int("collisions", collisions))
		}
		s.log.Info("indexed edition",
			zap.String("key", k.String()),
			zap.Int("papers", len(result.Papers)-collisions))
		summary.Crawls++
		summary.Papers += len(result.Papers) - collisions
		summary.Collisions += collisions
	}
	return summary, nil
}

// ingestCrawl replaces one edition's rows and reports how many same-title
// records collapsed. The explicit upsert keeps the FTS triggers firing;
// INSERT OR REPLACE would delete behind papers_ad's back.
func (s *Store) ingestCrawl(ctx context.Context, result *types.CrawlResult) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM papers WHERE conference = ? AND year = ?`,
		string(result.Conference), result.Year); err != nil {
		return 0, fmt.Errorf("clearing old rows: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO crawls (conference, year, collector, crawled_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(conference, year) DO UPDATE SET
			collector=excluded.collector, crawled_at=excluded.crawled_at`,
		string(result.Conference), result.Year, result.Collector,
		result.CrawledAt.UTC().Format(time.RFC3339)); err != nil {
		return 0, fmt.Errorf("upserting crawl: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO papers (conference, year, title, authors, abstract, category, source_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(conference, year, title) DO UPDATE SET
			authors=excluded.authors, abstract=excluded.abstract,
			category=excluded.category, source_url=excluded.source_url`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	// Collectors key records by (title, source URL); the catalog keys by
	// title alone, so same-title records from one crawl land on one row.
	titles := make(map[string]bool, len(result.Papers))
	collisions := 0
	for _, p := range result.Papers {
		if titles[p.Title] {
			collisions++
		}
		titles[p.Title] = true

		authorsJSON, _ := json.Marshal(p.Authors)
		if _, err := stmt.ExecContext(ctx,
			string(p.Conference), p.Year, p.Title, string(authorsJSON),
			p.Abstract, string(p.Category), p.SourceURL); err != nil {
			return 0, fmt.Errorf("inserting %q: %w", p.Title, err)
		}
	}
	return collisions, tx.Commit()
}

// Hit is one full-text search result.
type Hit struct {
	Conference types.Conference
	Year       int
	Title      string
	Category   types.Category
	SourceURL  string
}

// Search runs an FTS5 match over titles and abstracts. A limit of 0 uses
// the configured default.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = s.maxResults
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT p.conference, p.year, p.title, p.category, p.source_url
		 FROM papers_fts f
		 JOIN papers p ON p.rowid = f.rowid
		 WHERE papers_fts MATCH ?
		 ORDER BY rank
		 LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching catalog: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		var conference, category string
		if err := rows.Scan(&conference, &h.Year, &h.Title, &category, &h.SourceURL); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		h.Conference = types.Conference(conference)
		h.Category = types.Category(category)
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// StatRow is one (conference, year, category) count.
type StatRow struct {
	Conference types.Conference
	Year       int
	Category   types.Category
	Papers     int
}

// Stats returns paper counts per edition and category, newest editions
// first.
func (s *Store) Stats(ctx context.Context) ([]StatRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT conference, year, category, count(*)
		 FROM papers
		 GROUP BY conference, year, category
		 ORDER BY year DESC, conference, category`)
	if err != nil {
		return nil, fmt.Errorf("querying stats: %w", err)
	}
	defer rows.Close()

	var stats []StatRow
	for rows.Next() {
		var r StatRow
		var conference, category string
		if err := rows.Scan(&conference, &r.Year, &category, &r.Papers); err != nil {
			return nil, fmt.Errorf("scanning stats: %w", err)
		}
		r.Conference = types.Conference(conference)
		r.Category = types.Category(category)
		stats = append(stats, r)
	}
	return stats, rows.Err()
}
