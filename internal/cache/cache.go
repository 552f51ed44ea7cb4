// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache persists crawl results locally, one YAML artifact per
// (conference, year). The artifact is plain YAML with a provenance header so
// it can be inspected, loaded independently, or hand-authored to seed an
// edition the live collectors cannot reach.
package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// ErrCacheMiss is returned by Load when no artifact exists for the key.
var ErrCacheMiss = errors.New("cache miss")

// artifactPattern matches cache artifact filenames: CONF_YEAR.yaml.
var artifactPattern = regexp.MustCompile(`^([A-Za-z]+)_(\d{4})\.yaml$`)

// Key identifies one cached edition.
type Key struct {
	Conference types.Conference
	Year       int
}

func (k Key) String() string {
	return fmt.Sprintf("%s_%d", k.Conference, k.Year)
}

// Store is the on-disk crawl cache. Entries have no TTL: staleness is
// resolved only by explicit invalidation or a caller-driven force recrawl.
type Store struct {
	dir string

	mu    sync.Mutex
	locks map[Key]*sync.Mutex
}

// NewStore creates the cache directory if needed and returns the store.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &Store{dir: dir, locks: make(map[Key]*sync.Mutex)}, nil
}

// Dir returns the artifact directory.
func (s *Store) Dir() string { return s.dir }

// keyLock returns the per-key mutex, creating it on first use. Concurrent
// Stores of the same key serialize on it so exactly one result is published
// at a time; the rename below makes the publish itself atomic.
func (s *Store) keyLock(k Key) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[k]
	if !ok {
		l = &sync.Mutex{}
		s.locks[k] = l
	}
	return l
}

func (s *Store) path(k Key) string {
	return filepath.Join(s.dir, k.String()+".yaml")
}

// Load reads the cached crawl result for an edition. Returns ErrCacheMiss
// when no artifact exists.
func (s *Store) Load(conference types.Conference, year int) (*types.CrawlResult, error) {
	data, err := os.ReadFile(s.path(Key{conference, year}))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache artifact: %w", err)
	}

	var result types.CrawlResult
	if err := yaml.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parsing cache artifact for %s %d: %w", conference, year, err)
	}
	return &result, nil
}

// Store persists a crawl result, replacing any previous entry wholesale.
// The artifact is written to a temporary sibling and renamed into place, so
// a concurrent Load sees either the old complete result or the new complete
// one, and a crash mid-write never corrupts a previously good entry.
func (s *Store) Store(result *types.CrawlResult) error {
	k := Key{result.Conference, result.Year}
	lock := s.keyLock(k)
	lock.Lock()
	defer lock.Unlock()

	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling crawl result: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+k.String()+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp artifact: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing cache artifact: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp artifact: %w", closeErr)
	}

	if err := os.Rename(tmpPath, s.path(k)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("publishing cache artifact: %w", err)
	}
	return nil
}

// Invalidate removes a cached entry, forcing the next Load-miss path to
// recrawl. Removing an absent entry is not an error.
func (s *Store) Invalidate(conference types.Conference, year int) error {
	k := Key{conference, year}
	lock := s.keyLock(k)
	lock.Lock()
	defer lock.Unlock()

	err := os.Remove(s.path(k))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Keys lists the cached editions in filename order.
func (s *Store) Keys() ([]Key, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading cache directory: %w", err)
	}

	var keys []Key
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		m := artifactPattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		conference, err := types.ParseConference(m[1])
		if err != nil {
			continue
		}
		year, _ := strconv.Atoi(m[2])
		keys = append(keys, Key{conference, year})
	}
	return keys, nil
}
