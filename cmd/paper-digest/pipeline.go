// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/pdiddy/paper-digest/internal/cache"
	"github.com/pdiddy/paper-digest/internal/collect"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// newRegistry wires the two collectors behind one HTTP client.
func newRegistry(cfg types.CollectConfig) collect.Registry {
	client := &http.Client{Timeout: httpTimeout(cfg)}
	return collect.NewRegistry(
		collect.NewCVF(client, cfg, logger),
		collect.NewOpenReview(client, cfg, logger),
	)
}

// loadOrCrawl returns the cached crawl for an edition, or runs the
// collector and caches the result on a miss. force bypasses the cache.
func loadOrCrawl(ctx context.Context, cfg types.PipelineConfig, store *cache.Store,
	conference types.Conference, year int, force bool) (*types.CrawlResult, error) {

	if !force {
		result, err := store.Load(conference, year)
		if err == nil {
			fmt.Fprintf(os.Stderr, "Using cached crawl for %s %d (%d papers)\n",
				conference, year, len(result.Papers))
			return result, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			return nil, err
		}
	}

	collector, err := newRegistry(cfg.Collect).Lookup(conference)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(os.Stderr, "Crawling %s %d via %s...\n", conference, year, collector.Name())
	result, err := collector.Collect(ctx, conference, year)
	if err != nil {
		return nil, err
	}

	if err := store.Store(result); err != nil {
		return nil, fmt.Errorf("caching crawl result: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Cached %d papers for %s %d\n", len(result.Papers), conference, year)
	return result, nil
}

// editionYears resolves the requested years: an explicit year, or every
// supported year of the conference when all is set.
func editionYears(conference types.Conference, year int, all bool) ([]int, error) {
	if all {
		years := types.SupportedYears(conference)
		if len(years) == 0 {
			return nil, fmt.Errorf("no supported editions for %s", conference)
		}
		return years, nil
	}
	if year == 0 {
		return nil, fmt.Errorf("--year is required (or use --all for every supported edition)")
	}
	return []int{year}, nil
}
