// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-digest/internal/cache"
	"github.com/pdiddy/paper-digest/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Maintain and query the SQLite index over cached crawls",
	Long: `Catalog keeps a full-text searchable SQLite index of every cached crawl.
Rebuild it after crawling, then query it with search or summarize it
with stats.`,
}

var catalogRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Re-index every cached edition",
	RunE:  runCatalogRebuild,
}

func runCatalogRebuild(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig()
	cacheStore, err := cache.NewStore(cfg.Cache.Dir)
	if err != nil {
		return err
	}
	store, err := catalog.NewStore(cfg.Catalog, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Rebuild(context.Background(), cacheStore)
	if err != nil {
		return err
	}
	fmt.Printf("Indexed %d editions, %d papers", summary.Crawls, summary.Papers)
	if summary.Collisions > 0 {
		fmt.Printf(" (%d same-title records collapsed)", summary.Collisions)
	}
	if summary.Failed > 0 {
		fmt.Printf(" (%d entries failed)", summary.Failed)
	}
	fmt.Println()
	return nil
}

var catalogSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Full-text search over indexed titles and abstracts",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCatalogSearch,
}

func runCatalogSearch(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	cfg := pipelineConfig()
	store, err := catalog.NewStore(cfg.Catalog, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	hits, err := store.Search(context.Background(), strings.Join(args, " "), limit)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "EDITION\tCATEGORY\tTITLE\tURL")
	for _, h := range hits {
		title := h.Title
		if len(title) > 60 {
			title = title[:57] + "..."
		}
		fmt.Fprintf(w, "%s %d\t%s\t%s\t%s\n", h.Conference, h.Year, h.Category, title, h.SourceURL)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d results\n", len(hits))
	return nil
}

var catalogStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Paper counts per edition and category",
	RunE:  runCatalogStats,
}

func runCatalogStats(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig()
	store, err := catalog.NewStore(cfg.Catalog, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.Stats(context.Background())
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		fmt.Println("Catalog is empty; run `paper-digest catalog rebuild` after crawling.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "EDITION\tCATEGORY\tPAPERS")
	for _, r := range stats {
		fmt.Fprintf(w, "%s %d\t%s\t%d\n", r.Conference, r.Year, r.Category, r.Papers)
	}
	return w.Flush()
}

func init() {
	catalogSearchCmd.Flags().Int("limit", 0, "maximum results (0 = use configured default)")

	catalogCmd.AddCommand(catalogRebuildCmd)
	catalogCmd.AddCommand(catalogSearchCmd)
	catalogCmd.AddCommand(catalogStatsCmd)
	rootCmd.AddCommand(catalogCmd)
}
