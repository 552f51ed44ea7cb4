// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-digest/internal/cache"
	"github.com/pdiddy/paper-digest/pkg/types"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the local crawl cache",
}

var cacheLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List cached editions with paper counts",
	RunE:  runCacheLs,
}

func runCacheLs(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig()
	store, err := cache.NewStore(cfg.Cache.Dir)
	if err != nil {
		return err
	}

	keys, err := store.Keys()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		fmt.Println("Cache is empty.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "EDITION\tPAPERS\tCOLLECTOR\tCRAWLED")
	for _, k := range keys {
		result, err := store.Load(k.Conference, k.Year)
		if err != nil {
			fmt.Fprintf(w, "%s\t?\t?\tunreadable: %v\n", k, err)
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n",
			k, len(result.Papers), result.Collector,
			result.CrawledAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

var cacheRmCmd = &cobra.Command{
	Use:   "rm",
	Short: "Invalidate a cached edition",
	Long: `Rm removes the cached crawl for one edition, forcing the next export or
crawl to refetch it from the source. Removing an absent entry is not an
error.`,
	RunE: runCacheRm,
}

func runCacheRm(cmd *cobra.Command, args []string) error {
	confName, _ := cmd.Flags().GetString("conference")
	year, _ := cmd.Flags().GetInt("year")

	conference, err := types.ParseConference(confName)
	if err != nil {
		return err
	}
	if year == 0 {
		return fmt.Errorf("--year is required")
	}

	cfg := pipelineConfig()
	store, err := cache.NewStore(cfg.Cache.Dir)
	if err != nil {
		return err
	}
	if err := store.Invalidate(conference, year); err != nil {
		return err
	}
	fmt.Printf("Invalidated %s %d\n", conference, year)
	return nil
}

func init() {
	cacheRmCmd.Flags().String("conference", "", "conference of the entry to remove")
	cacheRmCmd.Flags().Int("year", 0, "year of the entry to remove")
	cacheRmCmd.MarkFlagRequired("conference")

	cacheCmd.AddCommand(cacheLsCmd)
	cacheCmd.AddCommand(cacheRmCmd)
	rootCmd.AddCommand(cacheCmd)
}
