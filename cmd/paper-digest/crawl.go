// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-digest/internal/cache"
	"github.com/pdiddy/paper-digest/pkg/types"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Fetch an edition's accepted papers and cache them",
	Long: `Crawl fetches the accepted-paper records of a conference edition from
its source (the CVF proceedings site or the OpenReview API) and stores
them in the local cache. A cached edition is reused as-is; pass --force
to refetch it.`,
	RunE: runCrawl,
}

func runCrawl(cmd *cobra.Command, args []string) error {
	confName, _ := cmd.Flags().GetString("conference")
	year, _ := cmd.Flags().GetInt("year")
	all, _ := cmd.Flags().GetBool("all")
	force, _ := cmd.Flags().GetBool("force")

	cfg := pipelineConfig()
	store, err := cache.NewStore(cfg.Cache.Dir)
	if err != nil {
		return err
	}
	ctx := context.Background()

	if confName == "" {
		if !all {
			return fmt.Errorf("--conference is required (or use --all for every supported edition)")
		}
		var failed int
		for _, conference := range types.Conferences {
			for _, y := range types.SupportedYears(conference) {
				if err := crawlEdition(ctx, cfg, store, conference, y, force); err != nil {
					fmt.Fprintf(os.Stderr, "Skipping %s %d: %v\n", conference, y, err)
					failed++
				}
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d editions failed", failed)
		}
		return nil
	}

	conference, err := types.ParseConference(confName)
	if err != nil {
		return err
	}
	years, err := editionYears(conference, year, all)
	if err != nil {
		return err
	}
	for _, y := range years {
		if err := crawlEdition(ctx, cfg, store, conference, y, force); err != nil {
			return err
		}
	}
	return nil
}

func crawlEdition(ctx context.Context, cfg types.PipelineConfig, store *cache.Store,
	conference types.Conference, year int, force bool) error {

	result, err := loadOrCrawl(ctx, cfg, store, conference, year, force)
	if err != nil {
		return err
	}
	fmt.Printf("%s %d: %d papers (categories: %v)\n",
		conference, year, len(result.Papers), result.Categories())
	return nil
}

func init() {
	crawlCmd.Flags().String("conference", "", "conference to crawl: CVPR, ICCV, ECCV, NeurIPS, ICLR, ICML")
	crawlCmd.Flags().Int("year", 0, "edition year")
	crawlCmd.Flags().Bool("all", false, "every supported edition (of one conference, or of all when --conference is omitted)")
	crawlCmd.Flags().Bool("force", false, "recrawl even when a cached result exists")

	rootCmd.AddCommand(crawlCmd)
}
