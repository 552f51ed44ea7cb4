// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-digest/internal/assemble"
	"github.com/pdiddy/paper-digest/internal/cache"
	"github.com/pdiddy/paper-digest/internal/filter"
	"github.com/pdiddy/paper-digest/internal/render"
	"github.com/pdiddy/paper-digest/pkg/types"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Assemble an abstract digest document for one or more editions",
	Long: `Export gathers the papers of a conference edition (crawling and caching
on a cache miss), optionally narrows them to selected acceptance
categories, and assembles a single self-contained HTML document. With
--pdf the document is additionally converted to PDF through a browser
backend.

With --conference and --all, every supported edition of that conference
is combined into one document. With --all alone, every supported edition
of every conference is exported as its own document; editions that fail
are reported and skipped.

Categories can be fixed with --category (repeatable) or chosen
interactively with --select. Without either, every paper is included.`,
	RunE: runExport,
}

// exportOptions carries the per-invocation export settings shared by the
// single-document and every-edition paths.
type exportOptions struct {
	force           bool
	toc             bool
	title           string
	pdf             bool
	backendName     string
	preferAlternate bool
	interactive     bool
	categoryNames   []string
}

func exportOptionsFromFlags(cmd *cobra.Command) exportOptions {
	var o exportOptions
	o.force, _ = cmd.Flags().GetBool("force")
	o.toc, _ = cmd.Flags().GetBool("toc")
	o.title, _ = cmd.Flags().GetString("title")
	o.pdf, _ = cmd.Flags().GetBool("pdf")
	o.backendName, _ = cmd.Flags().GetString("backend")
	o.preferAlternate, _ = cmd.Flags().GetBool("prefer-alternate")
	o.interactive, _ = cmd.Flags().GetBool("select")
	o.categoryNames, _ = cmd.Flags().GetStringSlice("category")
	return o
}

func runExport(cmd *cobra.Command, args []string) error {
	confName, _ := cmd.Flags().GetString("conference")
	year, _ := cmd.Flags().GetInt("year")
	all, _ := cmd.Flags().GetBool("all")
	opts := exportOptionsFromFlags(cmd)

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
		return exportEverything(ctx, cfg, store, opts)
	}

	conference, err := types.ParseConference(confName)
	if err != nil {
		return err
	}
	years, err := editionYears(conference, year, all)
	if err != nil {
		return err
	}

	var papers []types.Paper
	for _, y := range years {
		result, err := loadOrCrawl(ctx, cfg, store, conference, y, opts.force)
		if err != nil {
			return err
		}
		papers = append(papers, result.Papers...)
	}

	htmlPath := outputPath(cfg.Export.OutputDir, conference, years, ".html")
	return exportDocument(ctx, cfg, papers, htmlPath, opts)
}

// exportEverything walks every supported edition of every conference and
// exports each as its own document. One failing edition is reported and
// skipped, not fatal for the walk.
func exportEverything(ctx context.Context, cfg types.PipelineConfig, store *cache.Store, opts exportOptions) error {
	// Interactive selection across dozens of editions would mean dozens of
	// prompts; require an explicit --category list instead.
	if opts.interactive {
		return fmt.Errorf("--select cannot be combined with --all across conferences; use --category")
	}

	var exported, failed int
	for _, conference := range types.Conferences {
		for _, y := range types.SupportedYears(conference) {
			result, err := loadOrCrawl(ctx, cfg, store, conference, y, opts.force)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Skipping %s %d: %v\n", conference, y, err)
				failed++
				continue
			}
			htmlPath := outputPath(cfg.Export.OutputDir, conference, []int{y}, ".html")
			if err := exportDocument(ctx, cfg, result.Papers, htmlPath, opts); err != nil {
				fmt.Fprintf(os.Stderr, "Skipping %s %d: %v\n", conference, y, err)
				failed++
				continue
			}
			exported++
		}
	}

	fmt.Printf("Exported %d editions", exported)
	if failed > 0 {
		fmt.Printf(" (%d failed)", failed)
	}
	fmt.Println()
	if exported == 0 && failed > 0 {
		return fmt.Errorf("every edition failed")
	}
	return nil
}

// exportDocument filters, assembles, and optionally converts one document.
func exportDocument(ctx context.Context, cfg types.PipelineConfig, papers []types.Paper, htmlPath string, opts exportOptions) error {
	var choose filter.SelectFunc
	if opts.interactive {
		choose = filter.ConsoleSelect(os.Stdin, os.Stderr)
	}
	sel, err := buildSelection(papers, opts.categoryNames, choose)
	if err != nil {
		return err
	}
	selected := filter.Apply(papers, sel)
	if len(selected) == 0 && len(papers) > 0 {
		return fmt.Errorf("selection %s matches none of the crawled papers", sel)
	}

	manifest, err := assemble.AssembleFile(htmlPath, selected, assemble.Options{
		Title: opts.title,
		TOC:   opts.toc,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Assembled %d papers into %s\n", len(manifest.Sections), htmlPath)

	if !opts.pdf {
		return nil
	}

	adapter := render.NewAdapter(
		&render.Chromedp{ExecPath: cfg.Render.ChromePath},
		&render.Rod{},
		cfg.Render,
	)
	policy := render.Policy{
		Pin:             types.RenderBackendName(opts.backendName),
		PreferAlternate: opts.preferAlternate,
	}

	pdfPath := strings.TrimSuffix(htmlPath, ".html") + ".pdf"
	if err := adapter.Convert(ctx, policy, htmlPath, pdfPath); err != nil {
		// Conversion failing never loses the assembled document.
		return fmt.Errorf("%w (HTML kept at %s)", err, htmlPath)
	}
	fmt.Printf("Converted to %s\n", pdfPath)
	return nil
}

// buildSelection resolves --category / --select into a category selection.
// An interactive pick of nothing selects nothing; only the absence of both
// flags selects everything.
func buildSelection(papers []types.Paper, names []string, choose filter.SelectFunc) (filter.Selection, error) {
	if choose != nil {
		chosen, err := choose(filter.Available(papers))
		if err != nil {
			return filter.Selection{}, err
		}
		return filter.Only(chosen...), nil
	}

	if len(names) == 0 {
		return filter.All(), nil
	}
	var categories []types.Category
	for _, name := range names {
		cat, err := types.ParseCategory(name)
		if err != nil {
			return filter.Selection{}, err
		}
		categories = append(categories, cat)
	}
	return filter.Only(categories...), nil
}

func outputPath(dir string, conference types.Conference, years []int, ext string) string {
	if len(years) == 1 {
		return filepath.Join(dir, fmt.Sprintf("%s_%d%s", conference, years[0], ext))
	}
	return filepath.Join(dir, fmt.Sprintf("%s_all%s", conference, ext))
}

func init() {
	exportCmd.Flags().String("conference", "", "conference to export: CVPR, ICCV, ECCV, NeurIPS, ICLR, ICML")
	exportCmd.Flags().Int("year", 0, "edition year")
	exportCmd.Flags().Bool("all", false, "every supported edition (of one conference, or of all when --conference is omitted)")
	exportCmd.Flags().Bool("force", false, "recrawl even when a cached result exists")
	exportCmd.Flags().Bool("toc", false, "prepend a linked table of contents")
	exportCmd.Flags().String("title", "", "document title (default: \"<conference> <year> Paper Abstracts\")")
	exportCmd.Flags().StringSlice("category", nil, "acceptance categories to include (repeatable)")
	exportCmd.Flags().Bool("select", false, "choose categories interactively")
	exportCmd.Flags().Bool("pdf", false, "also convert the document to PDF")
	exportCmd.Flags().String("backend", "", "pin the PDF backend: chromedp or rod (no fallback)")
	exportCmd.Flags().Bool("prefer-alternate", false, "try the rod backend first, falling back to chromedp")

	rootCmd.AddCommand(exportCmd)
}
