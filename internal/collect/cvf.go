// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/pdiddy/paper-digest/internal/httputil"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// Proceedings site bases. Declared as vars so tests can substitute an
// httptest server.
var (
	cvfBase  = "https://openaccess.thecvf.com"
	ecvaBase = "https://www.ecva.net"
)

const (
	defaultWorkers = 8
	defaultRate    = 10.0
)

// CVF collects from static proceedings listing pages: openaccess.thecvf.com
// for CVPR and ICCV, and ecva.net for ECCV, which publishes its papers in
// the same page style. One index page links to per-paper detail pages; the
// detail pages carry title, byline, and abstract.
type CVF struct {
	Client  *http.Client
	Config  types.CollectConfig
	Log     *zap.Logger
	limiter *rate.Limiter
}

// NewCVF builds the listing-page collector with a shared per-host rate
// limiter.
func NewCVF(client *http.Client, cfg types.CollectConfig, log *zap.Logger) *CVF {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRate
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CVF{
		Client:  client,
		Config:  cfg,
		Log:     log,
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)*2),
	}
}

// Name identifies the variant for provenance.
func (c *CVF) Name() string { return "cvf" }

// Collect fetches the edition's index page, then the detail page of every
// listed paper through a bounded worker pool. A single detail-page failure
// is logged and skipped; an unreachable index aborts the run with
// SourceUnreachable. Records come back in listing order regardless of fetch
// completion order.
func (c *CVF) Collect(ctx context.Context, conference types.Conference, year int) (*types.CrawlResult, error) {
	if _, err := types.Vocabulary(conference, year); err != nil {
		return nil, err
	}

	indexURL, base := c.indexURL(conference, year)
	links, err := c.fetchIndex(ctx, indexURL, base, conference, year)
	if err != nil {
		return nil, err
	}
	c.Log.Info("index fetched",
		zap.String("conference", string(conference)),
		zap.Int("year", year),
		zap.Int("papers", len(links)))

	workers := c.Config.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	// Fetch detail pages concurrently; papers[i] stays aligned with
	// links[i] so listing order survives the pool.
	papers := make([]*types.Paper, len(links))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, link := range links {
		i, link := i, link
		g.Go(func() error {
			p, err := c.fetchDetail(gctx, link, conference, year)
			if err != nil {
				// Cancellation fails every in-flight fetch at once; that is
				// a dead run, not a degraded paper.
				if gctx.Err() != nil {
					return gctx.Err()
				}
				c.Log.Warn("skipping paper",
					zap.String("url", link),
					zap.Error(err))
				return nil // degraded yield, not a run failure
			}
			papers[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &types.CrawlResult{
		Conference: conference,
		Year:       year,
		Collector:  c.Name(),
		CrawledAt:  time.Now().UTC(),
	}
	for _, p := range papers {
		if p != nil {
			result.Papers = append(result.Papers, *p)
		}
	}
	return result, nil
}

// indexURL returns the listing page for an edition and the base used to
// resolve relative detail links.
func (c *CVF) indexURL(conference types.Conference, year int) (indexURL, base string) {
	if conference == types.ECCV {
		return ecvaBase + "/papers.php", ecvaBase
	}
	return fmt.Sprintf("%s/%s%d?day=all", cvfBase, conference, year), cvfBase
}

// fetchIndex loads the listing page and extracts detail-page links. CVF
// listings put each paper in a dt > a anchor; the ECVA page lists every
// edition together, so ECCV links are filtered by year.
func (c *CVF) fetchIndex(ctx context.Context, indexURL, base string, conference types.Conference, year int) ([]string, error) {
	doc, err := c.fetchDocument(ctx, indexURL)
	if err != nil {
		return nil, &Error{Kind: SourceUnreachable, Source: c.Name(),
			Err: fmt.Errorf("index %s: %w", indexURL, err)}
	}

	var links []string
	doc.Find("dl dt a").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || !strings.HasSuffix(href, ".html") {
			return
		}
		if conference == types.ECCV &&
			!strings.Contains(href, fmt.Sprintf("eccv_%d", year)) {
			return
		}
		links = append(links, resolveLink(base, href))
	})

	if len(links) == 0 {
		return nil, &Error{Kind: SourceUnreachable, Source: c.Name(),
			Err: fmt.Errorf("index %s listed no papers", indexURL)}
	}
	return links, nil
}

// fetchDetail loads one paper page and normalizes it into a canonical
// record. Proceedings listings carry no decision taxonomy, so every paper
// maps to the Accept category.
func (c *CVF) fetchDetail(ctx context.Context, link string, conference types.Conference, year int) (*types.Paper, error) {
	doc, err := c.fetchDocument(ctx, link)
	if err != nil {
		return nil, err
	}

	title := scrub(doc.Find("#papertitle").Text())
	byline := scrub(doc.Find("#authors b i").Text())
	abstract := scrub(doc.Find("#abstract").Text())

	// ECCV abstracts arrive wrapped in literal escaped quotes.
	if conference == types.ECCV {
		abstract = strings.Trim(abstract, `\"`)
	}

	paper, err := types.Validate(types.RawPaper{
		Conference: conference,
		Year:       year,
		Title:      title,
		Authors:    splitAuthors(byline),
		Abstract:   abstract,
		Category:   types.CategoryAccept,
		SourceURL:  link,
	})
	if err != nil {
		return nil, err
	}
	return &paper, nil
}

// fetchDocument performs a rate-limited, retried GET and parses the body.
func (c *CVF) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.Config.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.Client, req, c.Config.MaxRetries, c.Log)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", pageURL, err)
	}
	return doc, nil
}

// resolveLink joins a detail href against the site base. Listing hrefs are
// a mix of absolute paths and page-relative paths.
func resolveLink(base, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	u, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return u.ResolveReference(ref).String()
}
