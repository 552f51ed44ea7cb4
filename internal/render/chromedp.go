// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// chromeBinaries are the executables probed on PATH, in preference order.
var chromeBinaries = []string{
	"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "chrome",
}

// Chromedp is the Primary backend: it drives an installed Chrome/Chromium
// through the DevTools protocol and prints the document to PDF.
type Chromedp struct {
	// ExecPath overrides the browser executable. Empty means probe PATH.
	ExecPath string
}

// Name identifies the backend.
func (c *Chromedp) Name() string { return string(types.BackendChromedp) }

// Available reports whether a Chrome/Chromium executable can be found.
func (c *Chromedp) Available() error {
	if c.ExecPath != "" {
		if _, err := os.Stat(c.ExecPath); err != nil {
			return fmt.Errorf("configured browser %s: %w", c.ExecPath, err)
		}
		return nil
	}
	for _, bin := range chromeBinaries {
		if _, err := exec.LookPath(bin); err == nil {
			return nil
		}
	}
	return fmt.Errorf("no Chrome/Chromium executable on PATH (tried %v)", chromeBinaries)
}

// Convert prints the HTML document at htmlPath to a PDF at pdfPath.
func (c *Chromedp) Convert(ctx context.Context, htmlPath, pdfPath string) error {
	abs, err := filepath.Abs(htmlPath)
	if err != nil {
		return fmt.Errorf("resolving document path: %w", err)
	}

	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-first-run", true),
	)
	if c.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(c.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer allocCancel()
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	defer tabCancel()

	var buf []byte
	err = chromedp.Run(tabCtx,
		chromedp.Navigate("file://"+abs),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			buf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return fmt.Errorf("printing to PDF: %w", err)
	}

	if err := os.WriteFile(pdfPath, buf, 0o644); err != nil {
		return fmt.Errorf("writing PDF: %w", err)
	}
	return nil
}
