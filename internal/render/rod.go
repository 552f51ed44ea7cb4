// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// Rod is the Alternate backend: it drives a rod-managed browser session.
// It streams the PDF out of the browser instead of buffering it whole,
// which keeps very large documents within reach, and its print pipeline
// preserves in-document anchors so TOC links land on the exact section.
type Rod struct{}

// Name identifies the backend.
func (r *Rod) Name() string { return string(types.BackendRod) }

// Available reports whether rod can find an installed browser. It never
// downloads one: an absent browser is a BackendUnavailable condition, not
// an installation trigger.
func (r *Rod) Available() error {
	if _, ok := launcher.LookPath(); !ok {
		return fmt.Errorf("no browser found for rod")
	}
	return nil
}

// Convert renders the HTML document at htmlPath into a PDF at pdfPath.
func (r *Rod) Convert(ctx context.Context, htmlPath, pdfPath string) error {
	abs, err := filepath.Abs(htmlPath)
	if err != nil {
		return fmt.Errorf("resolving document path: %w", err)
	}

	bin, ok := launcher.LookPath()
	if !ok {
		return fmt.Errorf("no browser found for rod")
	}

	l := launcher.New().Bin(bin).Headless(true)
	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("launching browser: %w", err)
	}
	defer l.Cleanup()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connecting to browser: %w", err)
	}
	defer browser.Close()

	pg, err := browser.Page(proto.TargetCreateTarget{URL: "file://" + abs})
	if err != nil {
		return fmt.Errorf("opening document: %w", err)
	}
	if err := pg.WaitLoad(); err != nil {
		return fmt.Errorf("waiting for document load: %w", err)
	}

	printBackground := true
	stream, err := pg.PDF(&proto.PagePrintToPDF{PrintBackground: printBackground})
	if err != nil {
		return fmt.Errorf("printing to PDF: %w", err)
	}

	out, err := os.Create(pdfPath)
	if err != nil {
		return fmt.Errorf("creating PDF file: %w", err)
	}
	_, copyErr := io.Copy(out, stream)
	closeErr := out.Close()
	if copyErr != nil {
		return fmt.Errorf("streaming PDF: %w", copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf("closing PDF file: %w", closeErr)
	}
	return nil
}
