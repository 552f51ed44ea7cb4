// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render converts assembled documents into fixed-layout PDF output.
// Two interchangeable browser-automation backends implement the Backend
// interface: chromedp (Primary) and rod (Alternate). The Alternate handles
// very large documents more reliably and produces TOC links that jump to
// the exact section, so callers may pin a backend or prefer the Alternate
// with fallback to the Primary.
package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// Kind classifies a conversion failure.
type Kind string

const (
	// BackendUnavailable means the backend's host automation (a
	// Chrome/Chromium install) is missing on this machine.
	BackendUnavailable Kind = "backend_unavailable"

	// Timeout means the conversion exceeded its deadline. Partial output
	// is discarded, never published.
	Timeout Kind = "timeout"

	// Failure covers any other conversion error.
	Failure Kind = "failure"
)

// Error is a conversion-level failure. The assembled document is always
// preserved: conversion failing aborts conversion only.
type Error struct {
	Kind    Kind
	Backend string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("conversion via %s failed (%s): %v", e.Backend, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Backend converts one document to fixed-layout output. Implementations
// are not safe for concurrent conversions against the same instance; the
// Adapter serializes calls per backend.
type Backend interface {
	// Name identifies the backend ("chromedp", "rod").
	Name() string

	// Available reports whether the backend's host automation is
	// installed. A nil return means Convert can be attempted.
	Available() error

	// Convert renders the HTML document at htmlPath into a PDF at
	// pdfPath. The ctx carries the conversion deadline.
	Convert(ctx context.Context, htmlPath, pdfPath string) error
}

// Policy selects which backend(s) a conversion may use.
type Policy struct {
	// Pin forces a single backend with no fallback. Empty means use the
	// Primary (or the fallback chain when PreferAlternate is set).
	Pin types.RenderBackendName

	// PreferAlternate tries the Alternate first and falls back to the
	// Primary, the recommended mode for large documents.
	PreferAlternate bool
}

const defaultTimeout = 5 * time.Minute

// Adapter orchestrates conversions across the two backends.
type Adapter struct {
	primary   Backend
	alternate Backend
	timeout   time.Duration

	mu sync.Mutex
	// locks serializes conversions per backend: the automation hosts are
	// single-session.
	locks map[string]*sync.Mutex
}

// NewAdapter wires the Primary and Alternate backends.
func NewAdapter(primary, alternate Backend, cfg types.RenderConfig) *Adapter {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Adapter{
		primary:   primary,
		alternate: alternate,
		timeout:   timeout,
		locks:     make(map[string]*sync.Mutex),
	}
}

// candidates resolves the policy into an ordered backend list.
func (a *Adapter) candidates(pol Policy) ([]Backend, error) {
	switch pol.Pin {
	case "":
	case types.BackendChromedp:
		return []Backend{a.primary}, nil
	case types.BackendRod:
		return []Backend{a.alternate}, nil
	default:
		return nil, fmt.Errorf("unknown render backend %q", pol.Pin)
	}
	if pol.PreferAlternate {
		return []Backend{a.alternate, a.primary}, nil
	}
	return []Backend{a.primary}, nil
}

// Convert renders htmlPath into pdfPath under the policy. Output is staged
// in a temporary sibling and renamed only on success, so a timeout or
// failure never publishes partial output. With a single candidate any
// failure is final; with a fallback chain an unavailable or failing
// candidate passes the document to the next one.
func (a *Adapter) Convert(ctx context.Context, pol Policy, htmlPath, pdfPath string) error {
	backends, err := a.candidates(pol)
	if err != nil {
		return err
	}

	var lastErr error
	for _, b := range backends {
		lastErr = a.convertOne(ctx, b, htmlPath, pdfPath)
		if lastErr == nil {
			return nil
		}

		var cerr *Error
		if errors.As(lastErr, &cerr) && cerr.Kind == Timeout {
			// Minutes already spent; do not double the damage by
			// rerunning on the other backend.
			return lastErr
		}
	}
	return lastErr
}

func (a *Adapter) convertOne(parent context.Context, b Backend, htmlPath, pdfPath string) error {
	if err := b.Available(); err != nil {
		return &Error{Kind: BackendUnavailable, Backend: b.Name(), Err: err}
	}

	lock := a.backendLock(b.Name())
	lock.Lock()
	defer lock.Unlock()

	ctx, cancel := context.WithTimeout(parent, a.timeout)
	defer cancel()

	tmp, err := os.CreateTemp(filepath.Dir(pdfPath), "."+filepath.Base(pdfPath)+"-*.tmp")
	if err != nil {
		return &Error{Kind: Failure, Backend: b.Name(), Err: err}
	}
	tmpPath := tmp.Name()
	tmp.Close()

	if err := b.Convert(ctx, htmlPath, tmpPath); err != nil {
		os.Remove(tmpPath)
		if ctx.Err() != nil {
			return &Error{Kind: Timeout, Backend: b.Name(), Err: ctx.Err()}
		}
		return &Error{Kind: Failure, Backend: b.Name(), Err: err}
	}

	if err := os.Rename(tmpPath, pdfPath); err != nil {
		os.Remove(tmpPath)
		return &Error{Kind: Failure, Backend: b.Name(), Err: err}
	}
	return nil
}

func (a *Adapter) backendLock(name string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.locks[name]
	if !ok {
		l = &sync.Mutex{}
		a.locks[name] = l
	}
	return l
}
