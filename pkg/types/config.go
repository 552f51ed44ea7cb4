// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network
// requests.
type HTTPConfig struct {
	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paper-digest/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// CollectConfig holds settings for the collection stage.
type CollectConfig struct {
	HTTPConfig `yaml:",inline"`

	// Workers bounds the concurrent detail-page fetches of the listing
	// collector (default 8).
	Workers int `json:"workers" yaml:"workers"`

	// RequestsPerSecond caps the request rate against one host (default 10).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`

	// MaxRetries bounds retry attempts on throttled or failed requests
	// (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// PageSize is the offset increment for paginated API sources
	// (default 1000, the OpenReview maximum).
	PageSize int `json:"page_size" yaml:"page_size"`
}

// CacheConfig holds settings for the local crawl cache.
type CacheConfig struct {
	// Dir is the directory holding one YAML artifact per (conference, year).
	Dir string `json:"dir" yaml:"dir"`
}

// CatalogConfig holds settings for the SQLite catalog index.
type CatalogConfig struct {
	// Dir is the directory holding catalog.db.
	Dir string `json:"dir" yaml:"dir"`

	// MaxResults is the default cap on full-text search results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// RenderBackendName selects a fixed-layout conversion backend.
type RenderBackendName string

const (
	// BackendChromedp drives an installed Chrome/Chromium via the DevTools
	// protocol. The default.
	BackendChromedp RenderBackendName = "chromedp"

	// BackendRod drives a rod-managed browser. Handles very large
	// documents more reliably and produces TOC links that jump to the
	// exact section rather than the containing page.
	BackendRod RenderBackendName = "rod"
)

// RenderConfig holds settings for the rendering stage.
type RenderConfig struct {
	// Timeout bounds one conversion call. Large documents take minutes
	// (default 5m).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// ChromePath overrides the Chrome/Chromium executable location.
	// Empty means search PATH.
	ChromePath string `json:"chrome_path,omitempty" yaml:"chrome_path,omitempty"`
}

// ExportConfig holds settings for the document assembly stage.
type ExportConfig struct {
	// OutputDir is the directory for assembled documents (default "results").
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Collect CollectConfig `json:"collect" yaml:"collect"`
	Cache   CacheConfig   `json:"cache" yaml:"cache"`
	Catalog CatalogConfig `json:"catalog" yaml:"catalog"`
	Render  RenderConfig  `json:"render" yaml:"render"`
	Export  ExportConfig  `json:"export" yaml:"export"`
}
