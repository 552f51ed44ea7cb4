// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/paper-digest/pkg/types"
)

func setConfigDefaults() {
	viper.SetDefault("collect.timeout", "30s")
	viper.SetDefault("collect.user_agent", "paper-digest/"+version)
	viper.SetDefault("collect.workers", 8)
	viper.SetDefault("collect.requests_per_second", 10.0)
	viper.SetDefault("collect.max_retries", 5)
	viper.SetDefault("collect.page_size", 1000)
	viper.SetDefault("cache.dir", "cache")
	viper.SetDefault("catalog.dir", "catalog")
	viper.SetDefault("catalog.max_results", 20)
	viper.SetDefault("render.timeout", "5m")
	viper.SetDefault("render.chrome_path", "")
	viper.SetDefault("export.output_dir", "results")
}

// pipelineConfig assembles the stage configurations from viper, which has
// already merged defaults, the config file, and PAPER_DIGEST_* environment
// variables.
func pipelineConfig() types.PipelineConfig {
	return types.PipelineConfig{
		Collect: types.CollectConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("collect.timeout"),
				UserAgent: viper.GetString("collect.user_agent"),
			},
			Workers:           viper.GetInt("collect.workers"),
			RequestsPerSecond: viper.GetFloat64("collect.requests_per_second"),
			MaxRetries:        viper.GetInt("collect.max_retries"),
			PageSize:          viper.GetInt("collect.page_size"),
		},
		Cache: types.CacheConfig{
			Dir: viper.GetString("cache.dir"),
		},
		Catalog: types.CatalogConfig{
			Dir:        viper.GetString("catalog.dir"),
			MaxResults: viper.GetInt("catalog.max_results"),
		},
		Render: types.RenderConfig{
			Timeout:    viper.GetDuration("render.timeout"),
			ChromePath: viper.GetString("render.chrome_path"),
		},
		Export: types.ExportConfig{
			OutputDir: viper.GetString("export.output_dir"),
		},
	}
}

// httpTimeout falls back to a sane default when the config carries zero.
func httpTimeout(cfg types.CollectConfig) time.Duration {
	if cfg.Timeout > 0 {
		return cfg.Timeout
	}
	return 30 * time.Second
}
