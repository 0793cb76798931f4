package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/marketskies/baroscan/internal/config"
	"github.com/marketskies/baroscan/internal/data"
	"github.com/marketskies/baroscan/internal/metrics"
)

// buildProvider wires the chart client behind the disk cache using the
// persistent cache flags.
func buildProvider(cmd *cobra.Command, reg *metrics.Registry) data.Provider {
	cacheDir, _ := cmd.Flags().GetString("cache-dir")
	cacheTTL, _ := cmd.Flags().GetDuration("cache-ttl")
	if cacheTTL == 0 {
		cacheTTL = 12 * time.Hour
	}

	client := data.NewChartClient(data.ClientOptions{Metrics: reg})
	return data.NewCachedProvider(client, cacheDir, cacheTTL, reg)
}

// resolveModel resolves a preset name against the built-in registry plus
// the optional --presets file.
func resolveModel(cmd *cobra.Command, name string) (config.Model, error) {
	file, _ := cmd.Flags().GetString("presets")
	return config.Resolve(name, file)
}
