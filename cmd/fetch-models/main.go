// fetch-models mirrors the model package's content-addressed chunks into
// the local models directory. It runs once per build, not at request time.
package main

import (
	"context"
	"flag"

	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/bgcut/bgcut/internal/assets"
	"github.com/bgcut/bgcut/internal/config"
)

func main() {
	configPath := flag.String("config", "./config", "directory containing config.yml")
	flag.Parse()

	zlog.Init()
	cfg := config.MustLoad(*configPath)

	strategy := retry.Strategy{
		Attempts: cfg.Retry.Attempts,
		Delay:    cfg.Retry.Delay,
		Backoff:  cfg.Retry.Backoff,
	}

	fetcher := assets.New(assets.Config{
		Package: cfg.Assets.Package,
		Version: cfg.Assets.Version,
		BaseURL: cfg.Assets.BaseURL,
		Dir:     cfg.Assets.Dir,
	}, strategy)

	zlog.Logger.Info().
		Str("package", cfg.Assets.Package).
		Str("version", cfg.Assets.Version).
		Msg("fetching model assets")

	stats, err := fetcher.Fetch(context.Background())
	if err != nil {
		// Manifest failures abort the build step.
		zlog.Logger.Fatal().Err(err).Msg("failed to fetch model assets")
	}

	zlog.Logger.Info().
		Int("downloaded", stats.Downloaded).
		Int("skipped", stats.Skipped).
		Int("failed", stats.Failed).
		Int64("bytes", stats.Bytes).
		Msg("model assets fetched")
}
