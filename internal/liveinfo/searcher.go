package liveinfo

import (
	"context"
	"os"
	"strings"

	"github.com/TobiSchelling/studydeck/internal/config"
	"github.com/TobiSchelling/studydeck/internal/logger"
)

// CreateSearcher picks the configured search backend. Google and NewsAPI
// fall back to the keyless news feed when their keys are missing.
func CreateSearcher(ctx context.Context, cfg config.Search, log *logger.Logger) Searcher {
	if log == nil {
		log = logger.Nop()
	}

	switch strings.ToLower(cfg.Provider) {
	case "google":
		g, err := NewGoogleSearcher(ctx, os.Getenv(cfg.APIKeyEnv), os.Getenv(cfg.EngineIDEnv))
		if err == nil {
			return g
		}
		log.Info("google search unavailable, using news feed", "reason", err)
	case "newsapi":
		n := NewNewsAPISearcher(cfg.NewsAPIKeyEnv)
		if n.IsConfigured() {
			return n
		}
		log.Info("NewsAPI key not set, using news feed", "env", cfg.NewsAPIKeyEnv)
	}
	return NewNewsFeedSearcher(cfg.NewsFeedURL)
}
