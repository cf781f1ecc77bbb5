// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"io"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/review-engine/internal/gemini"
	"github.com/pdiddy/review-engine/internal/secrets"
	"github.com/pdiddy/review-engine/internal/session"
	"github.com/pdiddy/review-engine/internal/store"
	"github.com/pdiddy/review-engine/pkg/types"
)

func init() {
	viper.SetDefault("ai.model", "gemini-2.5-flash")
	viper.SetDefault("ai.max_retries", 3)
	viper.SetDefault("ai.timeout", "2m")
	viper.SetDefault("search.max_results", 10)
	viper.SetDefault("store.data_dir", "data")
	viper.SetDefault("store.max_results", 20)
	viper.SetDefault("export.output_dir", "output/exports")
	viper.SetDefault("server.addr", ":8321")
}

// buildConfig assembles the review configuration from the config file,
// environment, and loaded secrets. Secrets fill the API key only when the
// config leaves it unset.
func buildConfig() types.ReviewConfig {
	timeout, _ := time.ParseDuration(viper.GetString("ai.timeout"))

	return types.ReviewConfig{
		AI: types.AIConfig{
			Model:      viper.GetString("ai.model"),
			APIKey:     secretDefault(secrets.GeminiAPIKey, viper.GetString("ai.api_key")),
			MaxRetries: viper.GetInt("ai.max_retries"),
			Timeout:    timeout,
		},
		Search: types.SearchConfig{
			MaxResults: viper.GetInt("search.max_results"),
		},
		Store: types.StoreConfig{
			DataDir:    viper.GetString("store.data_dir"),
			MaxResults: viper.GetInt("store.max_results"),
		},
		Export: types.ExportConfig{
			OutputDir: viper.GetString("export.output_dir"),
		},
		Server: types.ServerConfig{
			Addr: viper.GetString("server.addr"),
		},
	}
}

// openStore opens the session store from config.
func openStore(cfg types.ReviewConfig) (*store.Store, error) {
	return store.NewStore(cfg.Store)
}

// newEngine builds the session engine with the production collaborator.
// Callers must Close the returned store.
func newEngine(ctx context.Context, cfg types.ReviewConfig, w io.Writer) (*session.Engine, *store.Store, error) {
	st, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	collab, err := gemini.NewClient(ctx, cfg.AI)
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	return session.NewEngine(collab, st, cfg, w), st, nil
}
