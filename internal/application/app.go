// Package application wires the metadata store, blob store, repository,
// renderer and service into one App. The server and the CLI both build
// their App here.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/equipreport/internal/blob"
	"github.com/JonMunkholm/equipreport/internal/config"
	"github.com/JonMunkholm/equipreport/internal/core"
	"github.com/JonMunkholm/equipreport/internal/report"
	"github.com/JonMunkholm/equipreport/internal/store"
)

// Options selects backends and limits.
type Options struct {
	DatabaseURL string
	Pool        store.PoolConfig
	BlobDir     string
	Retention   int

	MaxConcurrentUploads int
	MaxUploadWait        time.Duration
}

// OptionsFromConfig maps the server configuration onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		DatabaseURL: cfg.Database.URL,
		Pool: store.PoolConfig{
			MaxConns:        int32(cfg.Database.MaxConns),
			MinConns:        int32(cfg.Database.MinConns),
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		},
		BlobDir:              cfg.Storage.BlobDir,
		Retention:            cfg.Storage.Retention,
		MaxConcurrentUploads: cfg.Upload.MaxConcurrent,
		MaxUploadWait:        cfg.Upload.MaxWaitTime,
	}
}

// App holds the wired components.
type App struct {
	Meta       store.MetaStore
	Blobs      blob.Store
	Repository *store.Repository
	Renderer   *report.Renderer
	Service    *core.Service
}

// New opens the stores named by opts and builds the service on top.
// The "memory" database pairs with an in-memory blob store; every other
// backend writes payloads under BlobDir.
func New(ctx context.Context, opts Options) (*App, error) {
	if opts.Retention <= 0 {
		opts.Retention = store.DefaultRetention
	}

	meta, err := openMeta(ctx, opts)
	if err != nil {
		return nil, err
	}

	var blobs blob.Store
	if opts.DatabaseURL == "" || opts.DatabaseURL == "memory" {
		blobs = blob.NewMemoryStore()
	} else {
		fs, err := blob.NewFSStore(opts.BlobDir)
		if err != nil {
			_ = meta.Close()
			return nil, fmt.Errorf("open blob store: %w", err)
		}
		blobs = fs
	}

	repo := store.NewRepository(meta, blobs, opts.Retention)
	renderer := report.NewRenderer()
	limiter := core.NewUploadLimiter(opts.MaxConcurrentUploads, opts.MaxUploadWait)

	slog.Debug("application wired",
		"driver", driverName(opts.DatabaseURL),
		"blob_dir", opts.BlobDir,
		"retention", opts.Retention,
	)

	return &App{
		Meta:       meta,
		Blobs:      blobs,
		Repository: repo,
		Renderer:   renderer,
		Service:    core.NewService(repo, renderer, limiter),
	}, nil
}

func openMeta(ctx context.Context, opts Options) (store.MetaStore, error) {
	if driverName(opts.DatabaseURL) == "postgres" {
		return store.OpenPostgres(ctx, opts.DatabaseURL, opts.Pool)
	}
	return store.Open(ctx, opts.DatabaseURL)
}

func driverName(url string) string {
	d := (&config.DatabaseConfig{URL: url}).Driver()
	if d == "" && url == "" {
		return "memory"
	}
	if d == "" {
		return "sqlite"
	}
	return d
}

// StartSweeper runs the orphan payload sweeper until ctx is done.
// A non-positive interval disables it.
func (a *App) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		slog.Info("payload sweeper disabled")
		return
	}
	a.Repository.StartSweeper(ctx, interval)
}

// Close releases the metadata store.
func (a *App) Close() error {
	if a.Meta == nil {
		return nil
	}
	return a.Meta.Close()
}
