package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/empirf/mdingest/internal/adapters/driven/destination"
	"github.com/empirf/mdingest/internal/adapters/driven/schema"
	"github.com/empirf/mdingest/internal/adapters/driven/storage/sqlite"
	"github.com/empirf/mdingest/internal/config"
	"github.com/empirf/mdingest/internal/connectors/filesystem"
	"github.com/empirf/mdingest/internal/connectors/webdav"
	"github.com/empirf/mdingest/internal/core/ports/driven"
	"github.com/empirf/mdingest/internal/core/ports/driving"
	"github.com/empirf/mdingest/internal/core/services"
	"github.com/empirf/mdingest/internal/logger"
)

// destinationFile is the default SQLite destination within the state directory.
const destinationFile = "metadata.db"

// closers releases resources in reverse order of acquisition.
type closers []func() error

func (c closers) close() error {
	var errs []error
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// buildWatcher wires the ingestion loop for cfg.
func buildWatcher(ctx context.Context, cfg *config.Config) (driving.Watcher, func() error, error) {
	var cs closers
	fail := func(err error) (driving.Watcher, func() error, error) {
		_ = cs.close()
		return nil, nil, err
	}

	store, err := sqlite.NewStore(cfg.State.Dir)
	if err != nil {
		return fail(fmt.Errorf("opening state store: %w", err))
	}
	cs = append(cs, store.Close)

	lister, trigger, closeLister, err := buildLister(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	if closeLister != nil {
		cs = append(cs, closeLister)
	}

	reconciler, err := destination.Open(destinationOptions(cfg))
	if err != nil {
		return fail(err)
	}
	cs = append(cs, reconciler.Close)
	if err := reconciler.Ping(ctx); err != nil {
		return fail(fmt.Errorf("connecting to destination: %w", err))
	}

	ingestor := services.NewIngestor(
		lister,
		store.StateStore(),
		schema.NewResolver(cfg.Schemas.Dir, cfg.Schemas.Allowed),
		schema.NewValidator(),
		reconciler,
		services.IngestOptions{
			Workers:            cfg.Ingest.Workers,
			DeleteMissing:      cfg.Ingest.DeleteMissing,
			FileTypeIdentifier: cfg.Ingest.FileTypeIdentifier,
		},
	)

	watcher := services.NewWatcher(ingestor, store.RunStore(), trigger, services.WatchOptions{
		Interval:     cfg.Interval(),
		HistoryLimit: services.DefaultHistoryLimit,
	})

	logger.Debug("Watching %s, schemas in %s, destination %s", lister.Root(), cfg.Schemas.Dir, cfg.Destination.Driver)
	return watcher, cs.close, nil
}

// buildStatus wires the status service over the state store only.
func buildStatus(_ context.Context, cfg *config.Config) (driving.StatusService, func() error, error) {
	store, err := sqlite.NewStore(cfg.State.Dir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening state store: %w", err)
	}
	return services.NewStatusService(store.StateStore(), store.RunStore()), store.Close, nil
}

// buildLister returns the lister for the configured source and, for local
// directories with notifications enabled, a change trigger.
func buildLister(ctx context.Context, cfg *config.Config) (driven.RemoteLister, driven.ChangeTrigger, func() error, error) {
	switch cfg.Source.Kind {
	case config.SourceWebDAV:
		lister, err := webdav.New(ctx, &webdav.Config{
			URL:                cfg.WebDAV.URL,
			Root:               cfg.WebDAV.Root,
			User:               cfg.WebDAV.User,
			Password:           cfg.WebDAV.Password,
			Token:              cfg.WebDAV.Token,
			Timeout:            cfg.Timeout(),
			RequestsPerSecond:  cfg.WebDAV.RequestsPerSecond,
			StableFolderTokens: cfg.WebDAV.StableFolderTokens,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("configuring webdav: %w", err)
		}
		return lister, nil, nil, nil

	case config.SourceLocal:
		conn := filesystem.New(cfg.Local.Dir)
		var trigger driven.ChangeTrigger
		if cfg.Local.Notify {
			trigger = conn
		}
		return conn, trigger, conn.Close, nil

	default:
		return nil, nil, nil, fmt.Errorf("unsupported source kind: %q", cfg.Source.Kind)
	}
}

// destinationOptions maps configuration to connection options. A SQLite
// destination without a name lives next to the state database.
func destinationOptions(cfg *config.Config) destination.Options {
	opts := destination.Options{
		Driver:   cfg.Destination.Driver,
		DSN:      cfg.Destination.DSN,
		Host:     cfg.Destination.Host,
		Port:     cfg.Destination.Port,
		User:     cfg.Destination.User,
		Password: cfg.Destination.Password,
		Name:     cfg.Destination.Name,
	}
	if opts.Driver == destination.DriverSQLite && opts.DSN == "" && opts.Name == "" {
		opts.Name = filepath.Join(cfg.State.Dir, destinationFile)
	}
	return opts
}
