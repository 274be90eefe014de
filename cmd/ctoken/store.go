package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/o1x3/ctoken/pkg/config"
	"github.com/o1x3/ctoken/pkg/ctoken"
	"github.com/o1x3/ctoken/pkg/pricing"
	"github.com/o1x3/ctoken/pkg/pricing/snapshot"
	"github.com/o1x3/ctoken/pkg/processing/costs"
	"github.com/o1x3/ctoken/pkg/processing/tokens"
)

// recorders groups the optional event sinks handed to the store and client.
type recorders struct {
	pricing pricing.Recorder
	costs   costs.Recorder
	tokens  tokens.Recorder
}

// openStore builds the pricing store described by cfg: the startup table from
// cfg.Source, refreshes from the CSV file or remote URL, and the snapshot and
// CSV persisters. The returned closer releases the snapshot database.
func openStore(ctx context.Context, cfg *config.PricingConfig, rec pricing.Recorder, logger *slog.Logger) (*pricing.Store, func() error, error) {
	closer := func() error { return nil }

	var snaps *snapshot.Store
	if cfg.Snapshot.Enabled || cfg.Source == config.SourceSnapshot {
		var err error
		snaps, err = snapshot.NewWithConfig(snapshot.Config{
			DBPath:      cfg.Snapshot.Path,
			Keep:        cfg.Snapshot.Keep,
			BusyTimeout: cfg.Snapshot.BusyTimeout,
		})
		if err != nil {
			return nil, closer, fmt.Errorf("opening pricing snapshots: %w", err)
		}
		closer = snaps.Close
	}

	initial, err := initialTable(ctx, cfg, snaps, logger)
	if err != nil {
		_ = closer()
		return nil, func() error { return nil }, err
	}

	opts := []pricing.StoreOption{
		pricing.WithSource(refreshSource(cfg)),
		pricing.WithLogger(logger.With("component", "pricing.store")),
	}
	if rec != nil {
		opts = append(opts, pricing.WithRecorder(rec))
	}
	if snaps != nil && cfg.Snapshot.Enabled {
		opts = append(opts, pricing.WithPersister(snaps))
	}
	if cfg.WriteCSV != "" {
		opts = append(opts, pricing.WithPersister(pricing.CSVFilePersister{Path: cfg.WriteCSV}))
	}

	return pricing.NewStore(initial, opts...), closer, nil
}

// initialTable loads the startup table. The csv source is strict; remote and
// snapshot sources fall back to the embedded table so a network outage or an
// empty database never prevents startup.
func initialTable(ctx context.Context, cfg *config.PricingConfig, snaps *snapshot.Store, logger *slog.Logger) (*pricing.Table, error) {
	switch cfg.Source {
	case config.SourceCSV:
		return pricing.CSVFileSource{Path: cfg.CSVPath}.Load(ctx)

	case config.SourceRemote:
		t, err := remoteSource(cfg).Load(ctx)
		if err != nil {
			logger.WarnContext(ctx, "remote pricing unavailable, using embedded table", "error", err)
			return pricing.EmbeddedTable(), nil
		}
		return t, nil

	case config.SourceSnapshot:
		t, err := snaps.Latest(ctx)
		if err != nil {
			level := slog.LevelWarn
			if errors.Is(err, snapshot.ErrNoSnapshot) {
				level = slog.LevelInfo
			}
			logger.Log(ctx, level, "no usable pricing snapshot, using embedded table", "error", err)
			return pricing.EmbeddedTable(), nil
		}
		return t, nil
	}

	return pricing.EmbeddedTable(), nil
}

// refreshSource is where Refresh loads from: the CSV file for the csv source,
// the remote CSV otherwise.
func refreshSource(cfg *config.PricingConfig) pricing.Source {
	if cfg.Source == config.SourceCSV {
		return pricing.CSVFileSource{Path: cfg.CSVPath}
	}
	return remoteSource(cfg)
}

func remoteSource(cfg *config.PricingConfig) *pricing.RemoteSource {
	return &pricing.RemoteSource{URL: cfg.RemoteURL, Timeout: cfg.FetchTimeout}
}

// openClient builds a store and a client from the configuration published
// by setup.
func openClient(ctx context.Context, rec recorders) (*ctoken.Client, func() error, error) {
	cfg := config.MustCurrent()
	store, closer, err := openStore(ctx, &cfg.Pricing, rec.pricing, logger)
	if err != nil {
		return nil, closer, err
	}

	opts := []ctoken.Option{
		ctoken.WithStore(store),
		ctoken.WithLogger(logger),
	}
	if rec.costs != nil {
		opts = append(opts, ctoken.WithCostRecorder(rec.costs))
	}
	if rec.tokens != nil {
		opts = append(opts, ctoken.WithTokenRecorder(rec.tokens))
	}

	client, err := ctoken.NewFromConfig(cfg, opts...)
	if err != nil {
		_ = closer()
		return nil, func() error { return nil }, err
	}
	return client, closer, nil
}
