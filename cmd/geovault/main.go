// GeoVault - Feature Service Archiving and Track Reconstruction
// Copyright 2026 The GeoVault Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geovault/geovault

// Package main is the GeoVault command-line entry point.
//
// GeoVault archives hosted feature services into local DuckDB stores and
// reconstructs GPS tracks from ping feeds. It runs as a scheduled job, not
// a daemon: each invocation performs one pass and exits.
//
// # Commands
//
//	geovault archive [-sources urls.txt] [-backup-root dir]
//	    Back up every service in the source list: rolling monthly and
//	    immutable daily snapshots per layer, then prune expired snapshots.
//
//	geovault sync -from <layer-url> -store <path> -dataset <name>
//	    Incrementally append rows created since the local watermark.
//
//	geovault tracks -from <layer-url> -store <path> [-points name] [-lines name]
//	    Pull new GPS pings and rebuild track assignments, lines, and
//	    per-track statistics.
//
//	geovault login -user <name> -secret <token>
//	    Store the service account for unattended runs.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, config file (config.yaml),
// built-in defaults. Section-prefixed variables map onto config keys, for
// example ARCHIVE_KEEP_DAILY_DAYS or TRACKS_BREAK_BY.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geovault/geovault/internal/archive"
	"github.com/geovault/geovault/internal/config"
	"github.com/geovault/geovault/internal/credentials"
	"github.com/geovault/geovault/internal/logging"
	"github.com/geovault/geovault/internal/remote"
	"github.com/geovault/geovault/internal/store"
	gvsync "github.com/geovault/geovault/internal/sync"
	"github.com/geovault/geovault/internal/tracks"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		logging.Error().Err(err).Msg("Run failed")
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		usage()
		return fmt.Errorf("no command given")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch args[0] {
	case "archive":
		return runArchive(ctx, cfg, args[1:])
	case "sync":
		return runSync(ctx, cfg, args[1:])
	case "tracks":
		return runTracks(ctx, cfg, args[1:])
	case "login":
		return runLogin(cfg, args[1:])
	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: geovault <archive|sync|tracks|login> [flags]")
}

// dialer builds the shared remote dialer, attaching the stored access
// token when a credential file is configured.
func dialer(cfg *config.Config) (remote.Dialer, error) {
	opts := remote.ClientOptions{
		Timeout:           cfg.Remote.Timeout,
		RequestsPerSecond: cfg.Remote.RequestsPerSecond,
		Burst:             cfg.Remote.Burst,
		PageSize:          cfg.Remote.PageSize,
	}
	if cfg.Credentials.File != "" {
		user, token, err := credentials.Load(cfg.Credentials.File)
		if err != nil {
			return nil, err
		}
		logging.Debug().Str("user", user).Msg("Using stored credentials")
		opts.Token = token
	}
	return remote.NewDialer(opts), nil
}

// opener builds the store opener with the configured DuckDB tuning.
func opener(cfg *config.Config) store.Opener {
	return func(path string) (store.Store, error) {
		return store.OpenDuckDB(path, store.DuckDBOptions{
			MaxMemory:              cfg.Database.MaxMemory,
			Threads:                cfg.Database.Threads,
			PreserveInsertionOrder: cfg.Database.PreserveInsertionOrder,
		})
	}
}

func runArchive(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("archive", flag.ContinueOnError)
	sources := fs.String("sources", cfg.Archive.SourceFile, "path to the service URL list")
	backupRoot := fs.String("backup-root", cfg.Archive.BackupRoot, "directory holding the backup stores")
	if err := fs.Parse(args); err != nil {
		return err
	}

	urls, err := archive.LoadSourceList(*sources)
	if err != nil {
		return err
	}
	dial, err := dialer(cfg)
	if err != nil {
		return err
	}
	m := archive.NewManager(opener(cfg), dial, archive.Policy{
		KeepDailyDays:     cfg.Archive.KeepDailyDays,
		KeepMonthlyMonths: cfg.Archive.KeepMonthlyMonths,
	}, gvsync.ReplicateOptions{Attempts: cfg.Sync.RetryAttempts}, nil)
	return m.Run(ctx, urls, *backupRoot)
}

func runSync(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)
	from := fs.String("from", "", "remote layer URL")
	storePath := fs.String("store", "", "local store path")
	dataset := fs.String("dataset", "", "destination dataset name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *from == "" || *storePath == "" || *dataset == "" {
		return fmt.Errorf("sync requires -from, -store, and -dataset")
	}

	dial, err := dialer(cfg)
	if err != nil {
		return err
	}
	st, err := opener(cfg)(*storePath)
	if err != nil {
		return err
	}
	defer st.Close()

	res, err := gvsync.Sync(ctx, dial(*from), st, *dataset, gvsync.SyncOptions{
		WatermarkField: cfg.Sync.WatermarkField,
		Lookback:       time.Duration(cfg.Sync.LookbackDays) * 24 * time.Hour,
	})
	if err != nil {
		return err
	}
	logging.Info().Str("dataset", *dataset).
		Int("pulled", res.Pulled).Int("deduplicated", res.Deduplicated).Int64("appended", res.Appended).
		Msg("Sync complete")
	return nil
}

func runTracks(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("tracks", flag.ContinueOnError)
	from := fs.String("from", "", "remote ping layer URL")
	storePath := fs.String("store", "", "local store path")
	points := fs.String("points", "gps_points", "points dataset name")
	lines := fs.String("lines", "gps_tracks", "lines dataset name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *from == "" || *storePath == "" {
		return fmt.Errorf("tracks requires -from and -store")
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	dial, err := dialer(cfg)
	if err != nil {
		return err
	}
	st, err := opener(cfg)(*storePath)
	if err != nil {
		return err
	}
	defer st.Close()

	return tracks.UpdateBackups(ctx, dial(*from), st, *points, *lines, tracks.UpdateOptions{
		Segment: tracks.Options{
			BreakBy:      cfg.Tracks.BreakBy,
			BreakSeconds: float64(cfg.Tracks.BreakSeconds),
		},
		Timezone: loc,
		Sync: gvsync.SyncOptions{
			WatermarkField: cfg.Sync.WatermarkField,
			Lookback:       time.Duration(cfg.Sync.LookbackDays) * 24 * time.Hour,
		},
		Replicate: gvsync.ReplicateOptions{Attempts: cfg.Sync.RetryAttempts},
	})
}

func runLogin(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	user := fs.String("user", "", "service account name")
	secret := fs.String("secret", "", "service account token")
	file := fs.String("file", cfg.Credentials.File, "credential file path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *user == "" || *secret == "" || *file == "" {
		return fmt.Errorf("login requires -user, -secret, and a credential file path")
	}
	if err := credentials.Save(*file, *user, *secret); err != nil {
		return err
	}
	logging.Info().Str("file", *file).Msg("Credentials saved")
	return nil
}
