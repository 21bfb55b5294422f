// GeoVault - Feature Service Archiving and Track Reconstruction
// Copyright 2026 The GeoVault Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geovault/geovault

package archive

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/geovault/geovault/internal/logging"
	"github.com/geovault/geovault/internal/metrics"
	"github.com/geovault/geovault/internal/remote"
	"github.com/geovault/geovault/internal/store"
	gvsync "github.com/geovault/geovault/internal/sync"
)

// Manager runs backup passes over a list of feature services.
type Manager struct {
	open      store.Opener
	dial      remote.Dialer
	policy    Policy
	replicate gvsync.ReplicateOptions
	now       func() time.Time
}

// NewManager builds a Manager. now may be nil, defaulting to time.Now.
func NewManager(open store.Opener, dial remote.Dialer, policy Policy, replicate gvsync.ReplicateOptions, now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{open: open, dial: dial, policy: policy, replicate: replicate, now: now}
}

// Run archives every service URL into its store under backupRoot and
// prunes expired snapshots. Failures are contained per service and per
// layer: one bad layer never blocks the rest of the pass. Run returns an
// error only when no service could be processed at all.
func (m *Manager) Run(ctx context.Context, urls []string, backupRoot string) error {
	runID := uuid.NewString()
	log := logging.With().Str("run_id", runID).Logger()
	log.Info().Int("services", len(urls)).Msg("Starting backup pass")

	failed := 0
	for _, url := range urls {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.archiveService(ctx, url, backupRoot); err != nil {
			failed++
			log.Error().Str("url", url).Err(err).Msg("Service backup failed, continuing with next service")
		}
	}
	if failed == len(urls) && len(urls) > 0 {
		return fmt.Errorf("all %d services failed to back up", failed)
	}
	log.Info().Int("failed", failed).Msg("Backup pass complete")
	return nil
}

func (m *Manager) archiveService(ctx context.Context, url, backupRoot string) error {
	name := StoreNameFromURL(url)
	st, err := m.open(filepath.Join(backupRoot, name))
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	desc, err := m.dial(url).Describe(ctx)
	if err != nil {
		return fmt.Errorf("failed to describe service: %w", err)
	}
	layers := make([]layerRef, 0, len(desc.Children))
	for _, child := range desc.Children {
		layers = append(layers, layerRef{name: child.Name, url: remote.LayerURL(url, child.ID)})
	}
	if len(layers) == 0 {
		// A layer URL rather than a service root; archive it alone.
		layers = []layerRef{{name: name, url: url}}
	}

	now := m.now()
	for _, layer := range layers {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.archiveLayer(ctx, layer, st, now); err != nil {
			metrics.ArchiveLayerFailures.Inc()
			logging.Error().Str("store", name).Str("layer", layer.name).Err(err).
				Msg("Layer backup failed, continuing with next layer")
		}
	}

	return m.prune(st, now)
}

// layerRef is one archivable layer: its dataset base name and the URL it
// is queried at.
type layerRef struct {
	name string
	url  string
}

func (m *Manager) archiveLayer(ctx context.Context, layer layerRef, st store.Store, now time.Time) error {
	src := m.dial(layer.url)

	monthly := MonthlyName(layer.name, now)
	if _, err := gvsync.Replicate(ctx, src, st, monthly, m.replicate); err != nil {
		return err
	}
	metrics.ArchiveLayersCopied.Inc()

	// Daily snapshots are immutable: first write of the day wins.
	daily := DailyName(layer.name, now)
	exists, err := st.Has(daily)
	if err != nil {
		return err
	}
	if exists {
		logging.Debug().Str("dataset", daily).Msg("Daily snapshot already exists, not overwriting")
		return nil
	}
	return st.Copy(monthly, daily)
}

func (m *Manager) prune(st store.Store, now time.Time) error {
	names, err := st.List()
	if err != nil {
		return err
	}
	expired := Expired(names, now, m.policy)
	if len(expired) == 0 {
		return nil
	}
	logging.Info().Str("store", st.Path()).Strs("datasets", expired).Msg("Pruning expired snapshots")
	if err := st.Drop(expired...); err != nil {
		return fmt.Errorf("failed to prune snapshots: %w", err)
	}
	metrics.ArchiveSnapshotsPruned.Add(float64(len(expired)))
	return nil
}

// StoreNameFromURL derives a store name from a service or layer URL: the
// service name segment, which sits two segments above a layer id. A
// placeholder layer id is appended to service-root URLs so both shapes
// resolve to the same segment.
func StoreNameFromURL(url string) string {
	trimmed := strings.TrimRight(url, "/")
	if !allDigits(lastSegment(trimmed)) {
		trimmed += "/0"
	}
	parts := strings.Split(trimmed, "/")
	if len(parts) < 3 {
		return parts[len(parts)-1]
	}
	return parts[len(parts)-3]
}

func lastSegment(url string) string {
	parts := strings.Split(strings.TrimRight(url, "/"), "/")
	return parts[len(parts)-1]
}
