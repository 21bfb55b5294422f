// GeoVault - Feature Service Archiving and Track Reconstruction
// Copyright 2026 The GeoVault Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geovault/geovault

// Package metrics provides Prometheus instrumentation for the replication
// engine: bulk replication, incremental sync, archive retention, and track
// building.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Bulk replication metrics
	ReplicationRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geovault_replication_rows_total",
			Help: "Total rows copied by the bulk replicator",
		},
		[]string{"dataset"},
	)

	ReplicationRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geovault_replication_retries_total",
			Help: "Total append retries during bulk replication",
		},
		[]string{"dataset"},
	)

	ReplicationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "geovault_replication_duration_seconds",
			Help:    "Duration of bulk replication runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"dataset"},
	)

	ReplicationCountMismatches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geovault_replication_count_mismatches_total",
			Help: "Replication runs finishing with a row-count mismatch warning",
		},
	)

	// Incremental sync metrics
	SyncRowsPulled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geovault_sync_rows_pulled_total",
			Help: "Rows pulled from the remote by the incremental syncer",
		},
		[]string{"dataset"},
	)

	SyncRowsDeduplicated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geovault_sync_rows_deduplicated_total",
			Help: "Pulled rows dropped because their origin id was already present",
		},
		[]string{"dataset"},
	)

	SyncRowsAppended = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geovault_sync_rows_appended_total",
			Help: "Rows appended to the destination by the incremental syncer",
		},
		[]string{"dataset"},
	)

	// Archive metrics
	ArchiveLayersCopied = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geovault_archive_layers_copied_total",
			Help: "Layers successfully downloaded during archive runs",
		},
	)

	ArchiveLayerFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geovault_archive_layer_failures_total",
			Help: "Layer downloads that failed during archive runs",
		},
	)

	ArchiveSnapshotsPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geovault_archive_snapshots_pruned_total",
			Help: "Expired snapshots deleted by retention",
		},
	)

	// Track building metrics
	TracksBuilt = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geovault_tracks_built_total",
			Help: "Track lines produced by the segmenter",
		},
	)

	TrackPingsProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geovault_track_pings_processed_total",
			Help: "Location pings processed during track segmentation",
		},
	)
)
