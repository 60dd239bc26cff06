// Package replication implements leader-to-follower snapshot-based
// state transfer. The leader side is just Store.Snapshot(), served by
// the HTTP transport; this package implements the follower-side
// pull-and-restore step and the wire encoding shared by both sides.
package replication

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/clusterreg/clusterreg/pkg/client"
	"github.com/clusterreg/clusterreg/pkg/cluster"
	clustererrors "github.com/clusterreg/clusterreg/pkg/errors"
	"github.com/clusterreg/clusterreg/pkg/logger"
	"github.com/clusterreg/clusterreg/pkg/registry"
)

// EncodeSnapshot renders a Snapshot as its wire JSON format.
func EncodeSnapshot(snap registry.Snapshot) ([]byte, error) {
	b, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return b, nil
}

// DecodeSnapshot parses the wire JSON format into a Snapshot.
func DecodeSnapshot(data []byte) (registry.Snapshot, error) {
	var snap registry.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return registry.Snapshot{}, clustererrors.NewSnapshotDecodeError("malformed snapshot payload", err)
	}
	return snap, nil
}

// Replicator drives the follower-side snapshot pull. It never mutates
// Registry directly; it only calls Store.Restore.
type Replicator struct {
	Store   registry.Store
	View    *cluster.View
	Fetcher client.SnapshotFetcher
	flight  singleflight.Group
}

// NewReplicator builds a Replicator.
func NewReplicator(store registry.Store, view *cluster.View, fetcher client.SnapshotFetcher) *Replicator {
	return &Replicator{Store: store, View: view, Fetcher: fetcher}
}

// Tick runs one follower-side replication step. It is a no-op when
// this node is the leader, or when no leader is currently known or
// online. Fetch failures and malformed payloads are logged and
// treated as a no-op tick.
func (r *Replicator) Tick(ctx context.Context) {
	if r.View.IsLeader() {
		return
	}
	leader, ok := r.View.Leader()
	if !ok || !leader.Status {
		return
	}

	// singleflight collapses concurrent ticks (e.g. a manual trigger
	// racing the periodic one) into a single fetch per leader URL.
	v, err, _ := r.flight.Do(leader.URL, func() (interface{}, error) {
		return r.Fetcher.Fetch(ctx, leader.URL)
	})
	if err != nil {
		logger.Warnw("replication: snapshot fetch failed", "leader", leader.URL, "error", err)
		return
	}
	body, _ := v.([]byte)
	if len(body) == 0 {
		logger.Warnw("replication: empty snapshot payload", "leader", leader.URL)
		return
	}

	snap, err := DecodeSnapshot(body)
	if err != nil {
		logger.Warnw("replication: malformed snapshot payload", "leader", leader.URL, "error", err)
		return
	}

	localV := r.Store.Snapshot().Version
	if snap.Version <= localV {
		return
	}

	r.Store.Restore(snap)
	r.View.SetVersion(leader.URL, snap.Version)
	logger.Infow("replication: restored snapshot from leader", "leader", leader.URL, "version", snap.Version)
}
