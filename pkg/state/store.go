// Package state implements SnapshotStore: periodic durable persistence
// and startup restore of the registry state machine, independent of
// peer replication. Writes are atomic against concurrent readers via
// temp-file-plus-rename, guarded by an on-disk flock so a restart
// racing a save can't observe a torn file.
package state

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	clustererrors "github.com/clusterreg/clusterreg/pkg/errors"
	"github.com/clusterreg/clusterreg/pkg/logger"
	"github.com/clusterreg/clusterreg/pkg/registry"
)

// DefaultInterval is the default durable-save period.
const DefaultInterval = 30 * time.Second

// Store periodically persists a registry.Store's snapshot to Path and
// restores it on startup.
type Store struct {
	Path     string
	Interval time.Duration
	Target   registry.Store

	lock *flock.Flock
	stop chan struct{}
	done chan struct{}
}

// NewStore builds a Store writing to path on the given interval. A
// zero interval falls back to DefaultInterval.
func NewStore(path string, interval time.Duration, target registry.Store) *Store {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Store{
		Path:     path,
		Interval: interval,
		Target:   target,
		lock:     flock.New(path + ".lock"),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Load reads Path, if present, and restores it into Target. A missing
// file is treated as "no prior state" and is not an error.
func (s *Store) Load(_ context.Context) error {
	if err := s.lock.Lock(); err != nil {
		return clustererrors.NewPersistenceError("lock snapshot file", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return clustererrors.NewPersistenceError("read snapshot file", err)
	}

	var snap registry.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return clustererrors.NewSnapshotDecodeError("malformed snapshot file", err)
	}
	s.Target.Restore(snap)
	return nil
}

// Save writes Target's current snapshot to Path atomically: a
// temporary file in the same directory is written and fsynced, then
// renamed over Path.
func (s *Store) Save(_ context.Context) error {
	if err := s.lock.Lock(); err != nil {
		return clustererrors.NewPersistenceError("lock snapshot file", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	snap := s.Target.Snapshot()
	data, err := json.Marshal(snap)
	if err != nil {
		return clustererrors.NewPersistenceError("marshal snapshot", err)
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return clustererrors.NewPersistenceError("create snapshot directory", err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*.tmp")
	if err != nil {
		return clustererrors.NewPersistenceError("create temp snapshot file", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return clustererrors.NewPersistenceError("write temp snapshot file", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return clustererrors.NewPersistenceError("sync temp snapshot file", err)
	}
	if err := tmp.Close(); err != nil {
		return clustererrors.NewPersistenceError("close temp snapshot file", err)
	}
	if err := os.Rename(tmpPath, s.Path); err != nil {
		return clustererrors.NewPersistenceError("rename temp snapshot file into place", err)
	}
	return nil
}

// Start launches the periodic save loop. Read/write errors are logged
// and do not propagate to the caller; the next tick retries.
func (s *Store) Start(ctx context.Context) {
	go s.run(ctx)
}

func (s *Store) run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Save(ctx); err != nil {
				logger.Errorw("snapshot store: periodic save failed", "path", s.Path, "error", err)
			}
		}
	}
}

// Stop signals the periodic loop to exit and waits for it to finish.
// Callers should follow Stop with a final Save to persist last-moment
// state before process exit.
func (s *Store) Stop() {
	close(s.stop)
	<-s.done
}

