// Package liveness implements the heartbeat-driven eviction sweep:
// instances whose last renewal is older than the configured threshold
// are unregistered from the registry.
package liveness

import (
	"strings"
	"time"

	"github.com/clusterreg/clusterreg/pkg/logger"
	"github.com/clusterreg/clusterreg/pkg/registry"
)

// DefaultPeriod is the default tick interval between sweeps.
const DefaultPeriod = 10 * time.Second

// DefaultThreshold is the default staleness threshold for eviction.
const DefaultThreshold = 20 * time.Second

// Sweeper periodically scans heartbeat timestamps and evicts instances
// whose most recent renewal exceeds Threshold.
type Sweeper struct {
	Store     registry.Store
	Clock     registry.Clock
	Period    time.Duration
	Threshold time.Duration

	stop chan struct{}
	done chan struct{}
}

// NewSweeper builds a Sweeper with the given period/threshold. A zero
// period or threshold falls back to the package defaults.
func NewSweeper(store registry.Store, clock registry.Clock, period, threshold time.Duration) *Sweeper {
	if period <= 0 {
		period = DefaultPeriod
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Sweeper{
		Store:     store,
		Clock:     clock,
		Period:    period,
		Threshold: threshold,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the sweeper's dedicated timer goroutine. It returns
// immediately; call Stop to request cooperative shutdown.
func (s *Sweeper) Start() {
	go s.run()
}

func (s *Sweeper) run() {
	defer close(s.done)
	ticker := time.NewTicker(s.Period)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Stop signals the sweeper to exit and waits for the current tick, if
// any, to finish.
func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}

// Tick runs a single sweep synchronously. Exported so tests and the
// cluster loop's caller can drive deterministic sweeps without waiting
// on the timer.
func (s *Sweeper) Tick() {
	now := s.Clock.NowMillis()
	thresholdMs := s.Threshold.Milliseconds()

	for key, lastMs := range s.Store.Timestamps() {
		if now-lastMs <= thresholdMs {
			continue
		}
		s.evict(key)
	}
}

// evict parses "service@url" and removes the matching instance, if
// any. Malformed keys and misses are logged and skipped; the sweeper
// never terminates on error.
func (s *Sweeper) evict(key string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorw("liveness sweep: recovered from panic processing entry", "key", key, "panic", r)
		}
	}()

	idx := strings.Index(key, "@")
	if idx <= 0 {
		logger.Warnw("liveness sweep: malformed timestamp key, skipping", "key", key)
		return
	}
	service, url := key[:idx], key[idx+1:]

	instances, ok := s.Store.GetAllInstances(service)
	if !ok {
		return
	}
	for _, inst := range instances {
		if inst.URL() == url {
			s.Store.Unregister(service, inst)
			logger.Infow("liveness sweep: evicted stale instance", "service", service, "instance", url)
			return
		}
	}
}
