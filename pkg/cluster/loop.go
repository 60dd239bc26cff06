package cluster

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clusterreg/clusterreg/pkg/client"
	"github.com/clusterreg/clusterreg/pkg/logger"
)

// DefaultPeriod is the default cluster loop tick interval.
const DefaultPeriod = 5 * time.Second

// replicator is the narrow view of pkg/replication.Replicator the loop
// needs. Declared locally (rather than importing pkg/replication) to
// keep cluster free of a dependency on its own consumer.
type replicator interface {
	Tick(ctx context.Context)
}

// Loop is the fixed-period driver: each tick it probes peers,
// reelects if needed, and replicates if this node is a follower.
type Loop struct {
	View       *View
	Election   *Election
	Replicator replicator
	Prober     client.Prober
	Period     time.Duration

	stop chan struct{}
	done chan struct{}
}

// NewLoop builds a Loop. A zero period falls back to DefaultPeriod.
func NewLoop(view *View, election *Election, repl replicator, prober client.Prober, period time.Duration) *Loop {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Loop{
		View:       view,
		Election:   election,
		Replicator: repl,
		Prober:     prober,
		Period:     period,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start launches the loop's dedicated timer goroutine.
func (l *Loop) Start(ctx context.Context) {
	go l.run(ctx)
}

func (l *Loop) run(ctx context.Context) {
	defer close(l.done)
	ticker := time.NewTicker(l.Period)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Tick(ctx)
		}
	}
}

// Stop signals the loop to exit and waits for the in-flight tick, if
// any, to finish.
func (l *Loop) Stop() {
	close(l.stop)
	<-l.done
}

// Tick runs one iteration synchronously: probe peers, elect if
// needed, replicate if follower. Errors in any step are caught,
// logged, and never abort the remaining steps.
func (l *Loop) Tick(ctx context.Context) {
	l.probePeers(ctx)

	func() {
		defer recoverAndLog("election")
		if l.Election.ShouldReelect() {
			l.Election.ElectLeader()
		}
	}()

	func() {
		defer recoverAndLog("replication")
		if l.Replicator != nil {
			l.Replicator.Tick(ctx)
		}
	}()
}

// probePeers probes every non-self peer concurrently, bounded by an
// errgroup so a burst of slow peers can't make a single tick run
// unbounded; each probe itself is already bounded by the networking
// client's short timeout.
func (l *Loop) probePeers(ctx context.Context) {
	defer recoverAndLog("probe")

	self := l.View.SelfURL()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, s := range l.View.Servers() {
		s := s
		if s.URL == self {
			continue
		}
		g.Go(func() error {
			reachable := l.Prober.Probe(gctx, s.URL)
			l.View.SetStatus(s.URL, reachable)
			return nil
		})
	}
	_ = g.Wait()
	l.View.SetStatus(self, true)
}

func recoverAndLog(step string) {
	if r := recover(); r != nil {
		logger.Errorw("cluster loop: recovered from panic", "step", step, "panic", r)
	}
}
