package registry

import "sync"

// Store is the tagged abstraction over the registry state machine. It
// exists so the HTTP transport, the write-admission layer, and tests
// can depend on an interface rather than the concrete StateMachine.
type Store interface {
	Register(service string, instance InstanceMeta) InstanceMeta
	Unregister(service string, instance InstanceMeta) InstanceMeta
	GetAllInstances(service string) ([]InstanceMeta, bool)
	Renew(service string, instance InstanceMeta) InstanceMeta
	Renews(services []string, instance InstanceMeta) InstanceMeta
	Version(service string) int64
	Versions(services []string) map[string]int64
	Timestamps() map[string]int64
	Snapshot() Snapshot
	Restore(snap Snapshot)
}

// StateMachine is the only authority over Registry, Timestamps,
// Versions, GlobalVersion and SnapshotVersion. Mutating operations
// (Register, Unregister, Renew, Renews, Snapshot, Restore) are
// serialized against each other with mu. Timestamps additionally lives
// behind its own RWMutex so the liveness sweeper's reads never take mu;
// they wait only on the brief timestamp writes of Renew/Renews.
type StateMachine struct {
	clock Clock

	mu       sync.Mutex
	registry map[string][]InstanceMeta
	versions map[string]int64

	globalVersion   int64
	snapshotVersion int64

	tsMu       sync.RWMutex
	timestamps map[string]int64
}

// NewStateMachine builds an empty state machine using the given clock.
func NewStateMachine(clock Clock) *StateMachine {
	if clock == nil {
		clock = SystemClock{}
	}
	return &StateMachine{
		clock:      clock,
		registry:   make(map[string][]InstanceMeta),
		versions:   make(map[string]int64),
		timestamps: make(map[string]int64),
	}
}

// Register appends instance to service's sequence if no equal instance
// is already present; otherwise it is a no-op. Does not touch
// Timestamps, Versions, or GlobalVersion.
func (s *StateMachine) Register(service string, instance InstanceMeta) InstanceMeta {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.registry[service]
	for _, i := range existing {
		if i.Equal(instance) {
			return i
		}
	}
	s.registry[service] = append(existing, instance)
	return instance
}

// Unregister removes instance from service's sequence if present.
// Unknown service or absent instance is a silent success. Does not
// touch Timestamps or Versions.
func (s *StateMachine) Unregister(service string, instance InstanceMeta) InstanceMeta {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.registry[service]
	if !ok {
		return instance
	}
	for i, cur := range existing {
		if cur.Equal(instance) {
			s.registry[service] = append(existing[:i:i], existing[i+1:]...)
			break
		}
	}
	return instance
}

// GetAllInstances returns the current sequence for service. The second
// return value is false when the service has never been registered,
// distinguishing "absent" from "present and empty".
func (s *StateMachine) GetAllInstances(service string) ([]InstanceMeta, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.registry[service]
	if !ok {
		return nil, false
	}
	out := make([]InstanceMeta, len(existing))
	copy(out, existing)
	return out, true
}

// Renew writes a heartbeat timestamp for (service, instance), bumps
// Versions[service] by one, and bumps GlobalVersion by one. Does not
// verify that the instance is registered.
func (s *StateMachine) Renew(service string, instance InstanceMeta) InstanceMeta {
	s.mu.Lock()
	s.versions[service]++
	s.globalVersion++
	s.mu.Unlock()

	s.tsMu.Lock()
	s.timestamps[timestampKey(service, instance)] = s.clock.NowMillis()
	s.tsMu.Unlock()

	return instance
}

// Renews performs the per-service work of Renew for every service in
// the batch, but bumps GlobalVersion exactly once for the whole call.
func (s *StateMachine) Renews(services []string, instance InstanceMeta) InstanceMeta {
	now := s.clock.NowMillis()

	s.mu.Lock()
	for _, service := range services {
		s.versions[service]++
	}
	s.globalVersion++
	s.mu.Unlock()

	s.tsMu.Lock()
	for _, service := range services {
		s.timestamps[timestampKey(service, instance)] = now
	}
	s.tsMu.Unlock()

	return instance
}

// Version returns Versions[service], or 0 if absent.
func (s *StateMachine) Version(service string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.versions[service]
}

// Versions returns Versions[service] for each requested service, 0 if absent.
func (s *StateMachine) Versions(services []string) map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(services))
	for _, service := range services {
		out[service] = s.versions[service]
	}
	return out
}

// Timestamps returns a snapshot view of the heartbeat timestamps,
// keyed by "service@instanceURL".
func (s *StateMachine) Timestamps() map[string]int64 {
	s.tsMu.RLock()
	defer s.tsMu.RUnlock()
	out := make(map[string]int64, len(s.timestamps))
	for k, v := range s.timestamps {
		out[k] = v
	}
	return out
}

// Snapshot increments SnapshotVersion and returns an immutable deep
// copy of Registry, Versions, and Timestamps at that version.
func (s *StateMachine) Snapshot() Snapshot {
	now := s.clock.NowMillis()

	s.mu.Lock()
	s.snapshotVersion++
	reg := make(map[string][]InstanceMeta, len(s.registry))
	for svc, instances := range s.registry {
		cp := make([]InstanceMeta, len(instances))
		copy(cp, instances)
		reg[svc] = cp
	}
	versions := make(map[string]int64, len(s.versions))
	for k, v := range s.versions {
		versions[k] = v
	}
	version := s.snapshotVersion
	s.mu.Unlock()

	return Snapshot{
		Registry:   reg,
		Versions:   versions,
		Timestamps: s.Timestamps(),
		Version:    version,
		CreateTime: now,
	}
}

// Restore clears Registry, Versions, Timestamps and replaces them with
// snap's contents. SnapshotVersion becomes snap.Version exactly;
// GlobalVersion becomes max(GlobalVersion, snap.Version).
func (s *StateMachine) Restore(snap Snapshot) {
	cp := snap.clone()

	s.mu.Lock()
	s.registry = cp.Registry
	s.versions = cp.Versions
	s.snapshotVersion = cp.Version
	if cp.Version > s.globalVersion {
		s.globalVersion = cp.Version
	}
	s.mu.Unlock()

	s.tsMu.Lock()
	s.timestamps = cp.Timestamps
	s.tsMu.Unlock()
}

// GlobalVersion returns the current global version counter.
func (s *StateMachine) GlobalVersion() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.globalVersion
}

var _ Store = (*StateMachine)(nil)
