package registry

// Snapshot is an immutable point-in-time copy of the registry state:
// Registry, Versions, Timestamps, plus the SnapshotVersion at export
// time. It is self-describing and restorable without side information.
type Snapshot struct {
	Registry   map[string][]InstanceMeta `json:"REGISTRY"`
	Versions   map[string]int64          `json:"VERSIONS"`
	Timestamps map[string]int64          `json:"TIMESTAMPS"`
	Version    int64                     `json:"version"`
	CreateTime int64                     `json:"createTime"`
}

// clone returns a deep copy so neither the producer nor the consumer
// can observe mutations through a shared reference.
func (s Snapshot) clone() Snapshot {
	reg := make(map[string][]InstanceMeta, len(s.Registry))
	for svc, instances := range s.Registry {
		cp := make([]InstanceMeta, len(instances))
		copy(cp, instances)
		reg[svc] = cp
	}
	versions := make(map[string]int64, len(s.Versions))
	for k, v := range s.Versions {
		versions[k] = v
	}
	timestamps := make(map[string]int64, len(s.Timestamps))
	for k, v := range s.Timestamps {
		timestamps[k] = v
	}
	return Snapshot{
		Registry:   reg,
		Versions:   versions,
		Timestamps: timestamps,
		Version:    s.Version,
		CreateTime: s.CreateTime,
	}
}
