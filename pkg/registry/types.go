// Package registry implements the replicated in-memory registry state
// machine: the versioned service->instance mapping, heartbeat
// timestamps, and snapshot/restore used for leader-to-follower state
// transfer.
package registry

import "fmt"

// InstanceMeta identifies one service endpoint. Two instances are equal
// iff (Scheme, Host, Port, Context) are pairwise equal; Parameters is
// free-form metadata and is not part of identity.
type InstanceMeta struct {
	Scheme     string            `json:"scheme"`
	Host       string            `json:"host"`
	Port       int               `json:"port"`
	Context    string            `json:"context"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

// Equal reports whether two instances share the same identity.
func (m InstanceMeta) Equal(other InstanceMeta) bool {
	return m.Scheme == other.Scheme &&
		m.Host == other.Host &&
		m.Port == other.Port &&
		m.Context == other.Context
}

// URL renders the canonical "scheme://host:port/context" form used in
// timestamp keys. This form must stay stable since followers and the
// sweeper key off it.
func (m InstanceMeta) URL() string {
	return fmt.Sprintf("%s://%s:%d/%s", m.Scheme, m.Host, m.Port, m.Context)
}

// timestampKey builds the "service@instanceURL" key used by Timestamps.
func timestampKey(service string, instance InstanceMeta) string {
	return service + "@" + instance.URL()
}
