// Package cluster implements the cluster control plane around the
// registry state machine: peer membership (ClusterView), deterministic
// leader selection (Election), and the fixed-period driver
// (ClusterLoop) that ties probing, election, and replication together.
package cluster

// Server is one cluster peer. URL is its identity (canonical
// "scheme://host:port"); Status reflects the last probe result;
// Leader marks the currently elected leader; Version is the last
// observed peer version and is purely informational.
type Server struct {
	URL     string `json:"url"`
	Status  bool   `json:"status"`
	Leader  bool   `json:"leader"`
	Version int64  `json:"version"`
}
