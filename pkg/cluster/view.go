package cluster

import (
	"strings"
	"sync"

	"github.com/clusterreg/clusterreg/pkg/networking"
)

// View holds the fixed-size peer membership for this node's cluster
// and tracks the mutable status/leader/version fields. It is safe for
// concurrent use.
type View struct {
	mu      sync.RWMutex
	servers []*Server
	selfURL string
}

// NewView builds a View from a configured peer list and this node's
// own URL, rewriting "localhost"/"127.0.0.1" peers to the resolved
// local IP. localIP is typically produced by networking.ResolveLocalIP;
// it is taken as a parameter so callers can skip resolution in tests.
func NewView(peerURLs []string, myURL string, localIP string) *View {
	v := &View{}

	rewrite := func(u string) string {
		if localIP == "" {
			return u
		}
		return networking.RewriteLocalhost(u, localIP)
	}

	selfFound := false
	for _, raw := range peerURLs {
		u := rewrite(raw)
		v.servers = append(v.servers, &Server{URL: u, Status: true, Leader: false})
		if localIP != "" && hostOf(u) == localIP {
			selfFound = true
			v.selfURL = u
		}
	}

	if !selfFound {
		self := rewrite(myURL)
		v.selfURL = self
		if _, ok := v.findLocked(self); !ok {
			v.servers = append(v.servers, &Server{URL: self, Status: true, Leader: false})
		}
	}

	return v
}

func hostOf(rawURL string) string {
	// URLs here are always "scheme://host:port" in canonical form;
	// avoid a full net/url.Parse for this hot, simple case.
	rest := rawURL
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	if i := strings.LastIndex(rest, ":"); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

func (v *View) findLocked(url string) (*Server, bool) {
	for _, s := range v.servers {
		if s.URL == url {
			return s, true
		}
	}
	return nil, false
}

// Servers returns a snapshot copy of every known peer.
func (v *View) Servers() []Server {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]Server, len(v.servers))
	for i, s := range v.servers {
		out[i] = *s
	}
	return out
}

// Online returns the subset of Servers with Status == true.
func (v *View) Online() []Server {
	all := v.Servers()
	out := make([]Server, 0, len(all))
	for _, s := range all {
		if s.Status {
			out = append(out, s)
		}
	}
	return out
}

// Self returns this node's own Server entry.
func (v *View) Self() Server {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if s, ok := v.findLocked(v.selfURL); ok {
		return *s
	}
	return Server{URL: v.selfURL, Status: true}
}

// SelfURL returns this node's canonical URL.
func (v *View) SelfURL() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.selfURL
}

// Leader returns the current leader Server, if any.
func (v *View) Leader() (Server, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, s := range v.servers {
		if s.Leader {
			return *s, true
		}
	}
	return Server{}, false
}

// IsLeader reports whether this node is currently the leader. It
// implements registry.LeaderChecker.
func (v *View) IsLeader() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if s, ok := v.findLocked(v.selfURL); ok {
		return s.Leader
	}
	return false
}

// LeaderURL returns the current leader's URL, or "" if none. It
// implements registry.LeaderChecker.
func (v *View) LeaderURL() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, s := range v.servers {
		if s.Leader {
			return s.URL
		}
	}
	return ""
}

// SetLeader clears Leader on every Server, then sets it on the Server
// matching url. Passing "" clears the leader entirely.
func (v *View) SetLeader(url string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, s := range v.servers {
		s.Leader = s.URL == url && url != ""
	}
}

// SetStatus records the result of probing the peer at url. The self
// server's status is always forced to true regardless of what is
// passed.
func (v *View) SetStatus(url string, status bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	s, ok := v.findLocked(url)
	if !ok {
		return
	}
	if url == v.selfURL {
		s.Status = true
		return
	}
	s.Status = status
}

// SetVersion records the last observed version for the peer at url.
func (v *View) SetVersion(url string, version int64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if s, ok := v.findLocked(url); ok {
		s.Version = version
	}
}

// ByURL looks up a Server by its URL.
func (v *View) ByURL(url string) (Server, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if s, ok := v.findLocked(url); ok {
		return *s, true
	}
	return Server{}, false
}
