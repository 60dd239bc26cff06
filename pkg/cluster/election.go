package cluster

import (
	"hash/fnv"
	"sort"
)

// Election computes a deterministic leader selection: the member of
// View.Online() with the smallest hash of its URL, ties broken by
// lexicographic URL order. All peers compute identical inputs (when
// reachability is symmetric) and converge to the same result without
// exchanging votes.
type Election struct {
	View *View
}

// NewElection builds an Election bound to view.
func NewElection(view *View) *Election {
	return &Election{View: view}
}

func hashURL(url string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(url))
	return h.Sum64()
}

// ShouldReelect reports whether a new leader selection is due: no
// current leader, the current leader's Status is false, or more than
// one Server has Leader=true (a pathological flag set the algorithm
// repairs).
func (e *Election) ShouldReelect() bool {
	servers := e.View.Servers()
	leaderCount := 0
	var leaderStatus bool
	for _, s := range servers {
		if s.Leader {
			leaderCount++
			leaderStatus = s.Status
		}
	}
	if leaderCount == 0 {
		return true
	}
	if leaderCount > 1 {
		return true
	}
	return !leaderStatus
}

// pick returns the winning URL among candidates (smallest hash, ties
// broken lexicographically), or "" if candidates is empty.
func pick(candidates []Server) string {
	if len(candidates) == 0 {
		return ""
	}
	sort.Slice(candidates, func(i, j int) bool {
		hi, hj := hashURL(candidates[i].URL), hashURL(candidates[j].URL)
		if hi != hj {
			return hi < hj
		}
		return candidates[i].URL < candidates[j].URL
	})
	return candidates[0].URL
}

// ElectLeader computes the winner from View.Online() and installs it
// via View.SetLeader. If no peer is online, clears the leader and
// returns "", false.
func (e *Election) ElectLeader() (string, bool) {
	online := e.View.Online()
	winner := pick(online)
	if winner == "" {
		e.View.SetLeader("")
		return "", false
	}
	e.View.SetLeader(winner)
	return winner, true
}
