// Package client implements the two external collaborators the
// cluster control plane depends on: a peer-probe that reports
// reachable/unreachable for a peer URL, and a snapshot-fetch that
// retrieves a peer's snapshot bytes.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/clusterreg/clusterreg/pkg/networking"
)

// DefaultOutboundRate bounds how often this node issues outbound peer
// requests (probes plus snapshot fetches combined), so a large peer
// list can't turn one cluster-loop tick into a request burst.
const DefaultOutboundRate = 20 // requests per second

// DefaultOutboundBurst allows every peer in a default-sized cluster to
// be probed in the same tick without throttling.
const DefaultOutboundBurst = 5

// Prober reports whether a peer at url is reachable.
type Prober interface {
	Probe(ctx context.Context, url string) bool
}

// SnapshotFetcher retrieves a peer's current snapshot as opaque bytes.
type SnapshotFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// PeerClient is the production Prober and SnapshotFetcher, built on a
// single shared *http.Client with bounded timeouts so the cluster loop
// stays bounded in duration.
type PeerClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewPeerClient builds a PeerClient using the networking package's
// default bounded HTTP client builder and the default outbound rate
// limit.
func NewPeerClient() *PeerClient {
	return &PeerClient{
		httpClient: networking.NewHTTPClientBuilder().Build(),
		limiter:    rate.NewLimiter(rate.Limit(DefaultOutboundRate), DefaultOutboundBurst),
	}
}

// NewPeerClientWithHTTPClient builds a PeerClient around an
// already-constructed *http.Client, letting tests substitute one
// pointed at an httptest.Server. The outbound rate limit still
// applies.
func NewPeerClientWithHTTPClient(hc *http.Client) *PeerClient {
	return &PeerClient{
		httpClient: hc,
		limiter:    rate.NewLimiter(rate.Limit(DefaultOutboundRate), DefaultOutboundBurst),
	}
}

// Probe issues GET {url}/info and reports true iff the response status
// is 2xx. Any error (timeout, connection refused, non-2xx, limiter
// wait cancellation) reports unreachable; callers are expected to log
// at the call site.
func (c *PeerClient) Probe(ctx context.Context, url string) bool {
	if err := c.limiter.Wait(ctx); err != nil {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+"/info", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// Fetch issues GET {url}/snapshot and returns the raw response body.
func (c *PeerClient) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait for %s: %w", url, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+"/snapshot", nil)
	if err != nil {
		return nil, fmt.Errorf("build snapshot request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot from %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch snapshot from %s: status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read snapshot body from %s: %w", url, err)
	}
	return body, nil
}

var (
	_ Prober          = (*PeerClient)(nil)
	_ SnapshotFetcher = (*PeerClient)(nil)
)
