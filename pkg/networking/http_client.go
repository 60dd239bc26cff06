package networking

import (
	"net"
	"net/http"
	"time"
)

// DefaultTimeout is the overall request timeout used for peer probes
// and snapshot fetches: bounded and short so the cluster loop's peer
// connections never stall a tick.
const DefaultTimeout = 500 * time.Millisecond

// HTTPClientBuilder assembles an *http.Client with bounded dial, TLS
// handshake and response-header timeouts using a small fluent builder.
type HTTPClientBuilder struct {
	timeout               time.Duration
	dialTimeout           time.Duration
	tlsHandshakeTimeout   time.Duration
	responseHeaderTimeout time.Duration
}

// NewHTTPClientBuilder returns a builder preloaded with the package
// defaults, appropriate for short-lived intra-cluster calls.
func NewHTTPClientBuilder() *HTTPClientBuilder {
	return &HTTPClientBuilder{
		timeout:               DefaultTimeout,
		dialTimeout:           DefaultTimeout,
		tlsHandshakeTimeout:   DefaultTimeout,
		responseHeaderTimeout: DefaultTimeout,
	}
}

// WithTimeout overrides the overall client timeout.
func (b *HTTPClientBuilder) WithTimeout(d time.Duration) *HTTPClientBuilder {
	b.timeout = d
	return b
}

// Build constructs the *http.Client. Connections are not pooled across
// builder instances; callers should build once and reuse the client.
func (b *HTTPClientBuilder) Build() *http.Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: b.dialTimeout,
		}).DialContext,
		TLSHandshakeTimeout:   b.tlsHandshakeTimeout,
		ResponseHeaderTimeout: b.responseHeaderTimeout,
		MaxIdleConnsPerHost:   8,
	}
	return &http.Client{
		Timeout:   b.timeout,
		Transport: transport,
	}
}
