// Package networking supplies the local-address resolution and bounded
// HTTP client collaborators the cluster control plane depends on.
package networking

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ResolveLocalIP returns the first non-loopback IPv4 address found on
// the host's network interfaces, used once at ClusterView construction
// to rewrite "localhost"/"127.0.0.1" peer URLs.
func ResolveLocalIP() (string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", fmt.Errorf("resolve local IP: %w", err)
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4.String(), nil
		}
	}
	return "", fmt.Errorf("resolve local IP: no non-loopback IPv4 address found")
}

// IsLocalhostHost reports whether host is a localhost-style hostname
// ("localhost", "127.0.0.1", or "::1").
func IsLocalhostHost(host string) bool {
	switch strings.ToLower(host) {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}

// RewriteLocalhost replaces a "localhost"/"127.0.0.1"/"::1" host component of
// rawURL with resolvedIP, leaving any other URL untouched. Malformed
// URLs are returned unchanged.
func RewriteLocalhost(rawURL, resolvedIP string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	host := u.Hostname()
	if !IsLocalhostHost(host) {
		return rawURL
	}
	if port := u.Port(); port != "" {
		u.Host = net.JoinHostPort(resolvedIP, port)
	} else {
		u.Host = resolvedIP
	}
	return u.String()
}
