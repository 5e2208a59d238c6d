// Package netcheck provides a best-effort network reachability signal.
package netcheck

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Prober reports whether the network path to the MT endpoint looks usable.
type Prober interface {
	Online(ctx context.Context) bool
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context) bool

func (f ProberFunc) Online(ctx context.Context) bool { return f(ctx) }

// DialProber probes reachability with one TCP dial against the endpoint host.
// Results are cached briefly so a burst of typed input does not turn into a
// burst of dials.
type DialProber struct {
	address string
	timeout time.Duration
	ttl     time.Duration

	mu         sync.Mutex
	lastResult bool
	lastProbe  time.Time
}

// NewDialProber builds a prober for the host of an http(s) endpoint URL.
func NewDialProber(endpoint string) (*DialProber, error) {
	parsed, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return nil, fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}
	host := parsed.Hostname()
	if host == "" {
		return nil, fmt.Errorf("endpoint %q has no host", endpoint)
	}

	port := parsed.Port()
	if port == "" {
		if parsed.Scheme == "http" {
			port = "80"
		} else {
			port = "443"
		}
	}

	return &DialProber{
		address: net.JoinHostPort(host, port),
		timeout: 1500 * time.Millisecond,
		ttl:     5 * time.Second,
	}, nil
}

// Online reports cached reachability, re-probing after the cache TTL so an
// offline verdict is re-checked on the next attempt.
func (p *DialProber) Online(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if time.Since(p.lastProbe) < p.ttl {
		return p.lastResult
	}

	dialer := net.Dialer{Timeout: p.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", p.address)
	if err == nil {
		_ = conn.Close()
	}

	p.lastResult = err == nil
	p.lastProbe = time.Now()
	return p.lastResult
}
