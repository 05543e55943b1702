package httpd

import (
	"context"
	"errors"
	"strings"
	"sync"

	"dqx0.com/go/httpd/internal/obs"
	"dqx0.com/go/httpd/transport"
)

// DialFunc opens a new connection for a Pool.
type DialFunc func(ctx context.Context, a Address, opts transport.Options) (*Client, error)

// Pool keeps idle keep-alive connections per Address, oldest first.
//
// Idle connections are not expired; a connection the peer closed while it
// sat in the pool is detected by a liveness probe on Get and replaced.
type Pool struct {
	Options transport.Options
	Dial    DialFunc // Dial from this package when nil
	Logger  obs.Logger
	Meter   obs.Meter

	mu       sync.Mutex
	idle     map[Address][]*Client
	size     int
	connects int64
}

// PoolStats are counters for monitoring.
type PoolStats struct {
	Connects int64 // connections dialed, including replacements of stale ones
	PoolSize int   // idle connections held right now
}

func NewPool(opts transport.Options) *Pool {
	return &Pool{Options: opts, idle: make(map[Address][]*Client)}
}

// Get returns an idle connection to a if one is alive, and dials a new one
// otherwise. A dial failure is a *transport.ConnectionError.
func (p *Pool) Get(ctx context.Context, a Address) (*Client, error) {
	p.mu.Lock()
	var c *Client
	if list := p.idle[a]; len(list) > 0 {
		c = list[0]
		list[0] = nil
		p.idle[a] = list[1:]
		p.size--
	}
	size := p.size
	p.mu.Unlock()
	p.metricGauge("httpd_pool_size", float64(size))

	if c != nil {
		err := c.Buffer().Endpoint().CheckPeer()
		if err == nil {
			p.metricCounter("httpd_pool_reuse_total", 1)
			return c, nil
		}
		p.logf(obs.Debug, "bad client in pool found for %s: %v", a, err)
		p.metricCounter("httpd_pool_stale_total", 1)
		_ = c.Close()
	}
	return p.dial(ctx, a)
}

func (p *Pool) dial(ctx context.Context, a Address) (*Client, error) {
	p.mu.Lock()
	p.connects++
	p.mu.Unlock()
	p.metricCounter("httpd_pool_connects_total", 1)

	dial := p.Dial
	if dial == nil {
		dial = Dial
	}
	c, err := dial(ctx, a, p.Options)
	if err != nil {
		p.logf(obs.Error, "dial %s failed: %v", a, err)
		return nil, err
	}
	return c, nil
}

// Put returns c to the pool after a completed exchange. hdr are the reply
// headers: a single "connection: close" value means the upstream is about
// to close, so c is closed instead.
func (p *Pool) Put(a Address, c *Client, hdr *Fields) {
	if c == nil {
		return
	}
	if hdr != nil {
		if vv := hdr.Values("connection"); len(vv) == 1 && strings.EqualFold(vv[0], "close") {
			p.logf(obs.Info, "keep-alive connection to %s prematurely closed by response header field", a)
			_ = c.Close()
			return
		}
	}
	p.mu.Lock()
	if p.idle == nil {
		p.idle = make(map[Address][]*Client)
	}
	p.idle[a] = append(p.idle[a], c)
	p.size++
	size := p.size
	p.mu.Unlock()
	p.metricGauge("httpd_pool_size", float64(size))
}

// Do runs one exchange on a pooled connection to a. The connection goes
// back to the pool on success and is closed on any error or when the reply
// body ran to the end of the stream.
func (p *Pool) Do(ctx context.Context, a Address, r *Request) (*Reply, error) {
	c, err := p.Get(ctx, a)
	if err != nil {
		return nil, err
	}
	rep, err := c.Do(r)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	if rep.PeerClosed() {
		_ = c.Close()
		return rep, nil
	}
	p.Put(a, c, &rep.Header)
	return rep, nil
}

func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PoolStats{Connects: p.connects, PoolSize: p.size}
}

// Close closes every idle connection. The pool stays usable.
func (p *Pool) Close() error {
	p.mu.Lock()
	idle := p.idle
	p.idle = make(map[Address][]*Client)
	p.size = 0
	p.mu.Unlock()

	var errs []error
	for _, list := range idle {
		for _, c := range list {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

func (p *Pool) logf(level obs.Level, format string, args ...any) {
	lg := p.Logger
	if lg == nil {
		lg = obs.NopLogger{}
	}
	lg.Logf(level, format, args...)
}

func (p *Pool) meter() obs.Meter {
	if p.Meter != nil {
		return p.Meter
	}
	return obs.NopMeter{}
}

func (p *Pool) metricCounter(name string, value float64, labels ...obs.Label) {
	p.meter().Counter(name, value, labels...)
}

func (p *Pool) metricGauge(name string, value float64, labels ...obs.Label) {
	p.meter().Gauge(name, value, labels...)
}
