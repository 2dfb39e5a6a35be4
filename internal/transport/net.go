package transport

import (
	"context"
	"net"
	"time"
)

// Dialer opens connections to servers.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Listener accepts connections from masters.
type Listener = net.Listener

// NewDialer returns a TCP dialer with the given connect timeout and
// keep-alive period. Zero values use the net package defaults.
func NewDialer(timeout, keepAlive time.Duration) Dialer {
	return &net.Dialer{Timeout: timeout, KeepAlive: keepAlive}
}

// Listen opens a TCP listener on address, e.g. ":5000".
func Listen(ctx context.Context, address string) (Listener, error) {
	var lc net.ListenConfig
	return lc.Listen(ctx, "tcp", address)
}

// Dial connects to address over TCP and wraps the connection.
func Dial(ctx context.Context, d Dialer, address string, opts ...Option) (*Stream, error) {
	if d == nil {
		d = NewDialer(0, 0)
	}
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}
	s, err := NewStream(ctx, conn, opts...)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}
