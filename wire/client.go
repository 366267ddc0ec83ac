package wire

import (
	"context"
	"net"
	"time"
)

// Client issues one-shot command requests: connect, send one envelope,
// receive one response, close. Every call sets explicit dial and I/O
// deadlines; the protocol itself provides no timeout, so an unset
// deadline here could hang a node's serving thread on a stalled peer.
type Client struct {
	// DialTimeout bounds connection establishment. Zero means the
	// default of 5 seconds.
	DialTimeout time.Duration
	// IOTimeout bounds the whole send/receive exchange after the
	// connection is up. Zero means the default of 10 seconds.
	IOTimeout time.Duration
}

const (
	defaultDialTimeout = 5 * time.Second
	defaultIOTimeout   = 10 * time.Second
)

// Call sends command/payload to addr and returns the raw response body.
// The response shape is command-specific; callers decode it themselves.
func (c *Client) Call(ctx context.Context, addr string, command string, payload any) ([]byte, error) {
	body, err := EncodeRequest(command, payload)
	if err != nil {
		return nil, err
	}

	dialTimeout := c.DialTimeout
	if dialTimeout == 0 {
		dialTimeout = defaultDialTimeout
	}
	d := net.Dialer{Timeout: dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &Error{Kind: KindClosed, Op: "send", Err: err}
	}
	defer conn.Close()

	ioTimeout := c.IOTimeout
	if ioTimeout == 0 {
		ioTimeout = defaultIOTimeout
	}
	deadline := time.Now().Add(ioTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return nil, classify("send", err)
	}

	if err := Send(conn, body); err != nil {
		return nil, err
	}
	return Receive(conn)
}
