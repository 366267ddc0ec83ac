// Package wire implements the framed message transport shared by every
// node in the system: a 4-byte big-endian length prefix followed by a
// UTF-8 JSON body, exchanged over one-shot TCP connections. The hub, the
// scooter agents and the web front-ends all speak exactly this framing;
// there is no negotiation and no versioning on the wire.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
)

// MaxFrameSize bounds the declared body length a peer may send. Anything
// larger is treated as a corrupt frame rather than an allocation request.
const MaxFrameSize = 16 << 20

// ErrKind classifies transport failures so callers can pick a retry
// policy without string-matching error text.
type ErrKind int

const (
	// KindTimeout is a read or write deadline expiring mid-frame.
	KindTimeout ErrKind = iota
	// KindClosed is the peer closing the connection before the declared
	// frame length was satisfied, including an immediate close.
	KindClosed
	// KindShortRead is a frame whose declared length could not be
	// satisfied for any other reason.
	KindShortRead
	// KindProtocol is a frame that violates the framing rules themselves,
	// such as a declared length beyond MaxFrameSize.
	KindProtocol
)

func (k ErrKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindClosed:
		return "connection closed"
	case KindShortRead:
		return "short read"
	case KindProtocol:
		return "protocol violation"
	}
	return "unknown"
}

// Error is a transport-level failure. It wraps the underlying network
// error, if any, and records which framing phase failed.
type Error struct {
	Kind ErrKind
	Op   string // "send" or "receive"
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("wire: %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("wire: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Timeout reports whether err is a transport error caused by an expired
// deadline.
func Timeout(err error) bool {
	var we *Error
	return errors.As(err, &we) && we.Kind == KindTimeout
}

func classify(op string, err error) *Error {
	var nerr net.Error
	switch {
	case errors.As(err, &nerr) && nerr.Timeout():
		return &Error{Kind: KindTimeout, Op: op, Err: err}
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, net.ErrClosed):
		return &Error{Kind: KindClosed, Op: op, Err: err}
	default:
		return &Error{Kind: KindShortRead, Op: op, Err: err}
	}
}

// Send writes one frame: the body length as a 4-byte big-endian unsigned
// integer, then the body itself.
func Send(conn io.Writer, body []byte) error {
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(body)))
	if _, err := conn.Write(prefix[:]); err != nil {
		return classify("send", err)
	}
	if len(body) == 0 {
		return nil
	}
	if _, err := conn.Write(body); err != nil {
		return classify("send", err)
	}
	return nil
}

// Receive reads one frame, blocking until the full declared length has
// arrived. Short reads from the connection are reassembled; a peer that
// closes before the declared length is satisfied yields a KindClosed
// error, never a truncated body.
func Receive(conn io.Reader) ([]byte, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(conn, prefix[:]); err != nil {
		return nil, classify("receive", err)
	}
	length := binary.BigEndian.Uint32(prefix[:])
	if length > MaxFrameSize {
		return nil, &Error{Kind: KindProtocol, Op: "receive", Err: fmt.Errorf("declared length %d exceeds limit", length)}
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(conn, body); err != nil {
		return nil, classify("receive", err)
	}
	return body, nil
}
