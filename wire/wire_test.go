package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"net"
	"testing"
	"time"
)

func TestSendReceiveRoundTrip(t *testing.T) {
	bodies := [][]byte{
		[]byte{},
		[]byte("x"),
		[]byte(`{"command":"GAS","payload":{}}`),
		bytes.Repeat([]byte("scooter"), 1024),
	}

	for _, body := range bodies {
		client, server := net.Pipe()

		sendErr := make(chan error, 1)
		go func() {
			sendErr <- Send(client, body)
		}()

		got, err := Receive(server)
		if serr := <-sendErr; serr != nil {
			t.Fatalf("Send(%d bytes): %v", len(body), serr)
		}
		client.Close()
		server.Close()
		if err != nil {
			t.Fatalf("Receive(%d bytes): %v", len(body), err)
		}
		if !bytes.Equal(got, body) {
			t.Fatalf("Receive returned %q, want %q", got, body)
		}
	}
}

// strictWriter rejects zero-length writes, as some transports do.
type strictWriter struct {
	buf bytes.Buffer
}

func (w *strictWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, errors.New("zero-length write")
	}
	return w.buf.Write(p)
}

func TestSendEmptyBodyWritesOnlyPrefix(t *testing.T) {
	w := &strictWriter{}
	if err := Send(w, nil); err != nil {
		t.Fatalf("Send(empty): %v", err)
	}
	want := []byte{0, 0, 0, 0}
	if !bytes.Equal(w.buf.Bytes(), want) {
		t.Fatalf("framed bytes = %v, want bare zero prefix %v", w.buf.Bytes(), want)
	}
}

// chunkedConn delivers reads one byte at a time, forcing Receive to
// reassemble partial reads.
type chunkedConn struct {
	buf *bytes.Buffer
}

func (c *chunkedConn) Read(p []byte) (int, error) {
	if len(p) > 1 {
		p = p[:1]
	}
	return c.buf.Read(p)
}

func TestReceiveReassemblesChunks(t *testing.T) {
	body := []byte(`{"command":"USS","payload":{"status":"Booked"}}`)

	var framed bytes.Buffer
	if err := Send(&framed, body); err != nil {
		t.Fatalf("Send: %v", err)
	}

	got, err := Receive(&chunkedConn{buf: &framed})
	if err != nil {
		t.Fatalf("Receive over 1-byte chunks: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Fatalf("Receive returned %q, want %q", got, body)
	}
}

func TestReceivePeerClosedMidFrame(t *testing.T) {
	// Declare 100 bytes but deliver only 10.
	var framed bytes.Buffer
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], 100)
	framed.Write(prefix[:])
	framed.Write(bytes.Repeat([]byte("a"), 10))

	_, err := Receive(&framed)
	var werr *Error
	if !errors.As(err, &werr) {
		t.Fatalf("Receive returned %v, want *wire.Error", err)
	}
	if werr.Kind != KindClosed {
		t.Fatalf("Kind = %v, want KindClosed", werr.Kind)
	}
}

func TestReceiveRejectsOversizedFrame(t *testing.T) {
	var framed bytes.Buffer
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], MaxFrameSize+1)
	framed.Write(prefix[:])

	_, err := Receive(&framed)
	var werr *Error
	if !errors.As(err, &werr) || werr.Kind != KindProtocol {
		t.Fatalf("Receive returned %v, want KindProtocol error", err)
	}
}

func TestReceiveTimeout(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	server.SetReadDeadline(time.Now().Add(20 * time.Millisecond))

	_, err := Receive(server)
	if !Timeout(err) {
		t.Fatalf("Receive on stalled conn returned %v, want timeout", err)
	}
}

func TestPrefixIsBigEndian(t *testing.T) {
	var framed bytes.Buffer
	if err := Send(&framed, []byte("abcd")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	want := []byte{0, 0, 0, 4, 'a', 'b', 'c', 'd'}
	if !bytes.Equal(framed.Bytes(), want) {
		t.Fatalf("framed bytes = %v, want %v", framed.Bytes(), want)
	}
}
