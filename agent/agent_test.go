package agent

import (
	"log/slog"
	"net"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"github.com/semanticallynull/scootershare/scooter"
	"github.com/semanticallynull/scootershare/wire"
)

// fakeDisplay records what the handlebar screen would show.
type fakeDisplay struct {
	mu       sync.Mutex
	statuses []scooter.Status
	flashes  []string
}

func (d *fakeDisplay) ShowStatus(status scooter.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.statuses = append(d.statuses, status)
}

func (d *fakeDisplay) Flash(message string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.flashes = append(d.flashes, message)
}

func (d *fakeDisplay) shown() []scooter.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]scooter.Status(nil), d.statuses...)
}

func (d *fakeDisplay) flashed() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.flashes...)
}

// fakeHub answers hub commands with canned responses and records what
// it was asked.
type fakeHub struct {
	mu        sync.Mutex
	responses map[string]any
	commands  []string

	// stall, when set, holds every response until the channel closes.
	stall chan struct{}
}

func (f *fakeHub) record(command string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, command)
}

func (f *fakeHub) received() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

func startFakeHub(t *testing.T, f *fakeHub) string {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { lis.Close() })

	go func() {
		for {
			conn, err := lis.Accept()
			if err != nil {
				return
			}
			func() {
				defer conn.Close()
				body, err := wire.Receive(conn)
				if err != nil {
					return
				}
				req, err := wire.DecodeRequest(body)
				if err != nil {
					return
				}
				f.record(req.Command)
				if f.stall != nil {
					<-f.stall
				}

				f.mu.Lock()
				out, ok := f.responses[req.Command]
				f.mu.Unlock()
				if !ok {
					wire.Send(conn, wire.ErrorBody("Unknown command"))
					return
				}
				resp, _ := json.Marshal(out)
				wire.Send(conn, resp)
			}()
		}
	}()

	return lis.Addr().String()
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
