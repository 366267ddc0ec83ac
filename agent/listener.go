package agent

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/goccy/go-json"

	"github.com/semanticallynull/scootershare/scooter"
	"github.com/semanticallynull/scootershare/wire"
)

// Listener serves hub pushes on the agent port. Like the hub it serves
// one connection at a time; the hub never has more than one outstanding
// push per scooter.
type Listener struct {
	Log   *slog.Logger
	State *State
}

const connTimeout = 10 * time.Second

func (l *Listener) Serve(ctx context.Context, lis net.Listener) error {
	go func() {
		<-ctx.Done()
		lis.Close()
	}()

	for {
		conn, err := lis.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("agent: accept: %w", err)
		}
		l.handleConn(conn)
	}
}

func (l *Listener) handleConn(conn net.Conn) {
	defer conn.Close()

	log := l.Log.With(slog.String("remote", conn.RemoteAddr().String()))

	if err := conn.SetDeadline(time.Now().Add(connTimeout)); err != nil {
		log.Error("failed to set connection deadline", "error", err)
		return
	}

	body, err := wire.Receive(conn)
	if err != nil {
		log.Error("failed to receive hub push", "error", err)
		return
	}
	req, err := wire.DecodeRequest(body)
	if err != nil {
		log.Error("failed to decode hub push", "error", err)
		return
	}

	resp := l.dispatch(log, req)
	if err := wire.Send(conn, resp); err != nil {
		log.Error("failed to send response", "command", req.Command, "error", err)
	}
}

func (l *Listener) dispatch(log *slog.Logger, req wire.Request) []byte {
	switch req.Command {
	case "FMS":
		log.Info("find-my-scooter requested")
		l.State.Flash()
		return mustMarshal(map[string]string{"message": "success"})

	case "USS":
		var body struct {
			Status scooter.Status `json:"status"`
		}
		if err := json.Unmarshal(req.Payload, &body); err != nil {
			return wire.ErrorBody("invalid payload")
		}
		if err := l.State.ApplyStatus(body.Status); err != nil {
			return wire.ErrorBody(fmt.Sprintf("invalid status: %s", body.Status))
		}
		log.Info("status updated by hub", "status", body.Status)
		return mustMarshal(map[string]string{"message": "success"})

	default:
		log.Warn("unknown command", "command", req.Command)
		return wire.ErrorBody("Unknown command")
	}
}

func mustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
