package hub

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/semanticallynull/scootershare/scooter"
	"github.com/semanticallynull/scootershare/wire"
)

// AgentClient pushes hub-originated commands to scooter agents over the
// framed transport. Agents are on flaky radio links, so the per-call
// timeouts are short.
type AgentClient struct {
	client *wire.Client
}

func NewAgentClient() *AgentClient {
	return &AgentClient{
		client: &wire.Client{
			DialTimeout: 3 * time.Second,
			IOTimeout:   5 * time.Second,
		},
	}
}

func (a *AgentClient) PushStatus(ctx context.Context, addr string, status scooter.Status) error {
	resp, err := a.client.Call(ctx, addr, "USS", map[string]scooter.Status{"status": status})
	if err != nil {
		return err
	}
	return agentError(resp)
}

func (a *AgentClient) Locate(ctx context.Context, addr string) error {
	resp, err := a.client.Call(ctx, addr, "FMS", nil)
	if err != nil {
		return err
	}
	return agentError(resp)
}

func agentError(resp []byte) error {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(resp, &body); err != nil {
		return fmt.Errorf("hub: malformed agent response: %w", err)
	}
	if body.Error != "" {
		return fmt.Errorf("hub: agent rejected command: %s", body.Error)
	}
	return nil
}
