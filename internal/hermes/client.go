// Package hermes wraps the swarm NATS bus. Warden consumes component
// update events from the pipeline and announces gating changes so
// automation executors learn about them without polling.
package hermes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects warden consumes and emits on the swarm bus.
const (
	// SubjectComponentUpdated is published by the pipeline whenever a
	// tenant's component scores are refreshed.
	SubjectComponentUpdated = "swarm.signals.component.updated"

	// SubjectModeChanged announces an autopilot mode transition.
	SubjectModeChanged = "swarm.warden.mode.changed"

	// SubjectOverrideSet and SubjectOverrideCleared announce operator
	// override activity.
	SubjectOverrideSet     = "swarm.warden.override.set"
	SubjectOverrideCleared = "swarm.warden.override.cleared"
)

// ComponentUpdateEvent is the pipeline's refresh notification. Warden
// re-evaluates the tenant on receipt rather than waiting for the next
// cadence tick.
type ComponentUpdateEvent struct {
	TenantID  string  `json:"tenant_id"`
	Component string  `json:"component"`
	Value     float64 `json:"value"`
	UpdatedAt string  `json:"updated_at"`
}

// ModeChangeEvent announces an autopilot mode transition for a tenant.
type ModeChangeEvent struct {
	TenantID  string `json:"tenant_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Band      string `json:"band"`
	Composite int    `json:"composite"`
	Stale     bool   `json:"stale,omitempty"`
	At        string `json:"at"`
}

// OverrideEvent announces an operator override being set or cleared.
type OverrideEvent struct {
	TenantID string `json:"tenant_id"`
	Mode     string `json:"mode,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Operator string `json:"operator,omitempty"`
	At       string `json:"at"`
}

type Client struct {
	conn   *nats.Conn
	subs   []*nats.Subscription
	logger *slog.Logger
}

func NewClient(ctx context.Context, url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

func (c *Client) Subscribe(subject string, handler func(subject string, data []byte)) error {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	c.logger.Info("subscribed", "subject", subject)
	return nil
}

func (c *Client) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	c.conn.Close()
}
