package clients

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects published by the monitor. Consumers (dashboards, alerting) attach
// with plain NATS subscriptions; no JetStream stream is required for these
// fire-and-forget notifications.
const (
	SubjectRefuelTriggered = "gaspass.refuel.triggered"
	SubjectScanCompleted   = "gaspass.scan.completed"
	SubjectRelaySubmitted  = "gaspass.relay.submitted"
)

// NATSClient publishes monitor lifecycle events. All publishing is
// best-effort: a NATS outage must never block a scan cycle or a relay
// submission.
type NATSClient struct {
	conn *nats.Conn
}

// NewNATSClient connects with unlimited reconnects so a broker restart does
// not orphan the monitor.
func NewNATSClient(url string) (*NATSClient, error) {
	conn, err := nats.Connect(url,
		nats.Timeout(10*time.Second),
		nats.ReconnectWait(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("⚠️ [NATS] Disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("✅ [NATS] Reconnected to %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSClient{conn: conn}, nil
}

// Publish marshals the event and publishes it on the given subject.
func (c *NATSClient) Publish(subject string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event for %s: %w", subject, err)
	}
	if err := c.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

// Close drains pending publishes and closes the connection.
func (c *NATSClient) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}
