// Package realtime fans new notifications out to connected clients over NATS.
// Publishing is best-effort: the notification is already persisted, so a
// failed publish only delays delivery until the client next polls.
package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dalemusser/crmhub/internal/domain/models"
	"github.com/nats-io/nats.go"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Publisher delivers a persisted notification to its recipient's channel.
type Publisher interface {
	Publish(ctx context.Context, n models.Notification) error
	Close()
}

// Event is the payload published for each notification.
type Event struct {
	Type         string              `json:"type"`
	Notification models.Notification `json:"notification"`
}

// EventNotificationCreated is the Event.Type for new notifications.
const EventNotificationCreated = "notification.created"

// Encode renders the wire payload for n.
func Encode(n models.Notification) ([]byte, error) {
	return json.Marshal(Event{Type: EventNotificationCreated, Notification: n})
}

// Subject returns the per-recipient subject, e.g. "crmhub.notifications.<hex id>".
func Subject(prefix string, recipient primitive.ObjectID) string {
	return prefix + "." + recipient.Hex()
}

// NATSPublisher publishes to core NATS subjects.
type NATSPublisher struct {
	nc     *nats.Conn
	prefix string
	log    *zap.Logger
}

// ConnectNATS dials url and returns a publisher that reconnects forever.
func ConnectNATS(url, prefix string, logger *zap.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("crmhub"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, err
	}
	logger.Info("connected to nats", zap.String("url", nc.ConnectedUrl()), zap.String("subject_prefix", prefix))
	return &NATSPublisher{nc: nc, prefix: prefix, log: logger}, nil
}

// Publish sends n on the recipient's subject.
func (p *NATSPublisher) Publish(ctx context.Context, n models.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(n)
	if err != nil {
		return err
	}
	return p.nc.Publish(Subject(p.prefix, n.Recipient), data)
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() {
	if err := p.nc.Drain(); err != nil {
		p.log.Warn("nats drain failed", zap.Error(err))
		p.nc.Close()
	}
}

// Nop discards every notification. It is used when no NATS URL is configured.
type Nop struct{}

func (Nop) Publish(context.Context, models.Notification) error { return nil }
func (Nop) Close() {}
