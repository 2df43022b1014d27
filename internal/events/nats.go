package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"filestorage/internal/domain/services"
)

// JetStreamContext is the subset of nats.JetStreamContext the publisher uses.
type JetStreamContext interface {
	StreamInfo(stream string, opts ...nats.JSOpt) (*nats.StreamInfo, error)
	AddStream(cfg *nats.StreamConfig, opts ...nats.JSOpt) (*nats.StreamInfo, error)
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// NATSPublisher publishes JSON events to a JetStream stream.
type NATSPublisher struct {
	conn   *nats.Conn
	js     JetStreamContext
	logger *slog.Logger
}

var _ services.EventPublisher = (*NATSPublisher)(nil)

// Connect dials NATS, enables JetStream and ensures the stream exists.
func Connect(url, stream string, logger *slog.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("filestorage"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("init jetstream: %w", err)
	}

	p := &NATSPublisher{conn: conn, js: js, logger: logger}
	if err := p.ensureStream(stream); err != nil {
		conn.Close()
		return nil, err
	}

	logger.Info("nats connected", "url", conn.ConnectedUrl(), "stream", stream)
	return p, nil
}

// NewNATSPublisher wraps an existing JetStream context.
func NewNATSPublisher(js JetStreamContext, logger *slog.Logger) *NATSPublisher {
	return &NATSPublisher{js: js, logger: logger}
}

func (p *NATSPublisher) ensureStream(stream string) error {
	_, err := p.js.StreamInfo(stream)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("stream info %s: %w", stream, err)
	}

	_, err = p.js.AddStream(&nats.StreamConfig{
		Name:     stream,
		Subjects: []string{"users.*", "folders.*", "files.*"},
		Storage:  nats.FileStorage,
		MaxAge:   30 * 24 * time.Hour,
	})
	if err != nil {
		return fmt.Errorf("add stream %s: %w", stream, err)
	}
	return nil
}

// Publish marshals payload and publishes it with a unique message id so
// JetStream can deduplicate retries.
func (p *NATSPublisher) Publish(ctx context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if _, err := p.js.Publish(subject, data, nats.MsgId(uuid.NewString()), nats.Context(ctx)); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	p.logger.Debug("event published", "subject", subject)
	return nil
}

// Close drains the connection.
func (p *NATSPublisher) Close() {
	if p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn("nats drain failed", "error", err)
	}
}
