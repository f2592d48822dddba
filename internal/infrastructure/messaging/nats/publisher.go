package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/dreschagin/leafwatch/pkg/logger"
)

// NATSPublisher fans capture and alert events out to NATS JetStream so other
// greenhouse systems can react to them. Implements port.EventPublisher.
type NATSPublisher struct {
	nc      *nats.Conn
	js      nats.JetStreamContext
	subject string
	logger  *logger.Logger
}

// NewNATSPublisher connects to NATS. Subjects published through this
// publisher are prefixed with subjectPrefix.
func NewNATSPublisher(natsURL, subjectPrefix string, log *logger.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(natsURL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Warn("NATS disconnected", "error", err.Error())
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	log.Info("Connected to NATS", "url", natsURL, "subject_prefix", subjectPrefix)

	return &NATSPublisher{
		nc:      nc,
		js:      js,
		subject: strings.TrimSuffix(subjectPrefix, "."),
		logger:  log,
	}, nil
}

// PublishEvent publishes an event asynchronously (fire-and-forget).
func (p *NATSPublisher) PublishEvent(ctx context.Context, subject string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	fullSubject := subject
	if p.subject != "" {
		fullSubject = p.subject + "." + subject
	}

	_, err = p.js.PublishAsync(fullSubject, data)
	if err != nil {
		p.logger.Error("Failed to publish event", err, "subject", fullSubject)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("Event published", "subject", fullSubject, "size", len(data))

	return nil
}

// Close drains pending async publishes and closes the connection.
func (p *NATSPublisher) Close() error {
	if p.nc != nil {
		p.logger.Info("Closing NATS connection")
		select {
		case <-p.js.PublishAsyncComplete():
		case <-time.After(2 * time.Second):
			p.logger.Warn("Timed out waiting for pending NATS publishes")
		}
		p.nc.Close()
	}
	return nil
}
