package nats

import (
	"context"
	"fmt"

	"github.com/abgdnv/menusync/pkg/messaging"
	"github.com/nats-io/nats.go/jetstream"
)

// StreamPublisher is the part of jetstream.JetStream used for publishing.
type StreamPublisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

type NatsPublisher struct {
	js StreamPublisher
}

func NewNatsPublisher(js StreamPublisher) *NatsPublisher {
	return &NatsPublisher{js: js}
}

func (p *NatsPublisher) Publish(ctx context.Context, event messaging.Event) error {
	data, err := event.Payload()
	if err != nil {
		return fmt.Errorf("failed to get event payload: %w", err)
	}
	if _, err = p.js.Publish(ctx, event.Subject(), data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", event.Subject(), err)
	}
	return nil
}
