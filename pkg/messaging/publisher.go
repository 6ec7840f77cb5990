package messaging

import (
	"context"
)

// CatalogReplacedSubject is the default subject for catalog replacement events.
const CatalogReplacedSubject = "catalog.replaced"

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
