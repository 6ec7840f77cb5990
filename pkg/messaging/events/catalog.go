package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/menusync/pkg/messaging"
	"go.opentelemetry.io/otel/propagation"
)

// CatalogReplacedEvent announces an accepted catalog replacement. It carries no product data;
// consumers that need the catalog fetch it from the REST surface.
type CatalogReplacedEvent struct {
	Carrier      propagation.MapCarrier `json:"carrier,omitempty"`
	Version      uint64                 `json:"version"`
	ProductCount int                    `json:"product_count"`
	ReplacedAt   time.Time              `json:"replaced_at"`

	// subject overrides messaging.CatalogReplacedSubject when set.
	subject string
}

// WithSubject returns a copy of the event published on subject.
func (e CatalogReplacedEvent) WithSubject(subject string) CatalogReplacedEvent {
	e.subject = subject
	return e
}

func (e CatalogReplacedEvent) Subject() string {
	if e.subject != "" {
		return e.subject
	}
	return messaging.CatalogReplacedSubject
}

func (e CatalogReplacedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}
