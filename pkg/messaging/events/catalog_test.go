package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/abgdnv/menusync/pkg/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogReplacedEvent(t *testing.T) {
	replacedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	event := CatalogReplacedEvent{Version: 7, ProductCount: 3, ReplacedAt: replacedAt}

	assert.Equal(t, messaging.CatalogReplacedSubject, event.Subject())
	assert.Equal(t, "menu.catalog.replaced", event.WithSubject("menu.catalog.replaced").Subject())
	assert.Equal(t, messaging.CatalogReplacedSubject, event.Subject(), "WithSubject must not mutate the receiver")

	payload, err := event.Payload()
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, float64(7), decoded["version"])
	assert.Equal(t, float64(3), decoded["product_count"])
	assert.Equal(t, "2025-03-01T12:00:00Z", decoded["replaced_at"])
	assert.NotContains(t, decoded, "carrier")
}
