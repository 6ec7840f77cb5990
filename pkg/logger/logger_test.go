package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ContextHandler(t *testing.T) {
	testCases := []struct {
		name     string
		ctx      context.Context
		expected map[string]string
	}{
		{
			name:     "Success - bare context",
			ctx:      context.Background(),
			expected: map[string]string{},
		},
		{
			name:     "Success - request id",
			ctx:      context.WithValue(context.Background(), middleware.RequestIDKey, "req-1"),
			expected: map[string]string{"request_id": "req-1"},
		},
		{
			name:     "Success - connection id",
			ctx:      WithConnID(context.Background(), "conn-1"),
			expected: map[string]string{"conn_id": "conn-1"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			var buf bytes.Buffer
			log := slog.New(NewContextHandler(slog.NewJSONHandler(&buf, nil))).With("component", "test")

			// when
			log.InfoContext(tc.ctx, "hello")

			// then
			var record map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
			assert.Equal(t, "test", record["component"])
			for _, key := range []string{"request_id", "conn_id", "trace_id"} {
				want, ok := tc.expected[key]
				if !ok {
					assert.NotContains(t, record, key)
					continue
				}
				assert.Equal(t, want, record[key])
			}
		})
	}
}
