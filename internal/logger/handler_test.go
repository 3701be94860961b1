package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"scholaria/backend/internal/logger"
	"scholaria/backend/internal/middleware"
)

func TestContextHandler(t *testing.T) {
	var buf bytes.Buffer
	h := logger.NewContextHandler(slog.NewJSONHandler(&buf, nil))
	log := slog.New(h)

	t.Run("Adds Correlation ID From Context", func(t *testing.T) {
		buf.Reset()
		ctx := middleware.WithCorrelationID(context.Background(), "corr-1")
		log.InfoContext(ctx, "hello")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "corr-1", entry["correlation_id"])
	})

	t.Run("No Attribute Without ID", func(t *testing.T) {
		buf.Reset()
		log.InfoContext(context.Background(), "hello")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		_, present := entry["correlation_id"]
		assert.False(t, present)
	})
}
