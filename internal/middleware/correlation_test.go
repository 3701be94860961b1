package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"scholaria/backend/internal/middleware"
)

func TestCorrelationID(t *testing.T) {
	t.Run("Generates ID When Missing", func(t *testing.T) {
		var captured string
		handler := middleware.CorrelationID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = middleware.GetCorrelationID(r.Context())
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

		assert.NotEmpty(t, captured)
		assert.Equal(t, captured, rec.Header().Get("X-Correlation-ID"))
	})

	t.Run("Propagates Incoming ID", func(t *testing.T) {
		var captured string
		handler := middleware.CorrelationID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = middleware.GetCorrelationID(r.Context())
		}))

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Correlation-ID", "abc-123")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "abc-123", captured)
		assert.Equal(t, "abc-123", rec.Header().Get("X-Correlation-ID"))
	})
}

func TestGetCorrelationID(t *testing.T) {
	assert.Equal(t, "unknown", middleware.GetCorrelationID(context.Background()))

	ctx := middleware.WithCorrelationID(context.Background(), "xyz")
	assert.Equal(t, "xyz", middleware.GetCorrelationID(ctx))
}
