package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/weaviate/weaviate/entities/models"

	"scholaria/backend/internal/app"
	"scholaria/backend/internal/config"
)

type flakySchemaClient struct {
	callCount int
	failUntil int
}

func (m *flakySchemaClient) ClassExists(ctx context.Context, className string) (bool, error) {
	m.callCount++
	if m.callCount <= m.failUntil {
		return false, errors.New("connection refused")
	}
	return true, nil
}

func (m *flakySchemaClient) CreateClass(ctx context.Context, class *models.Class) error {
	return nil
}

func (m *flakySchemaClient) GetClass(ctx context.Context, className string) (*models.Class, error) {
	return &models.Class{Class: className}, nil
}

func (m *flakySchemaClient) AddProperty(ctx context.Context, className string, property *models.Property) error {
	return nil
}

func TestEnsureSchemaWithRetry(t *testing.T) {
	t.Run("Succeeds First Try", func(t *testing.T) {
		client := &flakySchemaClient{}
		err := app.EnsureSchemaWithRetry(context.Background(), client, 1, time.Millisecond)
		assert.NoError(t, err)
	})

	t.Run("Recovers After Transient Failures", func(t *testing.T) {
		client := &flakySchemaClient{failUntil: 2}
		err := app.EnsureSchemaWithRetry(context.Background(), client, 5, time.Millisecond)
		assert.NoError(t, err)
		assert.Equal(t, 3, client.callCount)
	})

	t.Run("Gives Up After Attempts", func(t *testing.T) {
		client := &flakySchemaClient{failUntil: 100}
		err := app.EnsureSchemaWithRetry(context.Background(), client, 3, time.Millisecond)
		assert.Error(t, err)
		assert.Equal(t, 3, client.callCount)
	})
}

func TestBootstrapConfigurationError(t *testing.T) {
	cfg := &config.Config{
		DBHost:                 "invalid-host",
		BootstrapRetryAttempts: 1,
	}
	deps, err := app.Bootstrap(context.Background(), cfg)
	assert.Error(t, err)
	assert.Nil(t, deps)
}
