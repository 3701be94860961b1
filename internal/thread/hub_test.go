package thread_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"scholaria/backend/internal/thread"
)

func TestHub(t *testing.T) {
	hub := thread.NewHub(func(tenant string) thread.Store {
		return thread.NewMemoryStore()
	}, 10, 5)

	t.Run("Same Tenant Gets Same Manager", func(t *testing.T) {
		a, err := hub.ForTenant(context.Background(), "tenant-a")
		require.NoError(t, err)
		b, err := hub.ForTenant(context.Background(), "tenant-a")
		require.NoError(t, err)
		assert.Same(t, a, b)
	})

	t.Run("Tenants Are Isolated", func(t *testing.T) {
		a, err := hub.ForTenant(context.Background(), "tenant-a")
		require.NoError(t, err)
		b, err := hub.ForTenant(context.Background(), "tenant-b")
		require.NoError(t, err)

		require.NoError(t, a.Append(context.Background(), thread.Message{Role: thread.RoleUser, Content: "hello"}))
		assert.Len(t, a.History(), 1)
		assert.Empty(t, b.History())
		assert.NotEqual(t, a.ID(), b.ID())
	})
}
