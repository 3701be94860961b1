package thread_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"scholaria/backend/internal/thread"
)

func TestPostgresStore_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	store := thread.NewPostgresStore(db)

	t.Run("Returns Payload", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT payload FROM threads WHERE storage_key = $1")).
			WithArgs(thread.StorageKey).
			WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow([]byte(`{"thread_id":"t1"}`)))

		raw, err := store.Get(context.Background())
		assert.NoError(t, err)
		assert.JSONEq(t, `{"thread_id":"t1"}`, string(raw))
	})

	t.Run("No Row Means Empty", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT payload FROM threads WHERE storage_key = $1")).
			WithArgs(thread.StorageKey).
			WillReturnRows(sqlmock.NewRows([]string{"payload"}))

		raw, err := store.Get(context.Background())
		assert.NoError(t, err)
		assert.Nil(t, raw)
	})
}

func TestTenantStoreKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	store := thread.NewTenantStore(db, "lab-42")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT payload FROM threads WHERE storage_key = $1")).
		WithArgs(thread.StorageKey + ".lab-42").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}))

	raw, err := store.Get(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, raw)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Set(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	store := thread.NewPostgresStore(db)

	mock.ExpectExec("INSERT INTO threads").
		WithArgs(thread.StorageKey, []byte(`{}`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, store.Set(context.Background(), []byte(`{}`)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Clear(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	store := thread.NewPostgresStore(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM threads WHERE storage_key = $1")).
		WithArgs(thread.StorageKey).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, store.Clear(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
