package database

import (
	"context"
	"errors"
	"newsdigest/config"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valkey-io/valkey-go"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) (DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: sqlDB,
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return NewWithSQL(gormDB), mock
}

func TestCacheConstants(t *testing.T) {
	assert.Equal(t, 1, USER_CACHE_INDEX)
	assert.Equal(t, 2, CLIENT_API_CACHE_INDEX)
}

type stubCacheClient struct {
	valkey.Client
}

func TestCache_ByIndex(t *testing.T) {
	user, clientAPI := &stubCacheClient{}, &stubCacheClient{}
	cache := Cache{User: user, ClientAPI: clientAPI}

	client, name, ok := cache.byIndex(USER_CACHE_INDEX)
	assert.True(t, ok)
	assert.Equal(t, "User", name)
	assert.Same(t, user, client)

	client, name, ok = cache.byIndex(CLIENT_API_CACHE_INDEX)
	assert.True(t, ok)
	assert.Equal(t, "ClientAPI", name)
	assert.Same(t, clientAPI, client)

	for _, index := range []int{0, 3} {
		_, _, ok := cache.byIndex(index)
		assert.False(t, ok, "index %d", index)
	}

	_, _, ok = Cache{}.byIndex(USER_CACHE_INDEX)
	assert.False(t, ok)
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.Config{
		DatabaseHost:     "db",
		DatabasePort:     5432,
		DatabaseUser:     "digest",
		DatabasePassword: "secret",
		DatabaseName:     "newsdigest",
	})

	assert.Equal(
		t,
		"host=db port=5432 user=digest password=secret dbname=newsdigest sslmode=disable TimeZone=UTC",
		dsn,
	)
}

func TestDB_Transaction_Commit(t *testing.T) {
	db, mock := setupTestDB(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	called := false
	err := db.Transaction(context.Background(), func(ctx context.Context, tx *gorm.DB) error {
		called = true
		return nil
	})

	assert.NoError(t, err)
	assert.True(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_Transaction_RollbackOnError(t *testing.T) {
	db, mock := setupTestDB(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	expected := errors.New("claim failed")
	err := db.Transaction(context.Background(), func(ctx context.Context, tx *gorm.DB) error {
		return expected
	})

	assert.Equal(t, expected, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_Transaction_PanicRecovery(t *testing.T) {
	db, mock := setupTestDB(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := db.Transaction(context.Background(), func(ctx context.Context, tx *gorm.DB) error {
		panic("boom")
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "panic during transaction")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_Transaction_NestedJoinsOuter(t *testing.T) {
	db, mock := setupTestDB(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := db.Transaction(context.Background(), func(ctx context.Context, outer *gorm.DB) error {
		assert.Same(t, outer, db.SQLWithContext(ctx))

		return db.Transaction(ctx, func(ctx context.Context, inner *gorm.DB) error {
			assert.Same(t, outer, inner)
			return nil
		})
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheBuilder_WithoutClient(t *testing.T) {
	builder := NewCacheBuilder(nil, "technology").WithHash("headlines")

	assert.Equal(t, "headlines:technology", builder.Key())

	var out []string
	found, err := builder.Get(&out)
	assert.False(t, found)
	assert.Error(t, err)
	assert.Error(t, builder.WithStruct([]string{"a"}).Set())
}
