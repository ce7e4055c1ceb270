package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	appErrors "github.com/fathussalafi/yayasan-api/pkg/errors"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil)
	var dest map[string]string

	err := repo.Get(context.Background(), "public:schools", &dest)
	require.ErrorIs(t, err, appErrors.ErrCacheMiss)
	require.NoError(t, repo.Set(context.Background(), "public:schools", map[string]string{"a": "b"}, time.Minute))
	require.NoError(t, repo.DeleteByPattern(context.Background(), "public:*"))
	require.Error(t, repo.Ping(context.Background()))
}
