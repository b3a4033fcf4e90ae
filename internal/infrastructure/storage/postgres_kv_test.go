package storage

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func newMockKV(t *testing.T) (*PostgresKV, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresKV(db), mock
}

func TestPostgresKV_Get(t *testing.T) {
	kv, mock := newMockKV(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(queryGetItem)).
		WithArgs("speed_inspect_report_1").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("cipher"))
	mock.ExpectQuery(regexp.QuoteMeta(queryGetItem)).
		WithArgs("speed_inspect_missing").
		WillReturnError(sql.ErrNoRows)

	v, found, err := kv.Get(ctx, "speed_inspect_report_1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "cipher", v)

	_, found, err = kv.Get(ctx, "speed_inspect_missing")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresKV_SetAndDelete(t *testing.T) {
	kv, mock := newMockKV(t)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta(queryUpsert)).
		WithArgs("k", "v").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(queryDelete)).
		WithArgs("k").
		WillReturnError(errors.New("connection reset"))

	require.NoError(t, kv.Set(ctx, "k", "v"))
	err := kv.Delete(ctx, "k")
	require.Error(t, err)
	require.Contains(t, err.Error(), "connection reset")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresKV_Keys(t *testing.T) {
	kv, mock := newMockKV(t)

	mock.ExpectQuery(regexp.QuoteMeta(queryKeys)).
		WithArgs("speed_inspect_report_").
		WillReturnRows(sqlmock.NewRows([]string{"key"}).
			AddRow("speed_inspect_report_a").
			AddRow("speed_inspect_report_b"))

	keys, err := kv.Keys(context.Background(), "speed_inspect_report_")
	require.NoError(t, err)
	require.Equal(t, []string{"speed_inspect_report_a", "speed_inspect_report_b"}, keys)
	require.NoError(t, mock.ExpectationsWereMet())
}
