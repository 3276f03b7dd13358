package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleColumns = []string{"data_type", "field", "start_ns", "end_ns", "int_value", "float_value"}

func setupMockDB(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgres(db), mock
}

func TestPostgresStore_Insert(t *testing.T) {
	ctx := context.Background()

	t.Run("upserts inside a transaction", func(t *testing.T) {
		s, mock := setupMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(upsertSample).
			WithArgs("steps", "steps_delta", int64(10), int64(20), int64(1), float64(0)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(upsertSample).
			WithArgs("steps", "steps_delta", int64(30), int64(40), int64(2), float64(0)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, s.Insert(ctx, []Sample{steps(10, 20, 1), steps(30, 40, 2)}))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on failure", func(t *testing.T) {
		s, mock := setupMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(upsertSample).WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		err := s.Insert(ctx, []Sample{steps(10, 20, 1)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		s, mock := setupMockDB(t)
		require.NoError(t, s.Insert(ctx, nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_QueryAndDelete(t *testing.T) {
	ctx := context.Background()
	s, mock := setupMockDB(t)

	mock.ExpectQuery(querySamples).
		WithArgs("steps", int64(0), int64(100)).
		WillReturnRows(sqlmock.NewRows(sampleColumns).
			AddRow("steps", "steps_delta", int64(10), int64(20), int64(1), float64(0)).
			AddRow("steps", "steps_delta", int64(30), int64(40), int64(2), float64(0)))
	mock.ExpectExec(deleteSamples).
		WithArgs("steps", int64(0), int64(100)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	got, err := s.Query(ctx, "steps", 0, 100)
	require.NoError(t, err)
	assert.Equal(t, []Sample{steps(10, 20, 1), steps(30, 40, 2)}, got)

	n, err := s.Delete(ctx, "steps", 0, 100)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AllAndClear(t *testing.T) {
	ctx := context.Background()
	s, mock := setupMockDB(t)

	mock.ExpectQuery(allSamples).
		WillReturnRows(sqlmock.NewRows(sampleColumns).
			AddRow("heart", "bpm", int64(5), int64(5), int64(0), 72.5))
	mock.ExpectExec(clearSamples).WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 72.5, got[0].FloatValue)

	require.NoError(t, s.Clear(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_EnsureSchema(t *testing.T) {
	s, mock := setupMockDB(t)
	mock.ExpectExec(createSamplesTable).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
