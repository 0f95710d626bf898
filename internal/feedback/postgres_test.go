package feedback

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &PostgresStore{db: db}, mock
}

func feedbackColumns() []string {
	return []string{
		"id", "prediction_id", "patient_id", "readmitted",
		"readmitted_at", "days_to_event", "notes", "created_at", "updated_at",
	}
}

func TestPostgresSaveUpsert(t *testing.T) {
	store, mock := newMockStore(t)
	fb := sampleFeedback("pred-1")

	mock.ExpectQuery(`INSERT INTO outcome_feedback`).
		WithArgs(fb.PredictionID, fb.PatientID, fb.Readmitted, fb.ReadmittedAt,
			fb.DaysToEvent, fb.Notes, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), time.Now()))

	require.NoError(t, store.Save(context.Background(), fb))
	assert.Equal(t, int64(7), fb.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveError(t *testing.T) {
	store, mock := newMockStore(t)
	fb := sampleFeedback("pred-1")

	mock.ExpectQuery(`INSERT INTO outcome_feedback`).
		WillReturnError(sql.ErrConnDone)

	err := store.Save(context.Background(), fb)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save feedback")
}

func TestPostgresGet(t *testing.T) {
	store, mock := newMockStore(t)
	at := time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, prediction_id, patient_id`).
		WithArgs("pred-1").
		WillReturnRows(sqlmock.NewRows(feedbackColumns()).
			AddRow(int64(1), "pred-1", "patient-1", true, at, 12, "fluid overload", at, at))

	fb, err := store.Get(context.Background(), "pred-1")
	require.NoError(t, err)
	require.NotNil(t, fb)
	assert.True(t, fb.Readmitted)
	require.NotNil(t, fb.ReadmittedAt)
	assert.Equal(t, at, *fb.ReadmittedAt)
}

func TestPostgresGetMissing(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, prediction_id, patient_id`).
		WithArgs("pred-x").
		WillReturnRows(sqlmock.NewRows(feedbackColumns()))

	fb, err := store.Get(context.Background(), "pred-x")
	require.NoError(t, err)
	assert.Nil(t, fb)
}

func TestPostgresGetNullReadmittedAt(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT id, prediction_id, patient_id`).
		WithArgs("pred-1").
		WillReturnRows(sqlmock.NewRows(feedbackColumns()).
			AddRow(int64(1), "pred-1", "patient-1", false, nil, 0, "", now, now))

	fb, err := store.Get(context.Background(), "pred-1")
	require.NoError(t, err)
	require.NotNil(t, fb)
	assert.False(t, fb.Readmitted)
	assert.Nil(t, fb.ReadmittedAt)
}

func TestPostgresList(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT id, prediction_id, patient_id`).
		WithArgs(10, 0).
		WillReturnRows(sqlmock.NewRows(feedbackColumns()).
			AddRow(int64(2), "pred-2", "patient-1", true, now, 5, "", now, now).
			AddRow(int64(1), "pred-1", "patient-1", false, nil, 0, "", now, now))

	list, err := store.List(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "pred-2", list[0].PredictionID)
}

func TestPostgresCountAndDelete(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT COUNT`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(4)))
	mock.ExpectExec(`DELETE FROM outcome_feedback`).
		WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	require.NoError(t, store.Delete(context.Background(), 2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPostgresStoreRequiresConnection(t *testing.T) {
	_, err := NewPostgresStore(nil)
	assert.Error(t, err)
}
