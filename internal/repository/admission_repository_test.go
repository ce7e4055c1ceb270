package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathussalafi/yayasan-api/internal/models"
)

var admissionRowColumns = []string{"id", "is_active", "academic_year", "start_date", "end_date", "registration_link", "max_students", "announcement_text", "created_at", "updated_at"}

func TestAdmissionFindActive(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdmissionRepository(db)

	now := time.Now()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(admissionRowColumns).AddRow("p1", true, "2025/2026", start, nil, nil, 120, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM ppdb_settings WHERE is_active = TRUE LIMIT 1")).WillReturnRows(rows)

	settings, err := repo.FindActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2025/2026", settings.AcademicYear)
	require.NotNil(t, settings.StartDate)
	assert.Equal(t, "2025-01-01", settings.StartDate.String())
	assert.Nil(t, settings.EndDate)
	assert.Equal(t, 120, settings.MaxStudents)
}

func TestAdmissionFindActiveNone(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdmissionRepository(db)

	mock.ExpectQuery("FROM ppdb_settings WHERE is_active").WillReturnRows(sqlmock.NewRows(admissionRowColumns))

	_, err := repo.FindActive(context.Background())
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestAdmissionCreateIsInactive(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdmissionRepository(db)

	mock.ExpectExec("INSERT INTO ppdb_settings").WillReturnResult(sqlmock.NewResult(1, 1))

	item := &models.AdmissionSettings{IsActive: true, AcademicYear: "2026/2027"}
	require.NoError(t, repo.Create(context.Background(), item))
	assert.False(t, item.IsActive)
	assert.NotEmpty(t, item.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdmissionActivateDeactivatesOthers(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdmissionRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE ppdb_settings SET is_active = FALSE, updated_at = $2 WHERE is_active = TRUE AND id <> $1")).
		WithArgs("p2", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE ppdb_settings SET is_active = $2")).
		WithArgs("p2", true, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(admissionRowColumns).AddRow("p2", true, "2026/2027", nil, nil, nil, 0, nil, now, now))
	mock.ExpectCommit()

	stored, err := repo.SetActive(context.Background(), "p2", true)
	require.NoError(t, err)
	assert.True(t, stored.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdmissionDeactivateSkipsOthers(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdmissionRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE ppdb_settings SET is_active = $2")).
		WithArgs("p1", false, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(admissionRowColumns).AddRow("p1", false, "2025/2026", nil, nil, nil, 0, nil, now, now))
	mock.ExpectCommit()

	stored, err := repo.SetActive(context.Background(), "p1", false)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdmissionActivateRollsBackOnMissingRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdmissionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE ppdb_settings SET is_active = FALSE").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("UPDATE ppdb_settings SET is_active = \\$2").WillReturnRows(sqlmock.NewRows(admissionRowColumns))
	mock.ExpectRollback()

	_, err := repo.SetActive(context.Background(), "missing", true)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdmissionDeleteActiveRowIsRefused(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdmissionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM ppdb_settings WHERE id = $1 AND is_active = FALSE")).
		WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), "p1"), sql.ErrNoRows)
}
