package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fathussalafi/yayasan-api/internal/models"
)

const admissionColumns = `id, is_active, academic_year, start_date, end_date, registration_link, max_students, announcement_text, created_at, updated_at`

// AdmissionRepository persists admission window settings. The database keeps
// at most one active row through a unique partial index.
type AdmissionRepository struct {
	db *sqlx.DB
}

// NewAdmissionRepository constructs the repository.
func NewAdmissionRepository(db *sqlx.DB) *AdmissionRepository {
	return &AdmissionRepository{db: db}
}

// List returns every settings row, newest first.
func (r *AdmissionRepository) List(ctx context.Context) ([]models.AdmissionSettings, error) {
	items := []models.AdmissionSettings{}
	if err := r.db.SelectContext(ctx, &items, `SELECT `+admissionColumns+` FROM ppdb_settings ORDER BY created_at DESC`); err != nil {
		return nil, fmt.Errorf("list admission settings: %w", err)
	}
	return items, nil
}

// FindByID returns one settings row.
func (r *AdmissionRepository) FindByID(ctx context.Context, id string) (*models.AdmissionSettings, error) {
	return r.findOne(ctx, `SELECT `+admissionColumns+` FROM ppdb_settings WHERE id = $1`, id)
}

// FindActive returns the active row or sql.ErrNoRows.
func (r *AdmissionRepository) FindActive(ctx context.Context) (*models.AdmissionSettings, error) {
	return r.findOne(ctx, `SELECT `+admissionColumns+` FROM ppdb_settings WHERE is_active = TRUE LIMIT 1`)
}

func (r *AdmissionRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.AdmissionSettings, error) {
	var item models.AdmissionSettings
	if err := r.db.GetContext(ctx, &item, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find admission settings: %w", err)
	}
	return &item, nil
}

// Create inserts an inactive settings row.
func (r *AdmissionRepository) Create(ctx context.Context, item *models.AdmissionSettings) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	item.IsActive = false
	item.CreatedAt = now
	item.UpdatedAt = now
	const query = `INSERT INTO ppdb_settings (id, is_active, academic_year, start_date, end_date, registration_link, max_students, announcement_text, created_at, updated_at)
VALUES (:id, :is_active, :academic_year, :start_date, :end_date, :registration_link, :max_students, :announcement_text, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create admission settings: %w", err)
	}
	return nil
}

// Update saves every field except the active flag and returns the stored row.
func (r *AdmissionRepository) Update(ctx context.Context, item *models.AdmissionSettings) (*models.AdmissionSettings, error) {
	const query = `UPDATE ppdb_settings SET academic_year = $2, start_date = $3, end_date = $4, registration_link = $5,
max_students = $6, announcement_text = $7, updated_at = $8 WHERE id = $1 RETURNING ` + admissionColumns
	var stored models.AdmissionSettings
	err := r.db.GetContext(ctx, &stored, query, item.ID, item.AcademicYear, item.StartDate, item.EndDate,
		item.RegistrationLink, item.MaxStudents, item.AnnouncementText, time.Now().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("update admission settings: %w", err)
	}
	return &stored, nil
}

// SetActive activates or deactivates a row. Activation first deactivates
// every other row inside the same transaction.
func (r *AdmissionRepository) SetActive(ctx context.Context, id string, active bool) (*models.AdmissionSettings, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin admission toggle: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	if active {
		if _, err := tx.ExecContext(ctx, `UPDATE ppdb_settings SET is_active = FALSE, updated_at = $2 WHERE is_active = TRUE AND id <> $1`, id, now); err != nil {
			return nil, fmt.Errorf("deactivate admission settings: %w", err)
		}
	}
	var stored models.AdmissionSettings
	query := `UPDATE ppdb_settings SET is_active = $2, updated_at = $3 WHERE id = $1 RETURNING ` + admissionColumns
	if err := tx.GetContext(ctx, &stored, query, id, active, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("toggle admission settings: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit admission toggle: %w", err)
	}
	return &stored, nil
}

// Delete removes an inactive settings row. Returns sql.ErrNoRows when
// nothing matched.
func (r *AdmissionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ppdb_settings WHERE id = $1 AND is_active = FALSE`, id)
	if err != nil {
		return fmt.Errorf("delete admission settings: %w", err)
	}
	return expectAffected(res)
}
