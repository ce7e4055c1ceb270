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

const (
	schoolColumns = `id, name, level, description, address, phone, email, website, logo_url, created_at, updated_at`
	// schoolLevelOrder sorts schools from early childhood up to upper secondary.
	schoolLevelOrder = `array_position(ARRAY['RA','TK','MI','MTs','MA']::text[], level::text), name`
)

// SchoolRepository handles persistence of foundation schools.
type SchoolRepository struct {
	db *sqlx.DB
}

// NewSchoolRepository constructs the repository.
func NewSchoolRepository(db *sqlx.DB) *SchoolRepository {
	return &SchoolRepository{db: db}
}

// List returns schools ordered by level. A level filter matches case-insensitively.
func (r *SchoolRepository) List(ctx context.Context, filter models.SchoolFilter) ([]models.School, error) {
	query := `SELECT ` + schoolColumns + ` FROM schools`
	var args []interface{}
	if filter.Level != "" {
		query += ` WHERE level ILIKE $1`
		args = append(args, string(filter.Level))
	}
	query += ` ORDER BY ` + schoolLevelOrder

	schools := []models.School{}
	if err := r.db.SelectContext(ctx, &schools, query, args...); err != nil {
		return nil, fmt.Errorf("list schools: %w", err)
	}
	return schools, nil
}

// FindByID returns a single school.
func (r *SchoolRepository) FindByID(ctx context.Context, id string) (*models.School, error) {
	const query = `SELECT ` + schoolColumns + ` FROM schools WHERE id = $1`
	var school models.School
	if err := r.db.GetContext(ctx, &school, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find school: %w", err)
	}
	return &school, nil
}

// Create inserts a school.
func (r *SchoolRepository) Create(ctx context.Context, school *models.School) error {
	if school.ID == "" {
		school.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	school.CreatedAt = now
	school.UpdatedAt = now
	const query = `INSERT INTO schools (id, name, level, description, address, phone, email, website, logo_url, created_at, updated_at)
VALUES (:id, :name, :level, :description, :address, :phone, :email, :website, :logo_url, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, school); err != nil {
		return fmt.Errorf("create school: %w", err)
	}
	return nil
}

// Update overwrites the editable fields of a school. Returns sql.ErrNoRows when it does not exist.
func (r *SchoolRepository) Update(ctx context.Context, school *models.School) error {
	school.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schools SET name = :name, level = :level, description = :description, address = :address, phone = :phone,
email = :email, website = :website, logo_url = :logo_url, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, school)
	if err != nil {
		return fmt.Errorf("update school: %w", err)
	}
	return expectAffected(res)
}

// Delete removes a school. Returns sql.ErrNoRows when nothing was deleted.
func (r *SchoolRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM schools WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete school: %w", err)
	}
	return expectAffected(res)
}

// Count returns the number of schools.
func (r *SchoolRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM schools`); err != nil {
		return 0, fmt.Errorf("count schools: %w", err)
	}
	return total, nil
}

func expectAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
