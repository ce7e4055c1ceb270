package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/fathussalafi/yayasan-api/internal/models"
	appErrors "github.com/fathussalafi/yayasan-api/pkg/errors"
)

const registrationColumns = `r.id, r.registration_number, r.academic_year, r.school_id, r.student_name, r.student_nisn, r.place_of_birth,
r.date_of_birth, r.gender, r.religion, r.address, r.phone_number, r.parent_name, r.parent_phone, r.parent_email, r.parent_occupation,
r.previous_school_name, r.previous_school_address, r.photo_url, r.birth_certificate_url, r.family_card_url, r.status, r.notes,
r.rejection_reason, r.verified_at, r.verified_by, r.decided_at, r.created_at, r.updated_at,
COALESCE(s.name, '') AS school_name, COALESCE(s.level, '') AS school_level`

const registrationFrom = ` FROM ppdb_registrations r LEFT JOIN schools s ON s.id = r.school_id`

// RegistrationRepository persists admission registrations and allocates their numbers.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs the repository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// CreateWithNumber allocates the next number for year and inserts reg in one
// transaction. The per-year counter row is locked by the upsert, so concurrent
// submitters are serialised, and a failed insert rolls the counter back. The
// first allocation of a year starts after any rows already numbered for it.
// When quota is positive the academic year's non-cancelled rows are recounted
// under that lock and appErrors.ErrQuotaReached is returned once it is full.
func (r *RegistrationRepository) CreateWithNumber(ctx context.Context, reg *models.Registration, year, quota int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin registration: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const allocate = `INSERT INTO ppdb_registration_counters (year, last_seq)
VALUES ($1, (SELECT COUNT(*) FROM ppdb_registrations WHERE registration_number LIKE $2) + 1)
ON CONFLICT (year) DO UPDATE SET last_seq = ppdb_registration_counters.last_seq + 1
RETURNING last_seq`
	var seq int
	if err := tx.GetContext(ctx, &seq, allocate, year, fmt.Sprintf("PPDB-%d-%%", year)); err != nil {
		return fmt.Errorf("allocate registration number: %w", err)
	}

	if quota > 0 {
		var registered int
		if err := tx.GetContext(ctx, &registered, countActiveQuery, reg.AcademicYear); err != nil {
			return fmt.Errorf("count registrations for quota: %w", err)
		}
		if registered >= quota {
			return appErrors.ErrQuotaReached
		}
	}

	if reg.ID == "" {
		reg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	reg.RegistrationNumber = models.FormatRegistrationNumber(year, seq)
	reg.CreatedAt = now
	reg.UpdatedAt = now

	const insert = `INSERT INTO ppdb_registrations (id, registration_number, academic_year, school_id, student_name, student_nisn,
place_of_birth, date_of_birth, gender, religion, address, phone_number, parent_name, parent_phone, parent_email, parent_occupation,
previous_school_name, previous_school_address, photo_url, birth_certificate_url, family_card_url, status, created_at, updated_at)
VALUES (:id, :registration_number, :academic_year, :school_id, :student_name, :student_nisn, :place_of_birth, :date_of_birth,
:gender, :religion, :address, :phone_number, :parent_name, :parent_phone, :parent_email, :parent_occupation, :previous_school_name,
:previous_school_address, :photo_url, :birth_certificate_url, :family_card_url, :status, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insert, reg); err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit registration: %w", err)
	}
	return nil
}

// FindByNumberAndEmail matches both fields in a single query so a wrong
// number and a wrong email are indistinguishable.
func (r *RegistrationRepository) FindByNumberAndEmail(ctx context.Context, number, email string) (*models.Registration, error) {
	query := `SELECT ` + registrationColumns + registrationFrom + ` WHERE r.registration_number = $1 AND r.parent_email = $2`
	return r.findOne(ctx, query, number, email)
}

// FindByNumber returns a registration by its number.
func (r *RegistrationRepository) FindByNumber(ctx context.Context, number string) (*models.Registration, error) {
	return r.findOne(ctx, `SELECT `+registrationColumns+registrationFrom+` WHERE r.registration_number = $1`, number)
}

// FindByID returns a registration by identifier.
func (r *RegistrationRepository) FindByID(ctx context.Context, id string) (*models.Registration, error) {
	return r.findOne(ctx, `SELECT `+registrationColumns+registrationFrom+` WHERE r.id = $1`, id)
}

func (r *RegistrationRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.Registration, error) {
	var reg models.Registration
	if err := r.db.GetContext(ctx, &reg, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find registration: %w", err)
	}
	return &reg, nil
}

func registrationWhere(filter models.RegistrationFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, pq.Array(statuses))
		conditions = append(conditions, fmt.Sprintf("r.status = ANY($%d)", len(args)))
	}
	if filter.AcademicYear != "" {
		args = append(args, filter.AcademicYear)
		conditions = append(conditions, fmt.Sprintf("r.academic_year = $%d", len(args)))
	}
	if filter.SchoolID != "" {
		args = append(args, filter.SchoolID)
		conditions = append(conditions, fmt.Sprintf("r.school_id = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf("(LOWER(r.student_name) LIKE $%d OR LOWER(r.registration_number) LIKE $%d OR LOWER(r.parent_email) LIKE $%d)", n, n, n))
	}
	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// List returns a page of registrations, newest first, with the total count.
func (r *RegistrationRepository) List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, int, error) {
	where, args := registrationWhere(filter)
	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	query := fmt.Sprintf(`SELECT %s%s%s ORDER BY r.created_at DESC LIMIT %d OFFSET %d`, registrationColumns, registrationFrom, where, size, (page-1)*size)

	items := []models.Registration{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list registrations: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM ppdb_registrations r`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count registrations: %w", err)
	}
	return items, total, nil
}

// ListAll returns every matching registration ordered by number, for exports.
func (r *RegistrationRepository) ListAll(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, error) {
	where, args := registrationWhere(filter)
	items := []models.Registration{}
	query := `SELECT ` + registrationColumns + registrationFrom + where + ` ORDER BY r.registration_number`
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("export registrations: %w", err)
	}
	return items, nil
}

// UpdateStatus moves a registration from one status to another. The update
// only applies while the row is still in from, so concurrent moderators
// cannot both act on the same state; a lost race yields sql.ErrNoRows.
func (r *RegistrationRepository) UpdateStatus(ctx context.Context, id string, from models.RegistrationStatus, upd models.StatusUpdate) (*models.Registration, error) {
	query := `WITH r AS (
UPDATE ppdb_registrations SET status = $3, rejection_reason = $4, notes = COALESCE($5, notes),
verified_at = COALESCE($6, verified_at), verified_by = COALESCE($7, verified_by), decided_at = COALESCE($8, decided_at), updated_at = $9
WHERE id = $1 AND status = $2 RETURNING *)
SELECT ` + registrationColumns + ` FROM r LEFT JOIN schools s ON s.id = r.school_id`
	var reg models.Registration
	err := r.db.GetContext(ctx, &reg, query, id, from, upd.To, upd.RejectionReason, upd.Notes,
		upd.VerifiedAt, upd.VerifiedBy, upd.DecidedAt, upd.At)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("update registration status: %w", err)
	}
	return &reg, nil
}

// CountByStatus groups registrations by status, optionally for one academic year.
func (r *RegistrationRepository) CountByStatus(ctx context.Context, academicYear string) ([]models.StatusCount, error) {
	query := `SELECT status, COUNT(*) AS total FROM ppdb_registrations`
	var args []interface{}
	if academicYear != "" {
		query += ` WHERE academic_year = $1`
		args = append(args, academicYear)
	}
	query += ` GROUP BY status`
	counts := []models.StatusCount{}
	if err := r.db.SelectContext(ctx, &counts, query, args...); err != nil {
		return nil, fmt.Errorf("count registrations by status: %w", err)
	}
	return counts, nil
}

const countActiveQuery = `SELECT COUNT(*) FROM ppdb_registrations WHERE academic_year = $1 AND status <> 'cancelled'`

// CountActive returns the non-cancelled registrations of an academic year.
func (r *RegistrationRepository) CountActive(ctx context.Context, academicYear string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, countActiveQuery, academicYear); err != nil {
		return 0, fmt.Errorf("count active registrations: %w", err)
	}
	return total, nil
}
