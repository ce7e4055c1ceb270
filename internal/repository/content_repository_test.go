package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathussalafi/yayasan-api/internal/models"
)

var (
	schoolRowColumns  = []string{"id", "name", "level", "description", "address", "phone", "email", "website", "logo_url", "created_at", "updated_at"}
	newsRowColumns    = []string{"id", "title", "slug", "excerpt", "content", "image_url", "category", "author_id", "is_published", "published_at", "created_at", "updated_at"}
	galleryRowColumns = []string{"id", "title", "description", "image_url", "category", "is_featured", "created_at", "updated_at"}
)

func TestSchoolListOrdersByLevel(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSchoolRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(schoolRowColumns).
		AddRow("s1", "RA Fathus Salafi", "RA", nil, nil, nil, nil, nil, nil, now, now).
		AddRow("s2", "MA Fathus Salafi", "MA", nil, nil, nil, nil, nil, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM schools ORDER BY array_position(")).WillReturnRows(rows)

	schools, err := repo.List(context.Background(), models.SchoolFilter{})
	require.NoError(t, err)
	require.Len(t, schools, 2)
	assert.Equal(t, models.LevelRA, schools[0].Level)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchoolListFiltersLevel(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSchoolRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM schools WHERE level ILIKE $1")).
		WithArgs("mts").
		WillReturnRows(sqlmock.NewRows(schoolRowColumns))

	schools, err := repo.List(context.Background(), models.SchoolFilter{Level: "mts"})
	require.NoError(t, err)
	assert.Empty(t, schools)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchoolDeleteMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSchoolRepository(db)

	mock.ExpectExec("DELETE FROM schools").WithArgs("missing").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchoolUpdate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSchoolRepository(db)

	mock.ExpectExec("UPDATE schools SET").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), &models.School{ID: "s1", Name: "MI", Level: models.LevelMI}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewsListPublishedWithLimit(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNewsRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(newsRowColumns).
		AddRow("n1", "Juara Tahfidz", "juara-tahfidz", nil, "isi", nil, "prestasi", nil, true, now, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM news WHERE category = $1 AND is_published = TRUE ORDER BY COALESCE(published_at, created_at) DESC, created_at DESC LIMIT 3")).
		WithArgs("prestasi").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM news WHERE category = $1 AND is_published = TRUE")).
		WithArgs("prestasi").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	items, total, err := repo.List(context.Background(), models.NewsFilter{Category: models.NewsCategoryPrestasi, PublishedOnly: true, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	require.Len(t, items, 1)
	assert.Equal(t, "juara-tahfidz", items[0].Slug)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewsTogglePublishedReturnsStoredRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNewsRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(newsRowColumns).
		AddRow("n1", "Kegiatan", "kegiatan", nil, "isi", nil, "kegiatan", nil, true, now, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE news SET is_published = NOT is_published")).
		WithArgs("n1", sqlmock.AnyArg()).
		WillReturnRows(rows)

	item, err := repo.TogglePublished(context.Background(), "n1")
	require.NoError(t, err)
	assert.True(t, item.IsPublished)
	assert.NotNil(t, item.PublishedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewsTogglePublishedTwiceKeepsFirstPublishStamp(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNewsRepository(db)

	published := time.Date(2025, 1, 1, 7, 0, 0, 0, time.UTC)
	now := time.Now()
	const toggle = `UPDATE news SET is_published = NOT is_published,
published_at = CASE WHEN NOT is_published AND published_at IS NULL THEN $2 ELSE published_at END,`
	mock.ExpectQuery(regexp.QuoteMeta(toggle)).
		WithArgs("n1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(newsRowColumns).
			AddRow("n1", "Wisuda", "wisuda", nil, "isi", nil, "kegiatan", nil, false, published, now, now))
	mock.ExpectQuery(regexp.QuoteMeta(toggle)).
		WithArgs("n1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(newsRowColumns).
			AddRow("n1", "Wisuda", "wisuda", nil, "isi", nil, "kegiatan", nil, true, published, now, now))

	hidden, err := repo.TogglePublished(context.Background(), "n1")
	require.NoError(t, err)
	assert.False(t, hidden.IsPublished)

	restored, err := repo.TogglePublished(context.Background(), "n1")
	require.NoError(t, err)
	assert.True(t, restored.IsPublished)
	require.NotNil(t, restored.PublishedAt)
	assert.True(t, published.Equal(*restored.PublishedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewsTogglePublishedMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNewsRepository(db)

	mock.ExpectQuery("UPDATE news SET is_published").WillReturnRows(sqlmock.NewRows(newsRowColumns))

	_, err := repo.TogglePublished(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestNewsSlugExists(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNewsRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM news WHERE slug = $1 AND id::text <> $2)")).
		WithArgs("wisuda", "").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.SlugExists(context.Background(), "wisuda", "")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestNewsCounts(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNewsRepository(db)

	mock.ExpectQuery("COUNT\\(\\*\\) FILTER").
		WillReturnRows(sqlmock.NewRows([]string{"total", "published"}).AddRow(10, 4))

	total, published, err := repo.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, total)
	assert.Equal(t, 4, published)
}

func TestGalleryListFeatured(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGalleryRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(galleryRowColumns).AddRow("g1", "Wisuda", nil, "/media/gallery/a.jpg", "kegiatan", true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM galleries WHERE is_featured = TRUE ORDER BY created_at DESC LIMIT 6")).WillReturnRows(rows)

	items, err := repo.List(context.Background(), models.GalleryFilter{FeaturedOnly: true, Limit: 6})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].IsFeatured)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGalleryToggleFeatured(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGalleryRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE galleries SET is_featured = NOT is_featured")).
		WithArgs("g1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(galleryRowColumns).AddRow("g1", "Wisuda", nil, "/media/a.jpg", "", false, now, now))

	item, err := repo.ToggleFeatured(context.Background(), "g1")
	require.NoError(t, err)
	assert.False(t, item.IsFeatured)
}

func TestGalleryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGalleryRepository(db)

	mock.ExpectExec("DELETE FROM galleries").WithArgs("g9").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), "g9"), sql.ErrNoRows)
}
