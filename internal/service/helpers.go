package service

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"

	appErrors "github.com/fathussalafi/yayasan-api/pkg/errors"
)

const (
	pqForeignKeyViolation = "23503"
	pqUniqueViolation     = "23505"
)

func internalError(err error, message string) *appErrors.Error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

// notFoundOr maps sql.ErrNoRows to a 404 and anything else to a 500.
func notFoundOr(err error, notFound, internal string) *appErrors.Error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return internalError(err, internal)
}

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// categoryFilter treats "all" and blank as no filter.
func categoryFilter(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, "all") {
		return ""
	}
	return raw
}

func trimmedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func optional(s string) *string {
	v := strings.TrimSpace(s)
	if v == "" {
		return nil
	}
	return &v
}
