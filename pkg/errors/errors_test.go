package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneMatchesTemplate(t *testing.T) {
	err := Clone(ErrAdmissionClosed, "PPDB tahun ajaran 2025/2026 belum dibuka.")
	assert.True(t, stdErrors.Is(err, ErrAdmissionClosed))
	assert.False(t, stdErrors.Is(err, ErrNotFound))
	assert.Equal(t, http.StatusForbidden, err.Status)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(fmt.Errorf("boom"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Nil(t, FromError(nil))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := fmt.Errorf("db down")
	err := Wrap(cause, ErrInternal.Code, ErrInternal.Status, "failed")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed: db down", err.Error())
}
