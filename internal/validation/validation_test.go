package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/fathussalafi/yayasan-api/pkg/errors"
)

type sample struct {
	Gender   string `json:"gender" validate:"required,gender"`
	Level    string `json:"level" validate:"required,school_level"`
	Category string `json:"category" validate:"omitempty,news_category"`
	Born     string `json:"date_of_birth" validate:"required,ymd"`
	Email    string `json:"parent_email" validate:"required,email"`
}

func TestCustomTags(t *testing.T) {
	v := New()
	ok := sample{Gender: "P", Level: "MTs", Category: "prestasi", Born: "2018-05-01", Email: "budi@example.com"}
	require.NoError(t, v.Struct(ok))

	bad := sample{Gender: "X", Level: "mts", Category: "gosip", Born: "01-05-2018", Email: "nope"}
	err := v.Struct(bad)
	require.Error(t, err)

	details := Details(err)
	assert.Len(t, details, 5)
	assert.Equal(t, "gender harus L atau P", details["gender"])
	assert.Equal(t, "date_of_birth harus berformat YYYY-MM-DD", details["date_of_birth"])
	assert.Contains(t, details, "parent_email")
}

func TestWrap(t *testing.T) {
	err := New().Struct(sample{})
	wrapped := Wrap(err, "invalid payload")
	assert.Equal(t, appErrors.ErrValidation.Code, wrapped.Code)
	assert.Equal(t, "invalid payload", wrapped.Message)
	assert.NotEmpty(t, wrapped.Details["gender"])
	assert.Nil(t, Details(assert.AnError))
}
