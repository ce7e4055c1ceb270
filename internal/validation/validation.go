// Package validation builds the request validator shared by every service.
// Field messages are rendered in Indonesian because they are shown to parents
// filling in the admission form.
package validation

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/locales/id"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	idTranslations "github.com/go-playground/validator/v10/translations/id"

	"github.com/fathussalafi/yayasan-api/internal/models"
	appErrors "github.com/fathussalafi/yayasan-api/pkg/errors"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

var (
	uni   = ut.New(id.New())
	trans ut.Translator
)

func init() {
	trans, _ = uni.GetTranslator("id")
}

var customTags = []struct {
	tag  string
	text string
	fn   validator.Func
}{
	{"gender", "{0} harus L atau P", func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		return v == "L" || v == "P"
	}},
	{"school_level", "{0} harus salah satu dari RA, TK, MI, MTs, MA", func(fl validator.FieldLevel) bool {
		for _, lvl := range models.SchoolLevels {
			if string(lvl) == fl.Field().String() {
				return true
			}
		}
		return false
	}},
	{"news_category", "{0} harus salah satu dari prestasi, kegiatan, pengumuman, berita", func(fl validator.FieldLevel) bool {
		for _, c := range models.NewsCategories {
			if string(c) == fl.Field().String() {
				return true
			}
		}
		return false
	}},
	{"ymd", "{0} harus berformat YYYY-MM-DD", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(DateLayout, fl.Field().String())
		return err == nil
	}},
}

// New returns a validator with JSON field names, Indonesian messages and the
// domain tags gender, school_level, news_category and ymd.
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = idTranslations.RegisterDefaultTranslations(v, trans)
	for _, ct := range customTags {
		ct := ct
		_ = v.RegisterValidation(ct.tag, ct.fn)
		_ = v.RegisterTranslation(ct.tag, trans,
			func(t ut.Translator) error { return t.Add(ct.tag, ct.text, true) },
			func(t ut.Translator, fe validator.FieldError) string {
				s, _ := t.T(ct.tag, fe.Field())
				return s
			},
		)
	}
	return v
}

// Details maps each failing field to its translated message.
func Details(err error) map[string]string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}
	out := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[fe.Field()] = fe.Translate(trans)
	}
	return out
}

// Wrap converts a validator error into a VALIDATION_ERROR with field details.
func Wrap(err error, message string) *appErrors.Error {
	wrapped := appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	wrapped.Details = Details(err)
	return wrapped
}
