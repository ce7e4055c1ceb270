package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathussalafi/yayasan-api/internal/models"
	"github.com/fathussalafi/yayasan-api/internal/service"
	appErrors "github.com/fathussalafi/yayasan-api/pkg/errors"
)

type fakeValidator struct {
	token  string
	claims *models.JWTClaims
}

func (f fakeValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != f.token {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return f.claims, nil
}

type captureAudit struct{ entries []service.AuditEntry }

func (c *captureAudit) Record(_ context.Context, entry service.AuditEntry) {
	c.entries = append(c.entries, entry)
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handlers...)
	return r
}

func do(r *gin.Engine, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestJWT(t *testing.T) {
	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleAdmin}
	r := newRouter(JWT(fakeValidator{token: "good", claims: claims}))
	r.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, Claims(c).UserID)
	})

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"invalid token", "Bearer bad", http.StatusUnauthorized},
		{"valid token", "Bearer good", http.StatusOK},
		{"lowercase scheme", "bearer good", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(r, http.MethodGet, "/me", tc.header)
			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, "u1", rec.Body.String())
			}
		})
	}
}

func TestClaimsWithoutUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, Claims(c))

	c.Set(ContextUserKey, "not-claims")
	assert.Nil(t, Claims(c))
}

func TestRequireRoles(t *testing.T) {
	setRole := func(role models.UserRole) gin.HandlerFunc {
		return func(c *gin.Context) {
			if role != "" {
				c.Set(ContextUserKey, &models.JWTClaims{UserID: "u1", Role: role})
			}
			c.Next()
		}
	}
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }

	cases := []struct {
		role   models.UserRole
		status int
	}{
		{"", http.StatusUnauthorized},
		{models.RoleStaff, http.StatusForbidden},
		{models.RoleAdmin, http.StatusOK},
		{models.RoleSuperAdmin, http.StatusOK},
	}
	for _, tc := range cases {
		r := newRouter(setRole(tc.role), RequireRoles(ContentManagers...))
		r.GET("/x", ok)
		assert.Equal(t, tc.status, do(r, http.MethodGet, "/x", "").Code, "role %q", tc.role)
	}
}

func TestAuditRecordsSuccessOnly(t *testing.T) {
	recorder := &captureAudit{}
	r := newRouter(func(c *gin.Context) {
		c.Set(ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})
		c.Next()
	})
	r.PUT("/news/:id", Audit(recorder, models.AuditActionUpdate, "news"), func(c *gin.Context) {
		if c.Param("id") == "missing" {
			c.Status(http.StatusNotFound)
			return
		}
		c.Status(http.StatusOK)
	})

	do(r, http.MethodPut, "/news/n1", "")
	do(r, http.MethodPut, "/news/missing", "")

	require.Len(t, recorder.entries, 1)
	entry := recorder.entries[0]
	assert.Equal(t, models.AuditActionUpdate, entry.Action)
	assert.Equal(t, "news", entry.Resource)
	assert.Equal(t, "n1", entry.ResourceID)
	assert.Equal(t, "admin-1", entry.UserID)
}

func TestAuditNilRecorder(t *testing.T) {
	r := newRouter(Audit(nil, models.AuditActionCreate, "news"))
	r.POST("/news", func(c *gin.Context) { c.Status(http.StatusCreated) })

	assert.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/news", "").Code)
}

func TestCacheMeta(t *testing.T) {
	r := newRouter(WithResponseMeta())
	r.GET("/hit", func(c *gin.Context) {
		SetCacheHit(c, true)
		c.String(http.StatusOK, CacheStatus(c))
	})
	r.GET("/plain", func(c *gin.Context) {
		c.String(http.StatusOK, CacheStatus(c))
	})

	rec := do(r, http.MethodGet, "/hit", "")
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, "hit", rec.Body.String())

	rec = do(r, http.MethodGet, "/plain", "")
	assert.Empty(t, rec.Header().Get("X-Cache"))
	assert.Empty(t, rec.Body.String())
}

func TestMetricsMiddleware(t *testing.T) {
	metrics := service.NewMetricsService()
	r := newRouter(Metrics(metrics))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	do(r, http.MethodGet, "/ok", "")
	do(r, http.MethodGet, "/nowhere", "")

	assert.EqualValues(t, 2, metrics.Snapshot().RequestsTotal)
}

func TestMetricsMiddlewareNil(t *testing.T) {
	r := newRouter(Metrics(nil))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/ok", "").Code)
}
