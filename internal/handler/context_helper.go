package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fathussalafi/yayasan-api/internal/middleware"
	"github.com/fathussalafi/yayasan-api/internal/models"
	appErrors "github.com/fathussalafi/yayasan-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.Claims(c)
}

// pathID returns the :id parameter. Malformed ids cannot match any row, so
// they are reported as not found.
func pathID(c *gin.Context) (string, error) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", appErrors.ErrNotFound
	}
	return id, nil
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// cacheMeta marks the cache outcome and returns the response meta.
func cacheMeta(c *gin.Context, hit bool, start time.Time) map[string]interface{} {
	middleware.SetCacheHit(c, hit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["cache_hit"] = hit
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	return meta
}
