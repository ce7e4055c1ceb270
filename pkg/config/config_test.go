package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDuration(t *testing.T) {
	assert.Equal(t, time.Hour, parseDuration("", time.Hour))
	assert.Equal(t, time.Hour, parseDuration("not-a-duration", time.Hour))
	assert.Equal(t, 90*time.Second, parseDuration("90s", time.Hour))
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"image/png", "image/jpeg"}, splitAndTrim(" image/png, ,image/jpeg "))
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("PPDB_DRAFT_TTL", "2h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 2*time.Hour, cfg.PPDB.DraftTTL)
	assert.Equal(t, int64(5*1024*1024), cfg.Media.MaxFileSizeBytes)
	assert.Contains(t, cfg.Media.AllowedMIMEs, "image/png")
	assert.Equal(t, "Asia/Jakarta", cfg.Location.String())
}

func TestLoadRejectsUnknownTimezone(t *testing.T) {
	t.Setenv("APP_TIMEZONE", "Asia/Atlantis")

	_, err := Load()
	assert.ErrorContains(t, err, "APP_TIMEZONE")
}
