package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/radiohits")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SITE_TIMEZONE", "")
	t.Setenv("CORS_ORIGINS", "")

	cfg := Load()

	assert.Equal(t, "radiohits", cfg.JWTIssuer)
	assert.Equal(t, "America/Santiago", cfg.SiteTimezone)
	assert.Equal(t, "es", cfg.SiteLocale)
	assert.Equal(t, "https://mindicador.cl/api", cfg.IndicatorsURL)
	assert.Nil(t, cfg.CorsOrigins)
	assert.True(t, cfg.MediaS3UseSSL)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 7, cfg.LogRetentionDays)
}

func TestLoadPanicsWithoutRequiredEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "secret")

	assert.PanicsWithValue(t, "missing env var: DATABASE_URL", func() { Load() })
}

func TestParseCSV(t *testing.T) {
	assert.Equal(t, []string{"https://a.cl", "https://b.cl"}, parseCSV(" https://a.cl, ,https://b.cl "))
	assert.Nil(t, parseCSV("   "))
}

func TestEnvOrIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("RH_TEST_INT", "abc")
	assert.Equal(t, 7, envOrInt("RH_TEST_INT", 7))
	t.Setenv("RH_TEST_INT", "12")
	assert.Equal(t, 12, envOrInt("RH_TEST_INT", 7))
}

func TestLocation(t *testing.T) {
	cfg := Config{SiteTimezone: "Not/AZone"}
	assert.Equal(t, time.UTC, cfg.Location())

	cfg.SiteTimezone = "America/Santiago"
	loc := cfg.Location()
	require.NotNil(t, loc)
	assert.Equal(t, "America/Santiago", loc.String())
}
