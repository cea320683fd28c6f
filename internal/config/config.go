package config

import (
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// Config holds runtime configuration loaded from environment variables.
type Config struct {
	DatabaseURL       string
	JWTSecret         string
	JWTIssuer         string
	AccessTTLSeconds  int64
	RefreshTTLSeconds int64
	CorsOrigins       []string

	SiteName     string
	SiteURL      string
	SiteTimezone string
	SiteLocale   string

	MediaStoragePath string
	MediaS3Endpoint  string
	MediaS3Access    string
	MediaS3Secret    string
	MediaS3UseSSL    bool
	MediaS3Bucket    string

	IndicatorsURL            string
	IndicatorsTimeoutSeconds int
	IndicatorsCacheSeconds   int

	OnAirTickSeconds int

	Port             string
	LogDir           string
	LogRetentionDays int
}

func Load() Config {
	return Config{
		DatabaseURL:              mustEnv("DATABASE_URL"),
		JWTSecret:                mustEnv("JWT_SECRET"),
		JWTIssuer:                envOr("JWT_ISSUER", "radiohits"),
		AccessTTLSeconds:         int64(envOrInt("ACCESS_TTL_SECONDS", 14400)),
		RefreshTTLSeconds:        int64(envOrInt("REFRESH_TTL_SECONDS", 1209600)),
		CorsOrigins:              parseCSV(envOr("CORS_ORIGINS", "")),
		SiteName:                 envOr("SITE_NAME", "Radio Hits"),
		SiteURL:                  envOr("SITE_URL", "http://localhost:8080"),
		SiteTimezone:             envOr("SITE_TIMEZONE", "America/Santiago"),
		SiteLocale:               envOr("SITE_LOCALE", "es"),
		MediaStoragePath:         envOr("MEDIA_STORAGE_PATH", "storage/media"),
		MediaS3Endpoint:          envOr("MEDIA_S3_ENDPOINT", ""),
		MediaS3Access:            envOr("MEDIA_S3_ACCESS_KEY", ""),
		MediaS3Secret:            envOr("MEDIA_S3_SECRET_KEY", ""),
		MediaS3UseSSL:            envOrBool("MEDIA_S3_USE_SSL", true),
		MediaS3Bucket:            envOr("MEDIA_S3_BUCKET", "radiohits-media"),
		IndicatorsURL:            envOr("INDICATORS_URL", "https://mindicador.cl/api"),
		IndicatorsTimeoutSeconds: envOrInt("INDICATORS_TIMEOUT_SECONDS", 4),
		IndicatorsCacheSeconds:   envOrInt("INDICATORS_CACHE_SECONDS", 900),
		OnAirTickSeconds:         envOrInt("ON_AIR_TICK_SECONDS", 30),
		Port:                     envOr("PORT", "8080"),
		LogDir:                   envOr("LOG_DIR", "storage/logs"),
		LogRetentionDays:         envOrInt("LOG_RETENTION_DAYS", 7),
	}
}

// Location resolves SiteTimezone, falling back to UTC when the zone is unknown.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.SiteTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func mustEnv(key string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		panic("missing env var: " + key)
	}
	return value
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value != "" {
			items = append(items, value)
		}
	}
	return items
}
