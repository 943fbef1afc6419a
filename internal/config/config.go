package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Geometry  GeometryConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host           string
	Port           string
	Name           string
	User           string
	Password       string
	PoolMin        int
	PoolMax        int
	MigrateOnStart bool
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// AuthConfig holds bearer token verification settings for tokens issued by
// the external identity provider.
type AuthConfig struct {
	Issuer       string
	Audience     string
	HMACSecret   string
	RSAPublicKey string
	AdminRole    string
	Enabled      bool
}

// RateLimitConfig holds request rate limiting configuration.
// When RedisURL is empty an in-memory store is used.
type RateLimitConfig struct {
	RedisURL string
	Requests int
	Window   time.Duration
	Enabled  bool
}

// GeometryConfig holds the approximate projection constants and the
// plausible coordinate bounds of the deployment region.
type GeometryConfig struct {
	CentralMeridian float64
	CentralParallel float64
	FalseEasting    float64
	FalseNorthing   float64
	ScaleFactor     float64

	MinX float64
	MaxX float64
	MinY float64
	MaxY float64

	MinLongitude float64
	MaxLongitude float64
	MinLatitude  float64
	MaxLatitude  float64

	// StrictParse discards the whole polygon when any vertex token is unparseable.
	StrictParse bool
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first when present.
// It uses viper to read values and provides sensible defaults for development.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	// Set defaults for development
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_HOST", "host.docker.internal")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "industria")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_POOL_MIN", 2)
	v.SetDefault("DB_POOL_MAX", 10)
	v.SetDefault("DB_MIGRATE_ON_START", true)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")

	v.SetDefault("AUTH_ENABLED", true)
	v.SetDefault("AUTH_ADMIN_ROLE", "ADMIN")

	v.SetDefault("RATE_LIMIT_ENABLED", true)
	v.SetDefault("RATE_LIMIT_REQUESTS", 300)
	v.SetDefault("RATE_LIMIT_WINDOW", "1m")

	// Lambert-style reference point for Morocco
	v.SetDefault("GEO_CENTRAL_MERIDIAN", -5.4)
	v.SetDefault("GEO_CENTRAL_PARALLEL", 33.3)
	v.SetDefault("GEO_FALSE_EASTING", 500000.0)
	v.SetDefault("GEO_FALSE_NORTHING", 300000.0)
	v.SetDefault("GEO_SCALE_FACTOR", 1.0)
	v.SetDefault("GEO_MIN_X", -1000000.0)
	v.SetDefault("GEO_MAX_X", 1500000.0)
	v.SetDefault("GEO_MIN_Y", -1500000.0)
	v.SetDefault("GEO_MAX_Y", 800000.0)
	v.SetDefault("GEO_MIN_LON", -17.5)
	v.SetDefault("GEO_MAX_LON", -0.9)
	v.SetDefault("GEO_MIN_LAT", 20.5)
	v.SetDefault("GEO_MAX_LAT", 36.0)
	v.SetDefault("GEOMETRY_STRICT_PARSE", false)

	// Bind environment variables
	v.AutomaticEnv()

	// Build configuration
	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("PORT"),
			Env:  v.GetString("ENV"),
		},
		Database: DatabaseConfig{
			Host:           v.GetString("DB_HOST"),
			Port:           v.GetString("DB_PORT"),
			Name:           v.GetString("DB_NAME"),
			User:           v.GetString("DB_USER"),
			Password:       v.GetString("DB_PASSWORD"),
			PoolMin:        v.GetInt("DB_POOL_MIN"),
			PoolMax:        v.GetInt("DB_POOL_MAX"),
			MigrateOnStart: v.GetBool("DB_MIGRATE_ON_START"),
		},
		CORS: CORSConfig{
			Origins: parseOrigins(v.GetString("CORS_ORIGINS")),
		},
		Auth: AuthConfig{
			Enabled:      v.GetBool("AUTH_ENABLED"),
			Issuer:       v.GetString("AUTH_ISSUER"),
			Audience:     v.GetString("AUTH_AUDIENCE"),
			HMACSecret:   v.GetString("AUTH_HMAC_SECRET"),
			RSAPublicKey: v.GetString("AUTH_RSA_PUBLIC_KEY"),
			AdminRole:    v.GetString("AUTH_ADMIN_ROLE"),
		},
		RateLimit: RateLimitConfig{
			Enabled:  v.GetBool("RATE_LIMIT_ENABLED"),
			Requests: v.GetInt("RATE_LIMIT_REQUESTS"),
			Window:   v.GetDuration("RATE_LIMIT_WINDOW"),
			RedisURL: v.GetString("RATE_LIMIT_REDIS_URL"),
		},
		Geometry: GeometryConfig{
			CentralMeridian: v.GetFloat64("GEO_CENTRAL_MERIDIAN"),
			CentralParallel: v.GetFloat64("GEO_CENTRAL_PARALLEL"),
			FalseEasting:    v.GetFloat64("GEO_FALSE_EASTING"),
			FalseNorthing:   v.GetFloat64("GEO_FALSE_NORTHING"),
			ScaleFactor:     v.GetFloat64("GEO_SCALE_FACTOR"),
			MinX:            v.GetFloat64("GEO_MIN_X"),
			MaxX:            v.GetFloat64("GEO_MAX_X"),
			MinY:            v.GetFloat64("GEO_MIN_Y"),
			MaxY:            v.GetFloat64("GEO_MAX_Y"),
			MinLongitude:    v.GetFloat64("GEO_MIN_LON"),
			MaxLongitude:    v.GetFloat64("GEO_MAX_LON"),
			MinLatitude:     v.GetFloat64("GEO_MIN_LAT"),
			MaxLatitude:     v.GetFloat64("GEO_MAX_LAT"),
			StrictParse:     v.GetBool("GEOMETRY_STRICT_PARSE"),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	// Validate database config
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Port == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Database.PoolMin < 0 {
		return fmt.Errorf("DB_POOL_MIN must be non-negative")
	}
	if c.Database.PoolMax < 1 {
		return fmt.Errorf("DB_POOL_MAX must be at least 1")
	}
	if c.Database.PoolMin > c.Database.PoolMax {
		return fmt.Errorf("DB_POOL_MIN must be less than or equal to DB_POOL_MAX")
	}

	// Validate CORS config
	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}

	// Validate auth config
	if c.Auth.Enabled {
		if c.Auth.HMACSecret == "" && c.Auth.RSAPublicKey == "" {
			return fmt.Errorf("AUTH_HMAC_SECRET or AUTH_RSA_PUBLIC_KEY is required when AUTH_ENABLED is true")
		}
		if c.Auth.AdminRole == "" {
			return fmt.Errorf("AUTH_ADMIN_ROLE is required when AUTH_ENABLED is true")
		}
	}

	// Validate rate limit config
	if c.RateLimit.Enabled {
		if c.RateLimit.Requests < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
		}
		if c.RateLimit.Window <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
		}
	}

	return c.Geometry.Validate()
}

// Validate checks that the projection and bounds are usable.
func (g GeometryConfig) Validate() error {
	if g.ScaleFactor <= 0 {
		return fmt.Errorf("GEO_SCALE_FACTOR must be positive")
	}
	if g.MinX >= g.MaxX {
		return fmt.Errorf("GEO_MIN_X must be less than GEO_MAX_X")
	}
	if g.MinY >= g.MaxY {
		return fmt.Errorf("GEO_MIN_Y must be less than GEO_MAX_Y")
	}
	if g.MinLongitude >= g.MaxLongitude {
		return fmt.Errorf("GEO_MIN_LON must be less than GEO_MAX_LON")
	}
	if g.MinLatitude >= g.MaxLatitude {
		return fmt.Errorf("GEO_MIN_LAT must be less than GEO_MAX_LAT")
	}
	if g.MinLongitude < -180 || g.MaxLongitude > 180 {
		return fmt.Errorf("GEO_MIN_LON and GEO_MAX_LON must be within [-180, 180]")
	}
	if g.MinLatitude < -90 || g.MaxLatitude > 90 {
		return fmt.Errorf("GEO_MIN_LAT and GEO_MAX_LAT must be within [-90, 90]")
	}
	return nil
}

// parseOrigins splits a comma-separated string of origins into a slice.
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
