package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all configuration for the application
type Config struct {
	AppMode  string
	Port     string
	Database DatabaseConfig
	JWT      JWTConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Fund     FundConfig
	Cookie   CookieConfig
}

// CookieConfig holds auth cookie attributes
type CookieConfig struct {
	Secure   bool
	SameSite string
	Domain   string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	RefreshSecret    string
	AccessTokenMins  int
	RefreshTokenDays int
}

// RedisConfig holds Redis configuration (idempotency store; optional)
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// StorageConfig holds proof-image storage configuration
type StorageConfig struct {
	Driver    string // "disk" or "gcs"
	DiskRoot  string
	DiskURL   string
	GCSBucket string
}

// FundConfig holds chit-fund business parameters
type FundConfig struct {
	MonthlyContribution decimal.Decimal
	MonthlyDues         decimal.Decimal
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	fund, err := loadFundConfig()
	if err != nil {
		return nil, err
	}

	config := &Config{
		AppMode:  appMode,
		Port:     getEnv("PORT", "3000"),
		Database: loadDatabaseConfig(appMode),
		JWT:      loadJWTConfig(appMode),
		Redis:    loadRedisConfig(),
		Storage:  loadStorageConfig(),
		Fund:     fund,
		Cookie:   loadCookieConfig(appMode),
	}

	AppConfig = config

	log.Printf("✅ Configuration loaded successfully [MODE: %s]", appMode)
	return config, nil
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	return DatabaseConfig{
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", "3306"),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "chitfund_ledger"),
	}
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	accessMins, _ := strconv.Atoi(getEnv("ACCESS_TOKEN_MINUTES", "15"))
	refreshDays, _ := strconv.Atoi(getEnv("REFRESH_TOKEN_DAYS", "7"))

	return JWTConfig{
		Secret:           getEnv(prefix+"JWT_SECRET", "default_secret"),
		RefreshSecret:    getEnv(prefix+"JWT_REFRESH_SECRET", "default_refresh_secret"),
		AccessTokenMins:  accessMins,
		RefreshTokenDays: refreshDays,
	}
}

// loadRedisConfig loads Redis config. Empty addr disables the idempotency store.
func loadRedisConfig() RedisConfig {
	db, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	return RedisConfig{
		Addr:     getEnv("REDIS_ADDR", ""),
		Password: getEnv("REDIS_PASS", ""),
		DB:       db,
	}
}

// loadStorageConfig loads file storage config
func loadStorageConfig() StorageConfig {
	return StorageConfig{
		Driver:    getEnv("STORAGE_DRIVER", "disk"),
		DiskRoot:  getEnv("STORAGE_DISK_ROOT", "./uploads"),
		DiskURL:   getEnv("STORAGE_DISK_URL", "/uploads"),
		GCSBucket: getEnv("STORAGE_GCS_BUCKET", ""),
	}
}

// loadCookieConfig loads auth cookie attributes
func loadCookieConfig(mode string) CookieConfig {
	secure := mode == "prod"
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		secure = v == "true"
	}
	return CookieConfig{
		Secure:   secure,
		SameSite: getEnv("COOKIE_SAMESITE", "Lax"),
		Domain:   getEnv("COOKIE_DOMAIN", ""),
	}
}

// loadFundConfig loads chit-fund business parameters
func loadFundConfig() (FundConfig, error) {
	contribution, err := decimal.NewFromString(getEnv("MONTHLY_CONTRIBUTION", "2000"))
	if err != nil {
		return FundConfig{}, fmt.Errorf("invalid MONTHLY_CONTRIBUTION: %w", err)
	}
	dues, err := decimal.NewFromString(getEnv("MONTHLY_DUES", "2000"))
	if err != nil {
		return FundConfig{}, fmt.Errorf("invalid MONTHLY_DUES: %w", err)
	}
	return FundConfig{
		MonthlyContribution: contribution,
		MonthlyDues:         dues,
	}, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// HasRedis reports whether an idempotency store is configured
func (c *Config) HasRedis() bool {
	return c.Redis.Addr != ""
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "https://ledger.chitfund.example"
	}
	return origins
}
