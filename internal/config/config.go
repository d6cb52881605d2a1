package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppMode      string
	Port         string
	Database     DatabaseConfig
	JWT          JWTConfig
	Cookie       CookieConfig
	Paypack      PaypackConfig
	Redis        RedisConfig
	SMTP         SMTPConfig
	Cloudinary   CloudinaryConfig
	NATS         NATSConfig
	Verification VerificationConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver   string // mysql | postgres
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	RefreshSecret    string
	AccessTokenMins  int
	RefreshTokenDays int
}

// CookieConfig holds cookie configuration
type CookieConfig struct {
	Secure   bool
	SameSite string
	Domain   string
}

// PaypackConfig holds mobile-money provider credentials
type PaypackConfig struct {
	BaseURL      string
	Mode         string // sandbox | production
	ClientID     string
	ClientSecret string
}

// RedisConfig is optional; an empty Addr keeps the payment token cache in memory
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// SMTPConfig holds outgoing mail settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

type NATSConfig struct {
	URL string
}

// VerificationConfig controls emailed verification codes
type VerificationConfig struct {
	CodeLifetime time.Duration
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ .env file not found, using environment variables")
	}

	// trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	paypack, err := loadPaypackConfig()
	if err != nil {
		return nil, err
	}

	config := &Config{
		AppMode:      appMode,
		Port:         getEnv("PORT", "8000"),
		Database:     loadDatabaseConfig(appMode),
		JWT:          loadJWTConfig(appMode),
		Cookie:       loadCookieConfig(appMode),
		Paypack:      paypack,
		Redis:        loadRedisConfig(),
		SMTP:         loadSMTPConfig(),
		Cloudinary:   loadCloudinaryConfig(),
		NATS:         NATSConfig{URL: getEnv("NATS_URL", "")},
		Verification: loadVerificationConfig(),
	}

	AppConfig = config

	log.Printf("✅ Configuration loaded successfully [MODE: %s]", appMode)
	return config, nil
}

func modePrefix(mode string) string {
	if mode == "prod" {
		return "PROD_"
	}
	return "DEV_"
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := modePrefix(mode)
	driver := strings.ToLower(getEnv("DB_DRIVER", "mysql"))

	defaultPort := "3306"
	if driver == "postgres" {
		defaultPort = "5432"
	}

	return DatabaseConfig{
		Driver:   driver,
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", defaultPort),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "makerhub"),
		SSLMode:  getEnv(prefix+"DB_SSLMODE", "disable"),
	}
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := modePrefix(mode)

	return JWTConfig{
		Secret:           getEnv(prefix+"JWT_SECRET", "default_secret"),
		RefreshSecret:    getEnv(prefix+"JWT_REFRESH_SECRET", "default_refresh_secret"),
		AccessTokenMins:  getEnvInt("ACCESS_TOKEN_MINUTES", 60),
		RefreshTokenDays: getEnvInt("REFRESH_TOKEN_DAYS", 7),
	}
}

// loadCookieConfig loads cookie config based on mode
func loadCookieConfig(mode string) CookieConfig {
	secure, _ := strconv.ParseBool(getEnv(modePrefix(mode)+"COOKIE_SECURE", "false"))

	return CookieConfig{
		Secure:   secure,
		SameSite: getEnv("COOKIE_SAMESITE", "lax"),
		Domain:   getEnv("COOKIE_DOMAIN", ""),
	}
}

// loadPaypackConfig picks sandbox credentials when PAYPACK_MODE=sandbox,
// falling back to the live pair if no sandbox pair is set
func loadPaypackConfig() (PaypackConfig, error) {
	mode := strings.ToLower(getEnv("PAYPACK_MODE", "production"))
	if mode != "sandbox" && mode != "production" {
		return PaypackConfig{}, fmt.Errorf("invalid PAYPACK_MODE: '%s' (must be 'sandbox' or 'production')", mode)
	}

	clientID := getEnv("PAYPACK_CLIENT_ID", "")
	clientSecret := getEnv("PAYPACK_CLIENT_SECRET", "")
	if mode == "sandbox" {
		clientID = getEnv("PAYPACK_SANDBOX_CLIENT_ID", clientID)
		clientSecret = getEnv("PAYPACK_SANDBOX_CLIENT_SECRET", clientSecret)
	}

	return PaypackConfig{
		BaseURL:      getEnv("PAYPACK_BASE_URL", "https://payments.paypack.rw/api"),
		Mode:         mode,
		ClientID:     clientID,
		ClientSecret: clientSecret,
	}, nil
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:     getEnv("REDIS_ADDR", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}
}

func loadSMTPConfig() SMTPConfig {
	return SMTPConfig{
		Host:     getEnv("SMTP_HOST", ""),
		Port:     getEnvInt("SMTP_PORT", 587),
		Username: getEnv("SMTP_USERNAME", ""),
		Password: getEnv("SMTP_PASSWORD", ""),
		From:     getEnv("SMTP_FROM", "MakerHub <no-reply@makerhub.rw>"),
	}
}

func loadCloudinaryConfig() CloudinaryConfig {
	return CloudinaryConfig{
		CloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
		APIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		APISecret: getEnv("CLOUDINARY_API_SECRET", ""),
		Folder:    getEnv("CLOUDINARY_FOLDER", "makerhub"),
	}
}

func loadVerificationConfig() VerificationConfig {
	return VerificationConfig{
		CodeLifetime: time.Duration(getEnvInt("VERIFICATION_CODE_LIFETIME_MINUTES", 15)) * time.Minute,
	}
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "https://makerhub.rw"
	}
	return origins
}
