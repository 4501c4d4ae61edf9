package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	App struct {
		Env  string
		Port string
	}
	DB struct {
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string
	}
	JWT struct {
		Secret        string
		ExpiryMinutes int
	}
	SMTP struct {
		Host     string
		Port     string
		Username string
		Password string
		From     string
	}
}

// Global DB instance, accessible after ConnectDB() is called via Initialize.
var DB *gorm.DB

var appConfig *Config
var once sync.Once

// LoadConfig loads configuration from environment variables into the Config struct.
func LoadConfig() (*Config, error) {
	// A missing .env file is fine; production sets env vars directly.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on system environment variables.")
	}

	cfg := &Config{}

	cfg.App.Env = getEnv("APP_ENV", "development")
	cfg.App.Port = getEnv("PORT", "8080")

	cfg.DB.Host = getEnv("DB_HOST", "localhost")
	cfg.DB.Port = getEnv("DB_PORT", "5432")
	cfg.DB.User = getEnv("DB_USER", "postgres")
	cfg.DB.Password = getEnv("DB_PASSWORD", "password")
	cfg.DB.Name = getEnv("DB_NAME", "interclub_db")
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.JWT.Secret = getEnv("JWT_SECRET", "change-me")
	var err error
	cfg.JWT.ExpiryMinutes, err = getEnvAsInt("JWT_EXPIRY_MINUTES", 12*60)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRY_MINUTES: %w", err)
	}

	// Mail is optional; an unset host disables outbound notifications.
	cfg.SMTP.Host = getEnv("MAIL_SERVER", "")
	cfg.SMTP.Port = getEnv("MAIL_PORT", "587")
	cfg.SMTP.Username = getEnv("MAIL_USERNAME", "")
	cfg.SMTP.Password = getEnv("MAIL_PASSWORD", "")
	cfg.SMTP.From = getEnv("MAIL_DEFAULT_SENDER", cfg.SMTP.Username)

	if cfg.JWT.Secret == "change-me" && cfg.App.Env == "production" {
		log.Println("WARNING: Using default JWT secret in production. Set JWT_SECRET.")
	}

	appConfig = cfg
	return cfg, nil
}

// ConnectDB establishes a connection to the database and sets the global DB variable.
func ConnectDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		cfg.DB.Host,
		cfg.DB.User,
		cfg.DB.Password,
		cfg.DB.Name,
		cfg.DB.Port,
		cfg.DB.SSLMode,
	)

	gormConfig := &gorm.Config{TranslateError: true}
	if cfg.App.Env == "development" {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	} else {
		gormConfig.Logger = logger.Default.LogMode(logger.Silent)
	}

	gormDB, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	DB = gormDB
	log.Println("Successfully connected to database")
	return gormDB, nil
}

// Initialize loads the configuration and connects to the database. Call once
// at startup.
func Initialize() error {
	var loadErr error
	once.Do(func() {
		cfg, err := LoadConfig()
		if err != nil {
			loadErr = fmt.Errorf("failed to load configuration: %w", err)
			return
		}
		if _, err := ConnectDB(cfg); err != nil {
			loadErr = fmt.Errorf("failed to connect to database: %w", err)
		}
	})
	return loadErr
}

// GetConfig returns the loaded application configuration.
func GetConfig() *Config {
	if appConfig == nil {
		log.Fatal("Configuration not loaded. Call config.Initialize() first.")
	}
	return appConfig
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) (int, error) {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return fallback, fmt.Errorf("env var %s: expected integer, got '%s'", key, valueStr)
	}
	return value, nil
}
