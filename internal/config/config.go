package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Tesseract-Nexus/go-shared/secrets"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	// Database
	DatabaseURL string
	DBHost      string
	DBPort      int
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	// Server
	Port        string
	Environment string

	// Messaging and cache, both optional
	NATSURL  string
	RedisURL string

	// RBAC
	StaffServiceURL string

	// FleetID is sent as the tenant of published events
	FleetID string

	// Jobs
	AlertScanInterval time.Duration

	// Default days threshold of the shortage scan when the caller gives none
	ShortageDaysThreshold float64
}

func Load() *Config {
	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))

	interval, err := time.ParseDuration(getEnv("ALERT_SCAN_INTERVAL", "30m"))
	if err != nil || interval <= 0 {
		interval = 30 * time.Minute
	}

	days, err := strconv.ParseFloat(getEnv("SHORTAGE_DAYS_THRESHOLD", "7"), 64)
	if err != nil || days < 0 {
		days = 7
	}

	return &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      dbPort,
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  secrets.GetDBPassword(),
		DBName:      getEnv("DB_NAME", "fuel_procurement_db"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),

		Port:        getEnv("PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),

		NATSURL:  getEnv("NATS_URL", ""),
		RedisURL: getEnv("REDIS_URL", ""),

		StaffServiceURL: getEnv("STAFF_SERVICE_URL", "http://staff-service:8080"),
		FleetID:         getEnv("FLEET_ID", "default"),

		AlertScanInterval:     interval,
		ShortageDaysThreshold: days,
	}
}

// DSN returns DATABASE_URL when set, otherwise a DSN built from the DB_* settings
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	var logLevel logger.LogLevel
	if cfg.Environment == "production" {
		logLevel = logger.Error
	} else {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
