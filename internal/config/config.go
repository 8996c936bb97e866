// Package config loads the process-wide settings once at startup.
//
// Values come from an optional .env file and the environment, resolved through viper.
// The resulting Config is read-only and is handed to constructors explicitly.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime settings for the application.
type Config struct {
	AppPort string
	BaseURL string

	DBDriver    string
	DatabaseDSN string

	JWTSecret    string
	BcryptCost   int
	CookieSecure bool
	CSRFEnabled  bool

	RabbitMQURL string
	MailQueue   string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string

	StorageDriver string
	UploadDir     string
	S3Bucket      string
	S3Region      string
	S3Endpoint    string
	S3AccessKey   string
	S3SecretKey   string
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	StorageLocal = "local"
	StorageS3    = "s3"
)

// New returns a viper instance with every key defaulted and bound to the environment.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("APP_PORT", ":3000")
	v.SetDefault("BASE_URL", "http://localhost:3000")
	v.SetDefault("DB_DRIVER", DriverSQLite)
	v.SetDefault("DATABASE_DSN", "bienesraices.db")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("CSRF_ENABLED", true)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("MAIL_QUEUE", "mail_queue")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASS", "")
	v.SetDefault("MAIL_FROM", "Bienes Raices <no-reply@bienesraices.local>")
	v.SetDefault("STORAGE_DRIVER", StorageLocal)
	v.SetDefault("UPLOAD_DIR", "public/uploads")
	v.SetDefault("S3_BUCKET", "uploads")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_ACCESS_KEY", "")
	v.SetDefault("S3_SECRET_KEY", "")
	v.AutomaticEnv()
	return v
}

// Load reads an optional .env file, then builds a Config from the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: error loading .env file: %v", err)
	}
	return FromViper(New())
}

// FromViper builds a validated Config from an already configured viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppPort:       v.GetString("APP_PORT"),
		BaseURL:       strings.TrimRight(v.GetString("BASE_URL"), "/"),
		DBDriver:      strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseDSN:   v.GetString("DATABASE_DSN"),
		JWTSecret:     v.GetString("JWT_SECRET"),
		BcryptCost:    v.GetInt("BCRYPT_COST"),
		CookieSecure:  v.GetBool("COOKIE_SECURE"),
		CSRFEnabled:   v.GetBool("CSRF_ENABLED"),
		RabbitMQURL:   v.GetString("RABBITMQ_URL"),
		MailQueue:     v.GetString("MAIL_QUEUE"),
		SMTPHost:      v.GetString("SMTP_HOST"),
		SMTPPort:      v.GetInt("SMTP_PORT"),
		SMTPUser:      v.GetString("SMTP_USER"),
		SMTPPass:      v.GetString("SMTP_PASS"),
		MailFrom:      v.GetString("MAIL_FROM"),
		StorageDriver: strings.ToLower(v.GetString("STORAGE_DRIVER")),
		UploadDir:     v.GetString("UPLOAD_DIR"),
		S3Bucket:      v.GetString("S3_BUCKET"),
		S3Region:      v.GetString("S3_REGION"),
		S3Endpoint:    v.GetString("S3_ENDPOINT"),
		S3AccessKey:   v.GetString("S3_ACCESS_KEY"),
		S3SecretKey:   v.GetString("S3_SECRET_KEY"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the application cannot start with.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.DatabaseDSN == "" {
		return errors.New("DATABASE_DSN is required")
	}
	switch c.StorageDriver {
	case StorageLocal:
		if c.UploadDir == "" {
			return errors.New("UPLOAD_DIR is required for local storage")
		}
	case StorageS3:
		if c.S3Bucket == "" {
			return errors.New("S3_BUCKET is required for s3 storage")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.BcryptCost < 10 {
		c.BcryptCost = 10
	}
	return nil
}
