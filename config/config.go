package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"food-marketplace-api/models"

	"github.com/glebarez/sqlite"
	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Config holds every runtime setting of the marketplace API
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Twilio   TwilioConfig   `yaml:"twilio"`
	Telegram TelegramConfig `yaml:"telegram"`
	AMQP     AMQPConfig     `yaml:"amqp"`
	Storage  StorageConfig  `yaml:"storage"`
}

type ServerConfig struct {
	Port                string   `yaml:"port"`
	GinMode             string   `yaml:"gin_mode"`
	CORSOrigins         []string `yaml:"cors_origins"`
	StoreTimeoutSeconds int      `yaml:"store_timeout_seconds"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, mysql or postgres
	DSN    string `yaml:"dsn"`
}

type AuthConfig struct {
	JWTSecret     string `yaml:"jwt_secret"`
	TokenTTLHours int    `yaml:"token_ttl_hours"`
	AdminAPIKey   string `yaml:"admin_api_key"`
	OTPTTLMinutes int    `yaml:"otp_ttl_minutes"`
}

type LedgerConfig struct {
	ClampPayableAtZero bool `yaml:"clamp_payable_at_zero"`
}

type DispatchConfig struct {
	Strategy             string `yaml:"strategy"` // nearest or first
	RetryIntervalSeconds int    `yaml:"retry_interval_seconds"`
	MaxAttempts          int    `yaml:"max_attempts"`
}

type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	FromNumber string `yaml:"from_number"`
	BaseURL    string `yaml:"base_url"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
}

type AMQPConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

type StorageConfig struct {
	S3Bucket string `yaml:"s3_bucket"`
	ImageDir string `yaml:"image_dir"`
}

// Default returns the configuration used when nothing else is provided
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:                "8080",
			GinMode:             "debug",
			CORSOrigins:         []string{"*"},
			StoreTimeoutSeconds: 5,
		},
		Database: DatabaseConfig{Driver: "sqlite", DSN: "food_marketplace.db"},
		Auth: AuthConfig{
			JWTSecret:     "food_marketplace_secret_2024",
			TokenTTLHours: 24,
			OTPTTLMinutes: 30,
		},
		Ledger:   LedgerConfig{ClampPayableAtZero: true},
		Dispatch: DispatchConfig{Strategy: "nearest", RetryIntervalSeconds: 60, MaxAttempts: 10},
		Twilio:   TwilioConfig{BaseURL: "https://api.twilio.com"},
		AMQP:     AMQPConfig{Exchange: "marketplace_events"},
		Storage:  StorageConfig{ImageDir: "images"},
	}
}

// Load reads .env, then the optional YAML file named by CONFIG_FILE, then
// environment overrides. Later sources win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	cfg.applyEnv()

	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret must not be empty")
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.GinMode = getEnv("GIN_MODE", c.Server.GinMode)
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		c.Server.CORSOrigins = strings.Split(origins, ",")
	}
	c.Server.StoreTimeoutSeconds = getEnvInt("STORE_TIMEOUT_SECONDS", c.Server.StoreTimeoutSeconds)

	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.DSN = getEnv("DB_DSN", c.Database.DSN)

	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.TokenTTLHours = getEnvInt("TOKEN_TTL_HOURS", c.Auth.TokenTTLHours)
	c.Auth.AdminAPIKey = getEnv("ADMIN_API_KEY", c.Auth.AdminAPIKey)
	c.Auth.OTPTTLMinutes = getEnvInt("OTP_TTL_MINUTES", c.Auth.OTPTTLMinutes)

	c.Ledger.ClampPayableAtZero = getEnvBool("PAYABLE_CLAMP_ZERO", c.Ledger.ClampPayableAtZero)

	c.Dispatch.Strategy = getEnv("DISPATCH_STRATEGY", c.Dispatch.Strategy)
	c.Dispatch.RetryIntervalSeconds = getEnvInt("DISPATCH_RETRY_INTERVAL_SECONDS", c.Dispatch.RetryIntervalSeconds)
	c.Dispatch.MaxAttempts = getEnvInt("DISPATCH_MAX_ATTEMPTS", c.Dispatch.MaxAttempts)

	c.Twilio.AccountSID = getEnv("TWILIO_ACCOUNT_SID", c.Twilio.AccountSID)
	c.Twilio.AuthToken = getEnv("TWILIO_AUTH_TOKEN", c.Twilio.AuthToken)
	c.Twilio.FromNumber = getEnv("TWILIO_NUMBER", c.Twilio.FromNumber)

	c.Telegram.BotToken = getEnv("TELEGRAM_BOT_TOKEN", c.Telegram.BotToken)

	c.AMQP.URL = getEnv("AMQP_URL", c.AMQP.URL)
	c.AMQP.Exchange = getEnv("AMQP_EXCHANGE", c.AMQP.Exchange)

	c.Storage.S3Bucket = getEnv("S3_BUCKET", c.Storage.S3Bucket)
	c.Storage.ImageDir = getEnv("IMAGE_DIR", c.Storage.ImageDir)
}

func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.Server.StoreTimeoutSeconds) * time.Second
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLHours) * time.Hour
}

func (c *Config) OTPTTL() time.Duration {
	return time.Duration(c.Auth.OTPTTLMinutes) * time.Minute
}

func (c *Config) DispatchRetryInterval() time.Duration {
	return time.Duration(c.Dispatch.RetryIntervalSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// OpenDB connects to the configured database driver
func OpenDB(cfg DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Migrate auto-migrates all models
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Customer{},
		&models.CartItem{},
		&models.Vendor{},
		&models.Food{},
		&models.Offer{},
		&models.DeliveryUser{},
		&models.Transaction{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusHistory{},
		&models.PendingAssignment{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
