package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	JWT       JWTConfig
	Scheduler SchedulerConfig
	Notifier  NotifierConfig
	Billing   BillingConfig
	LogLevel  string
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	AllowedHosts []string
	ReleaseMode  bool // gin release mode
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string
	Database string
}

// JWTConfig holds JWT-specific configuration
type JWTConfig struct {
	Secret    string
	ExpiresIn int // seconds
}

// SchedulerConfig controls the automatic weekly draw
type SchedulerConfig struct {
	Enabled  bool
	DrawSpec string // 5-field cron expression
	Timezone string
}

// NotifierConfig holds the outbound message gateway configuration
type NotifierConfig struct {
	BaseURL       string
	APIKey        string
	Sender        string
	AdminContacts []string
	Mock          bool
}

// BillingConfig holds subscription pricing used to derive monthly revenue
type BillingConfig struct {
	SubscriptionFee int64 // minor units per subscriber per month
}

// Load loads configuration from a .env file, environment variables and config files.
// path may name a config file directly; empty means search . and ./config for config.yaml.
func Load(path string) (*Config, error) {
	// A missing .env file is not an error
	_ = godotenv.Load()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file is not found, we'll use environment variables
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	// Hosting platforms hand the listen port over as PORT
	if port := os.Getenv("PORT"); port != "" {
		config.Server.Port = port
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the settings the service cannot start without
func (c *Config) Validate() error {
	if c.MongoDB.URI == "" {
		return errors.New("config: MongoDB.URI is required")
	}
	if c.Billing.SubscriptionFee <= 0 {
		return fmt.Errorf("config: Billing.SubscriptionFee must be positive, got %d", c.Billing.SubscriptionFee)
	}
	if c.Scheduler.Enabled && c.Scheduler.DrawSpec == "" {
		return errors.New("config: Scheduler.DrawSpec is required when the scheduler is enabled")
	}
	return nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("Server.Port", "4000")
	v.SetDefault("Server.AllowedHosts", []string{"localhost:3000"})
	v.SetDefault("Server.ReleaseMode", false)
	v.SetDefault("MongoDB.URI", "mongodb://localhost:27017")
	v.SetDefault("MongoDB.Database", "subscriber-draw")
	v.SetDefault("JWT.Secret", "")
	v.SetDefault("JWT.ExpiresIn", 24*60*60) // 24 hours
	v.SetDefault("Scheduler.Enabled", true)
	v.SetDefault("Scheduler.DrawSpec", "0 18 * * SAT")
	v.SetDefault("Scheduler.Timezone", "Asia/Kolkata")
	v.SetDefault("Notifier.BaseURL", "")
	v.SetDefault("Notifier.APIKey", "")
	v.SetDefault("Notifier.Sender", "draws@localhost")
	v.SetDefault("Notifier.AdminContacts", []string{})
	v.SetDefault("Notifier.Mock", true)
	v.SetDefault("Billing.SubscriptionFee", 9900)
	v.SetDefault("LogLevel", "info")
}
