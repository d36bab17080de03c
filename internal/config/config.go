/**
 * @description
 * This package handles the configuration management for the service. It uses the
 * Viper library to read configuration from environment variables, providing a
 * centralized and straightforward way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
	"github.com/finbook/ledger-service/internal/domain"
)

// Config holds all the configuration variables for the ledger-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort                 string `mapstructure:"SERVER_PORT"`
	DatabaseURL                string `mapstructure:"DATABASE_URL"`
	RedisURL                   string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix       string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	RabbitMQURL                string `mapstructure:"RABBITMQ_URL"`
	GatewayJWTSecret           string `mapstructure:"GATEWAY_JWT_SECRET"`
	InternalAPIKey             string `mapstructure:"INTERNAL_API_KEY"`
	DepositOverflowPolicy      string `mapstructure:"DEPOSIT_OVERFLOW_POLICY"`
	MutationRateLimitPerMinute int    `mapstructure:"MUTATION_RATE_LIMIT_PER_MINUTE"`
}

// OverflowPolicy translates the configured deposit overflow policy string into
// the domain value, falling back to discard for unknown input.
func (c Config) OverflowPolicy() domain.OverflowPolicy {
	switch strings.ToLower(strings.TrimSpace(c.DepositOverflowPolicy)) {
	case "reject":
		return domain.OverflowReject
	case "", "discard":
		return domain.OverflowDiscard
	default:
		log.Printf("level=warn component=config msg=\"unknown deposit overflow policy; using discard\" value=%q", c.DepositOverflowPolicy)
		return domain.OverflowDiscard
	}
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "finbook:rate_limit")
	viper.SetDefault("DEPOSIT_OVERFLOW_POLICY", "discard")
	viper.SetDefault("MUTATION_RATE_LIMIT_PER_MINUTE", 60)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL", "REDIS_URL", "LEDGER_REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("GATEWAY_JWT_SECRET")
	_ = viper.BindEnv("INTERNAL_API_KEY", "INTERNAL_API_KEY", "LEDGER_SERVICE_INTERNAL_API_KEY")
	_ = viper.BindEnv("DEPOSIT_OVERFLOW_POLICY")
	_ = viper.BindEnv("MUTATION_RATE_LIMIT_PER_MINUTE")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		// If the config file is not found, we can ignore the error.
		// For other errors, we should return them.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	if strings.TrimSpace(config.InternalAPIKey) == "" {
		config.InternalAPIKey = strings.TrimSpace(os.Getenv("LEDGER_SERVICE_INTERNAL_API_KEY"))
	}
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "finbook:rate_limit"
	}

	if config.MutationRateLimitPerMinute < 0 {
		log.Printf("level=warn component=config msg=\"negative mutation rate limit configured; disabling limiter\" limit=%d", config.MutationRateLimitPerMinute)
		config.MutationRateLimitPerMinute = 0
	}

	return
}
