package config

import (
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config carries everything the process needs at startup. The store
// connection target is the only required external parameter; everything
// else has a default.
type Config struct {
	AppEnv      string
	AppPort     string
	DatabaseDSN string
	RabbitMQURL string
	LogLevel    string
}

// Load reads configuration from the environment, with a best-effort .env
// file for development. An empty RABBITMQ_URL disables event publishing.
func Load() *Config {
	_ = godotenv.Load()

	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("DATABASE_DSN", "ormlab.db")
	viper.SetDefault("RABBITMQ_URL", "")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.AutomaticEnv()

	return &Config{
		AppEnv:      viper.GetString("APP_ENV"),
		AppPort:     viper.GetString("APP_PORT"),
		DatabaseDSN: viper.GetString("DATABASE_DSN"),
		RabbitMQURL: viper.GetString("RABBITMQ_URL"),
		LogLevel:    viper.GetString("LOG_LEVEL"),
	}
}
