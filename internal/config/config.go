package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"fittrack/backend/internal/dualstore"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Mongo   MongoConfig   `mapstructure:"mongo"`
	MySQL   MySQLConfig   `mapstructure:"mysql"`
	S3      S3Config      `mapstructure:"s3"`
	JWT     JWTConfig     `mapstructure:"jwt"`
	Stats   StatsConfig   `mapstructure:"stats"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// StorageConfig selects which stores are active. Mode is read once here and
// injected into the coordinator; nothing else re-reads it.
type StorageConfig struct {
	Mode string `mapstructure:"mode"` // mongo | mysql | dual
}

// ParsedMode validates and converts the configured mode.
func (s StorageConfig) ParsedMode() (dualstore.Mode, error) {
	return dualstore.ParseMode(s.Mode)
}

type MongoConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

type S3Config struct {
	Enabled         bool   `mapstructure:"enabled"`
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// JWTConfig defines JWT specific configuration.
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// StatsConfig points at the two indicator providers.
type StatsConfig struct {
	HealthBaseURL   string        `mapstructure:"health_base_url"`
	HealthAPIKey    string        `mapstructure:"health_api_key"`
	EconomicBaseURL string        `mapstructure:"economic_base_url"`
	EconomicAPIKey  string        `mapstructure:"economic_api_key"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()
	// Nested keys map to env vars, e.g. storage.mode -> STORAGE_MODE.
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("storage.mode", "dual")
	viper.SetDefault("mongo.uri", "mongodb://localhost:27017")
	viper.SetDefault("mongo.name", "fittrack")
	viper.SetDefault("mysql.dsn", "fittrack:fittrack@tcp(localhost:3306)/fittrack?parseTime=true&loc=UTC")
	viper.SetDefault("s3.enabled", false)
	viper.SetDefault("s3.use_ssl", true)
	viper.SetDefault("jwt.expiration", "1h")
	viper.SetDefault("stats.cache_ttl", "1h")

	err = viper.ReadInConfig()
	// A missing config file is fine; env vars and defaults carry the rest.
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil
	} else if err != nil {
		return
	}

	if err = viper.Unmarshal(&config); err != nil {
		return
	}

	if _, err = config.Storage.ParsedMode(); err != nil {
		return config, fmt.Errorf("invalid storage.mode %q: %w", config.Storage.Mode, err)
	}
	return config, nil
}
