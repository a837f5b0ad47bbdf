package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Environment string          `mapstructure:"environment"`
	LogLevel    string          `mapstructure:"log_level"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Cache       CacheConfig     `mapstructure:"cache"`
	Telemetry   TelemetryConfig `mapstructure:"telemetry"`
	Analysis    AnalysisConfig  `mapstructure:"analysis"`
}

type ServerConfig struct {
	Port           int    `mapstructure:"port"`
	RequestTimeout string `mapstructure:"request_timeout"`
}

type DatabaseConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	DBName      string `mapstructure:"dbname"`
	SSLMode     string `mapstructure:"sslmode"`
	DatabaseURL string `mapstructure:"database_url"`
	MaxConns    int    `mapstructure:"max_conns"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CacheConfig controls the Redis cache in front of the price database.
type CacheConfig struct {
	SeriesTTL string `mapstructure:"series_ttl"`
}

// TelemetryConfig controls OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	ServiceName  string `mapstructure:"service_name"`
	Exporter     string `mapstructure:"exporter"` // stdout, otlp or none
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
}

// AnalysisConfig holds the lead-lag engine defaults. Requests may override MaxLag,
// RollingWindow and WalkForward.
type AnalysisConfig struct {
	MaxLag              int  `mapstructure:"max_lag"`
	RollingWindow       int  `mapstructure:"rolling_window"`
	RegimeWindow        int  `mapstructure:"regime_window"`
	SampleStride        int  `mapstructure:"sample_stride"`
	WalkForward         bool `mapstructure:"walk_forward"`
	MaxWorkers          int  `mapstructure:"max_workers"` // 0 sizes the pool from host resources
	DefaultLookbackDays int  `mapstructure:"default_lookback_days"`
}

func Load() (*Config, error) {
	// A missing .env is not an error; real deployments use the environment directly.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.BindEnv("database.database_url", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind DATABASE_URL environment variable: %w", err)
	}

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the values that the analysis engine and servers depend on.
func (c *Config) Validate() error {
	a := c.Analysis
	if a.MaxLag < 0 {
		return fmt.Errorf("analysis.max_lag must be >= 0, got %d", a.MaxLag)
	}
	if a.RollingWindow < 2 {
		return fmt.Errorf("analysis.rolling_window must be >= 2, got %d", a.RollingWindow)
	}
	if a.RegimeWindow < 2 {
		return fmt.Errorf("analysis.regime_window must be >= 2, got %d", a.RegimeWindow)
	}
	if a.SampleStride < 1 {
		return fmt.Errorf("analysis.sample_stride must be >= 1, got %d", a.SampleStride)
	}
	if a.MaxWorkers < 0 {
		return fmt.Errorf("analysis.max_workers must be >= 0, got %d", a.MaxWorkers)
	}
	if a.DefaultLookbackDays < 1 {
		return fmt.Errorf("analysis.default_lookback_days must be >= 1, got %d", a.DefaultLookbackDays)
	}

	if _, err := c.Cache.TTL(); err != nil {
		return fmt.Errorf("invalid cache.series_ttl: %w", err)
	}
	if _, err := c.Server.Timeout(); err != nil {
		return fmt.Errorf("invalid server.request_timeout: %w", err)
	}
	return nil
}

// TTL parses the series cache TTL.
func (c CacheConfig) TTL() (time.Duration, error) {
	if c.SeriesTTL == "" {
		return 0, nil
	}
	return time.ParseDuration(c.SeriesTTL)
}

// Timeout parses the per-request analysis timeout.
func (c ServerConfig) Timeout() (time.Duration, error) {
	if c.RequestTimeout == "" {
		return 0, nil
	}
	return time.ParseDuration(c.RequestTimeout)
}

// DSN returns the connection string, preferring DatabaseURL when set.
func (c DatabaseConfig) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
	if c.MaxConns > 0 {
		dsn += fmt.Sprintf(" pool_max_conns=%d", c.MaxConns)
	}
	return dsn
}

// Addr returns the Redis host:port address.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func setDefaults() {
	// Environment
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.request_timeout", "120s")

	// Database
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "leadlag")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.database_url", "")
	viper.SetDefault("database.max_conns", 10)

	// Redis
	viper.SetDefault("redis.enabled", true)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Cache
	viper.SetDefault("cache.series_ttl", "1h")

	// Telemetry
	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.service_name", "leadlag-ai-go")
	viper.SetDefault("telemetry.exporter", "stdout")
	viper.SetDefault("telemetry.otlp_endpoint", "localhost:4318")
	viper.SetDefault("telemetry.otlp_insecure", true)

	// Analysis
	viper.SetDefault("analysis.max_lag", 10)
	viper.SetDefault("analysis.rolling_window", 60)
	viper.SetDefault("analysis.regime_window", 21)
	viper.SetDefault("analysis.sample_stride", 4)
	viper.SetDefault("analysis.walk_forward", false)
	viper.SetDefault("analysis.max_workers", 4)
	viper.SetDefault("analysis.default_lookback_days", 365)
}
