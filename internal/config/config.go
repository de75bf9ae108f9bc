// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Catalog sources
const (
	CatalogFile     = "file"
	CatalogPostgres = "postgres"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Device    DeviceConfig    `mapstructure:"device"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	App       AppConfig       `mapstructure:"app"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// CatalogConfig selects where device descriptors come from
type CatalogConfig struct {
	Source   string         `mapstructure:"source"`
	Path     string         `mapstructure:"path"`
	Database DatabaseConfig `mapstructure:"database"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	DBName         string        `mapstructure:"dbname"`
	SSLMode        string        `mapstructure:"sslmode"`
	MaxOpenConns   int           `mapstructure:"max_open_conns"`
	MaxIdleConns   int           `mapstructure:"max_idle_conns"`
	MaxLifetime    time.Duration `mapstructure:"max_lifetime"`
	MigrationsPath string        `mapstructure:"migrations_path"`
	AutoMigrate    bool          `mapstructure:"auto_migrate"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// DeviceConfig holds defaults applied to every device session. Per-device
// options (timeout_ms, buffer_size, ...) take precedence.
type DeviceConfig struct {
	Timeout         time.Duration `mapstructure:"timeout"`
	BufferSize      int           `mapstructure:"buffer_size"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	PollDelay       time.Duration `mapstructure:"poll_delay"`
	CommandTimeout  time.Duration `mapstructure:"command_timeout"`
	OpenOnStart     bool          `mapstructure:"open_on_start"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// WebSocketConfig tunes the live status stream
type WebSocketConfig struct {
	PingInterval time.Duration `mapstructure:"ping_interval"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	SendBuffer   int           `mapstructure:"send_buffer"`
}

// AppConfig represents application metadata
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// Load reads configuration from path, or from config.yaml in the working
// directory or ./configs when path is empty, overlaid with DEVICE_SERVICE_*
// environment variables. A missing default file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	// Environment variable support
	v.SetEnvPrefix("DEVICE_SERVICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8084")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Catalog defaults
	v.SetDefault("catalog.source", CatalogFile)
	v.SetDefault("catalog.path", "./configs/devices.yaml")
	v.SetDefault("catalog.database.host", "localhost")
	v.SetDefault("catalog.database.port", 5432)
	v.SetDefault("catalog.database.user", "postgres")
	v.SetDefault("catalog.database.password", "postgres")
	v.SetDefault("catalog.database.dbname", "weighbridge")
	v.SetDefault("catalog.database.sslmode", "disable")
	v.SetDefault("catalog.database.max_open_conns", 5)
	v.SetDefault("catalog.database.max_idle_conns", 2)
	v.SetDefault("catalog.database.max_lifetime", "5m")
	v.SetDefault("catalog.database.migrations_path", "./migrations")
	v.SetDefault("catalog.database.auto_migrate", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.compress", true)

	// Device defaults
	v.SetDefault("device.timeout", "10s")
	v.SetDefault("device.buffer_size", 4096)
	v.SetDefault("device.poll_interval", "1s")
	v.SetDefault("device.poll_delay", "0s")
	v.SetDefault("device.command_timeout", "30s")
	v.SetDefault("device.open_on_start", false)
	v.SetDefault("device.shutdown_timeout", "10s")

	// WebSocket defaults
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.write_timeout", "10s")
	v.SetDefault("websocket.send_buffer", 256)

	// App defaults
	v.SetDefault("app.name", "weighbridge-service")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Host == "" {
		return fmt.Errorf("server.host is required")
	}
	if config.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}

	switch config.Catalog.Source {
	case CatalogFile:
		if config.Catalog.Path == "" {
			return fmt.Errorf("catalog.path is required for the file catalog")
		}
	case CatalogPostgres:
		if config.Catalog.Database.Host == "" {
			return fmt.Errorf("catalog.database.host is required for the postgres catalog")
		}
	default:
		return fmt.Errorf("catalog.source must be %q or %q", CatalogFile, CatalogPostgres)
	}

	if config.Device.Timeout <= 0 {
		return fmt.Errorf("device.timeout must be positive")
	}
	if config.Device.PollInterval <= 0 {
		return fmt.Errorf("device.poll_interval must be positive")
	}
	if config.Device.BufferSize <= 0 {
		return fmt.Errorf("device.buffer_size must be positive")
	}

	if config.WebSocket.PingInterval <= 0 {
		return fmt.Errorf("websocket.ping_interval must be positive")
	}

	validEnvs := []string{"development", "staging", "production", "test"}
	if !slices.Contains(validEnvs, config.App.Environment) {
		return fmt.Errorf("app.environment must be one of: %v", validEnvs)
	}

	validLevels := []string{"debug", "info", "warn", "error", "fatal"}
	if !slices.Contains(validLevels, config.Logging.Level) {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}

	return nil
}

// GetDatabaseDSN returns the catalog database connection string
func (c *Config) GetDatabaseDSN() string {
	db := c.Catalog.Database
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		db.Host, db.Port, db.User, db.Password, db.DBName, db.SSLMode)
}

// GetServerAddr returns the server address
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// IsProduction checks if the environment is production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDebugEnabled checks if debug mode is enabled
func (c *Config) IsDebugEnabled() bool {
	return c.App.Debug || c.App.Environment == "development"
}
