// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Collaborator  CollaboratorConfig `mapstructure:"collaborator"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Bridge        BridgeConfig       `mapstructure:"bridge"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Catalog       CatalogConfig      `mapstructure:"catalog"`
	Metrics       MetricsConfig      `mapstructure:"metrics"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	PackageName string `mapstructure:"package_name"`
}

// CollaboratorConfig tunes the in-process SDK simulator.
type CollaboratorConfig struct {
	DeviceStore      string  `mapstructure:"device_store"` // memory
	CloudStore       string  `mapstructure:"cloud_store"`  // memory | redis | postgres
	SensorIntervalMS int     `mapstructure:"sensor_interval_ms"`
	ScanTimeScale    float64 `mapstructure:"scan_time_scale"` // 1.0 = real time
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address   string `mapstructure:"address"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// BridgeConfig controls the event bridge and its optional Redis relay.
type BridgeConfig struct {
	RedisFeed struct {
		Enabled       bool   `mapstructure:"enabled"`
		ChannelPrefix string `mapstructure:"channel_prefix"`
	} `mapstructure:"redis_feed"`
	SettleMS int `mapstructure:"settle_ms"` // how long the CLI waits for events after actions
}

// NotificationConfig drives outcome surfacing.
type NotificationConfig struct {
	Console        bool `mapstructure:"console"`
	NotifyFailures bool `mapstructure:"notify_failures"`
	SNS            struct {
		Enabled  bool   `mapstructure:"enabled"`
		Region   string `mapstructure:"region"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
}

// CatalogConfig overrides collaborator identifiers for catalog entries,
// keyed by the catalog's symbolic name (e.g. DT_CONTINUOUS_STEPS_DELTA).
type CatalogConfig struct {
	DataTypes map[string]string `mapstructure:"data_types"`
	Fields    map[string]string `mapstructure:"fields"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
