// internal/common/config/loader.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "HEALTHKIT"

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on top and
// applies HEALTHKIT_* environment overrides. Missing files are not an error.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	v.SetConfigName("config." + env)
	_ = v.MergeInConfig()

	return finish(v)
}

// LoadFromFile reads a single YAML file.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// Defaults are registered on viper so AutomaticEnv can override keys that no
// config file mentions.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "healthkit-demo")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.package_name", "com.huawei.healthkit.demo")

	v.SetDefault("collaborator.device_store", "memory")
	v.SetDefault("collaborator.cloud_store", "memory")
	v.SetDefault("collaborator.sensor_interval_ms", 1000)
	v.SetDefault("collaborator.scan_time_scale", 1.0)

	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.max_connections", 25)
	v.SetDefault("database.postgres.max_idle", 5)
	v.SetDefault("database.postgres.sslmode", "disable")
	v.SetDefault("database.redis.address", "localhost:6379")
	v.SetDefault("database.redis.key_prefix", "healthkit:")

	v.SetDefault("bridge.redis_feed.enabled", false)
	v.SetDefault("bridge.redis_feed.channel_prefix", "healthkit:events:")
	v.SetDefault("bridge.settle_ms", 500)

	v.SetDefault("notifications.console", true)
	v.SetDefault("notifications.notify_failures", false)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.address", ":9090")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	paths := []string{".env", "../.env", "../../.env"}
	if root := findProjectRoot(); root != "" {
		paths = append(paths, filepath.Join(root, ".env"))
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok || !strings.Contains(strVal, "$") {
			continue
		}
		if expanded := os.ExpandEnv(strVal); expanded != strVal && expanded != "" {
			v.Set(key, expanded)
		}
	}
}

func overrideEmptyConfig(cfg *Config) {
	if cfg.Database.Postgres.User == "" {
		cfg.Database.Postgres.User = os.Getenv("DB_USER")
	}
	if cfg.Database.Postgres.Password == "" {
		cfg.Database.Postgres.Password = os.Getenv("DB_PASSWORD")
	}
	if cfg.Database.Redis.Password == "" {
		cfg.Database.Redis.Password = os.Getenv("REDIS_PASSWORD")
	}
	if cfg.Notifications.SNS.TopicARN == "" {
		cfg.Notifications.SNS.TopicARN = os.Getenv("SNS_TOPIC_ARN")
	}
}

func validateConfig(cfg *Config) error {
	switch cfg.Collaborator.DeviceStore {
	case "memory":
	default:
		return fmt.Errorf("collaborator.device_store %q not supported", cfg.Collaborator.DeviceStore)
	}

	switch cfg.Collaborator.CloudStore {
	case "memory":
	case "redis":
		if cfg.Database.Redis.Address == "" {
			return fmt.Errorf("database.redis.address is required for the redis cloud store")
		}
	case "postgres":
		if cfg.Database.Postgres.Host == "" || cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.host and database are required for the postgres cloud store")
		}
	default:
		return fmt.Errorf("collaborator.cloud_store %q not supported", cfg.Collaborator.CloudStore)
	}

	if cfg.Collaborator.SensorIntervalMS <= 0 {
		return fmt.Errorf("collaborator.sensor_interval_ms must be positive")
	}
	if cfg.Collaborator.ScanTimeScale <= 0 {
		return fmt.Errorf("collaborator.scan_time_scale must be positive")
	}
	if cfg.Bridge.RedisFeed.Enabled && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required when bridge.redis_feed is enabled")
	}
	if cfg.Notifications.SNS.Enabled && (cfg.Notifications.SNS.Region == "" || cfg.Notifications.SNS.TopicARN == "") {
		return fmt.Errorf("notifications.sns requires region and topic_arn")
	}
	if cfg.App.PackageName == "" {
		return fmt.Errorf("app.package_name is required")
	}
	return nil
}
