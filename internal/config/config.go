package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Backend   BackendConfig   `mapstructure:"backend"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Identity  IdentityConfig  `mapstructure:"identity"`
	Server    ServerConfig    `mapstructure:"server"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// BackendConfig selects and configures the hosted data service client.
// Mode is "remote" or "mock"; the variant is chosen once at startup.
type BackendConfig struct {
	Mode      string `mapstructure:"mode"`
	BaseURL   string `mapstructure:"base_url"`
	AnonKey   string `mapstructure:"anon_key"`
	AuthToken string `mapstructure:"auth_token"`
	Timeout   string `mapstructure:"timeout"`
	SeedFile  string `mapstructure:"seed_file"`
}

func (b BackendConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(b.Timeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// StorageConfig configures the local persistent key-value store.
// Type is "sqlite" (file under the data dir) or "mysql" (shared profile store).
type StorageConfig struct {
	Type     string `mapstructure:"type"`
	FilePath string `mapstructure:"file_path"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

type IdentityConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

type ServerConfig struct {
	Host         string   `mapstructure:"host"`
	Port         int      `mapstructure:"port"`
	AuthToken    string   `mapstructure:"auth_token"`
	ReadTimeout  string   `mapstructure:"read_timeout"`
	WriteTimeout string   `mapstructure:"write_timeout"`
	CorsOrigins  []string `mapstructure:"cors_origins"`
}

func (s ServerConfig) GetReadTimeout() time.Duration {
	d, err := time.ParseDuration(s.ReadTimeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

func (s ServerConfig) GetWriteTimeout() time.Duration {
	d, err := time.ParseDuration(s.WriteTimeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

// SchedulerConfig gates the background connectivity probe. Disabled by
// default: a manual reconnect stays the primary recovery trigger.
type SchedulerConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Interval string `mapstructure:"interval"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("backend.mode", "remote")
	v.SetDefault("backend.timeout", "10s")
	v.SetDefault("storage.type", "sqlite")
	v.SetDefault("storage.file_path", "quotedeck.db")
	v.SetDefault("storage.port", 3306)
	v.SetDefault("identity.data_dir", ".quotedeck")
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8640)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.interval", "@every 1m")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetEnvPrefix("QUOTEDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Backend.Mode {
	case "remote":
		if c.Backend.BaseURL == "" {
			return fmt.Errorf("backend.base_url is required in remote mode")
		}
	case "mock":
	default:
		return fmt.Errorf("unknown backend.mode %q (want remote or mock)", c.Backend.Mode)
	}

	switch c.Storage.Type {
	case "sqlite":
		if c.Storage.FilePath == "" {
			return fmt.Errorf("storage.file_path is required for sqlite storage")
		}
	case "mysql":
		if c.Storage.Host == "" || c.Storage.Database == "" {
			return fmt.Errorf("storage.host and storage.database are required for mysql storage")
		}
	default:
		return fmt.Errorf("unknown storage.type %q (want sqlite or mysql)", c.Storage.Type)
	}

	return nil
}
