package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Logger       LoggerConfig       `mapstructure:"logger"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Providers    ProvidersConfig    `mapstructure:"providers"`
	Federation   FederationConfig   `mapstructure:"federation"`
	Provisioning ProvisioningConfig `mapstructure:"provisioning"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Reconciler   ReconcilerConfig   `mapstructure:"reconciler"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"` // mysql or sqlite
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type AuthConfig struct {
	// CreateUserWhenNew provisions a local user on first successful
	// authorization instead of failing with user-not-found.
	CreateUserWhenNew bool `mapstructure:"create_user_when_new"`
}

type ProviderConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	// BaseURL overrides the provider's default API endpoint. Empty means
	// the provider's well-known production endpoint.
	BaseURL string `mapstructure:"base_url"`
}

type ProvidersConfig struct {
	Amazon   ProviderConfig `mapstructure:"amazon"`
	Google   ProviderConfig `mapstructure:"google"`
	Facebook ProviderConfig `mapstructure:"facebook"`
}

type FederationConfig struct {
	Endpoint              string `mapstructure:"endpoint"`
	IdentityPoolID        string `mapstructure:"identity_pool_id"`
	DeveloperProviderName string `mapstructure:"developer_provider_name"`
}

type ProvisioningConfig struct {
	Endpoint string `mapstructure:"endpoint"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ReconcilerConfig struct {
	// IntervalSeconds is the reconcile cadence. A tunable, not a
	// correctness parameter.
	IntervalSeconds int `mapstructure:"interval_seconds"`
	// RefreshSeconds is the provider credential reload cadence.
	RefreshSeconds int `mapstructure:"refresh_seconds"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load loads configuration from file and environment variables
func Load(env string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../configs")

	viper.SetEnvPrefix("STREAMGATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// A missing file is fine: env vars and defaults carry the config.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if env != "" && env != "default" {
		viper.Set("server.mode", env)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")

	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)
	viper.SetDefault("database.username", "root")
	viper.SetDefault("database.password", "password")
	viper.SetDefault("database.database", "streamgate_dev")
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.max_open_conns", 100)
	viper.SetDefault("database.conn_max_lifetime", 60)

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("logger.output_path", "stdout")

	viper.SetDefault("auth.create_user_when_new", false)

	// Provider credentials are empty by default and must be configured.
	viper.SetDefault("providers.amazon.client_id", "")
	viper.SetDefault("providers.amazon.client_secret", "")
	viper.SetDefault("providers.google.client_id", "")
	viper.SetDefault("providers.google.client_secret", "")
	viper.SetDefault("providers.facebook.client_id", "")
	viper.SetDefault("providers.facebook.client_secret", "")

	viper.SetDefault("federation.endpoint", "")
	viper.SetDefault("federation.identity_pool_id", "")
	viper.SetDefault("federation.developer_provider_name", "")

	viper.SetDefault("provisioning.endpoint", "")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("reconciler.interval_seconds", 20)
	viper.SetDefault("reconciler.refresh_seconds", 20)
}
