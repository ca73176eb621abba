package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full server configuration, loaded from config.yaml with
// TRADEDESK_* environment overrides.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Server  ServerConfig  `mapstructure:"server"`
	DB      DBConfig      `mapstructure:"db"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Drafts  DraftsConfig  `mapstructure:"drafts"`
	Lookups LookupsConfig `mapstructure:"lookups"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// DraftsConfig controls the scheduled draft retention sweep. A zero
// retention disables the sweep entirely.
type DraftsConfig struct {
	Retention time.Duration `mapstructure:"retention"`
	SweepSpec string        `mapstructure:"sweep_spec"`
}

// LookupsConfig controls client-side lookup cache staleness.
type LookupsConfig struct {
	StaleAfter time.Duration `mapstructure:"stale_after"`
}

// Load reads configuration from the given path (directory containing
// config.yaml) falling back to defaults when no file is present.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("TRADEDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("server.port", "8080")
	v.SetDefault("db.path", "tradedesk.db")
	v.SetDefault("auth.jwt_secret", "tradedesk-secret-key")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("drafts.retention", 90*24*time.Hour)
	v.SetDefault("drafts.sweep_spec", "0 3 * * *")
	v.SetDefault("lookups.stale_after", 10*time.Minute)
}
