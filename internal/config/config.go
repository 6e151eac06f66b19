// Package config loads posauth-server's runtime configuration from
// built-in defaults, a YAML file, and environment variables, in that
// order of increasing precedence. Grounded on the layered viper setup in the
// retrieval pack's DittoFS config package (pkg/config/config.go),
// narrowed from its many subsystems down to what an ISO 8583 acquirer
// endpoint actually needs: the HTTP server, the key-management material,
// and logging.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is posauth-server's full runtime configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Keys    KeysConfig    `mapstructure:"keys" yaml:"keys"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port            int           `mapstructure:"port" yaml:"port"`
	PublicDir       string        `mapstructure:"public_dir" yaml:"public_dir"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// KeysConfig locates the cryptographic material the acquirer kernel
// needs: the DUKPT base derivation key and starting KSN (hex-encoded),
// and the PEM files backing the RSA transport-key unwrap and
// provisioning-token signature.
type KeysConfig struct {
	BaseDerivationKeyHex string `mapstructure:"base_derivation_key_hex" yaml:"base_derivation_key_hex"`
	InitialKsnHex        string `mapstructure:"initial_ksn_hex" yaml:"initial_ksn_hex"`
	TransportKeyPath     string `mapstructure:"transport_key_path" yaml:"transport_key_path"`
	SigningKeyPath       string `mapstructure:"signing_key_path" yaml:"signing_key_path"`
}

// LoggingConfig controls structured-log output.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

const envPrefix = "POSAUTH"

// Load reads configuration from configPath (if non-empty and present),
// layers POSAUTH_-prefixed environment variables over it, and fills in
// defaults for anything still unset.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if !os.IsNotExist(err) {
				if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
					return nil, fmt.Errorf("config: read %s: %w", configPath, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.public_dir", "public")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", cfg.Server.Port)
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("config: logging.format must be json or text, got %q", cfg.Logging.Format)
	}
	return nil
}
