// Package cli implements the changelog command line tool.
package cli

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the CLI configuration settings.
type Config struct {
	Backend      string
	LogPath      string
	DatabaseURL  string
	OutputFormat string
	LogLevel     string
}

// InitConfig initializes the configuration using Viper.
// Configuration priority: flags > env vars > config file > defaults.
func InitConfig(cfgFile string) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault("backend", "file")
	v.SetDefault("log-path", "changes.log")
	v.SetDefault("output", "text")
	v.SetDefault("log-level", "warn")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".changelog")
		v.SetConfigType("yaml")
	}

	// CHANGELOG_LOG_PATH maps to log-path
	v.SetEnvPrefix("CHANGELOG")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	return v, nil
}

// GetConfig extracts the configuration from Viper into a Config struct.
func GetConfig(v *viper.Viper) *Config {
	return &Config{
		Backend:      v.GetString("backend"),
		LogPath:      v.GetString("log-path"),
		DatabaseURL:  v.GetString("database-url"),
		OutputFormat: v.GetString("output"),
		LogLevel:     v.GetString("log-level"),
	}
}
