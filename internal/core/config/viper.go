package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Defaults matching Default()
	v.SetDefault("validator.cache_limit", 0)
	v.SetDefault("validator.rules_path", "")
	v.SetDefault("storage.db_url", "")
	v.SetDefault("ingest.csv_delimiter", ";")

	// Bind environment variables with FISCAL_ prefix
	v.SetEnvPrefix("FISCAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		CacheLimit:   v.GetInt("validator.cache_limit"),
		RulesPath:    v.GetString("validator.rules_path"),
		DBURL:        v.GetString("storage.db_url"),
		CSVDelimiter: v.GetString("ingest.csv_delimiter"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
