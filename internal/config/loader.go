package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Environment variable prefix for ocelot configuration.
const envPrefix = "OCELOT"

// Loader handles loading and merging configuration from multiple sources.
// Precedence: environment variables over file values over defaults.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	v := viper.New()

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind specific environment variables
	_ = v.BindEnv("upstreamRepo", "OCELOT_UPSTREAM_REPO")
	_ = v.BindEnv("upstreamRef", "OCELOT_UPSTREAM_REF")
	_ = v.BindEnv("layerName", "OCELOT_LAYER_NAME")
	_ = v.BindEnv("releaseGroup", "OCELOT_RELEASE_GROUP")
	_ = v.BindEnv("dynamodbTable", "OCELOT_DYNAMODB_TABLE")
	_ = v.BindEnv("dynamodbRegion", "OCELOT_DYNAMODB_REGION")
	_ = v.BindEnv("distributionsFile", "OCELOT_DISTRIBUTIONS_FILE")
	_ = v.BindEnv("dependenciesFile", "OCELOT_DEPENDENCIES_FILE")
	_ = v.BindEnv("componentsDir", "OCELOT_COMPONENTS_DIR")
	_ = v.BindEnv("collectorConfigsDir", "OCELOT_COLLECTOR_CONFIGS_DIR")

	return &Loader{v: v}
}

// DefaultConfigFile is the config file consulted when --config is not given.
const DefaultConfigFile = "ocelot.yaml"

// Load loads configuration from the given file path. An absent file is fine;
// env vars and defaults still apply. A file that exists but fails to parse is
// an error.
func (l *Loader) Load(configFile string) (*Config, error) {
	explicit := configFile != ""
	if !explicit {
		configFile = DefaultConfigFile
	}

	l.v.SetConfigFile(configFile)
	l.v.SetConfigType("yaml")

	if err := l.v.ReadInConfig(); err != nil {
		// Missing default config file is OK, we'll use env vars + defaults.
		// An explicit --config that cannot be read is an error.
		if explicit {
			return nil, fmt.Errorf("reading config file %s: %w", configFile, err)
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// LoadWithDefaults loads configuration and applies defaults.
func (l *Loader) LoadWithDefaults(configFile string) (*Config, error) {
	cfg, err := l.Load(configFile)
	if err != nil {
		return nil, err
	}
	return cfg.WithDefaults(), nil
}
