// This file defines the configuration structure for the application.
package config

import (
	// use Viper for loading the config.yml file.
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration settings for the application.
// It maps directly to the structure of config.yml.
type Config struct {
	Port     int `mapstructure:"port"`
	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`
	Assets struct {
		Path          string `mapstructure:"path"`
		PublicBaseURL string `mapstructure:"public_base_url"`
		MaxWidth      int    `mapstructure:"max_width"` // 0 disables downscaling
	} `mapstructure:"assets"`
	Watch struct {
		Path string `mapstructure:"path"` // empty disables the drop directory
	} `mapstructure:"watch"`
	Import struct {
		ImageWorkers int `mapstructure:"image_workers"`
		HistoryLimit int `mapstructure:"history_limit"`
	} `mapstructure:"import"`
	Medium struct {
		APIKey string `mapstructure:"api_key"`
	} `mapstructure:"medium"`
	Notion struct {
		APIKey string `mapstructure:"api_key"`
	} `mapstructure:"notion"`
	Google struct {
		AccessToken string `mapstructure:"access_token"`
	} `mapstructure:"google"`
}

// Load reads configuration from a file named "config.yml" in the
// current directory and unmarshals it into a Config struct.
func Load() (*Config, error) {
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or "yaml"
	viper.AddConfigPath(".")      // looking for config in the current directory

	// --- Environment Variable Overrides ---
	// This tells Viper to look for environment variables with a "GUTENGO_"
	// prefix. e.g., GUTENGO_DATABASE_PATH overrides the `database.path` key.
	viper.SetEnvPrefix("GUTENGO")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set default values
	viper.SetDefault("port", 8080)
	viper.SetDefault("database.path", "./gutengo.db")
	viper.SetDefault("assets.path", "./assets")
	viper.SetDefault("assets.public_base_url", "/assets")
	viper.SetDefault("assets.max_width", 0)
	viper.SetDefault("watch.path", "")
	viper.SetDefault("import.image_workers", 4)
	viper.SetDefault("import.history_limit", 100)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; ignore error and use defaults
		} else {
			// Config file was found but another error was produced
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
