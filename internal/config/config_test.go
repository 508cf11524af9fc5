// This test file verifies the configuration loading logic using Viper.

package config

import (
	"os"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults when no config file", func(t *testing.T) {
		// Ensure no config file exists for this test
		os.Remove("config.yml")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() returned an error: %v", err)
		}

		// Check if default values are set
		if cfg.Port != 8080 {
			t.Errorf("Expected default port 8080, got %d", cfg.Port)
		}
		if cfg.Database.Path != "./gutengo.db" {
			t.Errorf("Expected default db path './gutengo.db', got '%s'", cfg.Database.Path)
		}
		if cfg.Import.ImageWorkers != 4 {
			t.Errorf("Expected default image worker count 4, got %d", cfg.Import.ImageWorkers)
		}
		if cfg.Import.HistoryLimit != 100 {
			t.Errorf("Expected default history limit 100, got %d", cfg.Import.HistoryLimit)
		}
	})

	t.Run("Loads from config file", func(t *testing.T) {
		// Create a temporary config file for this test
		configContent := `
port: 9999
database:
  path: "/tmp/test.db"
assets:
  path: "/tmp/test-assets"
  max_width: 1200
notion:
  api_key: "secret_test"
unknown_setting: "should be ignored"
`
		// Create the config file in the current directory so Viper can find it.
		// Note: `t.TempDir()` is not used here because Viper looks in the CWD.
		configPath := "config.yml"
		if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
			t.Fatalf("Failed to write test config file: %v", err)
		}
		// Clean up the file after the test
		defer os.Remove(configPath)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() returned an error: %v", err)
		}

		// Check if values from the file were loaded
		if cfg.Port != 9999 {
			t.Errorf("Expected port 9999, got %d", cfg.Port)
		}
		if cfg.Database.Path != "/tmp/test.db" {
			t.Errorf("Expected db path '/tmp/test.db', got '%s'", cfg.Database.Path)
		}
		if cfg.Assets.Path != "/tmp/test-assets" {
			t.Errorf("Expected assets path '/tmp/test-assets', got '%s'", cfg.Assets.Path)
		}
		if cfg.Assets.MaxWidth != 1200 {
			t.Errorf("Expected assets max width 1200, got %d", cfg.Assets.MaxWidth)
		}
		if cfg.Notion.APIKey != "secret_test" {
			t.Errorf("Expected notion api key to load, got '%s'", cfg.Notion.APIKey)
		}
		if cfg.Import.ImageWorkers != 4 {
			t.Errorf("Expected default image worker count of 4, got %d", cfg.Import.ImageWorkers)
		}
	})
}
