package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./wlx.db" {
			t.Errorf("expected database path ./wlx.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Credentials.OMDb.BaseURL != "https://www.omdbapi.com/" {
			t.Errorf("unexpected omdb base url %s", config.Credentials.OMDb.BaseURL)
		}

		if config.Credentials.Completion.Model != "gpt-3.5-turbo" {
			t.Errorf("expected completion model gpt-3.5-turbo, got %s", config.Credentials.Completion.Model)
		}

		if config.Browse.PageSize != 20 {
			t.Errorf("expected page size 20, got %d", config.Browse.PageSize)
		}

		if !config.Identity.Anonymous() {
			t.Error("default identity should be anonymous")
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"

[server]
host = "0.0.0.0"
port = 8080

[identity]
uid = "user-123"
email = "viewer@example.com"

[credentials.omdb]
api_key = "test_api_key"

[http]
timeout = "5s"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}

		if config.Identity.UID != "user-123" || config.Identity.Anonymous() {
			t.Errorf("expected identity user-123, got %q", config.Identity.UID)
		}

		if config.Credentials.OMDb.APIKey != "test_api_key" {
			t.Errorf("expected omdb api key test_api_key, got %s", config.Credentials.OMDb.APIKey)
		}

		if config.Credentials.OMDb.BaseURL == "" {
			t.Error("missing values should keep embedded defaults")
		}

		if got := config.HTTP.TimeoutDuration(); got != 5*time.Second {
			t.Errorf("expected 5s timeout, got %v", got)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
		if !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("LoadConfig invalid TOML", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[database\npath ="), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("SaveConfig round trip", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		config := DefaultConfig()
		config.Identity = IdentityConfig{UID: "abc", Email: "a@example.com", Name: "A"}

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("failed to save config: %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load saved config: %v", err)
		}
		if loaded.Identity != config.Identity {
			t.Errorf("identity mismatch: got %+v, want %+v", loaded.Identity, config.Identity)
		}
	})

	t.Run("TimeoutDuration fallback", func(t *testing.T) {
		for _, v := range []string{"", "soon", "-1s"} {
			if got := (HTTPConfig{Timeout: v}).TimeoutDuration(); got != 30*time.Second {
				t.Errorf("timeout %q: expected 30s fallback, got %v", v, got)
			}
		}
	})
}
