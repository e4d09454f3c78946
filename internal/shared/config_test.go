package shared

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/oauth2"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./retrograde.db" {
			t.Errorf("expected database path ./retrograde.db, got %s", config.Database.Path)
		}
		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}
		if config.Credentials.Gemini.Model != "gemini-2.0-flash" {
			t.Errorf("expected default gemini model, got %s", config.Credentials.Gemini.Model)
		}
		if config.Suggestions.SearchesPerSecond != 10 {
			t.Errorf("expected search rate 10, got %d", config.Suggestions.SearchesPerSecond)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

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
		if config.Database.Path != DefaultConfig().Database.Path {
			t.Error("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("expected error when config file already exists")
		}
	})

	t.Run("SaveAndReload", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		config := DefaultConfig()
		config.Credentials.Spotify.ClientID = "real-client-id"
		config.Credentials.Spotify.AccessToken = "acc"

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("failed to save config: %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to reload config: %v", err)
		}
		if loaded.Credentials.Spotify.ClientID != "real-client-id" {
			t.Errorf("expected saved client id, got %s", loaded.Credentials.Spotify.ClientID)
		}
		if loaded.Credentials.Spotify.AccessToken != "acc" {
			t.Errorf("expected saved access token, got %s", loaded.Credentials.Spotify.AccessToken)
		}
	})

	t.Run("LoadMissingFile", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("SpotifyMap", func(t *testing.T) {
		creds := SpotifyConfig{ClientID: "id", ClientSecret: "secret", RedirectURI: "http://localhost/cb"}

		m := creds.Map()
		if m["client_id"] != "id" || m["client_secret"] != "secret" || m["redirect_uri"] != "http://localhost/cb" {
			t.Errorf("unexpected credential map %v", m)
		}
	})

	t.Run("SpotifyUpdate", func(t *testing.T) {
		creds := SpotifyConfig{RefreshToken: "old-refresh"}

		if err := creds.Update(&oauth2.Token{AccessToken: "new-access"}); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if creds.AccessToken != "new-access" {
			t.Errorf("expected access token updated, got %s", creds.AccessToken)
		}
		if creds.RefreshToken != "old-refresh" {
			t.Error("refresh token should survive a response without one")
		}

		if err := creds.Update(&oauth2.Token{AccessToken: "newer", RefreshToken: "new-refresh"}); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if creds.RefreshToken != "new-refresh" {
			t.Errorf("expected refresh token replaced, got %s", creds.RefreshToken)
		}

		if err := creds.Update(nil); err == nil {
			t.Error("expected error for nil token")
		}
	})
}
