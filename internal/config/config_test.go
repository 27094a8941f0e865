package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("SESSION_STORE", "")
	t.Setenv("API_TIMEOUT", "")

	cfg := Load()

	if cfg.APIBaseURL != "http://localhost:8000/api" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.MediaBaseURL != "http://localhost:8000/media" {
		t.Errorf("MediaBaseURL = %q", cfg.MediaBaseURL)
	}
	if cfg.SessionStore != "database" {
		t.Errorf("SessionStore = %q, want database", cfg.SessionStore)
	}
	if cfg.APITimeout != 0 {
		t.Errorf("APITimeout = %s, want 0", cfg.APITimeout)
	}
	if cfg.SessionDuration != 24*time.Hour {
		t.Errorf("SessionDuration = %s, want 24h", cfg.SessionDuration)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.example.com/api")
	t.Setenv("API_TIMEOUT", "5s")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("EMAIL_DEBUG", "true")

	cfg := Load()

	if cfg.APIBaseURL != "https://api.example.com/api" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.APITimeout != 5*time.Second {
		t.Errorf("APITimeout = %s", cfg.APITimeout)
	}
	if cfg.RedisDB != 3 {
		t.Errorf("RedisDB = %d", cfg.RedisDB)
	}
	if !cfg.EmailDebug {
		t.Error("EmailDebug should be true")
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("REDIS_DB", "abc")
	t.Setenv("SESSION_DURATION", "forever")

	cfg := Load()

	if cfg.RedisDB != 0 {
		t.Errorf("RedisDB = %d, want 0", cfg.RedisDB)
	}
	if cfg.SessionDuration != 24*time.Hour {
		t.Errorf("SessionDuration = %s, want 24h", cfg.SessionDuration)
	}
}
