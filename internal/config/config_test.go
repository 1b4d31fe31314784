package config

import (
	"reflect"
	"testing"
	"time"
)

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"", nil},
		{"http://a.test", []string{"http://a.test"}},
		{" http://a.test , ,http://b.test ", []string{"http://a.test", "http://b.test"}},
	}
	for _, tt := range tests {
		got := parseOrigins(tt.raw)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseOrigins(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "MEMORY")
	t.Setenv("AUTH_ENABLED", "true")
	t.Setenv("JWT_EXPIRY_HOURS", "2")
	t.Setenv("AUTO_MIGRATE", "not-a-bool")
	t.Setenv("MAX_DB_CONNS", "x")

	cfg := Load()

	if cfg.StorageDriver != StorageMemory {
		t.Errorf("StorageDriver = %q, want %q", cfg.StorageDriver, StorageMemory)
	}
	if !cfg.AuthEnabled {
		t.Error("AuthEnabled = false, want true")
	}
	if cfg.JWTExpiry != 2*time.Hour {
		t.Errorf("JWTExpiry = %v, want 2h", cfg.JWTExpiry)
	}
	if !cfg.AutoMigrate {
		t.Error("invalid AUTO_MIGRATE should fall back to default true")
	}
	if cfg.MaxDBConns != 16 {
		t.Errorf("MaxDBConns = %d, want fallback 16", cfg.MaxDBConns)
	}
}
