package config

import (
	"crypto/rand"
	"encoding/base64"
	"strings"
	"testing"
	"time"
)

func validConfig(t *testing.T) *Config {
	t.Helper()

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("rand.Read() error = %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	cfg.Vault.EncryptionKey = base64.StdEncoding.EncodeToString(key)
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Server.Port = %q, want %q", cfg.Server.Port, "8080")
	}
	if cfg.Database.Namespace != "maestro" {
		t.Errorf("Database.Namespace = %q, want %q", cfg.Database.Namespace, "maestro")
	}
	if cfg.Scheduler.TickInterval != time.Second {
		t.Errorf("Scheduler.TickInterval = %v, want %v", cfg.Scheduler.TickInterval, time.Second)
	}
	if cfg.Scheduler.MaxInstances != 3 {
		t.Errorf("Scheduler.MaxInstances = %d, want 3", cfg.Scheduler.MaxInstances)
	}
	if !cfg.IsDevelopment() {
		t.Error("IsDevelopment() = false, want true for defaults")
	}
}

func TestValidate(t *testing.T) {
	cfg := validConfig(t)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v, want nil", err)
	}
}

func TestValidateMissingEncryptionKey(t *testing.T) {
	cfg := validConfig(t)
	cfg.Vault.EncryptionKey = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error for missing ENCRYPTION_KEY")
	}
	if !strings.Contains(err.Error(), "ENCRYPTION_KEY") {
		t.Errorf("Validate() error = %v, want mention of ENCRYPTION_KEY", err)
	}
}

func TestValidateBadEncryptionKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"not base64", "not-valid-base64!!!"},
		{"wrong length", base64.StdEncoding.EncodeToString([]byte("too short"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			cfg.Vault.EncryptionKey = tt.key
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestValidateScheduler(t *testing.T) {
	cfg := validConfig(t)
	cfg.Scheduler.TickInterval = 0
	cfg.Scheduler.MaxInstances = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	if !strings.Contains(err.Error(), "SCHEDULER_TICK_INTERVAL") {
		t.Errorf("Validate() error = %v, want mention of SCHEDULER_TICK_INTERVAL", err)
	}
	if !strings.Contains(err.Error(), "SCHEDULER_MAX_INSTANCES") {
		t.Errorf("Validate() error = %v, want mention of SCHEDULER_MAX_INSTANCES", err)
	}
}

func TestVaultKeyRoundTrip(t *testing.T) {
	cfg := validConfig(t)

	key, err := cfg.Vault.Key()
	if err != nil {
		t.Fatalf("Key() error = %v", err)
	}
	if len(key) != 32 {
		t.Errorf("len(key) = %d, want 32", len(key))
	}
}
