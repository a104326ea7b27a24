package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/communityambulance/mtrepair/internal/core/domain"
)

func TestLoad_EnvSubstitution(t *testing.T) {
	os.Setenv("TEST_MT_LOG", `C:\ProgramData\Test\mobiletouch.log`)
	defer os.Unsetenv("TEST_MT_LOG")

	configContent := `
monitor:
  log_paths:
    - ${TEST_MT_LOG}
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.Monitor.LogPaths) != 1 || cfg.Monitor.LogPaths[0] != `C:\ProgramData\Test\mobiletouch.log` {
		t.Errorf("Expected substituted log path, got %v", cfg.Monitor.LogPaths)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9999\n"), 0644); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("Expected port 9999, got %d", cfg.Server.Port)
	}
	if cfg.Monitor.PollInterval != time.Second {
		t.Errorf("Expected default poll interval 1s, got %v", cfg.Monitor.PollInterval)
	}
	if cfg.Remediation.RetryCeiling != 3 {
		t.Errorf("Expected default retry ceiling 3, got %d", cfg.Remediation.RetryCeiling)
	}
	if len(cfg.Logging.CandidateDirs) == 0 {
		t.Error("Expected default candidate dirs")
	}
}

func TestLoad_KindOverrides(t *testing.T) {
	configContent := `
remediation:
  cooldown: 10m
  kinds:
    CORRUPT_SCHEMA:
      cooldown: 30m
      retry_ceiling: 1
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	policy, ok := cfg.Remediation.Kinds[domain.KindCorruptSchema]
	if !ok {
		t.Fatal("Expected override for CORRUPT_SCHEMA")
	}
	if policy.Cooldown != 30*time.Minute {
		t.Errorf("Expected 30m cooldown, got %v", policy.Cooldown)
	}
	if policy.RetryCeiling != 1 {
		t.Errorf("Expected retry ceiling 1, got %d", policy.RetryCeiling)
	}
}
