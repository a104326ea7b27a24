package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills in zero-valued settings.
func (cfg *AppConfig) ApplyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8090
	}

	if len(cfg.Monitor.LogPaths) == 0 {
		cfg.Monitor.LogPaths = []string{
			`C:\ProgramData\Physio-Control\MobileTouch\logging\mobiletouch.log`,
		}
	}
	if cfg.Monitor.PollInterval == 0 {
		cfg.Monitor.PollInterval = time.Second
	}
	if cfg.Monitor.CycleTimeout == 0 {
		cfg.Monitor.CycleTimeout = 30 * time.Second
	}
	if cfg.Monitor.MaxBytesPerPoll == 0 {
		cfg.Monitor.MaxBytesPerPoll = 1 << 20 // 1MB per cycle
	}

	if cfg.Remediation.Cooldown == 0 {
		cfg.Remediation.Cooldown = 5 * time.Minute
	}
	if cfg.Remediation.RetryCeiling == 0 {
		cfg.Remediation.RetryCeiling = 3
	}
	if cfg.Remediation.AttemptTimeout == 0 {
		cfg.Remediation.AttemptTimeout = 2 * time.Minute
	}
	if cfg.Remediation.BackoffFactor == 0 {
		cfg.Remediation.BackoffFactor = 2.0
	}

	if cfg.Repair.SpawnRetries == 0 {
		cfg.Repair.SpawnRetries = 3
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if len(cfg.Logging.CandidateDirs) == 0 {
		cfg.Logging.CandidateDirs = []string{
			os.TempDir(),
			`C:\Logs`,
			`C:\Windows\Temp`,
		}
	}
	if cfg.Logging.MaxFileSize == 0 {
		cfg.Logging.MaxFileSize = 5 << 20 // 5MB, matches the app's own rotation
	}
	if cfg.Logging.FlushInterval == 0 {
		cfg.Logging.FlushInterval = 2 * time.Second
	}
}
