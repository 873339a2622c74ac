package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/kozaktomas/classroom-monitor/internal/attention"
	"gopkg.in/yaml.v3"
)

//go:embed policy.yaml
var policyYAML []byte

type Config struct {
	Detector   DetectorConfig
	Database   DatabaseConfig
	Session    SessionConfig
	Policy     attention.Policy
	PolicyFile string // optional YAML file overriding the embedded thresholds
}

type DetectorConfig struct {
	URL     string        // face-state service, defaults to http://localhost:8000
	Timeout time.Duration // per-frame request timeout (default 10s)
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL, archive disabled when empty
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type SessionConfig struct {
	IdleTimeout   time.Duration // sessions without frames for this long are evicted (default 30m)
	SweepInterval time.Duration // how often idle sessions are looked for (default 1m)
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// DefaultPolicy returns the thresholds embedded in the binary.
func DefaultPolicy() attention.Policy {
	var policy attention.Policy
	if err := yaml.Unmarshal(policyYAML, &policy); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded policy.yaml: " + err.Error())
	}
	return policy
}

func Load() *Config {
	return &Config{
		Detector: DetectorConfig{
			URL:     os.Getenv("DETECTOR_URL"),
			Timeout: time.Duration(envInt("DETECTOR_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Session: SessionConfig{
			IdleTimeout:   time.Duration(envInt("SESSION_IDLE_TIMEOUT_MINUTES", 30)) * time.Minute,
			SweepInterval: time.Duration(envInt("SESSION_SWEEP_INTERVAL_SECONDS", 60)) * time.Second,
		},
		Policy:     DefaultPolicy(),
		PolicyFile: os.Getenv("ATTENTION_POLICY_FILE"),
	}
}

// ApplyPolicyFile overlays the thresholds found in a YAML file on top of the
// current policy. Keys missing from the file keep their value.
func (c *Config) ApplyPolicyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading policy file: %w", err)
	}

	policy := c.Policy
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return fmt.Errorf("parsing policy file %s: %w", path, err)
	}
	if err := policy.Validate(); err != nil {
		return fmt.Errorf("invalid policy in %s: %w", path, err)
	}
	c.Policy = policy
	return nil
}

// ArchiveEnabled reports whether session summaries are persisted.
func (c *Config) ArchiveEnabled() bool {
	return c.Database.URL != ""
}
