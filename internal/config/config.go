package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds every environment-derived setting the orchestrator needs.
// It is resolved once at startup by Load, after LoadEnv has populated the
// process environment from a .env file (if any).
type Config struct {
	WorkspaceRoot       string
	AutoApprove         bool
	ConfidenceThreshold float64
	MaxSteps            int
	AuditLogPath        string

	ShellEnabled       bool
	HealingMaxAttempts int

	LLMModel   string
	LLMBaseURL string
	LLMAPIKey  string
}

const (
	defaultConfidenceThreshold = 0.5
	defaultMaxSteps            = 20
	defaultHealingMaxAttempts  = 5
)

// Load resolves a Config from the current process environment. Unknown env
// vars are ignored; out-of-range values fall back to documented defaults
// with a warning, mirroring the teacher's loadMaxSteps validation style.
func Load() Config {
	root := os.Getenv("WORKSPACE_ROOT")
	if root == "" {
		if wd, err := os.Getwd(); err == nil {
			root = wd
		}
	}

	cfg := Config{
		WorkspaceRoot:       root,
		AutoApprove:         os.Getenv("AUTO_APPROVE") == "1",
		ConfidenceThreshold: loadFloatEnv("CONFIDENCE_THRESHOLD", defaultConfidenceThreshold, 0, 1),
		MaxSteps:            loadIntEnv("MAX_STEPS", defaultMaxSteps, 1, 1000),
		AuditLogPath:        os.Getenv("AUDIT_LOG_PATH"),
		ShellEnabled:        os.Getenv("TOOL_SHELL_ENABLED") != "false",
		HealingMaxAttempts:  loadIntEnv("HEALING_MAX_ATTEMPTS", defaultHealingMaxAttempts, 1, 50),
		LLMModel:            os.Getenv("LLM_MODEL"),
		LLMBaseURL:          os.Getenv("LLM_BASE_URL"),
		LLMAPIKey:           os.Getenv("LLM_API_KEY"),
	}
	if cfg.AuditLogPath == "" {
		cfg.AuditLogPath = cfg.WorkspaceRoot + string(os.PathSeparator) + ".state" + string(os.PathSeparator) + "audit.log"
	}
	return cfg
}

// loadIntEnv reads an integer env var, falling back to def when absent,
// unparseable, or outside [lo, hi].
func loadIntEnv(name string, def, lo, hi int) int {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < lo || n > hi {
		log.Printf("[Config] WARNING: invalid %s=%q (must be %d-%d), using default %d", name, v, lo, hi, def)
		return def
	}
	return n
}

// loadFloatEnv reads a float env var, falling back to def when absent,
// unparseable, or outside [lo, hi].
func loadFloatEnv(name string, def, lo, hi float64) float64 {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil || n < lo || n > hi {
		log.Printf("[Config] WARNING: invalid %s=%q (must be %.2f-%.2f), using default %.2f", name, v, lo, hi, def)
		return def
	}
	return n
}
