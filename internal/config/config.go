// Package config holds operator-level configuration for a veil
// installation: data directory, audit sealing key, hash salt, server
// settings, retention policy, and dictionary/pattern file locations.
//
// Each key maps to an env var with the VEIL_ prefix (e.g. "hash_salt" →
// VEIL_HASH_SALT) and merges with defaults through viper. Per-document
// anonymization options (strategy, thresholds, entity filters) are NOT
// operator config; they arrive per call via flags or request bodies.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/veilware/veil/internal/cryptoutil"
)

// Viper keys.
const (
	KeyDataDir           = "data_dir"
	KeyHashSalt          = "hash_salt"
	KeyAuditKey          = "audit_key"
	KeyListenAddr        = "listen_addr"
	KeyRateLimitRPS      = "rate_limit_rps"
	KeyRetentionDays     = "retention_days"
	KeyRetentionSchedule = "retention_schedule"
	KeyPatternFile       = "pattern_file"
	KeyFirstNamesFile    = "first_names_file"
	KeySurnamesFile      = "surnames_file"
	KeyNERBaseURL        = "ner_base_url"
	KeyNERModel          = "ner_model"
	KeyNERAPIKey         = "ner_api_key"
)

// Defaults that do not involve crypto material. The audit key and hash
// salt have no baked-in defaults; when unset we derive a per-machine
// fallback and warn.
const (
	DefaultListenAddr    = "127.0.0.1:8487"
	DefaultRateLimitRPS  = 20
	DefaultRetentionDays = 30
)

// Config is the resolved operator configuration for a veil process.
type Config struct {
	DataDir           string
	HashSalt          string
	AuditKey          string // 32 raw bytes or 64 hex characters
	ListenAddr        string
	RateLimitRPS      int
	RetentionDays     int
	RetentionSchedule string // cron expression; empty selects the audit default
	PatternFile       string
	FirstNamesFile    string
	SurnamesFile      string
	NERBaseURL        string
	NERModel          string
	NERAPIKey         string

	usingDefaultAuditKey bool
	usingDefaultHashSalt bool
}

func init() {
	viper.SetEnvPrefix("VEIL")
	viper.AutomaticEnv()
	viper.SetDefault(KeyListenAddr, DefaultListenAddr)
	viper.SetDefault(KeyRateLimitRPS, DefaultRateLimitRPS)
	viper.SetDefault(KeyRetentionDays, DefaultRetentionDays)
}

// Load reads configuration from viper (env vars, config file, defaults)
// and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{
		DataDir:           resolveDataDir(),
		HashSalt:          viper.GetString(KeyHashSalt),
		AuditKey:          viper.GetString(KeyAuditKey),
		ListenAddr:        viper.GetString(KeyListenAddr),
		RateLimitRPS:      viper.GetInt(KeyRateLimitRPS),
		RetentionDays:     viper.GetInt(KeyRetentionDays),
		RetentionSchedule: viper.GetString(KeyRetentionSchedule),
		PatternFile:       viper.GetString(KeyPatternFile),
		FirstNamesFile:    viper.GetString(KeyFirstNamesFile),
		SurnamesFile:      viper.GetString(KeySurnamesFile),
		NERBaseURL:        viper.GetString(KeyNERBaseURL),
		NERModel:          viper.GetString(KeyNERModel),
		NERAPIKey:         viper.GetString(KeyNERAPIKey),
	}

	if cfg.AuditKey == "" {
		cfg.AuditKey = deriveDefaultKey(cfg.DataDir, "audit-sealing")
		cfg.usingDefaultAuditKey = true
	}
	if cfg.HashSalt == "" {
		cfg.HashSalt = deriveDefaultKey(cfg.DataDir, "hash-salt")
		cfg.usingDefaultHashSalt = true
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func resolveDataDir() string {
	if dir := viper.GetString(KeyDataDir); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".veil"
	}
	return filepath.Join(home, ".veil")
}

// deriveDefaultKey produces a deterministic per-machine fallback from the
// data directory path and a salt. Not cryptographically strong; it exists
// so the CLI works out of the box while still sealing data at rest.
func deriveDefaultKey(dataDir, salt string) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("veil:%s:%s", dataDir, salt)))
	return hex.EncodeToString(h[:])
}

func (c *Config) validate() error {
	if _, err := c.AuditKeyBytes(); err != nil {
		return fmt.Errorf("audit_key: %w; set VEIL_AUDIT_KEY", err)
	}
	if len(c.HashSalt) < 8 {
		return fmt.Errorf("hash_salt must be at least 8 characters (got %d); set VEIL_HASH_SALT", len(c.HashSalt))
	}
	if c.RateLimitRPS <= 0 {
		return fmt.Errorf("rate_limit_rps must be positive, got %d", c.RateLimitRPS)
	}
	if c.RetentionDays <= 0 {
		return fmt.Errorf("retention_days must be positive, got %d", c.RetentionDays)
	}
	return nil
}

// AuditKeyBytes decodes the audit key into raw sealing key bytes.
func (c *Config) AuditKeyBytes() ([]byte, error) {
	return cryptoutil.DecodeKey(c.AuditKey, 32)
}

// AuditDBPath returns the full path to the audit SQLite database.
func (c *Config) AuditDBPath() string {
	return filepath.Join(c.DataDir, "audit.db")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *Config) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0o700)
}

// UsingDefaultKeys reports whether any crypto material fell back to a
// derived default. Commands warn when this is the case.
func (c *Config) UsingDefaultKeys() bool {
	return c.usingDefaultAuditKey || c.usingDefaultHashSalt
}

// WarnIfDefaultKeys logs a warning when crypto material was derived
// rather than set. Suppressed when VEIL_QUICKSTART=1 or true.
func (c *Config) WarnIfDefaultKeys() {
	if isQuickstart() {
		return
	}
	if c.usingDefaultAuditKey {
		log.Warn().Msg("Using generated default VEIL_AUDIT_KEY — set via env var or config file for production")
	}
	if c.usingDefaultHashSalt {
		log.Warn().Msg("Using generated default VEIL_HASH_SALT — set via env var or config file for production")
	}
}

func isQuickstart() bool {
	v := os.Getenv("VEIL_QUICKSTART")
	return v == "1" || v == "true" || v == "TRUE"
}
