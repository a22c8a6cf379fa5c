package config

import "time"

// Config holds runtime settings for the pinvault CLI.
//
// Fields:
//   - DatabasePath: location of the SQLite vault file.
//   - AutoLockAfter: idle time after which the vault locks itself.
//   - AutoLockCheckInterval: how often the idle watcher polls the session.
type Config struct {
	DatabasePath          string
	AutoLockAfter         time.Duration
	AutoLockCheckInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabasePath = "pinvault.db"
	c.AutoLockAfter = 5 * time.Minute
	c.AutoLockCheckInterval = 15 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

// LockFilePath returns the path of the advisory lock file guarding the vault,
// derived from the database path.
func (c *Config) LockFilePath() string {
	return c.DatabasePath + ".lock"
}
