package store

import (
	"fmt"
	"net/url"
	"time"
)

// Config configures the SQLite lecture archive.
type Config struct {
	// Path is the database file, or ":memory:" for a private in-memory
	// archive.
	Path string
	// BusyTimeout is how long a writer waits for a locked database.
	BusyTimeout time.Duration
	// SlowQueryThreshold logs statements slower than this at warn.
	SlowQueryThreshold time.Duration
	// LogLevel is the gorm log level: silent, error, warn or info.
	LogLevel string
}

func (c *Config) applyDefaults() {
	if c.Path == "" {
		c.Path = ":memory:"
	}
	if c.BusyTimeout <= 0 {
		c.BusyTimeout = 5 * time.Second
	}
	if c.SlowQueryThreshold <= 0 {
		c.SlowQueryThreshold = 200 * time.Millisecond
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
}

// dsn builds the go-sqlite3 connection string with foreign keys enforced.
func (c Config) dsn() string {
	q := url.Values{}
	q.Set("_foreign_keys", "on")
	q.Set("_busy_timeout", fmt.Sprint(c.BusyTimeout.Milliseconds()))
	return c.Path + "?" + q.Encode()
}
