// Package config loads the ledger's process configuration: environment
// variables for runtime wiring (event-store DSN, log level, rules-file
// path), plus a YAML policy document for dedup tolerances and rule-engine
// options.
package config

import (
	"os"
	"strconv"
)

// Config holds the ledger process's environment-derived configuration.
type Config struct {
	EventStoreDriver string // "postgres", "sqlite", or "memory"
	EventStoreDSN    string
	RedisAddr        string // empty disables the index cache
	LogLevel         string
	RulesPath        string
	ObsEnabled       bool

	// S3 archival sink for raw statement bytes and event-log export
	// snapshots; an empty bucket disables archival.
	ArchiveBucket   string
	ArchiveRegion   string
	ArchiveEndpoint string // optional, for MinIO/LocalStack
	ArchivePrefix   string
}

// Load reads Config from the environment, applying the same defaults the
// ledger uses for local development.
func Load() *Config {
	driver := os.Getenv("LEDGERLY_EVENTSTORE_DRIVER")
	if driver == "" {
		driver = "sqlite"
	}

	dsn := os.Getenv("LEDGERLY_EVENTSTORE_DSN")
	if dsn == "" {
		dsn = "ledgerly.db"
	}

	logLevel := os.Getenv("LEDGERLY_LOG_LEVEL")
	if logLevel == "" {
		logLevel = "INFO"
	}

	rulesPath := os.Getenv("LEDGERLY_RULES_PATH")
	if rulesPath == "" {
		rulesPath = "rules.json"
	}

	obsEnabled, _ := strconv.ParseBool(os.Getenv("LEDGERLY_OBS_ENABLED"))

	return &Config{
		EventStoreDriver: driver,
		EventStoreDSN:    dsn,
		RedisAddr:        os.Getenv("LEDGERLY_REDIS_ADDR"),
		LogLevel:         logLevel,
		RulesPath:        rulesPath,
		ObsEnabled:       obsEnabled,
		ArchiveBucket:    os.Getenv("LEDGERLY_ARCHIVE_BUCKET"),
		ArchiveRegion:    os.Getenv("LEDGERLY_ARCHIVE_REGION"),
		ArchiveEndpoint:  os.Getenv("LEDGERLY_ARCHIVE_ENDPOINT"),
		ArchivePrefix:    os.Getenv("LEDGERLY_ARCHIVE_PREFIX"),
	}
}
