package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LEDGERLY_EVENTSTORE_DRIVER", "")
	t.Setenv("LEDGERLY_EVENTSTORE_DSN", "")
	t.Setenv("LEDGERLY_LOG_LEVEL", "")
	t.Setenv("LEDGERLY_RULES_PATH", "")
	t.Setenv("LEDGERLY_REDIS_ADDR", "")
	t.Setenv("LEDGERLY_OBS_ENABLED", "")

	c := Load()
	assert.Equal(t, "sqlite", c.EventStoreDriver)
	assert.Equal(t, "ledgerly.db", c.EventStoreDSN)
	assert.Equal(t, "INFO", c.LogLevel)
	assert.Equal(t, "rules.json", c.RulesPath)
	assert.Empty(t, c.RedisAddr)
	assert.False(t, c.ObsEnabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LEDGERLY_EVENTSTORE_DRIVER", "postgres")
	t.Setenv("LEDGERLY_EVENTSTORE_DSN", "postgres://localhost/ledgerly")
	t.Setenv("LEDGERLY_OBS_ENABLED", "true")
	t.Setenv("LEDGERLY_ARCHIVE_BUCKET", "ledgerly-archive")
	t.Setenv("LEDGERLY_ARCHIVE_REGION", "us-east-1")
	t.Setenv("LEDGERLY_ARCHIVE_ENDPOINT", "http://localhost:9000")
	t.Setenv("LEDGERLY_ARCHIVE_PREFIX", "statements/")

	c := Load()
	assert.Equal(t, "postgres", c.EventStoreDriver)
	assert.Equal(t, "postgres://localhost/ledgerly", c.EventStoreDSN)
	assert.True(t, c.ObsEnabled)
	assert.Equal(t, "ledgerly-archive", c.ArchiveBucket)
	assert.Equal(t, "us-east-1", c.ArchiveRegion)
	assert.Equal(t, "http://localhost:9000", c.ArchiveEndpoint)
	assert.Equal(t, "statements/", c.ArchivePrefix)
}
