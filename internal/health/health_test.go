package health

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okPinger() Pinger {
	return PingerFunc(func(context.Context) error { return nil })
}

func failPinger(msg string) Pinger {
	return PingerFunc(func(context.Context) error { return errors.New(msg) })
}

func TestCheckHealthAllHealthy(t *testing.T) {
	c := New(okPinger(), okPinger(), "1.0.0", "test", nil)

	report, healthy := c.CheckHealth(context.Background())
	assert.True(t, healthy)
	assert.Equal(t, StatusOK, report.Status)
	assert.Equal(t, "1.0.0", report.Version)
	assert.Equal(t, "test", report.Environment)
	assert.NotEmpty(t, report.Timestamp)

	require.Contains(t, report.Checks, "database")
	require.Contains(t, report.Checks, "cache")
	require.Contains(t, report.Checks, "memory")
	assert.Equal(t, StatusOK, report.Checks["database"].Status)
	assert.Equal(t, StatusOK, report.Checks["cache"].Status)
}

func TestCheckHealthDatabaseDown(t *testing.T) {
	c := New(failPinger("connection refused"), okPinger(), "1.0.0", "test", nil)

	report, healthy := c.CheckHealth(context.Background())
	assert.False(t, healthy)
	assert.Equal(t, StatusError, report.Status)
	assert.Equal(t, StatusError, report.Checks["database"].Status)
	assert.Equal(t, "connection refused", report.Checks["database"].Error)
	assert.Equal(t, StatusOK, report.Checks["cache"].Status)
}

func TestCheckHealthCacheDown(t *testing.T) {
	c := New(okPinger(), failPinger("redis unavailable"), "1.0.0", "test", nil)

	_, healthy := c.CheckHealth(context.Background())
	assert.False(t, healthy)
}

func TestCheckHealthNilProbe(t *testing.T) {
	c := New(nil, okPinger(), "1.0.0", "test", nil)

	report, healthy := c.CheckHealth(context.Background())
	assert.False(t, healthy)
	assert.Contains(t, report.Checks["database"].Error, "not configured")
}

func TestCheckHealthTruncatesLongErrors(t *testing.T) {
	c := New(failPinger(strings.Repeat("x", 600)), okPinger(), "1.0.0", "test", nil)

	report, _ := c.CheckHealth(context.Background())
	assert.Len(t, report.Checks["database"].Error, maxErrorChars)
	assert.True(t, strings.HasSuffix(report.Checks["database"].Error, "..."))
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.00 KB", formatBytes(1024))
	assert.Equal(t, "64.00 MB", formatBytes(64*1024*1024))
	assert.Equal(t, "2.50 GB", formatBytes(uint64(2.5*1024*1024*1024)))
}
