package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func observedGormLogger(level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), logs
}

func TestGormLogger_TraceError(t *testing.T) {
	gl, logs := observedGormLogger(gormlogger.Warn)

	gl.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "INSERT INTO orders", 0
	}, errors.New("constraint violated"))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "query failed", entries[0].Message)

	fields := entries[0].ContextMap()
	assert.Equal(t, "INSERT INTO orders", fields["sql"])
	assert.Contains(t, fields, "elapsed")
	assert.Contains(t, fields, "rows")
}

func TestGormLogger_NotFoundSilencedByDefault(t *testing.T) {
	gl, logs := observedGormLogger(gormlogger.Warn)

	gl.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT * FROM orders", 0
	}, gormlogger.ErrRecordNotFound)

	assert.Zero(t, logs.Len())
}

func TestGormLogger_NotFoundLoggingOptIn(t *testing.T) {
	gl, logs := observedGormLogger(gormlogger.Warn, WithNotFoundLogging())

	gl.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT * FROM orders", 0
	}, gormlogger.ErrRecordNotFound)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "query failed", logs.All()[0].Message)
}

func TestGormLogger_SlowQuery(t *testing.T) {
	gl, logs := observedGormLogger(gormlogger.Warn, WithSlowThreshold(time.Millisecond))

	gl.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) {
		return "SELECT * FROM shipments", 12
	}, nil)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "slow query", entries[0].Message)
	assert.Contains(t, entries[0].ContextMap(), "threshold")
}

func TestGormLogger_SilentSuppressesEverything(t *testing.T) {
	gl, logs := observedGormLogger(gormlogger.Silent)

	gl.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) {
		return "SELECT 1", 1
	}, errors.New("boom"))
	gl.Error(context.Background(), "unreported")

	assert.Zero(t, logs.Len())
}

func TestGormLogger_LogModeReturnsCopy(t *testing.T) {
	gl, logs := observedGormLogger(gormlogger.Error)

	quiet := gl.LogMode(gormlogger.Silent)
	quiet.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT 1", 1
	}, errors.New("boom"))
	assert.Zero(t, logs.Len())

	gl.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT 1", 1
	}, errors.New("boom"))
	assert.Equal(t, 1, logs.Len())
}
