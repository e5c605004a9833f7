package logger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in       string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.in))
		})
	}
}

func TestNewWithConfig_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service.log")

	log, err := NewWithConfig(Config{
		Level:          "info",
		Format:         "json",
		OutputPath:     path,
		ServiceName:    "andrew-web-services",
		ServiceVersion: "test",
		Environment:    "production",
	})
	require.NoError(t, err)

	log.Debug("dropped")
	log.Info("kept", zap.String("name", "Scotty"))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"message":"kept"`)
	assert.Contains(t, out, `"service":"andrew-web-services"`)
	assert.Contains(t, out, `"environment":"production"`)
	assert.NotContains(t, out, "dropped")
	assert.Equal(t, 1, strings.Count(strings.TrimSpace(out), "\n")+1)
}

func TestWithContext(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, UserIDKey, "Scotty")
	WithContext(ctx, base).Info("with ids")
	WithContext(context.Background(), base).Info("without ids")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, map[string]any{"request_id": "req-1", "user_id": "Scotty"}, entries[0].ContextMap())
	assert.Empty(t, entries[1].ContextMap())

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "Scotty", GetUserID(ctx))
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestRequestIDInterceptor(t *testing.T) {
	interceptor := RequestIDInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/andrew.v1.AndrewWebServices/LogIn"}

	var seen string
	handler := func(ctx context.Context, req any) (any, error) {
		seen = GetRequestID(ctx)
		return nil, nil
	}

	_, err := interceptor(context.Background(), nil, info, handler)
	require.NoError(t, err)
	assert.Len(t, seen, 36)

	md := metadata.Pairs("x-request-id", "from-caller")
	_, err = interceptor(metadata.NewIncomingContext(context.Background(), md), nil, info, handler)
	require.NoError(t, err)
	assert.Equal(t, "from-caller", seen)
}

func TestGormLogger_Trace(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	gl := NewGormLogger(zap.New(core), 0.05, "warn")
	ctx := context.Background()
	query := func() (string, int64) { return "SELECT * FROM users WHERE name = 'Scotty'", 1 }

	// fast successful query below Info is not logged
	gl.Trace(ctx, time.Now(), query, nil)
	assert.Equal(t, 0, logs.Len())

	gl.Trace(ctx, time.Now(), query, gorm.ErrRecordNotFound)
	assert.Equal(t, 0, logs.Len())

	gl.Trace(ctx, time.Now(), query, errors.New("syntax error"))
	assert.Equal(t, 1, logs.FilterMessage("gorm query error").Len())

	gl.Trace(ctx, time.Now().Add(-time.Second), query, nil)
	assert.Equal(t, 1, logs.FilterMessage("gorm slow query").Len())

	verbose := gl.LogMode(gormlogger.Info)
	verbose.Trace(ctx, time.Now(), query, nil)
	assert.Equal(t, 1, logs.FilterMessage("gorm query").Len())

	gl.LogMode(gormlogger.Silent).Trace(ctx, time.Now(), query, errors.New("ignored"))
	assert.Equal(t, 3, logs.Len())
}

func TestGormLogger_TruncatesSQL(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	gl := NewGormLogger(zap.New(core), 0, "debug")

	long := strings.Repeat("x", maxSQLLength+10)
	gl.Trace(context.Background(), time.Now(), func() (string, int64) { return long, 0 }, nil)

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, true, fields["sql_truncated"])
	assert.Len(t, fields["sql"], maxSQLLength+3)
}

func TestNewGormLogger_Levels(t *testing.T) {
	tests := map[string]gormlogger.LogLevel{
		"silent": gormlogger.Silent,
		"error":  gormlogger.Error,
		"warn":   gormlogger.Warn,
		"info":   gormlogger.Info,
		"debug":  gormlogger.Info,
		"bogus":  gormlogger.Warn,
	}
	for in, expected := range tests {
		assert.Equal(t, expected, NewGormLogger(zap.NewNop(), 0.2, in).LogLevel, in)
	}
	assert.Equal(t, 200*time.Millisecond, NewGormLogger(zap.NewNop(), 0.2, "warn").SlowThreshold)
}
