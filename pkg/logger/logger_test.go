package logger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/perchlabs/boothboard/internal/common/config"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestGetLogLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"fatal":   zapcore.FatalLevel,
		"unknown": zapcore.InfoLevel, // default
	}
	for in, exp := range cases {
		assert.Equal(t, exp, getLogLevel(in))
	}
}

func TestSetDefaultsAndNewLogger(t *testing.T) {
	cfg := &config.LoggerConfig{}
	setLoggerDefaults(cfg)
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
	assert.Equal(t, 100, cfg.MaxSize)
	assert.Equal(t, 3, cfg.MaxBackups)
	assert.Equal(t, 7, cfg.MaxAge)
	assert.NotEmpty(t, cfg.TimeFormat)

	enc := getEncoder(cfg)
	assert.NotNil(t, enc)

	lg, err := NewLogger(cfg)
	assert.NoError(t, err)
	assert.NotNil(t, lg)
}

func TestResolveTimeZone(t *testing.T) {
	assert.Equal(t, time.Local, resolveTimeZone(&config.LoggerConfig{}))
	loc := resolveTimeZone(&config.LoggerConfig{TimeZone: "UTC"})
	assert.Equal(t, "UTC", loc.String())
	// unknown zones fall back to local
	assert.Equal(t, time.Local, resolveTimeZone(&config.LoggerConfig{TimeZone: "Nowhere/Invalid"}))
}

func TestNewLogger_FileWithStacktrace(t *testing.T) {
	tmp := t.TempDir()
	cfg := &config.LoggerConfig{
		Output:     "file",
		FilePath:   filepath.Join(tmp, "logs", "app.log"),
		Format:     "console",
		Color:      true,
		Stacktrace: true,
		Level:      "debug",
		TimeZone:   "UTC",
	}

	lg, err := NewLogger(cfg)
	assert.NoError(t, err)
	assert.NotNil(t, lg)

	lg.Debug("debug message")
	lg.Error("error message")

	// log directory is created by NewLogger
	_, err = os.Stat(filepath.Dir(cfg.FilePath))
	assert.NoError(t, err)
}
