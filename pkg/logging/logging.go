package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"attractor/pkg/config"

	"gopkg.in/natefinch/lumberjack.v2"
)

const defaultLogFile = "attractor.log"

// fallbackOut receives warnings and errors when the log file cannot be opened.
var fallbackOut io.Writer = os.Stderr

const (
	maxLogSizeMB  = 5
	maxLogBackups = 5
	maxLogAgeDays = 14
)

// Init configures slog to write structured logs to a rotating file. Console
// output for the experiment itself goes through package display, not here.
// attrs are attached to every record, e.g. "version", "1.2.0".
//
// If the log directory cannot be created, the returned logger writes only
// warnings and errors to stderr, in text form, and the error is returned.
func Init(cfg config.Config, attrs ...any) (*slog.Logger, error) {
	level := parseLogLevel(cfg.LogLevel)
	handlerOptions := &slog.HandlerOptions{Level: level}

	logPath := strings.TrimSpace(cfg.LogFile)
	if logPath == "" {
		logPath = defaultLogPath()
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
		fallback := &slog.HandlerOptions{Level: max(level, slog.LevelWarn)}
		logger := slog.New(slog.NewTextHandler(fallbackOut, fallback)).With(attrs...)
		slog.SetDefault(logger)
		return logger, fmt.Errorf("failed to create log directory: %w", err)
	}

	writer := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    maxLogSizeMB,
		MaxBackups: maxLogBackups,
		MaxAge:     maxLogAgeDays,
		Compress:   true,
	}

	logger := slog.New(newHandler(cfg.LogFormat, writer, handlerOptions)).With(attrs...)
	slog.SetDefault(logger)
	return logger, nil
}

func defaultLogPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(homeDir) == "" {
		return filepath.Join(".attractor", "logs", defaultLogFile)
	}
	return filepath.Join(homeDir, ".attractor", "logs", defaultLogFile)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newHandler(format string, out io.Writer, opts *slog.HandlerOptions) slog.Handler {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "text":
		return slog.NewTextHandler(out, opts)
	default:
		return slog.NewJSONHandler(out, opts)
	}
}
