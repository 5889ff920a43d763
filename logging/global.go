// Package logging wraps log/slog with a console + rotating file setup and a
// package-level facade used across the app.
package logging

import (
	"log/slog"
	"os"
	"strings"

	"github.com/giygas/cie10-api/config"
)

type LoggingService struct {
	Logger   *slog.Logger
	rotating *RotatingLogger
}

var DefaultLoggingService *LoggingService

// InitLogger initializes the global logger with default levels. An empty
// logDir logs to the console only.
func InitLogger(logDir string) {
	InitLoggerWithOptions(Options{
		Dir:            logDir,
		ConsoleLevel:   slog.LevelInfo,
		FileLevel:      GetFileLogLevel(),
		RetentionWeeks: 4,
		MaxFileSize:    defaultMaxFileSize,
	})
}

// InitLoggerFromConfig initializes the global logger from the app configuration
func InitLoggerFromConfig(logDir string, cfg *config.Config) {
	InitLoggerWithOptions(Options{
		Dir:            logDir,
		ConsoleLevel:   GetConsoleLogLevel(cfg.Env, cfg.LogLevel, os.Getenv("VERBOSE") != ""),
		FileLevel:      GetFileLogLevel(),
		RetentionWeeks: cfg.LogRetentionWeeks,
		MaxFileSize:    cfg.MaxLogFileSize,
	})
}

// InitLoggerWithOptions replaces the global logger, closing the previous file
func InitLoggerWithOptions(opts Options) {
	Close()

	logger, rotating := SetupLogger(opts)
	DefaultLoggingService = &LoggingService{
		Logger:   logger,
		rotating: rotating,
	}
	slog.SetDefault(logger)
}

// Close flushes and closes the global log file, if any
func Close() error {
	if DefaultLoggingService == nil || DefaultLoggingService.rotating == nil {
		return nil
	}
	err := DefaultLoggingService.rotating.Close()
	DefaultLoggingService.rotating = nil
	return err
}

// parseLogLevel maps a LOG_LEVEL value to a slog level, defaulting to info
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

// GetConsoleLogLevel returns the console level for an environment.
// Tests stay quiet unless verbose and ignore LOG_LEVEL; prod and staging
// default to warn; an explicit LOG_LEVEL wins everywhere else.
func GetConsoleLogLevel(env config.Environment, logLevel string, verbose bool) slog.Level {
	if env == config.EnvTest {
		if verbose {
			return slog.LevelInfo
		}
		return slog.LevelError
	}

	if logLevel != "" {
		return parseLogLevel(logLevel)
	}

	switch env {
	case config.EnvProduction, config.EnvStaging:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// GetFileLogLevel returns the level of the JSON file handler
func GetFileLogLevel() slog.Level {
	return slog.LevelDebug
}

// Logger returns the global logger, or slog.Default before InitLogger
func Logger() *slog.Logger {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		return slog.Default()
	}
	return DefaultLoggingService.Logger
}

func Info(msg string, args ...any) {
	Logger().Info(msg, args...)
}

func Error(msg string, args ...any) {
	Logger().Error(msg, args...)
}

func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	Logger().Debug(msg, args...)
}
