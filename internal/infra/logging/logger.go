// Package logging configures log/slog for the client and the services.
// Loggers are named with dotted paths ("svc.sessionsvc.session_manager") so
// levels can be tuned per subtree.
package logging

import (
	"io"
	"log"
	"log/slog"
)

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// loggerNameKey is the attribute holding the logger name.
const loggerNameKey = "logger"

type (
	Logger  = *slog.Logger
	Handler = slog.Handler
	Level   = slog.Level
)

//nolint:gochecknoglobals
var (
	Group      = slog.Group
	GroupValue = slog.GroupValue
)

// GetLogger returns a logger named name using the global configuration.
func GetLogger(name string) Logger {
	cfg := currentConfig()

	if cfg.OutputHandle == nil || cfg.OutputHandle == io.Discard {
		return NewNopLogger()
	}

	level := parseLogLevel(cfg.Level, LevelInfo)

	var handler Handler

	if cfg.JSON {
		//nolint:exhaustruct
		handler = slog.NewJSONHandler(cfg.OutputHandle, &slog.HandlerOptions{
			AddSource: true,
			Level:     level,
		})
	} else {
		handler = NewConsoleHandler(cfg.OutputHandle, level, cfg.levelFilter(), cfg.useColor())
	}

	handler = NewTracingHandler(NewRedactingHandler(handler))

	logger := slog.New(handler)
	if cfg.AppName != "" {
		logger = logger.With("app", cfg.AppName)
	}

	return logger.With(loggerNameKey, name)
}

// GetLogLogger adapts logger for code that expects a *log.Logger, such as
// http.Server.ErrorLog.
func GetLogLogger(logger Logger, level Level) *log.Logger {
	return slog.NewLogLogger(logger.With("stdlog", true).Handler(), level)
}

// NewNopLogger returns a logger that drops everything.
func NewNopLogger() Logger {
	return slog.New(slog.DiscardHandler)
}
