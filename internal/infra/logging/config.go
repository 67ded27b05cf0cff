package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// LoggerConfig holds configuration parameters for logging.
type LoggerConfig struct {
	// AppName is added to every entry as "app"
	AppName string

	// Output is "stdout", "stderr", "discard" or a file path. Interactive
	// clients should log to a file so entries do not mix with prompts.
	Output string `env:"OUTPUT" default:"stderr"`

	// Level is the minimum level ("debug", "info", "warn", "error")
	Level string `env:"LEVEL" default:"info"`

	// Filter overrides the level per logger name prefix ("svc.imagesvc:debug,repo:warn")
	Filter string `env:"FILTER" default:""`

	JSON bool `env:"JSON" default:"false"`

	// Color is "auto", "always" or "never". Auto colors only terminals.
	Color string `env:"COLOR" default:"auto"`

	OutputHandle io.Writer
}

//nolint:gochecknoglobals
var (
	config     LoggerConfig
	configLock sync.Mutex
)

// Configure sets the global logging configuration. Loggers obtained before
// the call discard everything.
func Configure(ctx context.Context, cfg LoggerConfig, appName string) {
	configLock.Lock()

	cfg.AppName = appName
	if cfg.OutputHandle == nil {
		cfg.OutputHandle = openOutput(cfg.Output)
	}

	config = cfg
	configLock.Unlock()

	slog.SetLogLoggerLevel(parseLogLevel(cfg.Level, LevelInfo))

	GetLogger("infra.logging").DebugContext(ctx, "logging configured", Group("config",
		"output", cfg.Output,
		"level", cfg.Level,
		"filter", cfg.Filter,
		"json", cfg.JSON,
	))
}

func openOutput(output string) io.Writer {
	switch output {
	case "", "discard":
		return io.Discard
	case "stdout":
		return os.Stdout
	case "stderr":
		return os.Stderr
	}

	file, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600) //nolint:gosec
	if err != nil {
		panic(fmt.Errorf("open log file: %w", err))
	}

	return file
}

func currentConfig() LoggerConfig {
	configLock.Lock()
	defer configLock.Unlock()

	return config
}

// useColor resolves the Color setting for the configured output.
func (cfg LoggerConfig) useColor() bool {
	switch cfg.Color {
	case "always":
		return true
	case "never":
		return false
	}

	f, ok := cfg.OutputHandle.(*os.File)

	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec
}

// levelFilter parses Filter into name prefix → level.
func (cfg LoggerConfig) levelFilter() map[string]Level {
	levels := make(map[string]Level)

	for _, entry := range strings.Split(cfg.Filter, ",") {
		name, level, ok := strings.Cut(strings.TrimSpace(entry), ":")
		if !ok {
			continue
		}

		levels[name] = parseLogLevel(level, LevelDebug)
	}

	return levels
}

func parseLogLevel(s string, fallback Level) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return fallback
	}
}
