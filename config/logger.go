package config

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ConfigureLogger builds the application logger: console or JSON on stderr,
// plus a rolling file when LogFile is set
func ConfigureLogger(cfg *Config) zerolog.Logger {
	var writers []io.Writer
	if cfg.LogConsole {
		writers = append(writers, zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
			w.Out = os.Stderr
			w.TimeFormat = time.RFC3339
		}))
	} else {
		writers = append(writers, os.Stderr)
	}
	if cfg.LogFile != "" {
		writers = append(writers, newRollingFile(cfg.LogFile))
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().Timestamp().Logger()

	logger.Info().
		Bool("consoleLogging", cfg.LogConsole).
		Str("level", level.String()).
		Str("logFile", cfg.LogFile).
		Msg("logging configured")

	return logger
}

func newRollingFile(path string) io.Writer {
	if dir := filepath.Dir(path); dir != "." {
		_ = os.MkdirAll(dir, 0o744)
	}

	return &lumberjack.Logger{
		Filename:   path,
		MaxBackups: 10, // files
		MaxSize:    10, // megabytes
		MaxAge:     10, // days
	}
}
