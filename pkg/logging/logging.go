package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global logger based on verbosity level.
// It sets up dual output: a colored console writer on stderr and a
// per-run session log file opened in append mode. The session file path
// is returned so the completion summary can point users at it; logPath
// overrides the default location when non-empty.
func Setup(verbosity int, logPath string) string {
	switch verbosity {
	case 0:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case 1:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
		NoColor:    false,
	}

	writers := []io.Writer{consoleWriter}

	if logPath == "" {
		logPath = defaultLogPath()
	}
	logFile, err := openLogFile(logPath)
	if err == nil {
		// Session records are plain "<timestamp> - <message>" lines, one
		// per record, so the file stays greppable without a JSON tool.
		writers = append(writers, zerolog.ConsoleWriter{
			Out:         logFile,
			TimeFormat:  time.RFC3339,
			NoColor:     true,
			FormatLevel: func(interface{}) string { return "-" },
		})
	}

	multi := io.MultiWriter(writers...)
	log.Logger = zerolog.New(multi).With().Timestamp().Logger()

	if err != nil {
		log.Warn().Err(err).Str("path", logPath).Msg("Failed to create log file, logging to console only")
	}

	if verbosity >= 2 {
		log.Logger = log.Logger.With().Caller().Logger()
	}

	log.Debug().Int("verbosity", verbosity).Str("logFile", logPath).Msg("Logger initialized")
	return logPath
}

// GetLogger returns a contextualized logger with the given name
func GetLogger(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

// defaultLogPath builds a timestamped session log path under the XDG
// state directory, e.g. ~/.local/state/dotfiles/dotfiles_20260829_153000.log.
func defaultLogPath() string {
	stamp := time.Now().Format("20060102_150405")
	name := fmt.Sprintf("dotfiles_%s.log", stamp)
	return filepath.Join(xdg.StateHome, "dotfiles", name)
}

// openLogFile creates the log file and its parent directories.
// The file is opened in append mode so separate invocations sharing a
// path do not step on each other's records.
func openLogFile(logPath string) (*os.File, error) {
	logDir := filepath.Dir(logPath)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return file, nil
}
