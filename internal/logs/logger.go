package logs

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

var (
	Logger  zerolog.Logger
	logFile *os.File
	mu      sync.Mutex
)

// This runs automatically when the package is imported.
// Creates a logger in the current directory as a fallback.
func init() {
	f, err := os.OpenFile("debug.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		// Read-only working directory: keep a disabled logger rather than failing startup.
		Logger = zerolog.Nop()
		return
	}
	logFile = f
	Logger = newLogger(f)
}

func newLogger(f *os.File) zerolog.Logger {
	return zerolog.New(zerolog.SyncWriter(f)).With().
		Timestamp().
		Str("app", "notely").
		Logger()
}

// Initialize reinitializes the logger to write to a new directory.
func Initialize(logDir string) error {
	mu.Lock()
	defer mu.Unlock()

	if logDir == "" || logDir == "." {
		return nil
	}

	logPath := filepath.Join(logDir, "debug.log")

	Logger.Info().Str("path", logPath).Msg("reinitializing logger")

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		Logger.Error().Err(err).Str("path", logPath).Msg("failed to open new log file")
		return err
	}

	if logFile != nil {
		logFile.Close()
	}

	logFile = f
	Logger = newLogger(f)

	Logger.Info().Str("path", logPath).Msg("logger reinitialized")

	return nil
}

// SetLevel sets the global minimum level, e.g. "debug" or "warn".
// Unknown names leave the level unchanged.
func SetLevel(name string) {
	level, err := zerolog.ParseLevel(name)
	if err != nil || name == "" {
		return
	}
	zerolog.SetGlobalLevel(level)
}

// Close closes the log file.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		err := logFile.Close()
		logFile = nil
		return err
	}
	return nil
}
