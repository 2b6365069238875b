// Package debug provides the development log for hiwar. It is silent
// until Enable is called (the --debug flag).
package debug

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu      sync.Mutex
	logger  = zap.NewNop()
	logFile *os.File
	logPath string
)

// Enable starts writing JSON log lines to path, appending to an
// existing file.
func Enable(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(f), zapcore.DebugLevel)

	logFile = f
	logPath = path
	logger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	logger.Info("debug session started", zap.String("log_file", path), zap.Int("pid", os.Getpid()))

	return nil
}

// Disable flushes and closes the log file.
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	if logFile == nil {
		return
	}
	_ = logger.Sync()
	_ = logFile.Close()
	logFile = nil
	logger = zap.NewNop()
}

// IsEnabled returns whether debug logging is enabled.
func IsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return logFile != nil
}

// LogPath returns the path of the active log file.
func LogPath() string {
	mu.Lock()
	defer mu.Unlock()
	return logPath
}

// Logger returns the current logger; a no-op logger while disabled.
func Logger() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger.WithOptions(zap.AddCallerSkip(-1))
}

func current() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// Log writes a free-form debug line.
func Log(format string, args ...any) {
	current().Debug(fmt.Sprintf(format, args...))
}

// Event logs something that happened in a component.
func Event(component, eventType, details string) {
	current().Debug(eventType,
		zap.String("component", component),
		zap.String("details", details))
}

// Error logs a failure with what was being attempted.
func Error(component string, err error, context string) {
	current().Error(context,
		zap.String("component", component),
		zap.Error(err))
}
