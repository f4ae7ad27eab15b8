package log

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	DefaultMaxSizeMB  = 100
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 28
)

var (
	openFilesMu sync.Mutex
	openFiles   []io.Closer
)

// EnableFileOutput enables file output on the given configuration
func EnableFileOutput(cfg *LogConfig, filePath string) *LogConfig {
	cfg.OutputToFile = true
	cfg.FilePath = filePath
	return cfg
}

// SetFileFormat sets the file output format ("console" or "json")
func SetFileFormat(cfg *LogConfig, format string) *LogConfig {
	cfg.FileFormat = format
	return cfg
}

// DisableFileAppend truncates the log file on Configure instead of appending
func DisableFileAppend(cfg *LogConfig) *LogConfig {
	cfg.FileAppend = false
	return cfg
}

// newFileWriter builds a rotating file writer for the configured path
func newFileWriter(cfg *LogConfig) (io.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
		return nil, err
	}

	if !cfg.FileAppend {
		if err := os.Truncate(cfg.FilePath, 0); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	maxSize := cfg.MaxSizeMB
	if maxSize == 0 {
		maxSize = DefaultMaxSizeMB
	}
	maxBackups := cfg.MaxBackups
	if maxBackups == 0 {
		maxBackups = DefaultMaxBackups
	}
	maxAge := cfg.MaxAgeDays
	if maxAge == 0 {
		maxAge = DefaultMaxAgeDays
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		MaxAge:     maxAge,
	}

	openFilesMu.Lock()
	openFiles = append(openFiles, rotator)
	openFilesMu.Unlock()

	if cfg.FileFormat == "console" {
		return zerolog.ConsoleWriter{
			Out:        rotator,
			TimeFormat: LogTimestampFormat,
			NoColor:    true,
		}, nil
	}
	return rotator, nil
}

// CloseLogFiles closes all file writers opened by Configure
func CloseLogFiles() {
	openFilesMu.Lock()
	defer openFilesMu.Unlock()

	for _, f := range openFiles {
		_ = f.Close()
	}
	openFiles = nil
}
