package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Configuration constants
const (
	// LogContextKey is used to store/retrieve logger from context
	LogContextKey       = "logger"
	LogTraceIDKey       = "trace_id"
	LogModuleKey        = "module"
	LogComponentKey     = "component"
	LogTimestampFormat  = time.RFC3339Nano
	LogCallerSkipFrames = 2
)

// Logger wraps zerolog.Logger to provide consistent logging patterns
type Logger struct {
	logger     zerolog.Logger
	moduleInfo string
	traceID    string
}

// LogConfig contains configuration for the logger
type LogConfig struct {
	Level            string `json:"level"`
	Format           string `json:"format"` // "console" or "json"
	IncludeTimestamp bool   `json:"includeTimestamp"`
	IncludeCaller    bool   `json:"includeCaller"`
	CallerSkipFrames int    `json:"callerSkipFrames"`

	// file output, see file_logger.go
	OutputToFile bool   `json:"outputToFile"`
	FilePath     string `json:"filePath"`
	FileFormat   string `json:"fileFormat"` // "console" or "json"
	FileAppend   bool   `json:"fileAppend"`
	MaxSizeMB    int    `json:"maxSizeMB"`
	MaxBackups   int    `json:"maxBackups"`
	MaxAgeDays   int    `json:"maxAgeDays"`
}

// NewDefaultConfig returns a default logging configuration
func NewDefaultConfig() *LogConfig {
	return &LogConfig{
		Level:            "info",
		Format:           "console",
		IncludeTimestamp: true,
		IncludeCaller:    false,
		CallerSkipFrames: LogCallerSkipFrames,
		FileFormat:       "json",
		FileAppend:       true,
	}
}

// Configure configures the global logger based on the provided configuration
func Configure(cfg *LogConfig) error {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %s", cfg.Level)
	}
	zerolog.SetGlobalLevel(level)

	zerolog.TimeFieldFormat = LogTimestampFormat

	var output io.Writer = os.Stderr
	if cfg.Format == "console" {
		output = zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
			w.TimeFormat = LogTimestampFormat
		})
	}

	if cfg.OutputToFile {
		fileWriter, err := newFileWriter(cfg)
		if err != nil {
			return err
		}
		output = zerolog.MultiLevelWriter(output, fileWriter)
	}

	baseLogger := zerolog.New(output).Level(level)

	if cfg.IncludeTimestamp {
		baseLogger = baseLogger.With().Timestamp().Logger()
	}

	if cfg.IncludeCaller {
		baseLogger = baseLogger.With().Caller().Logger()
		zerolog.CallerSkipFrameCount = cfg.CallerSkipFrames
	}

	log.Logger = baseLogger
	return nil
}

// New creates a new logger with module information
func New(module string) *Logger {
	return &Logger{
		logger:     log.With().Str(LogModuleKey, module).Logger(),
		moduleInfo: module,
	}
}

// NewWithComponent creates a new logger with module and component information
func NewWithComponent(module, component string) *Logger {
	return &Logger{
		logger: log.With().
			Str(LogModuleKey, module).
			Str(LogComponentKey, component).
			Logger(),
		moduleInfo: fmt.Sprintf("%s.%s", module, component),
	}
}

// NewWithOutput creates a new logger writing to the given writer instead of
// the global output; used by tests to capture emitted records
func NewWithOutput(module string, w io.Writer) *Logger {
	return &Logger{
		logger:     zerolog.New(w).With().Timestamp().Str(LogModuleKey, module).Logger(),
		moduleInfo: module,
	}
}

// WithTraceID creates a new logger with the specified trace ID
func (l *Logger) WithTraceID(traceID string) *Logger {
	return &Logger{
		logger:     l.logger.With().Str(LogTraceIDKey, traceID).Logger(),
		moduleInfo: l.moduleInfo,
		traceID:    traceID,
	}
}

// WithField adds a field to the logger
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{
		logger:     l.logger.With().Interface(key, value).Logger(),
		moduleInfo: l.moduleInfo,
		traceID:    l.traceID,
	}
}

// FromContext retrieves a logger from the context
// If no logger is found, a new default logger is returned
func FromContext(ctx context.Context) *Logger {
	if ctx == nil {
		return New("default")
	}

	value := ctx.Value(LogContextKey)
	if value == nil {
		return New("default")
	}

	logger, ok := value.(*Logger)
	if !ok {
		return New("default")
	}

	return logger
}

// WithContext adds the logger to the context
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, LogContextKey, l)
}

// Standard logging methods

// Debug logs a debug message with the given fields
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	event := l.logger.Debug()
	if len(fields) > 0 {
		for k, v := range fields[0] {
			event = event.Interface(k, v)
		}
	}
	event.Msg(msg)
}

// Info logs an info message with the given fields
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	event := l.logger.Info()
	if len(fields) > 0 {
		for k, v := range fields[0] {
			event = event.Interface(k, v)
		}
	}
	event.Msg(msg)
}

// Warn logs a warning message with the given fields
func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	event := l.logger.Warn()
	if len(fields) > 0 {
		for k, v := range fields[0] {
			event = event.Interface(k, v)
		}
	}
	event.Msg(msg)
}

// Error logs an error message with the given fields
// It automatically adds stack information
func (l *Logger) Error(err error, msg string, fields ...map[string]interface{}) {
	event := l.logger.Error()

	if err != nil {
		event = event.Err(err)
		if stack := captureStack(2); len(stack) > 0 {
			event = event.Strs("stack", stack)
		}
	}

	if len(fields) > 0 {
		for k, v := range fields[0] {
			event = event.Interface(k, v)
		}
	}

	event.Msg(msg)
}

// Fatal logs a fatal message with the given fields and exits the application
func (l *Logger) Fatal(err error, msg string, fields ...map[string]interface{}) {
	event := l.logger.Fatal()

	if err != nil {
		event = event.Err(err)
		if stack := captureStack(2); len(stack) > 0 {
			event = event.Strs("stack", stack)
		}
	}

	if len(fields) > 0 {
		for k, v := range fields[0] {
			event = event.Interface(k, v)
		}
	}

	event.Msg(msg)
}

// GetTraceID returns the trace ID associated with this logger
func (l *Logger) GetTraceID() string {
	return l.traceID
}

// GetZerolog returns the underlying zerolog.Logger
func (l *Logger) GetZerolog() zerolog.Logger {
	return l.logger
}

// captureStack collects caller frames, skipping internal logging frames
func captureStack(skip int) []string {
	pc := make([]uintptr, 16)
	n := runtime.Callers(skip+1, pc)
	if n == 0 {
		return nil
	}

	frames := runtime.CallersFrames(pc[:n])
	stack := make([]string, 0, n)
	for {
		frame, more := frames.Next()
		stack = append(stack, fmt.Sprintf("%s (%s:%d)", frame.Function, frame.File, frame.Line))
		if !more {
			break
		}
	}
	return stack
}
