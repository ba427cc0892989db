// Package log provides the structured logger used across finml.
//
// Loggers are obtained from a LoggerProvider. The default provider is backed
// by zerolog and writes JSON to stderr at info level; SetupLogger replaces it
// once configuration is known:
//
//	log.SetupLogger("debug", "console", os.Stderr)
//	logger := log.GetLoggerWithName("pipeline").With(log.SessionKey, id)
//	logger.Info("Stage completed", log.StageKey, "split", log.RowsKey, 70)
//
// Fields are passed as alternating key/value pairs. Use the key constants
// below so that log lines from different packages can be correlated.
package log

import (
	"io"
	"os"
	"strings"
	"sync"
)

// Shared field keys.
const (
	ComponentKey  = "component"
	ModelNameKey  = "model_name"
	OperationKey  = "operation"
	PhaseKey      = "phase"
	StageKey      = "stage"
	SessionKey    = "session_id"
	SamplesKey    = "samples"
	FeaturesKey   = "features"
	TargetKey     = "target"
	RowsKey       = "rows"
	ColumnsKey    = "columns"
	PredsKey      = "predictions"
	DurationMsKey = "duration_ms"
	TickerKey     = "ticker"
	SourceKey     = "source"
	ErrorKey      = "error"
)

// Operation and phase values.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationLoad      = "load"
	OperationTransform = "transform"

	PhaseTraining      = "training"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"
	PhaseEvaluation    = "evaluation"
)

// Level is a logging severity.
type Level int8

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	Disabled
)

// ToLogLevel parses a level name; unknown names map to InfoLevel.
func ToLogLevel(level string) Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "trace":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error", "fatal", "panic":
		return ErrorLevel
	case "disabled", "off", "none":
		return Disabled
	default:
		return InfoLevel
	}
}

// Logger is a leveled structured logger.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	// With returns a child logger that always includes fields.
	With(fields ...interface{}) Logger
}

// LoggerProvider hands out loggers sharing one sink and level.
type LoggerProvider interface {
	GetLogger() Logger
	GetLoggerWithName(name string) Logger
	SetLevel(level Level)
}

var (
	mu             sync.RWMutex
	globalProvider LoggerProvider = NewZerologProvider(InfoLevel)
)

// SetProvider installs p as the process-wide provider.
func SetProvider(p LoggerProvider) {
	mu.Lock()
	defer mu.Unlock()
	globalProvider = p
}

// SetupLogger installs a zerolog provider writing to w. format is "json" or
// "console"; a nil writer means stderr.
func SetupLogger(level, format string, w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	SetProvider(NewZerologProviderWithWriter(w, ToLogLevel(level), strings.EqualFold(format, "console")))
}

// GetLogger returns the root logger of the global provider.
func GetLogger() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return globalProvider.GetLogger()
}

// GetLoggerWithName returns a logger tagged with component name.
func GetLoggerWithName(name string) Logger {
	mu.RLock()
	defer mu.RUnlock()
	return globalProvider.GetLoggerWithName(name)
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return NewZerologProviderWithWriter(io.Discard, Disabled, false).GetLogger()
}
