package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type zerologProvider struct {
	base zerolog.Logger
}

// NewZerologProvider creates a provider writing JSON lines to stderr.
func NewZerologProvider(level Level) LoggerProvider {
	return NewZerologProviderWithWriter(os.Stderr, level, false)
}

// NewZerologProviderWithWriter creates a provider writing to w. When console
// is true the output is human readable instead of JSON.
func NewZerologProviderWithWriter(w io.Writer, level Level, console bool) LoggerProvider {
	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	zl := zerolog.New(w).Level(toZerolog(level)).With().Timestamp().Logger()
	return &zerologProvider{base: zl}
}

func (p *zerologProvider) GetLogger() Logger {
	return &zerologLogger{zl: p.base}
}

func (p *zerologProvider) GetLoggerWithName(name string) Logger {
	return &zerologLogger{zl: p.base.With().Str(ComponentKey, name).Logger()}
}

func (p *zerologProvider) SetLevel(level Level) {
	p.base = p.base.Level(toZerolog(level))
}

func toZerolog(level Level) zerolog.Level {
	switch level {
	case DebugLevel:
		return zerolog.DebugLevel
	case WarnLevel:
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	case Disabled:
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

type zerologLogger struct {
	zl zerolog.Logger
}

func (l *zerologLogger) Debug(msg string, fields ...interface{}) {
	l.zl.Debug().Fields(fields).Msg(msg)
}

func (l *zerologLogger) Info(msg string, fields ...interface{}) {
	l.zl.Info().Fields(fields).Msg(msg)
}

func (l *zerologLogger) Warn(msg string, fields ...interface{}) {
	l.zl.Warn().Fields(fields).Msg(msg)
}

func (l *zerologLogger) Error(msg string, fields ...interface{}) {
	l.zl.Error().Fields(fields).Msg(msg)
}

func (l *zerologLogger) With(fields ...interface{}) Logger {
	return &zerologLogger{zl: l.zl.With().Fields(fields).Logger()}
}
