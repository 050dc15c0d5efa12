package log

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelError Level = "ERROR"
)

var (
	logger     zerolog.Logger
	loggerOnce sync.Once
	mu         sync.RWMutex
)

// initLogger initializes the global logger to write human-readable lines to stderr.
func initLogger() {
	loggerOnce.Do(func() {
		logger = newLogger(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339Nano}, LevelInfo)
	})
}

func newLogger(w io.Writer, l Level) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger().Level(toZerolog(l))
}

// SetOutput redirects the global logger, keeping the current level. Tests use
// it to capture output.
func SetOutput(w io.Writer) {
	initLogger()
	mu.Lock()
	defer mu.Unlock()
	logger = logger.Output(w)
}

func SetLevel(l Level) {
	initLogger()
	mu.Lock()
	defer mu.Unlock()
	logger = logger.Level(toZerolog(l))
}

// ParseLevel maps a config string ("debug", "info", "error") onto a Level.
// Unknown values map to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(LevelDebug):
		return LevelDebug
	case string(LevelError):
		return LevelError
	default:
		return LevelInfo
	}
}

func Debug(msg string, kv ...any) {
	event(LevelDebug, nil, msg, kv...)
}

func Info(msg string, kv ...any) {
	event(LevelInfo, nil, msg, kv...)
}

func Error(msg string, err error, kv ...any) {
	event(LevelError, err, msg, kv...)
}

func event(level Level, err error, msg string, kv ...any) {
	initLogger()
	mu.RLock()
	l := logger
	mu.RUnlock()

	var e *zerolog.Event
	switch level {
	case LevelDebug:
		e = l.Debug()
	case LevelError:
		e = l.Error().Err(err)
	default:
		e = l.Info()
	}
	if e == nil {
		return
	}
	e.Fields(pairs(kv...)).Msg(msg)
}

// pairs turns key, value, key, value ... into a field map.
// Non-string keys are skipped; a trailing odd value is ignored.
func pairs(kv ...any) map[string]any {
	out := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		out[key] = kv[i+1]
	}
	return out
}

func toZerolog(l Level) zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
