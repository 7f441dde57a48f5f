package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	etlerrors "github.com/BartekS5/irisetl/pkg/errors"
	"github.com/rs/zerolog"
)

var (
	mu      sync.Mutex
	log     zerolog.Logger
	logFile *os.File
	ready   bool
)

// InitLogger initializes the logger with a file output and console output.
func InitLogger(filename string, level string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()

	var out io.Writer = consoleWriter(os.Stdout)
	if filename != "" {
		f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return err
		}
		if logFile != nil {
			logFile.Close()
		}
		logFile = f
		out = zerolog.MultiLevelWriter(out, f)
	}

	log = zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	ready = true
	return nil
}

// SetOutput redirects all log output to w as JSON lines. Used by tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	log = zerolog.New(w).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	ready = true
}

func Close() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

// ParseLevel maps a level name to zerolog; empty means info.
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(level) {
	case "", "info":
		return zerolog.InfoLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, etlerrors.Newf("invalid log level: %q", level)
	}
}

func consoleWriter(w io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{Out: w, TimeFormat: time.DateTime}
}

// Init sets up a console logger on stdout at info level.
func Init() {
	mu.Lock()
	defer mu.Unlock()
	log = zerolog.New(consoleWriter(os.Stdout)).Level(zerolog.InfoLevel).With().Timestamp().Logger()
	ready = true
}

// L returns the process logger for structured events.
func L() *zerolog.Logger {
	mu.Lock()
	initialized := ready
	mu.Unlock()
	if !initialized {
		Init()
	}
	return &log
}

// With returns a child logger carrying the given fields.
func With(fields map[string]interface{}) zerolog.Logger {
	return L().With().Fields(fields).Logger()
}

// Err starts an error-level event carrying err and its stack trace.
func Err(err error) *zerolog.Event {
	ev := L().Error().Err(err)
	if st := etlerrors.Stacktrace(err); st != "" {
		ev = ev.Str("stacktrace", st)
	}
	return ev
}

// Printf-style helpers.

func Info(format string, v ...interface{}) {
	L().Info().Msgf(format, v...)
}

func Infof(format string, v ...interface{}) {
	Info(format, v...)
}

func Error(format string, v ...interface{}) {
	L().Error().Msgf(format, v...)
}

func Errorf(format string, v ...interface{}) {
	Error(format, v...)
}

func Warn(format string, v ...interface{}) {
	L().Warn().Msgf(format, v...)
}

func Warnf(format string, v ...interface{}) {
	Warn(format, v...)
}

func Debugf(format string, v ...interface{}) {
	L().Debug().Msgf(format, v...)
}
