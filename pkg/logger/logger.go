package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a thin structured-logging facade over zerolog.
type Logger struct {
	zl zerolog.Logger
}

type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json or console
	Output     string // stdout, stderr, or file path
	TimeFormat string
}

func New(cfg *Config) (*Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var output io.Writer
	switch cfg.Output {
	case "", "stdout":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	default:
		file, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("could not open log file: %w", err)
		}
		output = file
	}

	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339Nano
	}
	zerolog.TimeFieldFormat = timeFormat

	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: timeFormat}
	}

	zl := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		CallerWithSkipFrameCount(4).
		Logger()

	return &Logger{zl: zl}, nil
}

// Nop returns a logger that discards everything. Used by tests and the CLI quiet mode.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// With returns a child logger that stamps every entry with fields.
func (l *Logger) With(fields ...Field) *Logger {
	ctx := l.zl.With()
	for _, f := range fields {
		ctx = f.addToContext(ctx)
	}
	return &Logger{zl: ctx.Logger()}
}

// Component is shorthand for With(String("component", name)).
func (l *Logger) Component(name string) *Logger {
	return l.With(String("component", name))
}

func (l *Logger) Info(msg string, fields ...Field) {
	write(l.zl.Info(), msg, fields)
}

func (l *Logger) Error(msg string, fields ...Field) {
	write(l.zl.Error(), msg, fields)
}

func (l *Logger) Debug(msg string, fields ...Field) {
	write(l.zl.Debug(), msg, fields)
}

func (l *Logger) Warn(msg string, fields ...Field) {
	write(l.zl.Warn(), msg, fields)
}

func write(event *zerolog.Event, msg string, fields []Field) {
	if event == nil {
		return
	}
	for _, f := range fields {
		f.AddTo(event)
	}
	event.Msg(msg)
}

// Field is a typed key/value attached to a log entry.
type Field interface {
	AddTo(event *zerolog.Event)
	addToContext(ctx zerolog.Context) zerolog.Context
}

type stringField struct {
	key   string
	value string
}

func (f stringField) AddTo(e *zerolog.Event) { e.Str(f.key, f.value) }
func (f stringField) addToContext(c zerolog.Context) zerolog.Context {
	return c.Str(f.key, f.value)
}

type intField struct {
	key   string
	value int64
}

func (f intField) AddTo(e *zerolog.Event) { e.Int64(f.key, f.value) }
func (f intField) addToContext(c zerolog.Context) zerolog.Context {
	return c.Int64(f.key, f.value)
}

type floatField struct {
	key   string
	value float64
}

func (f floatField) AddTo(e *zerolog.Event) { e.Float64(f.key, f.value) }
func (f floatField) addToContext(c zerolog.Context) zerolog.Context {
	return c.Float64(f.key, f.value)
}

type boolField struct {
	key   string
	value bool
}

func (f boolField) AddTo(e *zerolog.Event) { e.Bool(f.key, f.value) }
func (f boolField) addToContext(c zerolog.Context) zerolog.Context {
	return c.Bool(f.key, f.value)
}

type timeField struct {
	key   string
	value time.Time
}

func (f timeField) AddTo(e *zerolog.Event) { e.Time(f.key, f.value) }
func (f timeField) addToContext(c zerolog.Context) zerolog.Context {
	return c.Time(f.key, f.value)
}

type errorField struct {
	value error
}

func (f errorField) AddTo(e *zerolog.Event) { e.Err(f.value) }
func (f errorField) addToContext(c zerolog.Context) zerolog.Context {
	return c.Err(f.value)
}

type anyField struct {
	key   string
	value interface{}
}

func (f anyField) AddTo(e *zerolog.Event) { e.Interface(f.key, f.value) }
func (f anyField) addToContext(c zerolog.Context) zerolog.Context {
	return c.Interface(f.key, f.value)
}

// --- Field constructors ---

func String(key, value string) Field {
	return stringField{key: key, value: value}
}

func Strings(key string, value []string) Field {
	return String(key, strings.Join(value, ","))
}

func Int(key string, value int) Field {
	return intField{key: key, value: int64(value)}
}

func Int64(key string, value int64) Field {
	return intField{key: key, value: value}
}

func Float64(key string, value float64) Field {
	return floatField{key: key, value: value}
}

func Bool(key string, value bool) Field {
	return boolField{key: key, value: value}
}

func Time(key string, value time.Time) Field {
	return timeField{key: key, value: value}
}

// Duration logs the value in milliseconds.
func Duration(key string, value time.Duration) Field {
	return intField{key: key, value: value.Milliseconds()}
}

func Error(err error) Field {
	return errorField{value: err}
}

func Any(key string, value interface{}) Field {
	return anyField{key: key, value: value}
}
