package logger

import (
	"io"
	"os"
	"strings"
	"syscall"
	"time"

	"codeberg.org/mutker/powermon/internal/errors"
	"github.com/rs/zerolog"
)

var log = zerolog.New(os.Stderr).With().Timestamp().Logger()

type LogLevel int8

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

type LogEvent struct {
	*zerolog.Event
}

func (e *LogEvent) Msg(msg string) {
	e.Event.Msg(msg)
}

func (e *LogEvent) Send() {
	e.Event.Send()
}

// ParseLevel maps a configuration string to a LogLevel.
func ParseLevel(level string) (LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return InfoLevel, errors.New().WithData(errors.ErrInvalidLogLevel, level)
	}
}

// Init initializes the logger. Output goes to stderr; stdout is left to
// telemetry sinks.
func Init(level LogLevel, isService bool) {
	InitWithWriter(os.Stderr, level, isService)
}

// InitWithWriter is Init with an explicit destination.
func InitWithWriter(out io.Writer, level LogLevel, isService bool) {
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	}

	if isService {
		output.NoColor = true
		output.TimeFormat = ""
		output.FormatTimestamp = func(_ interface{}) string {
			return ""
		}
	}

	log = zerolog.New(output).With().Timestamp().Logger()

	SetLogLevel(level)
}

// SetLogLevel sets the global log level
func SetLogLevel(level LogLevel) {
	zerolog.SetGlobalLevel(zerolog.Level(level))
}

// IsService checks if the application is running as a service
func IsService() bool {
	if _, err := os.Stdin.Stat(); err != nil {
		return true
	}
	if os.Getenv("SERVICE_NAME") != "" || os.Getenv("INVOCATION_ID") != "" {
		return true
	}
	if os.Getppid() == 1 {
		return true
	}

	return syscall.Getpgrp() == syscall.Getpid()
}

// Debug logs a debug message
func Debug() *LogEvent {
	return &LogEvent{log.Debug()}
}

// Info logs an info message
func Info() *LogEvent {
	return &LogEvent{log.Info()}
}

// Warn logs a warning message
func Warn() *LogEvent {
	return &LogEvent{log.Warn()}
}

// Error logs an error message
func Error() *LogEvent {
	return &LogEvent{log.Error()}
}

// ErrorWithCode logs an error message with a specific error code
func ErrorWithCode(err errors.Error) *LogEvent {
	return &LogEvent{withCode(log.Error(), err)}
}

// Fatal logs a fatal message and exits the program
func Fatal() *LogEvent {
	return &LogEvent{log.Fatal()}
}

// FatalWithCode logs a fatal message with a specific error code and exits the program
func FatalWithCode(err errors.Error) *LogEvent {
	return &LogEvent{withCode(log.Fatal(), err)}
}

func withCode(event *zerolog.Event, err errors.Error) *zerolog.Event {
	event = event.
		Str("error_code", string(err.Code())).
		Str("error_message", err.Error()).
		AnErr("error", err.Unwrap())
	if data := err.GetData(); data != nil {
		event = event.Interface("error_data", data)
	}
	return event
}

// componentLogger tags every event with the component it came from.
type componentLogger struct {
	component string
}

// WithComponent returns a Logger whose events carry a "component" field.
func WithComponent(component string) Logger {
	return &componentLogger{component: component}
}

func (c *componentLogger) Debug() *LogEvent {
	return &LogEvent{log.Debug().Str("component", c.component)}
}

func (c *componentLogger) Info() *LogEvent {
	return &LogEvent{log.Info().Str("component", c.component)}
}

func (c *componentLogger) Warn() *LogEvent {
	return &LogEvent{log.Warn().Str("component", c.component)}
}

func (c *componentLogger) Error() *LogEvent {
	return &LogEvent{log.Error().Str("component", c.component)}
}

func (c *componentLogger) ErrorWithCode(err errors.Error) *LogEvent {
	return &LogEvent{ErrorWithCode(err).Str("component", c.component)}
}
