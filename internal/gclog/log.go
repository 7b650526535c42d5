// Package gclog is the collector's leveled logger, built the same way
// the teacher's log package is: a small Logger interface an application
// can swap in, falling back to a plain stdout writer when none is given.
package gclog

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Logger is implemented by anything that wants to receive the
// collector's diagnostic output instead of the default stdout writer.
type Logger interface {
	SetLevel(level string)
	Fatalf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Debugf(format string, v ...interface{})
	Tracef(format string, v ...interface{})
}

// Level orders the verbosity of a log line, lowest first.
type Level int

const (
	LevelFatal Level = iota + 1
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

func (l Level) String() string {
	switch l {
	case LevelFatal:
		return "FATAL"
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	case LevelTrace:
		return "TRACE"
	}
	return "?????"
}

func parseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "fatal":
		return LevelFatal
	case "error":
		return LevelError
	case "warn", "warning":
		return LevelWarn
	case "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	case "trace":
		return LevelTrace
	}
	return LevelInfo
}

var log Logger = newDefaultLogger()

// SetLogger swaps the package-wide logger; passing nil restores the
// default stdout logger at info level.
func SetLogger(l Logger) {
	if l == nil {
		l = newDefaultLogger()
	}
	log = l
}

// SetLevel adjusts the current logger's verbosity.
func SetLevel(level string) { log.SetLevel(level) }

type defaultLogger struct {
	level  Level
	output io.Writer
}

func newDefaultLogger() *defaultLogger {
	return &defaultLogger{level: LevelInfo, output: os.Stdout}
}

func (l *defaultLogger) SetLevel(level string) { l.level = parseLevel(level) }

func (l *defaultLogger) Fatalf(format string, v ...interface{}) { l.printf(LevelFatal, format, v...) }
func (l *defaultLogger) Errorf(format string, v ...interface{}) { l.printf(LevelError, format, v...) }
func (l *defaultLogger) Warnf(format string, v ...interface{})  { l.printf(LevelWarn, format, v...) }
func (l *defaultLogger) Infof(format string, v ...interface{})  { l.printf(LevelInfo, format, v...) }
func (l *defaultLogger) Debugf(format string, v ...interface{}) { l.printf(LevelDebug, format, v...) }
func (l *defaultLogger) Tracef(format string, v ...interface{}) { l.printf(LevelTrace, format, v...) }

func (l *defaultLogger) printf(level Level, format string, v ...interface{}) {
	if level > l.level {
		return
	}
	ts := time.Now().Format("2006-01-02T15:04:05.999Z-07:00")
	fmt.Fprintf(l.output, ts+" ["+level.String()+"] "+format+"\n", v...)
}

func Fatalf(format string, v ...interface{}) { log.Fatalf(format, v...) }
func Errorf(format string, v ...interface{}) { log.Errorf(format, v...) }
func Warnf(format string, v ...interface{})  { log.Warnf(format, v...) }
func Infof(format string, v ...interface{})  { log.Infof(format, v...) }
func Debugf(format string, v ...interface{}) { log.Debugf(format, v...) }
func Tracef(format string, v ...interface{}) { log.Tracef(format, v...) }
