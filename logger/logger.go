// Package logger wraps log15 with the leveled, key/value logger used across campsite.
package logger

import (
	"fmt"
	"os"

	"github.com/go-stack/stack"
	"github.com/revel/log15"
)

// LogLevel is the severity of a log record. Lower is more severe.
type LogLevel = log15.Lvl

const (
	LvlCrit  = log15.LvlCrit
	LvlError = log15.LvlError
	LvlWarn  = log15.LvlWarn
	LvlInfo  = log15.LvlInfo
	LvlDebug = log15.LvlDebug
)

// LogHandler receives every record a MultiLogger emits.
type LogHandler = log15.Handler

// MultiLogger is the logger interface handed out to the rest of the tool.
type MultiLogger interface {
	// New returns a child logger carrying the extra context.
	New(ctx ...interface{}) MultiLogger
	SetHandler(h LogHandler)

	Debug(msg string, ctx ...interface{})
	Debugf(msg string, params ...interface{})
	Info(msg string, ctx ...interface{})
	Infof(msg string, params ...interface{})
	Warn(msg string, ctx ...interface{})
	Warnf(msg string, params ...interface{})
	Error(msg string, ctx ...interface{})
	Errorf(msg string, params ...interface{})
	Crit(msg string, ctx ...interface{})
	Critf(msg string, params ...interface{})

	// Fatal logs at critical level and exits the process.
	Fatal(msg string, ctx ...interface{})
	Fatalf(msg string, params ...interface{})
	// Panic logs at critical level and panics with the message.
	Panic(msg string, ctx ...interface{})
	Panicf(msg string, params ...interface{})
}

type rootLogger struct {
	log15.Logger
}

var exit = os.Exit

// New creates a logger; until a handler is set it writes info and above to stdout.
func New(ctx ...interface{}) MultiLogger {
	l := &rootLogger{log15.New(ctx...)}
	l.SetHandler(log15.LvlFilterHandler(LvlInfo, log15.StreamHandler(os.Stdout, log15.TerminalFormat())))
	return l
}

func (l *rootLogger) New(ctx ...interface{}) MultiLogger {
	return &rootLogger{l.Logger.New(ctx...)}
}

func (l *rootLogger) SetHandler(h LogHandler) {
	l.Logger.SetHandler(h)
}

func (l *rootLogger) Debugf(msg string, params ...interface{}) {
	l.Debug(fmt.Sprintf(msg, params...))
}

func (l *rootLogger) Infof(msg string, params ...interface{}) {
	l.Info(fmt.Sprintf(msg, params...))
}

func (l *rootLogger) Warnf(msg string, params ...interface{}) {
	l.Warn(fmt.Sprintf(msg, params...))
}

func (l *rootLogger) Errorf(msg string, params ...interface{}) {
	l.Error(fmt.Sprintf(msg, params...))
}

func (l *rootLogger) Critf(msg string, params ...interface{}) {
	l.Crit(fmt.Sprintf(msg, params...))
}

func (l *rootLogger) Fatal(msg string, ctx ...interface{}) {
	l.Crit(msg, ctx...)
	exit(1)
}

func (l *rootLogger) Fatalf(msg string, params ...interface{}) {
	l.Fatal(fmt.Sprintf(msg, params...))
}

func (l *rootLogger) Panic(msg string, ctx ...interface{}) {
	l.Crit(msg, ctx...)
	panic(msg)
}

func (l *rootLogger) Panicf(msg string, params ...interface{}) {
	l.Panic(fmt.Sprintf(msg, params...))
}

// NewCallStack returns the caller's stack with runtime frames removed.
func NewCallStack() stack.CallStack {
	return stack.Trace().TrimRuntime()
}
