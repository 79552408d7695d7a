// Package notify is the sink for progress, activity log lines and toast
// notifications emitted by the core services. How they are rendered is up to the
// implementation.
package notify

import (
	sdklogging "github.com/Layr-Labs/eigensdk-go/logging"

	applog "github.com/AvaProtocol/ap-airdrop/pkg/logger"
)

type Level string

const (
	Info    Level = "info"
	Success Level = "success"
	Warning Level = "warning"
	Error   Level = "error"
)

type Notifier interface {
	// Progress reports a 0-100 completion value
	Progress(percent int)
	// Log is one activity log line
	Log(level Level, msg string)
	// Toast is a terminal notification at the end of an operation
	Toast(level Level, title, msg string)
}

type noop struct{}

func (noop) Progress(int)                {}
func (noop) Log(Level, string)           {}
func (noop) Toast(Level, string, string) {}

// Noop drops everything
func Noop() Notifier {
	return noop{}
}

// Ensure returns n, or a no-op notifier when n is nil
func Ensure(n Notifier) Notifier {
	if n == nil {
		return Noop()
	}
	return n
}

// LoggerNotifier forwards every notification to a structured logger
type LoggerNotifier struct {
	logger sdklogging.Logger
}

func NewLoggerNotifier(logger sdklogging.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: applog.Ensure(logger)}
}

func (l *LoggerNotifier) Progress(percent int) {
	l.logger.Debug("progress", "percent", percent)
}

func (l *LoggerNotifier) Log(level Level, msg string) {
	switch level {
	case Warning:
		l.logger.Warn(msg)
	case Error:
		l.logger.Error(msg)
	default:
		l.logger.Info(msg, "level", string(level))
	}
}

func (l *LoggerNotifier) Toast(level Level, title, msg string) {
	l.Log(level, title+": "+msg)
}

type multi []Notifier

// Multi fans every notification out to all sinks
func Multi(sinks ...Notifier) Notifier {
	return multi(sinks)
}

func (m multi) Progress(percent int) {
	for _, n := range m {
		n.Progress(percent)
	}
}

func (m multi) Log(level Level, msg string) {
	for _, n := range m {
		n.Log(level, msg)
	}
}

func (m multi) Toast(level Level, title, msg string) {
	for _, n := range m {
		n.Toast(level, title, msg)
	}
}
