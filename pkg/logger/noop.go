// Package logger holds the logger helpers shared by every service
package logger

import (
	sdklogging "github.com/Layr-Labs/eigensdk-go/logging"
)

type Logger = sdklogging.Logger

// Discard drops every entry. Services fall back to it when built without a
// logger, tests and library callers that don't care about output use it too.
type Discard struct{}

func (l *Discard) Debug(msg string, tags ...any)               {}
func (l *Discard) Info(msg string, tags ...any)                {}
func (l *Discard) Warn(msg string, tags ...any)                {}
func (l *Discard) Error(msg string, tags ...any)               {}
func (l *Discard) Fatal(msg string, tags ...any)               {}
func (l *Discard) Debugf(template string, args ...interface{}) {}
func (l *Discard) Infof(template string, args ...interface{})  {}
func (l *Discard) Warnf(template string, args ...interface{})  {}
func (l *Discard) Errorf(template string, args ...interface{}) {}
func (l *Discard) Fatalf(template string, args ...interface{}) {}
func (l *Discard) With(tags ...any) Logger                     { return l }

func NewDiscard() Logger {
	return &Discard{}
}

// Ensure returns l, or a Discard logger when l is nil
func Ensure(l Logger) Logger {
	if l == nil {
		return NewDiscard()
	}
	return l
}
