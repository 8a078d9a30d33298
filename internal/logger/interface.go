package logger

import "codeberg.org/mutker/daikinctl/internal/errors"

// Logger defines the interface for logging operations. Components take a
// Logger at construction so their output can be redirected in tests.
type Logger interface {
	Debug() *LogEvent
	Info() *LogEvent
	Warn() *LogEvent
	Error() *LogEvent
	ErrorWithCode(err errors.Error) *LogEvent
	With(component string) Logger
}
