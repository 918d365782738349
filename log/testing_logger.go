package log

import (
	"testing"
)

// TestingLogger writes debug output to stderr when tests run with -v and
// discards it otherwise. Call it inside a test, not from init.
func TestingLogger() Logger {
	if testing.Verbose() {
		return MustNewDefaultLogger(LogFormatPlain, LogLevelDebug)
	}
	return NewNopLogger()
}
