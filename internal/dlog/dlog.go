// Package dlog provides a nil-safe logging interface for tracing bitknit2
// decode operations.
//
// Adapted from ulikunitz/xz's xlog package: no logging library appears
// anywhere in the retrieved corpus (no zap, logrus, zerolog, or slog import
// exists in any example repository), so this mirrors the corpus's own
// idiom — a tiny interface satisfied by *log.Logger, with every call a
// no-op when the logger is nil — rather than reaching for a third-party
// structured logger the corpus never reached for either.
package dlog

import "fmt"

// Logger is satisfied by *log.Logger. It is deliberately the smallest
// interface that type supports, so callers can plug in a *log.Logger
// directly.
type Logger interface {
	Output(calldepth int, s string) error
}

// Print writes v using l, doing nothing if l is nil.
func Print(l Logger, v ...interface{}) {
	if l != nil {
		l.Output(2, fmt.Sprint(v...))
	}
}

// Printf writes a formatted message using l, doing nothing if l is nil.
func Printf(l Logger, format string, v ...interface{}) {
	if l != nil {
		l.Output(2, fmt.Sprintf(format, v...))
	}
}
