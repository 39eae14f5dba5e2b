// Package monitoring holds the process-wide diagnostic logger shared by
// the analysis packages.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf
// but may be replaced by SetLogger. Tests or production code can redirect
// or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// debugEnabled gates Debugf output. Off by default.
var debugEnabled bool

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetDebug enables or disables Debugf output.
func SetDebug(enabled bool) {
	debugEnabled = enabled
}

// Debugf logs through Logf only when debug output is enabled. The analysis
// pipeline uses this for per-candidate detector chatter that would drown
// normal runs.
func Debugf(format string, v ...interface{}) {
	if debugEnabled {
		Logf(format, v...)
	}
}
