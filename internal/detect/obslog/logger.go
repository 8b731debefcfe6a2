// Package obslog is the package-level diagnostic logger shared across the
// detection cascade. It defaults to log.Printf but may be redirected or
// muted, mirroring the teacher's internal/monitoring logger.
package obslog

import "log"

// Logf is the package-level diagnostic logger. Tests and the orchestrator's
// quiet mode may replace it via SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
