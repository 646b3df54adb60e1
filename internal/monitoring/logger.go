// Package monitoring is the diagnostic logging seam shared by the
// fitting, profiling and loading packages. Output goes through a single
// replaceable function so tests can capture or mute it.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to
// log.Printf but may be replaced with SetLogger so tests can capture or
// mute output.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Scoped returns a logger that prefixes every line with the given scope
// ("profile", "dataio"). The returned function reads Logf at call time,
// so a later SetLogger still applies to it.
func Scoped(scope string) func(format string, v ...interface{}) {
	return func(format string, v ...interface{}) {
		args := make([]interface{}, 0, len(v)+1)
		args = append(args, scope)
		args = append(args, v...)
		Logf("%s: "+format, args...)
	}
}
