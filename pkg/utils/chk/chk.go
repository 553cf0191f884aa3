// Package chk provides terse error-check helpers used at call sites
// throughout the harness: `if chk.E(err) { return }` logs at error level and
// reports whether err was non-nil; chk.T does the same at trace level, for
// errors that are expected often enough that they shouldn't look alarming
// in the default log output.
package chk

import "relaytester.dev/pkg/utils/log"

// E logs err at error level and returns true if err
// is non-nil. A no-op returning false if err is nil.
func E(err error) bool {
	if err == nil {
		return false
	}
	log.E.Ln(err)
	return true
}

// T logs err at trace level and returns true if err is non-nil. Use for
// errors that are routine (timeouts, closed connections) rather than
// alarming.
func T(err error) bool {
	if err == nil {
		return false
	}
	log.T.Ln(err)
	return true
}
