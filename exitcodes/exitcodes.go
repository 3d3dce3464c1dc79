// Package exitcodes defines the exit codes of op-keyword.
package exitcodes

// Exit codes:
//
// * Success (0): the root suite passed
// * TestFailure (1): a critical test failed
// * RuntimeErr (2): the suite could not be loaded or run, e.g. a bad flag or suite file
const (
	Success     = 0 // All critical tests passed
	TestFailure = 1 // Critical test failures
	RuntimeErr  = 2 // Runtime errors
)
