// Package exitcodes defines the process exit codes capitest reports to CI.
//
//   - Success (0): every executed suite passed
//   - SuiteFailure (1): at least one suite failed or was cancelled
//   - InvocationError (2): the run could not start, e.g. an unknown suite id
//     or a registry that failed to load
package exitcodes

const (
	Success         = 0
	SuiteFailure    = 1
	InvocationError = 2
)
