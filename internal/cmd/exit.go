package cmd

import "strconv"

// Exit codes.
const (
	// ExitSuccess indicates every extension was built and installed.
	ExitSuccess = 0

	// ExitFailure indicates bad usage or a failed resolution or build.
	ExitFailure = 1
)

// ExitError carries the process exit code for an error. Printed is set when
// the command already told the user about it.
type ExitError struct {
	Code    int
	Err     error
	Printed bool
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return "exit status " + strconv.Itoa(e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}
