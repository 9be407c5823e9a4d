package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/stolostron/capitest/internal/exitcodes"
)

func main() {
	cmd := newRootCmd()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitError carries the process exit code for an error returned by a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func invocationError(err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: exitcodes.InvocationError, err: err}
}

// exitCode maps a command error to the process exit code. Errors without an
// explicit code are invocation errors, including cobra's own flag errors.
func exitCode(err error) int {
	if err == nil {
		return exitcodes.Success
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitcodes.InvocationError
}
