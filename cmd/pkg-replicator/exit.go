package main

import (
	"context"
	"errors"
)

const (
	exitFailure  = 1
	exitCanceled = 130
)

// exitCode maps a run error to the process exit code. Cancellation is
// a graceful outcome and keeps the conventional interrupted-process
// code; everything else is a plain failure.
func exitCode(err error) int {
	if errors.Is(err, context.Canceled) {
		return exitCanceled
	}
	return exitFailure
}
