package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess    = 0 // run completed or was aborted by the operator
	ExitRunFailed  = 1 // automation stopped in Error
	ExitSetupError = 2 // configuration or environment error
)

// RunFailedError reports an automation run that ended in the Error state
type RunFailedError struct {
	Reason string
}

func (e *RunFailedError) Error() string {
	return "automation failed: " + e.Reason
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var runErr *RunFailedError
		if errors.As(err, &runErr) {
			os.Exit(ExitRunFailed)
		}
		os.Exit(ExitSetupError)
	}
}
