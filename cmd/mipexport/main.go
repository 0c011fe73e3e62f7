package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"mipexport/internal/toolexec"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(exitCode(err))
	}
}

// exitCode propagates the status of a failing external tool; anything else
// exits 1.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if code, ok := toolexec.ExitCode(err); ok {
		return code
	}
	return 1
}
