// Package toolexec runs the external programs the export pipeline drives.
//
// Executor is the single capability the pipeline needs: run a binary with
// arguments inside a working directory and report whether it exited cleanly.
// The default implementation wraps os/exec, streams stdout and stderr line by
// line to a callback, and converts non-zero exits into *ExitError so callers
// can recover the tool's exit status. Tests substitute a recording fake.
package toolexec
