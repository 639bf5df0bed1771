package config

import (
	"context"
	"io"
)

// Stdio describes how a child process is attached to its environment.
// Standard output is always captured by the session and is not configurable.
type Stdio struct {
	// Stdin feeds the child's standard input. Nil means the null device.
	Stdin io.Reader

	// Stderr receives the child's standard error. Nil means the null device.
	Stderr io.Writer

	// Dir is the working directory. Empty means the caller's directory.
	Dir string

	// Env is the full environment. Nil inherits the caller's environment.
	Env []string
}

// Spawner creates child processes.
// Implement this to provide custom process backends for testing or for
// alternative execution environments.
//
// The default implementation uses os/exec.
type Spawner interface {
	// Spawn starts the program named by argv[0] with the full argument
	// vector argv (argv[0] is passed to the child unchanged) and returns a
	// handle whose Stdout yields the child's standard output.
	Spawn(ctx context.Context, argv []string, stdio Stdio) (Handle, error)
}

// Handle is a live child process owned by exactly one session.
type Handle interface {
	// Stdout returns the read side of the child's standard output pipe.
	Stdout() io.Reader

	// Pid returns the OS process ID.
	Pid() int

	// Wait reaps the child and returns its exit code. It must be called
	// exactly once, after Stdout has been drained or abandoned; it releases
	// the pipe.
	Wait() (int, error)

	// Terminate asks the child to exit.
	Terminate() error

	// Kill forces the child to exit.
	Kill() error
}
