package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ProcShimError is the base interface for all procshim errors.
type ProcShimError interface {
	error
	IsProcShimError() bool
}

// Compile-time verification that all error types implement ProcShimError.
var (
	_ ProcShimError = (*InvalidArgumentError)(nil)
	_ ProcShimError = (*SpawnError)(nil)
	_ ProcShimError = (*ReadError)(nil)
	_ ProcShimError = (*ProgramNotFoundError)(nil)
	_ ProcShimError = (*FetchError)(nil)
	_ ProcShimError = (*ExtractError)(nil)
	_ ProcShimError = (*ExitStatusError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrAlreadyRunning indicates a session already owns a live child process.
	ErrAlreadyRunning = errors.New("process already running")

	// ErrNoArguments indicates an empty argument list; a program name is mandatory.
	ErrNoArguments = errors.New("no arguments: a program name is required")

	// ErrInvalidArgument indicates an argument that is not string-typed.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrSpawnFailed indicates the OS refused to create the process.
	ErrSpawnFailed = errors.New("spawn failed")

	// ErrNoActiveProcess indicates ReadLine was called on an idle session.
	ErrNoActiveProcess = errors.New("no active process")

	// ErrReadFailed indicates the child's output pipe broke mid-stream.
	ErrReadFailed = errors.New("read failed")

	// ErrSessionClosed indicates the session has been closed and cannot be reused.
	ErrSessionClosed = errors.New("session closed")

	// ErrProgramNotFound indicates argv[0] could not be resolved to an executable.
	ErrProgramNotFound = errors.New("program not found")

	// ErrFetchFailed indicates an HTTP transfer did not complete.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrUnsafeArchivePath indicates an archive entry that would land outside
	// the destination directory.
	ErrUnsafeArchivePath = errors.New("unsafe archive path")

	// ErrUnknownInstance indicates a host instance ID that is not registered.
	ErrUnknownInstance = errors.New("unknown instance")
)

// InvalidArgumentError indicates the first argument that failed validation.
type InvalidArgumentError struct {
	Index  int
	Type   string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid argument at index %d (%s): %s", e.Index, e.Type, e.Reason)
	}

	return fmt.Sprintf("invalid argument at index %d: expected string, got %s", e.Index, e.Type)
}

// Is reports whether target is ErrInvalidArgument.
func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// IsProcShimError implements ProcShimError.
func (e *InvalidArgumentError) IsProcShimError() bool { return true }

// SpawnError indicates the child process could not be started.
type SpawnError struct {
	Program string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn %q: %v", e.Program, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrSpawnFailed.
func (e *SpawnError) Is(target error) bool {
	return target == ErrSpawnFailed
}

// IsProcShimError implements ProcShimError.
func (e *SpawnError) IsProcShimError() bool { return true }

// ReadError indicates the child's output stream failed before end-of-file.
// The session has already reaped the child when this is returned.
type ReadError struct {
	Pid int
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read from process %d failed: %v", e.Pid, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrReadFailed.
func (e *ReadError) Is(target error) bool {
	return target == ErrReadFailed
}

// IsProcShimError implements ProcShimError.
func (e *ReadError) IsProcShimError() bool { return true }

// ProgramNotFoundError indicates argv[0] was not found in any searched location.
type ProgramNotFoundError struct {
	Program       string
	SearchedPaths []string
}

func (e *ProgramNotFoundError) Error() string {
	return fmt.Sprintf("program %q not found in: %s", e.Program, strings.Join(e.SearchedPaths, ", "))
}

// Is reports whether target is ErrProgramNotFound.
func (e *ProgramNotFoundError) Is(target error) bool {
	return target == ErrProgramNotFound
}

// IsProcShimError implements ProcShimError.
func (e *ProgramNotFoundError) IsProcShimError() bool { return true }

// FetchError indicates an HTTP transfer failure.
// StatusCode is zero when no response was received.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}

	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrFetchFailed.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetchFailed
}

// IsProcShimError implements ProcShimError.
func (e *FetchError) IsProcShimError() bool { return true }

// ExtractError indicates a zip extraction failure for a single entry or
// for the archive as a whole (Entry empty).
type ExtractError struct {
	Archive string
	Entry   string
	Err     error
}

func (e *ExtractError) Error() string {
	if e.Entry != "" {
		return fmt.Sprintf("extract %s from %s: %v", e.Entry, e.Archive, e.Err)
	}

	return fmt.Sprintf("extract %s: %v", e.Archive, e.Err)
}

func (e *ExtractError) Unwrap() error {
	return e.Err
}

// IsProcShimError implements ProcShimError.
func (e *ExtractError) IsProcShimError() bool { return true }

// ExitStatusError reports a child that exited with a non-zero code.
// Sessions return exit codes as results; only convenience helpers that
// hide the code, such as line iterators, surface it as an error.
type ExitStatusError struct {
	Program  string
	ExitCode int
}

func (e *ExitStatusError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Program, e.ExitCode)
}

// IsProcShimError implements ProcShimError.
func (e *ExitStatusError) IsProcShimError() bool { return true }
