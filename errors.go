package procshim

import "github.com/wagiedev/procshim-go/internal/errors"

// Re-export error types from internal package

// InvalidArgumentError identifies the first argument that is not a string.
type InvalidArgumentError = errors.InvalidArgumentError

// SpawnError indicates the OS refused to start the program.
type SpawnError = errors.SpawnError

// ReadError indicates the child's output broke before end-of-file.
type ReadError = errors.ReadError

// ProgramNotFoundError indicates argv[0] was not found on PATH or any search path.
type ProgramNotFoundError = errors.ProgramNotFoundError

// ExitStatusError reports a non-zero exit from a helper that hides exit codes.
type ExitStatusError = errors.ExitStatusError

// ProcShimError is the base interface for all procshim errors.
type ProcShimError = errors.ProcShimError

// Code is the numeric status reported to tool hosts.
type Code = errors.Code

// Status codes.
const (
	CodeOK              = errors.CodeOK
	CodeAlreadyRunning  = errors.CodeAlreadyRunning
	CodeNoArguments     = errors.CodeNoArguments
	CodeInvalidArgument = errors.CodeInvalidArgument
	CodeSpawnFailed     = errors.CodeSpawnFailed
	CodeNoActiveProcess = errors.CodeNoActiveProcess
	CodeReadFailed      = errors.CodeReadFailed
	CodeSessionClosed   = errors.CodeSessionClosed
	CodeCancelled       = errors.CodeCancelled
)

// Re-export sentinel errors from internal package.
var (
	// ErrAlreadyRunning indicates the session already owns a live child.
	ErrAlreadyRunning = errors.ErrAlreadyRunning

	// ErrNoArguments indicates an empty argument list.
	ErrNoArguments = errors.ErrNoArguments

	// ErrInvalidArgument indicates a non-string argument.
	ErrInvalidArgument = errors.ErrInvalidArgument

	// ErrSpawnFailed indicates the program could not be started.
	ErrSpawnFailed = errors.ErrSpawnFailed

	// ErrNoActiveProcess indicates ReadLine on an idle session.
	ErrNoActiveProcess = errors.ErrNoActiveProcess

	// ErrReadFailed indicates the output pipe failed mid-stream.
	ErrReadFailed = errors.ErrReadFailed

	// ErrSessionClosed indicates the session has been closed and cannot be reused.
	ErrSessionClosed = errors.ErrSessionClosed

	// ErrProgramNotFound indicates the program could not be located.
	ErrProgramNotFound = errors.ErrProgramNotFound
)

// CodeOf maps an error to its status code. A nil error is CodeOK.
func CodeOf(err error) Code {
	return errors.CodeOf(err)
}
