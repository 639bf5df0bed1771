package errors

import (
	"context"
	"errors"
)

// Code is the numeric status reported to tool-call hosts.
// Zero means success.
type Code int

// Status codes for process operations.
const (
	CodeOK Code = iota
	CodeAlreadyRunning
	CodeNoArguments
	CodeInvalidArgument
	CodeSpawnFailed
	CodeNoActiveProcess
	CodeReadFailed
	CodeSessionClosed
	CodeCancelled
	CodeUnknownInstance
	CodeUnknown
)

var codeNames = map[Code]string{
	CodeOK:              "ok",
	CodeAlreadyRunning:  "already_running",
	CodeNoArguments:     "no_arguments",
	CodeInvalidArgument: "invalid_argument",
	CodeSpawnFailed:     "spawn_failed",
	CodeNoActiveProcess: "no_active_process",
	CodeReadFailed:      "read_failed",
	CodeSessionClosed:   "session_closed",
	CodeCancelled:       "cancelled",
	CodeUnknownInstance: "unknown_instance",
	CodeUnknown:         "unknown",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}

	return "unknown"
}

// CodeOf maps an error to its status code. A nil error is CodeOK.
func CodeOf(err error) Code {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, ErrAlreadyRunning):
		return CodeAlreadyRunning
	case errors.Is(err, ErrNoArguments):
		return CodeNoArguments
	case errors.Is(err, ErrInvalidArgument):
		return CodeInvalidArgument
	case errors.Is(err, ErrSpawnFailed), errors.Is(err, ErrProgramNotFound):
		return CodeSpawnFailed
	case errors.Is(err, ErrNoActiveProcess):
		return CodeNoActiveProcess
	case errors.Is(err, ErrReadFailed):
		return CodeReadFailed
	case errors.Is(err, ErrSessionClosed):
		return CodeSessionClosed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeCancelled
	case errors.Is(err, ErrUnknownInstance):
		return CodeUnknownInstance
	default:
		return CodeUnknown
	}
}
