package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInvalidArgumentError(t *testing.T) {
	err := &InvalidArgumentError{Index: 1, Type: "int"}

	require.Equal(t, "invalid argument at index 1: expected string, got int", err.Error())
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.NotErrorIs(t, err, ErrNoArguments)
	require.True(t, err.IsProcShimError())
}

func TestInvalidArgumentError_WithReason(t *testing.T) {
	err := &InvalidArgumentError{Index: 0, Type: "string", Reason: "contains NUL byte"}

	require.Equal(t, "invalid argument at index 0 (string): contains NUL byte", err.Error())
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSpawnError(t *testing.T) {
	root := errors.New("permission denied")
	err := &SpawnError{Program: "/bin/nope", Err: root}

	require.Equal(t, `failed to spawn "/bin/nope": permission denied`, err.Error())
	require.ErrorIs(t, err, root)
	require.ErrorIs(t, err, ErrSpawnFailed)
	require.True(t, err.IsProcShimError())
}

func TestSpawnError_WrapsProgramNotFound(t *testing.T) {
	err := &SpawnError{
		Program: "ghost",
		Err:     &ProgramNotFoundError{Program: "ghost", SearchedPaths: []string{"$PATH", "/opt/bin"}},
	}

	require.ErrorIs(t, err, ErrSpawnFailed)
	require.ErrorIs(t, err, ErrProgramNotFound)

	notFound, ok := errors.AsType[*ProgramNotFoundError](err)
	require.True(t, ok)
	require.Equal(t, []string{"$PATH", "/opt/bin"}, notFound.SearchedPaths)
	require.Equal(t, `program "ghost" not found in: $PATH, /opt/bin`, notFound.Error())
}

func TestReadError(t *testing.T) {
	root := errors.New("broken pipe")
	err := &ReadError{Pid: 42, Err: root}

	require.Equal(t, "read from process 42 failed: broken pipe", err.Error())
	require.ErrorIs(t, err, root)
	require.ErrorIs(t, err, ErrReadFailed)
	require.True(t, err.IsProcShimError())
}

func TestFetchError(t *testing.T) {
	t.Run("status code", func(t *testing.T) {
		err := &FetchError{URL: "http://example.test/a", StatusCode: 404}

		require.Equal(t, "fetch http://example.test/a: unexpected status 404", err.Error())
		require.ErrorIs(t, err, ErrFetchFailed)
	})

	t.Run("transport error", func(t *testing.T) {
		root := errors.New("connection refused")
		err := &FetchError{URL: "http://example.test/a", Err: root}

		require.Equal(t, "fetch http://example.test/a: connection refused", err.Error())
		require.ErrorIs(t, err, root)
		require.True(t, err.IsProcShimError())
	})
}

func TestExtractError(t *testing.T) {
	err := &ExtractError{Archive: "a.zip", Entry: "../evil", Err: ErrUnsafeArchivePath}

	require.Equal(t, "extract ../evil from a.zip: unsafe archive path", err.Error())
	require.ErrorIs(t, err, ErrUnsafeArchivePath)

	whole := &ExtractError{Archive: "a.zip", Err: errors.New("not a zip file")}
	require.Equal(t, "extract a.zip: not a zip file", whole.Error())
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{name: "nil", err: nil, want: CodeOK},
		{name: "already running", err: ErrAlreadyRunning, want: CodeAlreadyRunning},
		{name: "no arguments", err: ErrNoArguments, want: CodeNoArguments},
		{name: "invalid argument", err: &InvalidArgumentError{Index: 2, Type: "bool"}, want: CodeInvalidArgument},
		{name: "spawn", err: &SpawnError{Program: "x", Err: errors.New("boom")}, want: CodeSpawnFailed},
		{name: "no active process", err: ErrNoActiveProcess, want: CodeNoActiveProcess},
		{name: "read", err: &ReadError{Err: errors.New("eio")}, want: CodeReadFailed},
		{name: "closed", err: fmt.Errorf("start: %w", ErrSessionClosed), want: CodeSessionClosed},
		{name: "deadline", err: context.DeadlineExceeded, want: CodeCancelled},
		{name: "unknown instance", err: ErrUnknownInstance, want: CodeUnknownInstance},
		{name: "other", err: errors.New("mystery"), want: CodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestCodeString(t *testing.T) {
	require.Equal(t, "ok", CodeOK.String())
	require.Equal(t, "spawn_failed", CodeSpawnFailed.String())
	require.Equal(t, "unknown", Code(999).String())
}

func TestExitStatusError(t *testing.T) {
	err := &ExitStatusError{Program: "false", ExitCode: 1}

	require.Equal(t, "false exited with code 1", err.Error())
	require.True(t, err.IsProcShimError())
	require.Equal(t, CodeUnknown, CodeOf(err))
}
