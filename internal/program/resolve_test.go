package program

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wagiedev/procshim-go/internal/errors"
)

func writeExecutable(t *testing.T, dir, name string, mode os.FileMode) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), mode))

	return path
}

func TestResolve_FromPATH(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Test requires Unix executables")
	}

	dir := t.TempDir()
	want := writeExecutable(t, dir, "procshim-probe", 0o755)
	t.Setenv("PATH", dir)

	got, err := NewResolver(nil).Resolve("procshim-probe")
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestResolve_FromSearchPaths(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Test requires Unix executables")
	}

	t.Setenv("PATH", t.TempDir())

	extra := t.TempDir()
	want := writeExecutable(t, extra, "tool", 0o755)

	got, err := NewResolver(&Config{SearchPaths: []string{t.TempDir(), extra}}).Resolve("tool")
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestResolve_NotFoundListsSearchedPaths(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	extra := t.TempDir()

	_, err := NewResolver(&Config{SearchPaths: []string{extra}}).Resolve("definitely-missing")
	require.ErrorIs(t, err, errors.ErrProgramNotFound)

	notFound, ok := err.(*errors.ProgramNotFoundError)
	require.True(t, ok)
	require.Equal(t, []string{"$PATH", filepath.Join(extra, "definitely-missing")}, notFound.SearchedPaths)
}

func TestResolve_ExplicitPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Test requires Unix executables")
	}

	dir := t.TempDir()
	exe := writeExecutable(t, dir, "run.sh", 0o755)
	plain := writeExecutable(t, dir, "data.txt", 0o644)

	got, err := NewResolver(nil).Resolve(exe)
	require.NoError(t, err)
	require.Equal(t, exe, got)

	_, err = NewResolver(nil).Resolve(plain)
	require.ErrorIs(t, err, errors.ErrProgramNotFound)

	_, err = NewResolver(nil).Resolve(dir + "/")
	require.ErrorIs(t, err, errors.ErrProgramNotFound)
}

func TestResolve_EmptyName(t *testing.T) {
	_, err := NewResolver(nil).Resolve("")
	require.ErrorIs(t, err, errors.ErrProgramNotFound)
}
