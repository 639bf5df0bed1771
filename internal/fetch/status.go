package fetch

import (
	stderrors "errors"
	"io/fs"

	"github.com/wagiedev/procshim-go/internal/errors"
)

// Status is the coarse outcome of a download, as reported to hosts.
type Status int

const (
	// StatusOK means the last download succeeded.
	StatusOK Status = iota
	// StatusTransport means the HTTP transfer failed.
	StatusTransport
	// StatusFile means the destination file could not be written.
	StatusFile
	// StatusBadArgs means the request was malformed.
	StatusBadArgs
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusTransport:
		return "transport"
	case StatusFile:
		return "file"
	case StatusBadArgs:
		return "bad_args"
	default:
		return "unknown"
	}
}

// StatusOf classifies err.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case stderrors.Is(err, ErrBadRequest):
		return StatusBadArgs
	case stderrors.Is(err, errors.ErrFetchFailed):
		return StatusTransport
	}

	if _, ok := stderrors.AsType[*fs.PathError](err); ok {
		return StatusFile
	}

	return StatusTransport
}

// Describe returns a human readable message for a download outcome.
func Describe(err error) string {
	switch StatusOf(err) {
	case StatusOK:
		return "No error."
	case StatusFile:
		return "Error opening file to write: " + err.Error()
	case StatusBadArgs:
		return "Invalid arguments: " + err.Error()
	default:
		return err.Error()
	}
}
