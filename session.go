package procshim

import "context"

// Session runs one program at a time and reads its standard output as lines.
//
// Lifecycle: after the exit result has been read the session is idle and
// Exec may be called again. After Close the session cannot be reused.
//
// Example usage:
//
//	s := NewSession(WithLogger(slog.Default()))
//	defer s.Close()
//
//	if err := s.Exec(ctx, "printf", `a\nb\nc`); err != nil {
//	    return err
//	}
//
//	for {
//	    res, err := s.ReadLine(ctx)
//	    if err != nil {
//	        return err
//	    }
//	    if res.IsExited() {
//	        break
//	    }
//	    fmt.Println(res.Text())
//	}
type Session interface {
	// Exec validates args and starts the program args[0] with the rest as
	// its arguments. Returns ErrAlreadyRunning without touching the live
	// child, ErrNoArguments, *InvalidArgumentError or *SpawnError.
	Exec(ctx context.Context, args ...any) error

	// Start starts an already validated argument vector.
	Start(ctx context.Context, args Args) error

	// ReadLine returns the next complete line, or the exit code once the
	// output has ended. The exit result is reported exactly once; after it
	// ReadLine returns ErrNoActiveProcess until the next Exec.
	// If ctx ends first, ctx.Err() is returned and no output is lost.
	ReadLine(ctx context.Context) (LineResult, error)

	// State returns the current lifecycle state.
	State() State

	// Pid returns the live child's process ID, or 0 when idle.
	Pid() int

	// Close kills and reaps any live child, interrupting a blocked
	// ReadLine. Safe to call multiple times.
	Close() error
}

// NewSession creates an idle session.
func NewSession(opts ...Option) Session {
	return newSessionImpl(applyOptions(opts))
}
