package subprocess

import "fmt"

// State is the lifecycle state of a Session.
type State int32

const (
	// StateIdle means no child is owned; Start may be called.
	StateIdle State = iota
	// StateRunning means a child is live and its stdout is open.
	StateRunning
	// StateDraining means stdout reached end-of-file and the child is being reaped.
	StateDraining
	// StateExited means the exit status was collected; the session resets to idle.
	StateExited
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateExited:
		return "exited"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// ResultKind discriminates LineResult.
type ResultKind int

const (
	// KindLine carries one complete line.
	KindLine ResultKind = iota + 1
	// KindExited carries the child's exit code; the stream is finished.
	KindExited
)

func (k ResultKind) String() string {
	switch k {
	case KindLine:
		return "line"
	case KindExited:
		return "exited"
	default:
		return "unknown"
	}
}

// LineResult is one successful ReadLine outcome.
type LineResult struct {
	Kind     ResultKind
	Line     []byte
	ExitCode int
}

// LineOf builds a KindLine result.
func LineOf(line []byte) LineResult {
	return LineResult{Kind: KindLine, Line: line}
}

// ExitedWith builds a KindExited result.
func ExitedWith(code int) LineResult {
	return LineResult{Kind: KindExited, ExitCode: code}
}

// IsLine reports whether r carries a line.
func (r LineResult) IsLine() bool {
	return r.Kind == KindLine
}

// IsExited reports whether r reports process exit.
func (r LineResult) IsExited() bool {
	return r.Kind == KindExited
}

// Text returns the line as a string. It does not validate encoding.
func (r LineResult) Text() string {
	return string(r.Line)
}

func (r LineResult) String() string {
	switch r.Kind {
	case KindLine:
		return fmt.Sprintf("Line(%q)", r.Line)
	case KindExited:
		return fmt.Sprintf("Exited(%d)", r.ExitCode)
	default:
		return "LineResult{}"
	}
}
