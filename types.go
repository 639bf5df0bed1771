package procshim

import (
	"github.com/wagiedev/procshim-go/internal/argv"
	"github.com/wagiedev/procshim-go/internal/config"
	"github.com/wagiedev/procshim-go/internal/subprocess"
)

// Options configures a Session. Build it with the With* options.
type Options = config.Options

// Args is a validated argument vector: the program followed by its arguments.
type Args = argv.List

// State is the lifecycle state of a Session.
type State = subprocess.State

// Session states.
const (
	StateIdle     = subprocess.StateIdle
	StateRunning  = subprocess.StateRunning
	StateDraining = subprocess.StateDraining
	StateExited   = subprocess.StateExited
)

// LineResult is one ReadLine outcome: a line, or the exit code.
type LineResult = subprocess.LineResult

// Spawner creates child processes. Replace it with WithSpawner to run
// programs somewhere other than the local OS.
type Spawner = config.Spawner

// Handle is a started child process returned by a Spawner.
type Handle = config.Handle

// Stdio describes a child's attachments, passed to Spawner.Spawn.
type Stdio = config.Stdio

// BuildArgs validates values and converts them to Args.
//
// Every value must be a string (or a type whose underlying kind is
// string, or []byte). On failure nothing is retained and the error
// identifies the first offending index.
func BuildArgs(values ...any) (Args, error) {
	return argv.Build(values)
}
