package subprocess

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/wagiedev/procshim-go/internal/config"
	"github.com/wagiedev/procshim-go/internal/program"
)

// execSpawner implements config.Spawner with os/exec.
type execSpawner struct {
	log       *slog.Logger
	resolver  program.Resolver
	waitDelay time.Duration
}

// Compile-time verification that execSpawner implements config.Spawner.
var _ config.Spawner = (*execSpawner)(nil)

// NewExecSpawner returns the default os/exec backed spawner.
//
// argv[0] is resolved against PATH and then searchPaths. waitDelay bounds
// how long reaping waits for I/O copying after the child exits, for example
// when a grandchild keeps a non-file stderr writer open.
func NewExecSpawner(log *slog.Logger, searchPaths []string, waitDelay time.Duration) config.Spawner {
	log = log.With("component", "exec_spawner")

	return &execSpawner{
		log: log,
		resolver: program.NewResolver(&program.Config{
			SearchPaths: searchPaths,
			Logger:      log,
		}),
		waitDelay: waitDelay,
	}
}

// Spawn starts the child.
//
// The child is deliberately not bound to ctx: its lifetime belongs to the
// session, which terminates it on Close.
func (s *execSpawner) Spawn(ctx context.Context, argv []string, stdio config.Stdio) (config.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(argv) == 0 {
		return nil, stderrors.New("empty argument vector")
	}

	path, err := s.resolver.Resolve(argv[0])
	if err != nil {
		return nil, err
	}

	s.log.Debug("Resolved program", "program", argv[0], "path", path)

	//nolint:gosec // G204: executing caller-supplied argv is the purpose of this package
	cmd := exec.Command(path)
	cmd.Args = argv
	cmd.Dir = stdio.Dir
	cmd.Env = stdio.Env
	cmd.Stdin = stdio.Stdin
	cmd.Stderr = stdio.Stderr
	cmd.WaitDelay = s.waitDelay

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		s.log.Error("Failed to create stdout pipe", "error", err)

		return nil, err
	}

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	return &execHandle{cmd: cmd, stdout: stdout}, nil
}

// execHandle implements config.Handle for an exec.Cmd.
type execHandle struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
}

// Compile-time verification that execHandle implements config.Handle.
var _ config.Handle = (*execHandle)(nil)

func (h *execHandle) Stdout() io.Reader {
	return h.stdout
}

func (h *execHandle) Pid() int {
	if h.cmd.Process == nil {
		return 0
	}

	return h.cmd.Process.Pid
}

// Wait reaps the child. A non-zero exit is not an error; the code is
// returned instead. Children killed by a signal report -1.
func (h *execHandle) Wait() (int, error) {
	err := h.cmd.Wait()
	if err == nil {
		return 0, nil
	}

	if exitErr, ok := stderrors.AsType[*exec.ExitError](err); ok {
		return exitErr.ExitCode(), nil
	}

	if h.cmd.ProcessState != nil {
		return h.cmd.ProcessState.ExitCode(), err
	}

	return -1, err
}

func (h *execHandle) Terminate() error {
	return signalProcess(h.cmd.Process, syscall.SIGTERM)
}

func (h *execHandle) Kill() error {
	return signalProcess(h.cmd.Process, os.Kill)
}

// signalProcess sends sig to a process, returning nil if the process
// has already exited.
func signalProcess(proc *os.Process, sig os.Signal) error {
	if proc == nil {
		return nil
	}

	err := proc.Signal(sig)
	if stderrors.Is(err, os.ErrProcessDone) {
		return nil
	}

	return err
}
