package subprocess

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/procshim-go/internal/argv"
	"github.com/wagiedev/procshim-go/internal/config"
	"github.com/wagiedev/procshim-go/internal/errors"
	"github.com/wagiedev/procshim-go/internal/lineasm"
)

// Session owns at most one child process and reads its stdout as lines.
//
// Start and ReadLine are serialized internally; Close may be called from
// any goroutine and interrupts a blocked ReadLine.
type Session struct {
	log     *slog.Logger
	options *config.Options
	spawner config.Spawner

	// lock is a one-slot semaphore serializing Start, ReadLine and
	// teardown. It is held across the blocking pipe read, so State and Pid
	// use atomics, and waiting for it can be abandoned when a context ends.
	lock  chan struct{}
	state atomic.Int32
	pid   atomic.Int64

	// Per-child resources, present iff state is Running or Draining.
	handle config.Handle
	asm    *lineasm.Assembler
	feed   *feed
	stop   chan struct{}
	eg     *errgroup.Group

	// waited delivers the exit status once reaping has begun. It is
	// created at most once per child and survives an interrupted reap.
	waited chan waitResult

	closed    chan struct{}
	closeOnce sync.Once
}

// New creates an idle session.
func New(options *config.Options) *Session {
	if options == nil {
		options = &config.Options{}
	}

	log := options.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	log = log.With("component", "process_session")

	spawner := options.Spawner
	if spawner == nil {
		spawner = NewExecSpawner(log, options.SearchPaths, options.GracePeriod())
	}

	return &Session{
		log:     log,
		options: options,
		spawner: spawner,
		lock:    make(chan struct{}, 1),
		closed:  make(chan struct{}),
	}
}

type waitResult struct {
	code int
	err  error
}

// acquire takes the lock, giving up when ctx ends or the session closes.
func (s *Session) acquire(ctx context.Context) error {
	select {
	case s.lock <- struct{}{}:
		return nil
	default:
	}

	select {
	case s.lock <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.closed:
		return errors.ErrSessionClosed
	}
}

func (s *Session) unlock() {
	<-s.lock
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Pid returns the live child's process ID, or 0 when idle.
func (s *Session) Pid() int {
	return int(s.pid.Load())
}

func (s *Session) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// Start spawns args.Program() with args.Args() and begins capturing its
// standard output.
//
// Returns errors.ErrAlreadyRunning if a child is live (the child is left
// untouched), errors.ErrNoArguments for an empty list, or a
// *errors.SpawnError if the OS refuses to create the process, in which
// case the session stays idle.
//
// A child counts as live until ReadLine has returned its exit result, so
// Start also fails with errors.ErrAlreadyRunning while the session is
// Draining or briefly Exited during reaping.
func (s *Session) Start(ctx context.Context, args argv.List) error {
	if s.isClosed() {
		return errors.ErrSessionClosed
	}

	// Fail fast instead of queueing behind a ReadLine blocked on the pipe.
	if s.State() != StateIdle {
		s.log.Debug("Start rejected, child still live", "pid", s.Pid())

		return errors.ErrAlreadyRunning
	}

	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.unlock()

	if s.isClosed() {
		return errors.ErrSessionClosed
	}

	if s.handle != nil {
		return errors.ErrAlreadyRunning
	}

	if args.IsZero() {
		return errors.ErrNoArguments
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	name := args.Program()

	s.log.Debug("Spawning process", "argv", args.Argv())

	handle, err := s.spawner.Spawn(ctx, args.Argv(), s.stdio())
	if err != nil {
		s.log.Error("Failed to start process", "program", name, "error", err)

		return &errors.SpawnError{Program: name, Err: err}
	}

	chunks := make(chan chunk)
	stop := make(chan struct{})

	eg := new(errgroup.Group)
	eg.Go(func() error {
		return pump(handle.Stdout(), chunks, stop)
	})

	var asmOpts []lineasm.Option
	if s.options.InitialBufferSize > 0 {
		asmOpts = append(asmOpts, lineasm.WithInitialSize(s.options.InitialBufferSize))
	}

	asmOpts = append(asmOpts, lineasm.WithGrowHook(func(oldCap, newCap int) {
		s.log.Debug("Grew line buffer", "old_capacity", oldCap, "new_capacity", newCap)
	}))

	s.handle = handle
	s.asm = lineasm.New(asmOpts...)
	s.feed = newFeed(chunks, s.closed)
	s.stop = stop
	s.eg = eg
	s.pid.Store(int64(handle.Pid()))
	s.state.Store(int32(StateRunning))

	s.log.Info("Process started", "program", name, "pid", handle.Pid())

	return nil
}

// stdio builds the child's attachments from the options.
func (s *Session) stdio() config.Stdio {
	stdio := config.Stdio{
		Stdin: s.options.Stdin,
		Dir:   s.options.Dir,
		Env:   s.options.Env,
	}

	switch {
	case s.options.Stderr != nil:
		stdio.Stderr = s.options.Stderr
	case !s.options.DiscardStderr:
		stdio.Stderr = os.Stderr
	}

	return stdio
}

// ReadLine returns the child's next stdout line, or its exit code once the
// stream has ended.
//
// The exit result is reported exactly once, after which the session is
// idle and further calls return errors.ErrNoActiveProcess. If ctx ends
// while waiting for output, for the child to exit, or for another
// ReadLine to finish, ctx.Err() is returned and the session is left
// exactly as it was, so a later call resumes the same partial line or
// the same reap. A broken pipe yields a *errors.ReadError after the child
// has been reaped.
func (s *Session) ReadLine(ctx context.Context) (LineResult, error) {
	if s.isClosed() {
		return LineResult{}, errors.ErrSessionClosed
	}

	if err := s.acquire(ctx); err != nil {
		return LineResult{}, err
	}
	defer s.unlock()

	if s.handle == nil {
		if s.isClosed() {
			return LineResult{}, errors.ErrSessionClosed
		}

		return LineResult{}, errors.ErrNoActiveProcess
	}

	// Output already ended; an earlier call gave up waiting for the exit.
	if s.State() == StateDraining {
		return s.reap(ctx)
	}

	s.feed.bind(ctx)
	defer s.feed.bind(context.Background())

	line, err := s.asm.Pull(s.feed)

	switch {
	case err == nil:
		return LineOf(line), nil

	case stderrors.Is(err, io.EOF):
		s.state.Store(int32(StateDraining))

		return s.reap(ctx)

	case stderrors.Is(err, errors.ErrSessionClosed):
		return LineResult{}, err

	case ctx.Err() != nil && stderrors.Is(err, ctx.Err()):
		s.log.Debug("ReadLine interrupted", "error", err, "buffered", s.asm.Buffered())

		return LineResult{}, err

	default:
		pid := s.Pid()
		s.log.Error("Failed to read process output", "pid", pid, "error", err)
		s.teardown()

		return LineResult{}, &errors.ReadError{Pid: pid, Err: err}
	}
}

// waiter begins reaping the child on first use and returns the channel
// that delivers its exit status. Only the first call stops the pump. The
// caller holds the lock.
func (s *Session) waiter() <-chan waitResult {
	if s.waited != nil {
		return s.waited
	}

	close(s.stop)

	handle := s.handle
	ch := make(chan waitResult, 1)

	go func() {
		code, err := handle.Wait()
		ch <- waitResult{code: code, err: err}
	}()

	s.waited = ch

	return ch
}

// reap collects the exit status after end-of-file and resets to idle.
//
// A child may close its stdout and keep running. If ctx ends first the
// session stays Draining and ctx.Err() is returned; if the session is
// closed the child is torn down instead. The caller holds the lock.
func (s *Session) reap(ctx context.Context) (LineResult, error) {
	pid := s.Pid()
	done := s.waiter()

	var res waitResult

	select {
	case res = <-done:
	default:
		select {
		case res = <-done:
		case <-ctx.Done():
			s.log.Debug("Output ended but process still running", "pid", pid, "error", ctx.Err())

			return LineResult{}, ctx.Err()
		case <-s.closed:
			s.teardown()

			return LineResult{}, errors.ErrSessionClosed
		}
	}

	if res.err != nil {
		s.log.Warn("Process wait reported an error", "error", res.err)
	}

	if perr := s.eg.Wait(); perr != nil {
		s.log.Debug("Output pump stopped with error", "error", perr)
	}

	s.state.Store(int32(StateExited))
	s.log.Info("Process exited", "pid", pid, "exit_code", res.code)
	s.release()

	return ExitedWith(res.code), nil
}

// teardown terminates a live child, escalating to kill after the grace
// period, and reaps it. The caller holds the lock.
func (s *Session) teardown() {
	pid := s.Pid()
	handle := s.handle
	done := s.waiter()

	if err := handle.Terminate(); err != nil {
		s.log.Debug("Terminate failed, killing", "pid", pid, "error", err)

		if kerr := handle.Kill(); kerr != nil {
			s.log.Warn("Kill failed", "pid", pid, "error", kerr)
		}
	}

	timer := time.NewTimer(s.options.GracePeriod())
	defer timer.Stop()

	var res waitResult

	select {
	case res = <-done:
	case <-timer.C:
		s.log.Warn("Process ignored terminate, killing", "pid", pid)

		if err := handle.Kill(); err != nil {
			s.log.Warn("Kill failed", "pid", pid, "error", err)
		}

		res = <-done
	}

	s.log.Debug("Reaped process", "pid", pid, "exit_code", res.code, "error", res.err)

	if err := s.eg.Wait(); err != nil {
		s.log.Debug("Output pump stopped with error", "error", err)
	}

	s.release()
}

// release drops per-child resources and returns to idle.
func (s *Session) release() {
	if s.asm != nil {
		s.asm.Reset()
	}

	s.handle = nil
	s.asm = nil
	s.feed = nil
	s.stop = nil
	s.eg = nil
	s.waited = nil
	s.pid.Store(0)
	s.state.Store(int32(StateIdle))
}

// Close terminates and reaps a live child, interrupting any blocked
// ReadLine. It is safe to call Close multiple times. A closed session
// rejects further use with errors.ErrSessionClosed.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
	})

	// Waits for any in-flight call; both give up promptly once closed is.
	s.lock <- struct{}{}
	defer s.unlock()

	if s.handle == nil {
		return nil
	}

	s.log.Debug("Closing session with live process", "pid", s.Pid())
	s.teardown()

	return nil
}
