package procshim

import (
	"context"

	"github.com/wagiedev/procshim-go/internal/argv"
	"github.com/wagiedev/procshim-go/internal/subprocess"
)

// sessionWrapper adapts the internal session to the public interface.
type sessionWrapper struct {
	impl *subprocess.Session
}

// Compile-time check that *sessionWrapper implements the Session interface.
var _ Session = (*sessionWrapper)(nil)

func newSessionImpl(options *Options) Session {
	return &sessionWrapper{impl: subprocess.New(options)}
}

func (s *sessionWrapper) Exec(ctx context.Context, args ...any) error {
	list, err := argv.Build(args)
	if err != nil {
		return err
	}

	return s.impl.Start(ctx, list)
}

func (s *sessionWrapper) Start(ctx context.Context, args Args) error {
	return s.impl.Start(ctx, args)
}

func (s *sessionWrapper) ReadLine(ctx context.Context) (LineResult, error) {
	return s.impl.ReadLine(ctx)
}

func (s *sessionWrapper) State() State {
	return s.impl.State()
}

func (s *sessionWrapper) Pid() int {
	return s.impl.Pid()
}

func (s *sessionWrapper) Close() error {
	return s.impl.Close()
}
