package procshim

import (
	"context"
)

// WithSession manages session lifecycle with automatic cleanup.
//
// It creates a session with the provided options, runs fn and closes the
// session afterwards, killing any child fn left running. If Close fails, a
// warning is logged but does not override fn's error.
//
// Example usage:
//
//	err := procshim.WithSession(ctx, func(s procshim.Session) error {
//	    if err := s.Exec(ctx, "make", "test"); err != nil {
//	        return err
//	    }
//	    for {
//	        res, err := s.ReadLine(ctx)
//	        if err != nil {
//	            return err
//	        }
//	        if res.IsExited() {
//	            return nil
//	        }
//	        fmt.Println(res.Text())
//	    }
//	}, procshim.WithDir("/src"))
func WithSession(ctx context.Context, fn func(Session) error, opts ...Option) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	options := applyOptions(opts)

	log := options.Logger
	if log == nil {
		log = NopLogger()
	}

	session := newSessionImpl(options)

	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			log.Warn("failed to close session", "error", closeErr)
		}
	}()

	return fn(session)
}
