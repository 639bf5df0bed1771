package subprocess

import (
	"context"
	"io"

	"github.com/wagiedev/procshim-go/internal/errors"
)

// pumpChunkSize is the read size used against the child's stdout pipe.
const pumpChunkSize = 4096

// chunk is one pipe read: data, or a terminal error.
type chunk struct {
	data []byte
	err  error
}

// pump copies r into out until end-of-file, a read error, or stop.
// It owns out and closes it on return. Non-EOF read errors are both
// delivered on out and returned.
func pump(r io.Reader, out chan<- chunk, stop <-chan struct{}) error {
	defer close(out)

	for {
		buf := make([]byte, pumpChunkSize)

		n, err := r.Read(buf)
		if n > 0 {
			select {
			case out <- chunk{data: buf[:n]}:
			case <-stop:
				return nil
			}
		}

		if err == io.EOF {
			return nil
		}

		if err != nil {
			select {
			case out <- chunk{err: err}:
			case <-stop:
			}

			return err
		}
	}
}

// feed adapts the pump's channel to io.Reader for the line assembler.
//
// A Read blocked on the channel returns early when the caller's context
// is done or the session closes. Nothing is consumed in that case, so the
// next Read resumes with the same bytes.
type feed struct {
	chunks  <-chan chunk
	closed  <-chan struct{}
	ctx     context.Context
	pending []byte
	final   error
}

func newFeed(chunks <-chan chunk, closed <-chan struct{}) *feed {
	return &feed{
		chunks: chunks,
		closed: closed,
		ctx:    context.Background(),
	}
}

// bind sets the context governing subsequent reads.
func (f *feed) bind(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	f.ctx = ctx
}

func (f *feed) Read(p []byte) (int, error) {
	if len(f.pending) > 0 {
		n := copy(p, f.pending)
		f.pending = f.pending[n:]

		return n, nil
	}

	if f.final != nil {
		return 0, f.final
	}

	// A cancelled context wins over data that happens to be ready.
	if err := f.ctx.Err(); err != nil {
		return 0, err
	}

	select {
	case c, ok := <-f.chunks:
		if !ok {
			f.final = io.EOF

			return 0, io.EOF
		}

		if c.err != nil {
			f.final = c.err

			return 0, c.err
		}

		n := copy(p, c.data)
		f.pending = c.data[n:]

		return n, nil

	case <-f.ctx.Done():
		return 0, f.ctx.Err()

	case <-f.closed:
		return 0, errors.ErrSessionClosed
	}
}
