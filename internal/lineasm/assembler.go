package lineasm

import (
	"bytes"
	"io"
)

const (
	// DefaultInitialSize is the starting buffer capacity.
	DefaultInitialSize = 512

	// maxConsecutiveEmptyReads bounds reads returning (0, nil) before
	// Pull gives up with io.ErrNoProgress.
	maxConsecutiveEmptyReads = 100
)

// Assembler converts raw reads from one stream into complete lines.
//
// Bytes [0, filled) of buf hold data not yet returned. Bytes [0, scanned)
// are known to be free of '\n'. The capacity of buf only grows until Reset.
// An Assembler is not safe for concurrent use.
type Assembler struct {
	buf     []byte
	filled  int
	scanned int
	initial int
	grows   int

	eof  bool // source reported io.EOF
	done bool // final line emitted, only io.EOF remains

	// err is a read error delivered together with a complete line; it is
	// reported by the next Pull once buffered lines are drained.
	err error

	onGrow func(oldCap, newCap int)
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithInitialSize sets the first buffer capacity. Values below 1 fall back
// to DefaultInitialSize.
func WithInitialSize(n int) Option {
	return func(a *Assembler) {
		if n > 0 {
			a.initial = n
		}
	}
}

// WithGrowHook registers a callback invoked after every buffer growth.
func WithGrowHook(fn func(oldCap, newCap int)) Option {
	return func(a *Assembler) {
		a.onGrow = fn
	}
}

// New creates an Assembler. The buffer is allocated on first use.
func New(opts ...Option) *Assembler {
	a := &Assembler{initial: DefaultInitialSize}
	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Pull returns the next complete line from r with its terminator removed.
//
// A line ends at '\n'; a '\r' directly before it is stripped too. When r
// reaches end-of-file with unterminated bytes pending, those bytes are
// returned as a final line and the following call returns io.EOF. Once the
// stream is exhausted every call returns io.EOF.
//
// Any other error from r is returned as is after the bytes delivered with
// it have been buffered, so a later Pull resumes where this one stopped.
// The returned slice is owned by the caller.
func (a *Assembler) Pull(r io.Reader) ([]byte, error) {
	if a.done {
		return nil, io.EOF
	}

	if a.buf == nil {
		a.buf = make([]byte, a.initial)
	}

	// Bytes left over from a read that carried several lines.
	if line, ok := a.take(); ok {
		return line, nil
	}

	if a.err != nil {
		err := a.err
		a.err = nil

		return nil, err
	}

	empty := 0

	for !a.eof {
		if a.filled == len(a.buf) {
			a.grow()
		}

		n, err := r.Read(a.buf[a.filled:])
		if n < 0 || n > len(a.buf)-a.filled {
			return nil, io.ErrShortBuffer
		}

		a.filled += n

		if line, ok := a.take(); ok {
			switch {
			case err == io.EOF:
				a.eof = true
			case err != nil:
				a.err = err
			}

			return line, nil
		}

		switch {
		case err == io.EOF:
			a.eof = true
		case err != nil:
			return nil, err
		case n == 0:
			empty++
			if empty >= maxConsecutiveEmptyReads {
				return nil, io.ErrNoProgress
			}
		default:
			empty = 0
		}
	}

	if a.filled == 0 {
		a.done = true

		return nil, io.EOF
	}

	line := bytes.Clone(a.buf[:a.filled])
	a.filled = 0
	a.scanned = 0
	a.done = true

	return line, nil
}

// take emits the first complete line in [scanned, filled), if any, and
// compacts the remainder to the front of the buffer.
func (a *Assembler) take() ([]byte, bool) {
	idx := bytes.IndexByte(a.buf[a.scanned:a.filled], '\n')
	if idx < 0 {
		a.scanned = a.filled

		return nil, false
	}

	k := a.scanned + idx

	end := k
	if end > 0 && a.buf[end-1] == '\r' {
		end--
	}

	line := bytes.Clone(a.buf[:end])
	if line == nil {
		line = []byte{}
	}

	a.filled = copy(a.buf, a.buf[k+1:a.filled])
	a.scanned = 0

	return line, true
}

// grow doubles the buffer, keeping every filled byte.
func (a *Assembler) grow() {
	oldCap := len(a.buf)

	newCap := oldCap * 2
	if newCap == 0 {
		newCap = a.initial
	}

	buf := make([]byte, newCap)
	copy(buf, a.buf[:a.filled])
	a.buf = buf
	a.grows++

	if a.onGrow != nil {
		a.onGrow(oldCap, newCap)
	}
}

// Capacity returns the current buffer capacity.
func (a *Assembler) Capacity() int {
	return len(a.buf)
}

// Buffered returns the number of pending bytes not yet returned as a line.
func (a *Assembler) Buffered() int {
	return a.filled
}

// Grows returns how many times the buffer has been reallocated.
func (a *Assembler) Grows() int {
	return a.grows
}

// Exhausted reports whether the stream has ended and every byte was returned.
func (a *Assembler) Exhausted() bool {
	return a.done
}

// Reset releases the buffer and prepares the Assembler for a new stream.
func (a *Assembler) Reset() {
	a.buf = nil
	a.filled = 0
	a.scanned = 0
	a.grows = 0
	a.eof = false
	a.done = false
	a.err = nil
}
