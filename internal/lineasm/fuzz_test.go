package lineasm

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"testing/iotest"
)

// FuzzPull checks the assembler against a reference split on arbitrary input.
func FuzzPull(f *testing.F) {
	f.Add([]byte("a\nb\nc"), 4)
	f.Add([]byte("\n\n\r\n"), 1)
	f.Add([]byte("no terminator at all"), 3)
	f.Add([]byte{0x00, '\r', '\n', 0xff}, 2)

	f.Fuzz(func(t *testing.T, data []byte, initial int) {
		want := referenceSplit(data)

		for _, r := range []io.Reader{bytes.NewReader(data), iotest.OneByteReader(bytes.NewReader(data))} {
			a := New(WithInitialSize(initial % 64))

			var got [][]byte

			for {
				line, err := a.Pull(r)
				if errors.Is(err, io.EOF) {
					break
				}

				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}

				got = append(got, line)
			}

			if len(got) != len(want) {
				t.Fatalf("got %d lines, want %d", len(got), len(want))
			}

			for i := range want {
				if !bytes.Equal(got[i], want[i]) {
					t.Fatalf("line %d: got %q, want %q", i, got[i], want[i])
				}
			}
		}
	})
}

func referenceSplit(data []byte) [][]byte {
	if len(data) == 0 {
		return nil
	}

	parts := bytes.Split(data, []byte("\n"))
	if len(parts[len(parts)-1]) == 0 {
		parts = parts[:len(parts)-1]
	}

	for i := range parts[:len(parts)-1] {
		parts[i] = bytes.TrimSuffix(parts[i], []byte("\r"))
	}

	// The final part keeps its '\r' only if it was unterminated.
	if data[len(data)-1] == '\n' {
		last := len(parts) - 1
		parts[last] = bytes.TrimSuffix(parts[last], []byte("\r"))
	}

	return parts
}
