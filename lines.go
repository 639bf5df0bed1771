package procshim

import (
	"context"
	"iter"
)

// Lines runs a program and yields each line of its standard output.
//
// Iteration ends after the last line. A non-zero exit is yielded as a
// final *ExitStatusError. Argument, spawn and read errors are yielded once
// and end the iteration. Breaking out of the loop early kills the child.
//
//	for line, err := range procshim.Lines(ctx, []any{"git", "status", "--short"}) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(line)
//	}
func Lines(ctx context.Context, args []any, opts ...Option) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		options := applyOptions(opts)

		log := options.Logger
		if log == nil {
			log = NopLogger()
		}

		log = log.With("component", "lines")

		session := newSessionImpl(options)

		defer func() {
			if err := session.Close(); err != nil {
				log.Warn("failed to close session", "error", err)
			}
		}()

		list, err := BuildArgs(args...)
		if err != nil {
			yield("", err)

			return
		}

		if err := session.Start(ctx, list); err != nil {
			yield("", err)

			return
		}

		program := list.Program()

		for {
			res, err := session.ReadLine(ctx)
			if err != nil {
				yield("", err)

				return
			}

			if res.IsExited() {
				log.Debug("Program finished", "program", program, "exit_code", res.ExitCode)

				if res.ExitCode != 0 {
					yield("", &ExitStatusError{Program: program, ExitCode: res.ExitCode})
				}

				return
			}

			if !yield(res.Text(), nil) {
				return
			}
		}
	}
}
