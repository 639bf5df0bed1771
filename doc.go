// Package procshim runs external programs and reads their standard output
// one line at a time.
//
// A Session owns at most one child process. Exec validates a dynamically
// typed argument list, all or nothing, and starts the program; ReadLine
// then returns complete lines of any length until the output ends, at which
// point it reports the exit code exactly once and the session becomes
// reusable.
//
// # Basic Usage
//
//	s := procshim.NewSession()
//	defer s.Close()
//
//	if err := s.Exec(ctx, "git", "log", "--oneline"); err != nil {
//	    log.Fatal(err)
//	}
//
//	for {
//	    res, err := s.ReadLine(ctx)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if res.IsExited() {
//	        fmt.Println("exit code:", res.ExitCode)
//	        break
//	    }
//	    fmt.Println(res.Text())
//	}
//
// For the common case of consuming every line, use Lines:
//
//	for line, err := range procshim.Lines(ctx, []any{"ls", "-1"}) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(line)
//	}
//
// # Timeouts
//
// ReadLine honours its context. When the context ends before a line is
// complete, ReadLine returns the context's error and nothing is lost: the
// next call continues the same partial line.
//
// # Error Handling
//
// Errors are typed and match sentinels with errors.Is:
//
//	err := s.Exec(ctx, "cmd", 42)
//	if argErr, ok := errors.AsType[*procshim.InvalidArgumentError](err); ok {
//	    log.Printf("argument %d has type %s", argErr.Index, argErr.Type)
//	}
//	if errors.Is(err, procshim.ErrAlreadyRunning) {
//	    // the live child was left untouched
//	}
//
// CodeOf maps any error to the numeric status used by tool hosts.
package procshim
