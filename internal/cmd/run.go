package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wagiedev/procshim-go"
)

func (a *app) newRunCommand() *cobra.Command {
	var (
		lineTimeout time.Duration
		numbered    bool
	)

	cmd := &cobra.Command{
		Use:   "run [flags] -- program [args...]",
		Short: "Run a program and print its output line by line",
		Long: `Run starts program with the given arguments, exactly as written and
without a shell, and prints each line of its standard output as soon as
it is complete. procshim exits with the program's exit code.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return a.run(ctx, cmd, args, lineTimeout, numbered)
		},
	}

	cmd.Flags().DurationVar(&lineTimeout, "line-timeout", 0, "fail if no complete line arrives within this duration (0 waits forever)")
	cmd.Flags().BoolVarP(&numbered, "number", "n", false, "prefix each line with its number")

	return cmd
}

func (a *app) run(ctx context.Context, cmd *cobra.Command, args []string, lineTimeout time.Duration, numbered bool) error {
	session := a.newSession(cmd)
	defer session.Close()

	values := make([]any, len(args))
	for i, arg := range args {
		values[i] = arg
	}

	if err := session.Exec(ctx, values...); err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	for n := 1; ; n++ {
		res, err := readWithTimeout(ctx, session, lineTimeout)
		if err != nil {
			return err
		}

		if res.IsExited() {
			a.log.Info("Program exited", "program", args[0], "exit_code", res.ExitCode)

			if res.ExitCode != 0 {
				return &SilentExitError{Code: exitStatus(res.ExitCode)}
			}

			return nil
		}

		if numbered {
			_, err = fmt.Fprintf(out, "%6d\t%s\n", n, res.Line)
		} else {
			_, err = fmt.Fprintf(out, "%s\n", res.Line)
		}

		if err != nil {
			return err
		}
	}
}

func (a *app) newSession(cmd *cobra.Command) procshim.Session {
	s := a.file.Session

	opts := []procshim.Option{
		procshim.WithLogger(a.log),
		procshim.WithInitialBufferSize(s.InitialBufferSize),
		procshim.WithDir(s.Dir),
		procshim.WithStdin(cmd.InOrStdin()),
		procshim.WithStderr(cmd.ErrOrStderr()),
		procshim.WithSearchPaths(s.SearchPaths...),
		procshim.WithTerminateGracePeriod(s.TerminateGracePeriod),
	}

	if s.Env != nil {
		opts = append(opts, func(o *procshim.Options) { o.Env = s.Env })
	}

	if s.DiscardStderr {
		opts = append(opts, procshim.WithDiscardStderr())
	}

	return procshim.NewSession(opts...)
}

func readWithTimeout(ctx context.Context, s procshim.Session, timeout time.Duration) (procshim.LineResult, error) {
	if timeout <= 0 {
		return s.ReadLine(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return s.ReadLine(ctx)
}

// exitStatus maps a child's exit code to ours. Codes outside 0-255, such
// as -1 for a child killed by a signal, become 128.
func exitStatus(code int) int {
	if code < 0 || code > 255 {
		return 128
	}

	return code
}
