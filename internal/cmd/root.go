// Package cmd provides the procshim command line.
package cmd

import (
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wagiedev/procshim-go/internal/config"
)

// Version is stamped at build time.
var Version = "dev"

// SilentExitError ends the process with Code without printing anything.
// Commands that mirror a child's exit status return it.
type SilentExitError struct {
	Code int
}

func (e *SilentExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// IsSilentExit reports the exit code carried by err, if any.
func IsSilentExit(err error) (int, bool) {
	if se, ok := stderrors.AsType[*SilentExitError](err); ok {
		return se.Code, true
	}

	return 0, false
}

// app holds state shared by every command after flag parsing.
type app struct {
	configPath string
	logLevel   string
	stderr     io.Writer

	log  *slog.Logger
	file *config.File
}

// NewRootCommand builds the command tree. Output written by commands goes
// to cmd.OutOrStdout; logs go to stderr.
func NewRootCommand(stderr io.Writer) *cobra.Command {
	a := &app{stderr: stderr}

	root := &cobra.Command{
		Use:     "procshim",
		Short:   "Run programs and read their output line by line",
		Version: Version,
		Long: `procshim runs external programs and reads their standard output one
complete line at a time, with no limit on line length.

It can be used directly from the shell or serve the same operations, plus
HTTP downloads and zip extraction, as MCP tools over stdio.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	root.AddCommand(
		a.newServeCommand(),
		a.newRunCommand(),
		a.newFetchCommand(),
		a.newUnzipCommand(),
	)

	return root
}

// setup parses the log level and loads the config file.
func (a *app) setup(_ *cobra.Command, _ []string) error {
	level, err := parseLevel(a.logLevel)
	if err != nil {
		return err
	}

	a.log = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))

	if a.configPath == "" {
		a.file = &config.File{}
		a.file.Host.Normalize()

		return nil
	}

	file, err := config.LoadFile(a.configPath)
	if err != nil {
		return err
	}

	a.log.Debug("Loaded config", "path", a.configPath)
	a.file = file

	return nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	root := NewRootCommand(os.Stderr)

	if err := root.Execute(); err != nil {
		if code, ok := IsSilentExit(err); ok {
			return code
		}

		fmt.Fprintln(os.Stderr, "Error:", err)

		return 1
	}

	return 0
}
