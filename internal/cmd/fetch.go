package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wagiedev/procshim-go/internal/fetch"
)

func (a *app) newFetchCommand() *cobra.Command {
	var (
		output    string
		userAgent string
	)

	cmd := &cobra.Command{
		Use:   "fetch URL",
		Short: "Download a URL to stdout or a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h := a.file.Host

			agent := h.UserAgent
			if userAgent != "" {
				agent = userAgent
			}

			client := fetch.New(&fetch.Config{
				Logger:    a.log,
				UserAgent: agent,
				Timeout:   h.HTTPTimeout,
				MaxBytes:  h.MaxDownloadBytes,
			})

			if output != "" {
				n, err := client.ToFile(cmd.Context(), args[0], output)
				if err != nil {
					return fmt.Errorf("%s: %w", fetch.StatusOf(err), err)
				}

				a.log.Info("Saved download", "path", output, "bytes", n)

				return nil
			}

			data, err := client.Bytes(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", fetch.StatusOf(err), err)
			}

			_, err = cmd.OutOrStdout().Write(data)

			return err
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	cmd.Flags().StringVar(&userAgent, "user-agent", "", "override the configured User-Agent")

	return cmd
}
