package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wagiedev/procshim-go/internal/unzip"
)

func (a *app) newUnzipCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unzip ARCHIVE DEST",
		Short: "Extract a zip archive, refusing entries outside DEST",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := unzip.New(a.log).Extract(cmd.Context(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("%s: %w", unzip.StatusOf(err), err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "extracted %d files\n", n)

			return err
		},
	}
}
