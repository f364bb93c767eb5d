package main

import (
	"fmt"

	"github.com/spf13/cobra"

	journal "github.com/relayq/journal"
)

func newRollCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roll <journal-file>",
		Short: "Rotate a journal file, retiring its current contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			j, err := journal.Open(path, journalOptions())
			if err != nil {
				return err
			}
			defer j.Close()

			before := j.Size()
			if err := j.Roll(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled %s (%d bytes retired, size now %d)\n", path, before, j.Size())
			return nil
		},
	}
	return cmd
}
