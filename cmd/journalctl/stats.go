package main

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	journal "github.com/relayq/journal"
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <journal-file>",
		Short: "Summarize a journal file's record counts and size",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			counts := map[journal.Op]int{}
			var size int64

			err := journal.Replay(path, func(rec journal.Record) error {
				if rec.IsEndOfFile() {
					return nil
				}
				counts[rec.Op]++
				size += recordWireSize(rec)
				return nil
			})
			if err != nil {
				return err
			}

			backups, err := staleBackups(path)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "Journal Statistics")
			fmt.Fprintln(w, "==================")
			fmt.Fprintf(w, "Path:\t%s\n", path)
			fmt.Fprintf(w, "Total bytes:\t%d\n", size)
			for _, op := range []journal.Op{
				journal.OpAdd, journal.OpAddLegacy, journal.OpRemove, journal.OpRemoveTentative,
				journal.OpSaveXid, journal.OpUnremove, journal.OpConfirmRemove,
			} {
				fmt.Fprintf(w, "%s:\t%d\n", op, counts[op])
			}
			if len(backups) == 0 {
				fmt.Fprintln(w, "Stale rotation backup:\tnone")
			} else {
				fmt.Fprintf(w, "Stale rotation backup:\t%s (crash mid-roll, safe to remove once the journal ahead of it is trusted)\n", backups[0])
			}
			return w.Flush()
		},
	}
	return cmd
}

// staleBackups reports rotation backups left behind by a roll that
// crashed after renaming the active file aside but before the rename
// was cleaned up. Roll names a backup "<path>.<unix-milli>".
func staleBackups(path string) ([]string, error) {
	matches, err := filepath.Glob(path + ".*")
	if err != nil {
		return nil, fmt.Errorf("journalctl: glob backups: %w", err)
	}
	return matches, nil
}
